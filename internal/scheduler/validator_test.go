package scheduler

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stgiuliani/roster-engine/internal/model"
)

func fluent(serviceType string) map[string]string {
	return map[string]string{serviceType: model.ProficiencyFluent}
}

func TestFrequencyRule(t *testing.T) {
	target := date("2026-03-01")

	tests := []struct {
		name          string
		committed     []string // dates of existing assignments
		wantConflict  bool
		wantMsgSuffix string
	}{
		{
			name:      "one prior serving passes",
			committed: []string{"2026-02-20"},
		},
		{
			name:          "two in window conflict",
			committed:     []string{"2026-02-10", "2026-02-22"},
			wantConflict:  true,
			wantMsgSuffix: "has already served twice in the past 4 weeks",
		},
		{
			name:          "window lower bound is inclusive",
			committed:     []string{"2026-02-01", "2026-02-22"}, // exactly 28 days before
			wantConflict:  true,
			wantMsgSuffix: "has already served twice in the past 4 weeks",
		},
		{
			name:      "servings outside window ignored",
			committed: []string{"2026-01-31", "2026-01-15"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			store.addMember(model.Member{ID: 1, FirstName: "Ana", LastName: "Rossi", LanguageSkills: fluent("english")})
			store.addRole(model.Role{ID: 10, Name: "Usher", Category: model.CategoryService})
			for _, d := range tt.committed {
				store.addCommitted(1, 10, date(d), "english")
			}

			result, err := NewValidator().ValidateOne(context.Background(), store, AssignmentRequest{
				MemberID: 1, RoleID: 10, Date: target, ServiceType: "english",
			})
			if err != nil {
				t.Fatalf("ValidateOne: %v", err)
			}
			conflicts := byRule(result.Conflicts, RuleFrequency)
			if tt.wantConflict {
				if len(conflicts) != 1 {
					t.Fatalf("want 1 frequency conflict, got %d", len(conflicts))
				}
				want := "Ana Rossi " + tt.wantMsgSuffix
				if conflicts[0].Message != want {
					t.Errorf("message = %q, want %q", conflicts[0].Message, want)
				}
			} else if len(conflicts) != 0 {
				t.Fatalf("unexpected frequency conflict: %+v", conflicts)
			}
		})
	}
}

func TestFrequencyRuleCountsEarlierBatchEntries(t *testing.T) {
	store := newFakeStore()
	store.addMember(model.Member{ID: 1, FirstName: "Ana", LastName: "Rossi", LanguageSkills: fluent("english")})
	store.addRole(model.Role{ID: 10, Name: "Usher", Category: model.CategoryService})
	store.addCommitted(1, 10, date("2026-02-20"), "english")

	reqs := []AssignmentRequest{
		{MemberID: 1, RoleID: 10, Date: date("2026-02-25"), ServiceType: "english"},
		{MemberID: 1, RoleID: 10, Date: date("2026-03-08"), ServiceType: "english"},
	}
	result, err := NewValidator().ValidateBatch(context.Background(), store, reqs)
	if err != nil {
		t.Fatalf("ValidateBatch: %v", err)
	}
	conflicts := byRule(result.Conflicts, RuleFrequency)
	if len(conflicts) != 1 {
		t.Fatalf("want the second batch entry rejected, got %d conflicts", len(conflicts))
	}
	if !sameDay(conflicts[0].Assignment.Date, date("2026-03-08")) {
		t.Errorf("conflict attributed to %v, want 2026-03-08", conflicts[0].Assignment.Date)
	}
}

func TestRoleConflictRule(t *testing.T) {
	store := newFakeStore()
	store.addMember(model.Member{ID: 1, FirstName: "Marco", LastName: "Bauer", LanguageSkills: fluent("english")})
	store.addRole(model.Role{ID: 10, Name: "Vocals", Category: model.CategoryStage})
	store.addRole(model.Role{ID: 11, Name: "Sound", Category: model.CategoryProduction})
	store.addCommitted(1, 10, date("2026-03-01"), "english")

	result, err := NewValidator().ValidateOne(context.Background(), store, AssignmentRequest{
		MemberID: 1, RoleID: 11, Date: date("2026-03-01"), ServiceType: "english",
	})
	if err != nil {
		t.Fatalf("ValidateOne: %v", err)
	}
	conflicts := byRule(result.Conflicts, RuleRoleConflict)
	if len(conflicts) != 1 {
		t.Fatalf("want 1 role conflict, got %d", len(conflicts))
	}
	if want := "Already assigned to Vocals on this date"; conflicts[0].Message != want {
		t.Errorf("message = %q, want %q", conflicts[0].Message, want)
	}
}

func TestRoleConflictRuleWithinBatch(t *testing.T) {
	store := newFakeStore()
	store.addMember(model.Member{ID: 1, FirstName: "Marco", LastName: "Bauer", LanguageSkills: fluent("english")})
	store.addRole(model.Role{ID: 10, Name: "Vocals", Category: model.CategoryStage})
	store.addRole(model.Role{ID: 11, Name: "Sound", Category: model.CategoryProduction})

	reqs := []AssignmentRequest{
		{MemberID: 1, RoleID: 10, Date: date("2026-03-01"), ServiceType: "english"},
		{MemberID: 1, RoleID: 11, Date: date("2026-03-01"), ServiceType: "english"},
	}
	result, err := NewValidator().ValidateBatch(context.Background(), store, reqs)
	if err != nil {
		t.Fatalf("ValidateBatch: %v", err)
	}
	conflicts := byRule(result.Conflicts, RuleRoleConflict)
	if len(conflicts) != 1 {
		t.Fatalf("want 1 role conflict, got %d", len(conflicts))
	}
	if want := "Already assigned to Vocals on this date"; conflicts[0].Message != want {
		t.Errorf("message = %q, want %q", conflicts[0].Message, want)
	}
}

func TestStageCapacityAcrossBatch(t *testing.T) {
	// Eleven stage assignments proposed together against an empty
	// schedule: the eleventh must be rejected even though nothing is
	// committed yet.
	store := newFakeStore()
	store.addRole(model.Role{ID: 10, Name: "Vocals", Category: model.CategoryStage})
	reqs := make([]AssignmentRequest, 0, 11)
	for i := uint64(1); i <= 11; i++ {
		store.addMember(model.Member{ID: i, FirstName: fmt.Sprintf("M%d", i), LanguageSkills: fluent("english")})
		reqs = append(reqs, AssignmentRequest{
			MemberID: i, RoleID: 10, Date: date("2026-03-01"), ServiceType: "english",
		})
	}

	result, err := NewValidator().ValidateBatch(context.Background(), store, reqs)
	if err != nil {
		t.Fatalf("ValidateBatch: %v", err)
	}
	conflicts := byRule(result.Conflicts, RuleCapacity)
	if len(conflicts) != 1 {
		t.Fatalf("want exactly the 11th entry rejected, got %d conflicts", len(conflicts))
	}
	if conflicts[0].Assignment.MemberID != 11 {
		t.Errorf("conflict attributed to member %d, want 11", conflicts[0].Assignment.MemberID)
	}
	if want := "Maximum stage capacity reached"; conflicts[0].Message != want {
		t.Errorf("message = %q, want %q", conflicts[0].Message, want)
	}
}

func TestRoleCapacity(t *testing.T) {
	store := newFakeStore()
	store.addMember(model.Member{ID: 1, FirstName: "Ana", LanguageSkills: fluent("english")})
	store.addMember(model.Member{ID: 2, FirstName: "Ben", LanguageSkills: fluent("english")})
	store.addMember(model.Member{ID: 3, FirstName: "Cy", LanguageSkills: fluent("english")})
	store.addRole(model.Role{ID: 20, Name: "Greeter", Category: model.CategoryService, MaxCapacity: ptrU32(2)})
	store.addCommitted(2, 20, date("2026-03-01"), "english")
	store.addCommitted(3, 20, date("2026-03-01"), "english")

	result, err := NewValidator().ValidateOne(context.Background(), store, AssignmentRequest{
		MemberID: 1, RoleID: 20, Date: date("2026-03-01"), ServiceType: "english",
	})
	if err != nil {
		t.Fatalf("ValidateOne: %v", err)
	}
	conflicts := byRule(result.Conflicts, RuleCapacity)
	if len(conflicts) != 1 {
		t.Fatalf("want 1 capacity conflict, got %d", len(conflicts))
	}
	if want := "Maximum capacity reached for this role"; conflicts[0].Message != want {
		t.Errorf("message = %q, want %q", conflicts[0].Message, want)
	}
}

func TestLanguageRule(t *testing.T) {
	tests := []struct {
		name         string
		skills       map[string]string
		wantConflict bool
	}{
		{name: "fluent passes", skills: map[string]string{"spanish": model.ProficiencyFluent}},
		{name: "basic rejected", skills: map[string]string{"spanish": model.ProficiencyBasic}, wantConflict: true},
		{name: "unknown service type rejected", skills: map[string]string{"english": model.ProficiencyFluent}, wantConflict: true},
		{name: "no skills rejected", skills: nil, wantConflict: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			store.addMember(model.Member{ID: 1, FirstName: "Luz", LanguageSkills: tt.skills})
			store.addRole(model.Role{ID: 10, Name: "Usher", Category: model.CategoryService})

			result, err := NewValidator().ValidateOne(context.Background(), store, AssignmentRequest{
				MemberID: 1, RoleID: 10, Date: date("2026-03-01"), ServiceType: "spanish",
			})
			if err != nil {
				t.Fatalf("ValidateOne: %v", err)
			}
			conflicts := byRule(result.Conflicts, RuleLanguage)
			if tt.wantConflict {
				if len(conflicts) != 1 {
					t.Fatalf("want 1 language conflict, got %d", len(conflicts))
				}
				if want := "Insufficient spanish language skills"; conflicts[0].Message != want {
					t.Errorf("message = %q, want %q", conflicts[0].Message, want)
				}
			} else if len(conflicts) != 0 {
				t.Fatalf("unexpected language conflict: %+v", conflicts)
			}
		})
	}
}

func TestFamilyRule(t *testing.T) {
	target := date("2026-03-01")
	dob14 := date("2012-01-15")
	dob20 := date("2006-01-15")

	tests := []struct {
		name          string
		dob           *time.Time
		prefEnabled   bool
		familyServing bool
		wantConflict  bool
	}{
		{name: "teen with preference and no family conflicts", dob: ptrTime(dob14), prefEnabled: true, wantConflict: true},
		{name: "teen with family serving passes", dob: ptrTime(dob14), prefEnabled: true, familyServing: true},
		{name: "teen without preference passes", dob: ptrTime(dob14)},
		{name: "adult with preference passes", dob: ptrTime(dob20), prefEnabled: true},
		{name: "unknown age passes", dob: nil, prefEnabled: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			store.addMember(model.Member{ID: 1, FirstName: "Lea", DateOfBirth: tt.dob, LanguageSkills: fluent("english")})
			store.addRole(model.Role{ID: 10, Name: "Usher", Category: model.CategoryService})
			store.prefEnabled[1] = tt.prefEnabled
			if tt.familyServing {
				store.familyServing[1] = []time.Time{target}
			}

			result, err := NewValidator().ValidateOne(context.Background(), store, AssignmentRequest{
				MemberID: 1, RoleID: 10, Date: target, ServiceType: "english",
			})
			if err != nil {
				t.Fatalf("ValidateOne: %v", err)
			}
			conflicts := byRule(result.Conflicts, RuleFamily)
			if tt.wantConflict {
				if len(conflicts) != 1 {
					t.Fatalf("want 1 family conflict, got %d", len(conflicts))
				}
				if want := "Member prefers to serve with family members"; conflicts[0].Message != want {
					t.Errorf("message = %q, want %q", conflicts[0].Message, want)
				}
			} else if len(conflicts) != 0 {
				t.Fatalf("unexpected family conflict: %+v", conflicts)
			}
		})
	}
}

func TestValidateBatchCollectsEveryConflict(t *testing.T) {
	// One member breaks the frequency rule, another the language rule;
	// both must be reported in one pass.
	store := newFakeStore()
	store.addMember(model.Member{ID: 1, FirstName: "Ana", LastName: "Rossi", LanguageSkills: fluent("english")})
	store.addMember(model.Member{ID: 2, FirstName: "Ben", LanguageSkills: map[string]string{"english": model.ProficiencyBasic}})
	store.addRole(model.Role{ID: 10, Name: "Usher", Category: model.CategoryService})
	store.addCommitted(1, 10, date("2026-02-10"), "english")
	store.addCommitted(1, 10, date("2026-02-20"), "english")

	reqs := []AssignmentRequest{
		{MemberID: 1, RoleID: 10, Date: date("2026-03-01"), ServiceType: "english"},
		{MemberID: 2, RoleID: 10, Date: date("2026-03-01"), ServiceType: "english"},
	}
	result, err := NewValidator().ValidateBatch(context.Background(), store, reqs)
	if err != nil {
		t.Fatalf("ValidateBatch: %v", err)
	}
	if result.IsValid {
		t.Fatal("batch reported valid despite two violations")
	}
	if len(byRule(result.Conflicts, RuleFrequency)) != 1 {
		t.Errorf("frequency conflict missing: %+v", result.Conflicts)
	}
	if len(byRule(result.Conflicts, RuleLanguage)) != 1 {
		t.Errorf("language conflict missing: %+v", result.Conflicts)
	}
}

func byRule(conflicts []ConflictRecord, rule string) []ConflictRecord {
	out := []ConflictRecord{}
	for _, c := range conflicts {
		if c.Rule == rule {
			out = append(out, c)
		}
	}
	return out
}
