package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/stgiuliani/roster-engine/internal/model"
)

// Conflict types reported by the built-in rules.
const (
	RuleFrequency    = "frequency"
	RuleRoleConflict = "role_conflict"
	RuleCapacity     = "capacity"
	RuleLanguage     = "language"
	RuleFamily       = "family"
)

// frequencyWindowDays is the trailing window for the serving frequency
// rule; a member may serve at most twice within it.
const frequencyWindowDays = 28

// maxServingsPerWindow is the serving cap inside the frequency window.
const maxServingsPerWindow = 2

// stageCapacity is the fixed cap on concurrent stage-category
// assignments per service instance, independent of per-role limits.
const stageCapacity = 10

// RuleContext is the schedule state one rule evaluates against: the
// committed rows behind Store plus the assignments accepted earlier in
// the same proposed batch.  The pending overlay is what lets a batch
// check see cross-assignment effects (capacity, exclusivity) before
// anything is committed.
type RuleContext struct {
	Store   Store
	Pending []AssignmentRequest
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// pendingInWindow counts pending assignments for the member whose date
// falls within [from, to].
func (rc *RuleContext) pendingInWindow(memberID uint64, from, to time.Time) int {
	n := 0
	for _, p := range rc.Pending {
		if p.MemberID != memberID {
			continue
		}
		if p.Date.Before(from) || p.Date.After(to) {
			continue
		}
		n++
	}
	return n
}

// pendingOtherRole returns the role id of a pending assignment that
// puts the member on the same date with a different role, if any.
func (rc *RuleContext) pendingOtherRole(memberID, roleID uint64, date time.Time) (uint64, bool) {
	for _, p := range rc.Pending {
		if p.MemberID == memberID && sameDay(p.Date, date) && p.RoleID != roleID {
			return p.RoleID, true
		}
	}
	return 0, false
}

// pendingRoleCount counts pending assignments for (role, date, service type).
func (rc *RuleContext) pendingRoleCount(roleID uint64, date time.Time, serviceType string) int {
	n := 0
	for _, p := range rc.Pending {
		if p.RoleID == roleID && p.ServiceType == serviceType && sameDay(p.Date, date) {
			n++
		}
	}
	return n
}

// pendingStageCount counts pending assignments on (date, service type)
// whose role is stage-category.  Role categories are resolved through
// the store.
func (rc *RuleContext) pendingStageCount(ctx context.Context, date time.Time, serviceType string) (int, error) {
	n := 0
	for _, p := range rc.Pending {
		if p.ServiceType != serviceType || !sameDay(p.Date, date) {
			continue
		}
		role, err := rc.Store.RoleByID(ctx, p.RoleID)
		if err != nil {
			return 0, err
		}
		if role.Category == model.CategoryStage {
			n++
		}
	}
	return n, nil
}

// Rule is one independently evaluable scheduling constraint.  Rules
// share a single signature so the validator can treat them uniformly;
// adding or removing a rule never touches the orchestration logic.
// A nil ConflictRecord means the rule is satisfied.
type Rule interface {
	Name() string
	Check(ctx context.Context, rc *RuleContext, req AssignmentRequest) (*ConflictRecord, error)
}

// Validator evaluates a registered, ordered collection of rules.
type Validator struct {
	rules []Rule
}

// NewValidator returns a validator loaded with the built-in rules:
// serving frequency, same-day role exclusivity, capacity, language
// proficiency and family grouping.
func NewValidator() *Validator {
	return &Validator{rules: []Rule{
		frequencyRule{},
		roleConflictRule{},
		capacityRule{},
		languageRule{},
		familyRule{},
	}}
}

// Register appends an additional rule to the collection.
func (v *Validator) Register(r Rule) {
	v.rules = append(v.rules, r)
}

// ValidateBatch evaluates every rule against every assignment in the
// proposed set and returns the full list of conflicts found.  It never
// stops at the first failure.  Each assignment is additionally checked
// against the assignments before it in the batch, so a set that only
// collectively breaches a capacity or exclusivity limit still fails.
func (v *Validator) ValidateBatch(ctx context.Context, store Store, reqs []AssignmentRequest) (*ValidationResult, error) {
	rc := &RuleContext{Store: store}
	conflicts := make([]ConflictRecord, 0)
	for i, req := range reqs {
		rc.Pending = reqs[:i]
		for _, rule := range v.rules {
			rec, err := rule.Check(ctx, rc, req)
			if err != nil {
				return nil, err
			}
			if rec != nil {
				conflicts = append(conflicts, *rec)
			}
		}
	}
	return &ValidationResult{IsValid: len(conflicts) == 0, Conflicts: conflicts}, nil
}

// ValidateOne evaluates all rules for a single assignment against
// committed state only.
func (v *Validator) ValidateOne(ctx context.Context, store Store, req AssignmentRequest) (*ValidationResult, error) {
	return v.ValidateBatch(ctx, store, []AssignmentRequest{req})
}

// frequencyRule rejects members who already served twice in the
// trailing 28-day window ending on the target date (both bounds
// inclusive).
type frequencyRule struct{}

func (frequencyRule) Name() string { return RuleFrequency }

func (frequencyRule) Check(ctx context.Context, rc *RuleContext, req AssignmentRequest) (*ConflictRecord, error) {
	from := req.Date.AddDate(0, 0, -frequencyWindowDays)
	count, err := rc.Store.CountAssignmentsInWindow(ctx, req.MemberID, from, req.Date)
	if err != nil {
		return nil, err
	}
	count += rc.pendingInWindow(req.MemberID, from, req.Date)
	if count < maxServingsPerWindow {
		return nil, nil
	}
	member, err := rc.Store.MemberByID(ctx, req.MemberID)
	if err != nil {
		return nil, err
	}
	return &ConflictRecord{
		Rule:       RuleFrequency,
		Message:    fmt.Sprintf("%s has already served twice in the past 4 weeks", member.FullName()),
		Assignment: req,
	}, nil
}

// roleConflictRule rejects a second same-day assignment with a
// different role; a member holds at most one role per service instance.
type roleConflictRule struct{}

func (roleConflictRule) Name() string { return RuleRoleConflict }

func (roleConflictRule) Check(ctx context.Context, rc *RuleContext, req AssignmentRequest) (*ConflictRecord, error) {
	existing, err := rc.Store.AssignmentsOn(ctx, req.MemberID, req.Date)
	if err != nil {
		return nil, err
	}
	for _, a := range existing {
		if a.RoleID != req.RoleID {
			return &ConflictRecord{
				Rule:       RuleRoleConflict,
				Message:    fmt.Sprintf("Already assigned to %s on this date", a.RoleName),
				Assignment: req,
			}, nil
		}
	}
	if otherID, ok := rc.pendingOtherRole(req.MemberID, req.RoleID, req.Date); ok {
		role, err := rc.Store.RoleByID(ctx, otherID)
		if err != nil {
			return nil, err
		}
		return &ConflictRecord{
			Rule:       RuleRoleConflict,
			Message:    fmt.Sprintf("Already assigned to %s on this date", role.Name),
			Assignment: req,
		}, nil
	}
	return nil, nil
}

// capacityRule enforces the fixed stage-wide cap for stage-category
// roles and the optional per-role cap for everything configured with
// one.  Roles without a configured capacity are unconstrained.
type capacityRule struct{}

func (capacityRule) Name() string { return RuleCapacity }

func (capacityRule) Check(ctx context.Context, rc *RuleContext, req AssignmentRequest) (*ConflictRecord, error) {
	role, err := rc.Store.RoleByID(ctx, req.RoleID)
	if err != nil {
		return nil, err
	}
	if role.Category == model.CategoryStage {
		committed, err := rc.Store.CountStageAssignments(ctx, req.Date, req.ServiceType)
		if err != nil {
			return nil, err
		}
		pending, err := rc.pendingStageCount(ctx, req.Date, req.ServiceType)
		if err != nil {
			return nil, err
		}
		if committed+pending >= stageCapacity {
			return &ConflictRecord{
				Rule:       RuleCapacity,
				Message:    "Maximum stage capacity reached",
				Assignment: req,
			}, nil
		}
	}
	if role.MaxCapacity != nil {
		committed, err := rc.Store.CountRoleAssignments(ctx, req.RoleID, req.Date, req.ServiceType)
		if err != nil {
			return nil, err
		}
		total := committed + rc.pendingRoleCount(req.RoleID, req.Date, req.ServiceType)
		if uint32(total) >= *role.MaxCapacity {
			return &ConflictRecord{
				Rule:       RuleCapacity,
				Message:    "Maximum capacity reached for this role",
				Assignment: req,
			}, nil
		}
	}
	return nil, nil
}

// languageRule requires fluent proficiency in the service type's
// language; basic is not enough.
type languageRule struct{}

func (languageRule) Name() string { return RuleLanguage }

func (languageRule) Check(ctx context.Context, rc *RuleContext, req AssignmentRequest) (*ConflictRecord, error) {
	member, err := rc.Store.MemberByID(ctx, req.MemberID)
	if err != nil {
		return nil, err
	}
	if member.Proficiency(req.ServiceType) == model.ProficiencyFluent {
		return nil, nil
	}
	return &ConflictRecord{
		Rule:       RuleLanguage,
		Message:    fmt.Sprintf("Insufficient %s language skills", req.ServiceType),
		Assignment: req,
	}, nil
}

// familyRule applies to members aged 12 to 16 with the
// family_serve_together preference enabled: their assignment is valid
// only when a linked family member already serves on the same date.
type familyRule struct{}

func (familyRule) Name() string { return RuleFamily }

func (familyRule) Check(ctx context.Context, rc *RuleContext, req AssignmentRequest) (*ConflictRecord, error) {
	enabled, err := rc.Store.PreferenceEnabled(ctx, req.MemberID, model.PreferenceFamilyServeTogether)
	if err != nil {
		return nil, err
	}
	if !enabled {
		return nil, nil
	}
	member, err := rc.Store.MemberByID(ctx, req.MemberID)
	if err != nil {
		return nil, err
	}
	age := member.AgeOn(req.Date)
	if age < 12 || age > 16 {
		return nil, nil
	}
	serving, err := rc.Store.HasFamilyMemberServing(ctx, req.MemberID, req.Date)
	if err != nil {
		return nil, err
	}
	if serving {
		return nil, nil
	}
	return &ConflictRecord{
		Rule:       RuleFamily,
		Message:    "Member prefers to serve with family members",
		Assignment: req,
	}, nil
}
