package scheduler

import (
	"context"
	"testing"

	"github.com/stgiuliani/roster-engine/internal/model"
)

func rosterFixture() (*fakeStore, *RosterManager) {
	store := newFakeStore()
	store.addMember(model.Member{ID: 1, FirstName: "Ana", LanguageSkills: fluent("english")})
	store.addMember(model.Member{ID: 2, FirstName: "Ben", LanguageSkills: fluent("english")})
	store.addRole(model.Role{ID: 10, Name: "Vocals", Category: model.CategoryStage})
	store.addRole(model.Role{ID: 11, Name: "Sound", Category: model.CategoryProduction})
	return store, NewRosterManager(store, NewValidator())
}

func TestCreateRosterEmptyBatch(t *testing.T) {
	store, mgr := rosterFixture()
	created, err := mgr.CreateRoster(context.Background(), nil)
	if err != nil {
		t.Fatalf("CreateRoster: %v", err)
	}
	if len(created) != 0 {
		t.Errorf("created = %+v, want empty", created)
	}
	if store.txCalls != 0 {
		t.Errorf("transaction opened for an empty batch")
	}
}

func TestCreateRosterCommitsWholeBatch(t *testing.T) {
	store, mgr := rosterFixture()
	reqs := []AssignmentRequest{
		{MemberID: 1, RoleID: 10, Date: date("2026-03-01"), ServiceType: "english"},
		{MemberID: 2, RoleID: 11, Date: date("2026-03-01"), ServiceType: "english"},
	}

	created, err := mgr.CreateRoster(context.Background(), reqs)
	if err != nil {
		t.Fatalf("CreateRoster: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("created %d assignments, want 2", len(created))
	}
	for _, a := range created {
		if a.Status != model.StatusScheduled {
			t.Errorf("assignment %d status = %q, want scheduled", a.ID, a.Status)
		}
	}
	// Both assignments share the same date and service type, so exactly
	// one service instance must exist and both rows must point at it.
	if len(store.services) != 1 {
		t.Errorf("service instances = %d, want 1", len(store.services))
	}
	if created[0].ServiceID != created[1].ServiceID {
		t.Errorf("assignments committed to different service instances: %d vs %d", created[0].ServiceID, created[1].ServiceID)
	}
}

func TestCreateRosterRejectsInvalidBatchEntirely(t *testing.T) {
	store, mgr := rosterFixture()
	store.addMember(model.Member{ID: 3, FirstName: "Cy", LanguageSkills: map[string]string{"english": model.ProficiencyBasic}})
	reqs := []AssignmentRequest{
		{MemberID: 1, RoleID: 10, Date: date("2026-03-01"), ServiceType: "english"}, // valid
		{MemberID: 3, RoleID: 11, Date: date("2026-03-01"), ServiceType: "english"}, // fails language rule
	}

	_, err := mgr.CreateRoster(context.Background(), reqs)
	ve, ok := AsValidationError(err)
	if !ok {
		t.Fatalf("err = %v, want *ValidationError", err)
	}
	if len(ve.Conflicts) != 1 {
		t.Errorf("conflicts = %+v, want 1", ve.Conflicts)
	}
	if store.txCalls != 0 {
		t.Errorf("transaction opened despite failed validation")
	}
	if len(store.inserted) != 0 {
		t.Errorf("assignments persisted despite failed validation: %+v", store.inserted)
	}
}

func TestCreateRosterRollsBackOnStoreFailure(t *testing.T) {
	store, mgr := rosterFixture()
	store.failInsertMember = 2
	reqs := []AssignmentRequest{
		{MemberID: 1, RoleID: 10, Date: date("2026-03-01"), ServiceType: "english"},
		{MemberID: 2, RoleID: 11, Date: date("2026-03-01"), ServiceType: "english"},
	}

	if _, err := mgr.CreateRoster(context.Background(), reqs); err == nil {
		t.Fatal("want error when an insert fails mid-batch")
	}
	if len(store.inserted) != 0 {
		t.Errorf("partial batch persisted: %+v", store.inserted)
	}
	// The speculatively created service instance must be rolled back too.
	if len(store.services) != 0 {
		t.Errorf("service instances survived rollback: %+v", store.services)
	}
}

func TestCreateRosterRecheckStopsConcurrentStageOverfill(t *testing.T) {
	store, mgr := rosterFixture()
	// Nine stage slots taken at validation time; a concurrent batch
	// commits the tenth between validation and this transaction.
	for i := 0; i < 9; i++ {
		store.addCommitted(uint64(100+i), 10, date("2026-03-01"), "english")
	}
	store.beforeTx = func() {
		store.addCommitted(200, 10, date("2026-03-01"), "english")
	}
	reqs := []AssignmentRequest{
		{MemberID: 1, RoleID: 10, Date: date("2026-03-01"), ServiceType: "english"},
	}

	_, err := mgr.CreateRoster(context.Background(), reqs)
	ve, ok := AsValidationError(err)
	if !ok {
		t.Fatalf("err = %v, want *ValidationError", err)
	}
	if len(ve.Conflicts) != 1 || ve.Conflicts[0].Message != "Maximum stage capacity reached" {
		t.Errorf("conflicts = %+v, want single stage capacity conflict", ve.Conflicts)
	}
	if len(store.locked) != 1 {
		t.Errorf("service instance locks taken = %d, want 1", len(store.locked))
	}
	if len(store.inserted) != 0 {
		t.Errorf("assignments persisted past the capacity recheck: %+v", store.inserted)
	}
}

func TestCreateRosterRecheckStopsConcurrentRoleOverfill(t *testing.T) {
	store, mgr := rosterFixture()
	store.addRole(model.Role{ID: 12, Name: "Piano", Category: model.CategoryProduction, MaxCapacity: ptrU32(1)})
	store.beforeTx = func() {
		store.addCommitted(200, 12, date("2026-03-01"), "english")
	}
	reqs := []AssignmentRequest{
		{MemberID: 1, RoleID: 12, Date: date("2026-03-01"), ServiceType: "english"},
	}

	_, err := mgr.CreateRoster(context.Background(), reqs)
	ve, ok := AsValidationError(err)
	if !ok {
		t.Fatalf("err = %v, want *ValidationError", err)
	}
	if len(ve.Conflicts) != 1 || ve.Conflicts[0].Message != "Maximum capacity reached for this role" {
		t.Errorf("conflicts = %+v, want single role capacity conflict", ve.Conflicts)
	}
	if len(store.inserted) != 0 {
		t.Errorf("assignments persisted past the capacity recheck: %+v", store.inserted)
	}
}

func TestCreateRosterLocksEachServiceInstanceOnce(t *testing.T) {
	store, mgr := rosterFixture()
	reqs := []AssignmentRequest{
		{MemberID: 1, RoleID: 10, Date: date("2026-03-01"), ServiceType: "english"},
		{MemberID: 2, RoleID: 11, Date: date("2026-03-01"), ServiceType: "english"},
	}

	if _, err := mgr.CreateRoster(context.Background(), reqs); err != nil {
		t.Fatalf("CreateRoster: %v", err)
	}
	if len(store.locked) != 1 {
		t.Errorf("service instance locks taken = %d, want 1 for a single instance", len(store.locked))
	}
}

func TestUpdateAssignmentStatus(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      string
		wantErr error
	}{
		{name: "scheduled to confirmed", from: model.StatusScheduled, to: model.StatusConfirmed},
		{name: "scheduled to cancelled", from: model.StatusScheduled, to: model.StatusCancelled},
		{name: "confirmed is terminal", from: model.StatusConfirmed, to: model.StatusCancelled, wantErr: ErrInvalidTransition},
		{name: "cancelled is terminal", from: model.StatusCancelled, to: model.StatusConfirmed, wantErr: ErrInvalidTransition},
		{name: "unknown target rejected", from: model.StatusScheduled, to: "archived", wantErr: ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mgr := rosterFixture()
			store.byID[42] = &model.Assignment{ID: 42, MemberID: 1, RoleID: 10, Status: tt.from}

			a, err := mgr.UpdateAssignmentStatus(context.Background(), 42, tt.to)
			if tt.wantErr != nil {
				if err != tt.wantErr {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				if store.byID[42].Status != tt.from {
					t.Errorf("status mutated to %q despite rejected transition", store.byID[42].Status)
				}
				return
			}
			if err != nil {
				t.Fatalf("UpdateAssignmentStatus: %v", err)
			}
			if a.Status != tt.to {
				t.Errorf("returned status = %q, want %q", a.Status, tt.to)
			}
			if store.byID[42].Status != tt.to {
				t.Errorf("stored status = %q, want %q", store.byID[42].Status, tt.to)
			}
		})
	}
}
