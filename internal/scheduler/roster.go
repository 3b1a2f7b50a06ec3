package scheduler

import (
	"context"

	"github.com/stgiuliani/roster-engine/internal/model"
)

// RosterManager is the only writer of roster state.  It validates a
// proposed batch against committed state, then commits the whole batch
// in one atomic transaction or not at all.
type RosterManager struct {
	store     Store
	validator *Validator
}

// NewRosterManager returns a manager committing through the given
// store and validating with the given validator.
func NewRosterManager(store Store, validator *Validator) *RosterManager {
	return &RosterManager{store: store, validator: validator}
}

// ValidateAssignments runs batch validation without committing
// anything.  The result carries every conflict found.
func (m *RosterManager) ValidateAssignments(ctx context.Context, reqs []AssignmentRequest) (*ValidationResult, error) {
	return m.validator.ValidateBatch(ctx, m.store, reqs)
}

// CreateRoster validates and commits a batch of assignments.  When any
// assignment violates any rule the whole operation aborts with a
// *ValidationError carrying all conflicts and nothing is persisted.
// Otherwise each assignment's service instance is ensured (created
// idempotently when absent) and the assignment row is inserted with
// status scheduled, all inside one transaction; any store failure
// rolls back the entire batch including speculatively created service
// instances.
func (m *RosterManager) CreateRoster(ctx context.Context, reqs []AssignmentRequest) ([]model.Assignment, error) {
	if len(reqs) == 0 {
		return []model.Assignment{}, nil
	}
	result, err := m.validator.ValidateBatch(ctx, m.store, reqs)
	if err != nil {
		return nil, err
	}
	if !result.IsValid {
		return nil, &ValidationError{Message: "invalid roster assignments", Conflicts: result.Conflicts}
	}

	created := make([]model.Assignment, 0, len(reqs))
	err = m.store.Transaction(ctx, func(w RosterWriter) error {
		locked := make(map[uint64]bool)
		for _, req := range reqs {
			serviceID, err := w.EnsureServiceInstance(ctx, req.Date, req.ServiceType)
			if err != nil {
				return err
			}
			if !locked[serviceID] {
				if err := w.LockServiceInstance(ctx, serviceID); err != nil {
					return err
				}
				locked[serviceID] = true
			}
			if err := m.recheckCapacity(ctx, w, serviceID, req); err != nil {
				return err
			}
			a, err := w.InsertAssignment(ctx, serviceID, req)
			if err != nil {
				return err
			}
			created = append(created, *a)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// recheckCapacity repeats the capacity counts inside the transaction,
// under the service instance row lock.  Batch validation ran against
// committed state before the transaction opened; a concurrent batch
// committing in between would otherwise let both batches through the
// stage or per-role cap.  The transactional counts include rows this
// batch already inserted, so earlier entries of the batch are covered
// as well.
func (m *RosterManager) recheckCapacity(ctx context.Context, w RosterWriter, serviceID uint64, req AssignmentRequest) error {
	role, err := m.store.RoleByID(ctx, req.RoleID)
	if err != nil {
		return err
	}
	if role.Category == model.CategoryStage {
		n, err := w.CountStageAssignments(ctx, serviceID)
		if err != nil {
			return err
		}
		if n >= stageCapacity {
			return &ValidationError{Message: "invalid roster assignments", Conflicts: []ConflictRecord{{
				Rule:       RuleCapacity,
				Message:    "Maximum stage capacity reached",
				Assignment: req,
			}}}
		}
	}
	if role.MaxCapacity != nil {
		n, err := w.CountRoleAssignments(ctx, serviceID, req.RoleID)
		if err != nil {
			return err
		}
		if uint32(n) >= *role.MaxCapacity {
			return &ValidationError{Message: "invalid roster assignments", Conflicts: []ConflictRecord{{
				Rule:       RuleCapacity,
				Message:    "Maximum capacity reached for this role",
				Assignment: req,
			}}}
		}
	}
	return nil
}

// UpdateAssignmentStatus moves an assignment along the
// scheduled -> confirmed | cancelled state machine.  Any other
// transition fails with ErrInvalidTransition.
func (m *RosterManager) UpdateAssignmentStatus(ctx context.Context, id uint64, status string) (*model.Assignment, error) {
	a, err := m.store.AssignmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !model.ValidStatusTransition(a.Status, status) {
		return nil, ErrInvalidTransition
	}
	if err := m.store.SetAssignmentStatus(ctx, id, status); err != nil {
		return nil, err
	}
	a.Status = status
	return a, nil
}
