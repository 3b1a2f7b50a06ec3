package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/stgiuliani/roster-engine/internal/model"
)

// ExceptionManager handles out-of-band schedule changes: manual
// overrides, emergency substitutions and blockout-date registration.
// All of them must stay consistent with committed roster state, so
// every multi-row mutation runs under the same transactional
// discipline as roster creation.  Notification intents are raised
// after commit and never affect the outcome.
type ExceptionManager struct {
	store    ExceptionStore
	notifier Notifier
}

// NewExceptionManager wires the manager's collaborators together.
func NewExceptionManager(store ExceptionStore, notifier Notifier) *ExceptionManager {
	return &ExceptionManager{store: store, notifier: notifier}
}

// CreateOverride appends an override audit row and notifies the
// affected member.  It records administrative approval to bypass
// normal rule enforcement in a subsequent manual action; it does not
// itself change any roster row.
func (m *ExceptionManager) CreateOverride(ctx context.Context, memberID, roleID uint64, date time.Time, reason string, approvedBy uint64) (*model.Override, error) {
	ov := &model.Override{
		MemberID:   memberID,
		RoleID:     roleID,
		Date:       date,
		Reason:     reason,
		ApprovedBy: approvedBy,
	}
	err := m.store.Transaction(ctx, func(w ExceptionWriter) error {
		return w.InsertOverride(ctx, ov)
	})
	if err != nil {
		return nil, err
	}

	msg := fmt.Sprintf("An override has been created for your schedule on %s", date.Format(model.DateLayout))
	if err := m.notifier.Notify(ctx, memberID, "override_created", "Schedule Override Created", msg); err != nil {
		log.Printf("exception: override notification failed for member %d: %v", memberID, err)
	}
	return ov, nil
}

// HandleEmergencySubstitution atomically moves the assignment matching
// (role, date, original member) to the new member and appends a
// substitution audit row.  When no matching assignment exists the
// operation fails with ErrSubstitutionNotFound instead of silently
// succeeding.  Both members are notified after commit.
func (m *ExceptionManager) HandleEmergencySubstitution(ctx context.Context, originalMemberID, newMemberID, roleID uint64, date time.Time, reason string) (*model.Substitution, error) {
	sub := &model.Substitution{
		OriginalMemberID: originalMemberID,
		NewMemberID:      newMemberID,
		RoleID:           roleID,
		Date:             date,
		Reason:           reason,
	}
	err := m.store.Transaction(ctx, func(w ExceptionWriter) error {
		affected, err := w.ReassignAssignment(ctx, originalMemberID, newMemberID, roleID, date)
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrSubstitutionNotFound
		}
		return w.InsertSubstitution(ctx, sub)
	})
	if err != nil {
		return nil, err
	}

	day := date.Format(model.DateLayout)
	if err := m.notifier.Notify(ctx, originalMemberID, "substitution_out", "Schedule Substitution",
		fmt.Sprintf("You have been substituted out for %s", day)); err != nil {
		log.Printf("exception: substitution notification failed for member %d: %v", originalMemberID, err)
	}
	if err := m.notifier.Notify(ctx, newMemberID, "substitution_in", "Emergency Substitution",
		fmt.Sprintf("You have been assigned as a substitute for %s", day)); err != nil {
		log.Printf("exception: substitution notification failed for member %d: %v", newMemberID, err)
	}
	return sub, nil
}

// RecordBlockoutDate upserts a blockout row (idempotent on member and
// date, last reason wins) and returns any assignments the member
// already holds on that date.  Conflicting assignments are reported
// and notified, never auto-cancelled.
func (m *ExceptionManager) RecordBlockoutDate(ctx context.Context, memberID uint64, date time.Time, reason string) ([]model.AssignmentDetail, error) {
	if err := m.store.UpsertBlockout(ctx, memberID, date, reason); err != nil {
		return nil, err
	}

	conflicts, err := m.store.AssignmentsOn(ctx, memberID, date)
	if err != nil {
		return nil, err
	}
	if len(conflicts) > 0 {
		msg := fmt.Sprintf("You have existing assignments on %s that need to be reassigned", date.Format(model.DateLayout))
		if err := m.notifier.Notify(ctx, memberID, "blockout_conflict", "Schedule Conflict", msg); err != nil {
			log.Printf("exception: blockout notification failed for member %d: %v", memberID, err)
		}
	}
	return conflicts, nil
}

// Overrides lists the override audit rows for a date.
func (m *ExceptionManager) Overrides(ctx context.Context, date time.Time) ([]model.Override, error) {
	return m.store.Overrides(ctx, date)
}

// SubstitutionHistory lists the substitutions a member was involved in
// on either side, newest first.
func (m *ExceptionManager) SubstitutionHistory(ctx context.Context, memberID uint64) ([]model.Substitution, error) {
	return m.store.SubstitutionHistory(ctx, memberID)
}

// BlockoutDates lists a member's blockout dates within [from, to].
func (m *ExceptionManager) BlockoutDates(ctx context.Context, memberID uint64, from, to time.Time) ([]model.BlockoutDate, error) {
	return m.store.BlockoutDates(ctx, memberID, from, to)
}
