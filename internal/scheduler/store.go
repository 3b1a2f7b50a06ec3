package scheduler

import (
	"context"
	"time"

	"github.com/stgiuliani/roster-engine/internal/model"
)

// Store exposes the committed schedule state the engine reads during
// validation and scoring, plus the transactional writer used to commit
// a roster batch.  The SQL implementation lives in internal/repository;
// tests substitute in-memory fakes.
type Store interface {
	// MemberByID returns the member or repository.ErrMemberNotFound.
	MemberByID(ctx context.Context, id uint64) (*model.Member, error)
	// RoleByID returns the role or repository.ErrRoleNotFound.
	RoleByID(ctx context.Context, id uint64) (*model.Role, error)

	// CountAssignmentsInWindow counts a member's assignments whose
	// service date satisfies from <= date <= to (both inclusive).
	CountAssignmentsInWindow(ctx context.Context, memberID uint64, from, to time.Time) (int, error)
	// CountRecentAssignments counts a member's assignments in the 28
	// days strictly before date.  The upper bound is exclusive, unlike
	// CountAssignmentsInWindow; the scorer depends on that.
	CountRecentAssignments(ctx context.Context, memberID uint64, date time.Time) (int, error)
	// AssignmentsOn lists a member's assignments on the given date.
	AssignmentsOn(ctx context.Context, memberID uint64, date time.Time) ([]model.AssignmentDetail, error)
	// CountRoleAssignments counts committed assignments for a role on
	// one service instance.
	CountRoleAssignments(ctx context.Context, roleID uint64, date time.Time, serviceType string) (int, error)
	// CountStageAssignments counts committed stage-category assignments
	// on one service instance, across all roles.
	CountStageAssignments(ctx context.Context, date time.Time, serviceType string) (int, error)

	// SkillLevel returns the member's skill for the role, 0 when the
	// member does not hold the role.
	SkillLevel(ctx context.Context, memberID, roleID uint64) (int, error)
	// IsPreferredRole reports whether the member marked the role preferred.
	IsPreferredRole(ctx context.Context, memberID, roleID uint64) (bool, error)
	// PreferenceEnabled reports whether the member has the named
	// serving preference enabled.
	PreferenceEnabled(ctx context.Context, memberID uint64, preferenceType string) (bool, error)
	// HasFamilyMemberServing reports whether any member linked to the
	// given member by a family relationship holds an assignment on date.
	HasFamilyMemberServing(ctx context.Context, memberID uint64, date time.Time) (bool, error)

	// AssignmentByID returns a committed assignment row.
	AssignmentByID(ctx context.Context, id uint64) (*model.Assignment, error)
	// SetAssignmentStatus updates a single assignment's status.
	SetAssignmentStatus(ctx context.Context, id uint64, status string) error

	// Transaction runs fn inside one atomic transaction.  Every write
	// performed through the RosterWriter is rolled back when fn returns
	// an error and committed otherwise.
	Transaction(ctx context.Context, fn func(RosterWriter) error) error
}

// RosterWriter is the write surface available inside a roster
// transaction.  It is the only path that mutates rosters and services.
type RosterWriter interface {
	// EnsureServiceInstance returns the id of the service instance for
	// (date, serviceType), creating it with default times when absent.
	// A concurrent creation losing the insert race is treated as
	// "already exists" and resolved to the winner's row.
	EnsureServiceInstance(ctx context.Context, date time.Time, serviceType string) (uint64, error)
	// LockServiceInstance takes an exclusive lock on the service
	// instance row for the remainder of the transaction.  Concurrent
	// batch commits against the same instance serialize here, so the
	// capacity counts below cannot go stale before the inserts land.
	LockServiceInstance(ctx context.Context, serviceID uint64) error
	// CountStageAssignments counts stage-category assignments on the
	// service instance as seen inside the transaction, including rows
	// this transaction already inserted.
	CountStageAssignments(ctx context.Context, serviceID uint64) (int, error)
	// CountRoleAssignments counts assignments for one role on the
	// service instance as seen inside the transaction.
	CountRoleAssignments(ctx context.Context, serviceID, roleID uint64) (int, error)
	// InsertAssignment inserts one scheduled assignment row.
	InsertAssignment(ctx context.Context, serviceID uint64, req AssignmentRequest) (*model.Assignment, error)
}

// ExceptionStore persists overrides, substitutions and blockout dates
// and serves the audit queries over them.
type ExceptionStore interface {
	// Transaction runs fn inside one atomic transaction.
	Transaction(ctx context.Context, fn func(ExceptionWriter) error) error
	// UpsertBlockout records a blockout date, idempotent on
	// (member, date); the latest reason wins.
	UpsertBlockout(ctx context.Context, memberID uint64, date time.Time, reason string) error
	// AssignmentsOn lists a member's assignments on the given date.
	AssignmentsOn(ctx context.Context, memberID uint64, date time.Time) ([]model.AssignmentDetail, error)

	// Overrides lists override audit rows for a date.
	Overrides(ctx context.Context, date time.Time) ([]model.Override, error)
	// SubstitutionHistory lists substitutions involving a member on
	// either side, newest first.
	SubstitutionHistory(ctx context.Context, memberID uint64) ([]model.Substitution, error)
	// BlockoutDates lists a member's blockouts within [from, to].
	BlockoutDates(ctx context.Context, memberID uint64, from, to time.Time) ([]model.BlockoutDate, error)
}

// ExceptionWriter is the write surface available inside an exception
// transaction.
type ExceptionWriter interface {
	// InsertOverride appends an override audit row and fills in its id.
	InsertOverride(ctx context.Context, ov *model.Override) error
	// ReassignAssignment moves the assignment matching (original
	// member, role, date) to the new member and returns the number of
	// rows affected.
	ReassignAssignment(ctx context.Context, originalMemberID, newMemberID, roleID uint64, date time.Time) (int64, error)
	// InsertSubstitution appends a substitution audit row and fills in
	// its id.
	InsertSubstitution(ctx context.Context, sub *model.Substitution) error
}

// AvailabilityProvider yields the members eligible to fill a role on a
// date.  Members with an explicit "not available" declaration or a
// blockout date are excluded; everyone else holding the role is in.
type AvailabilityProvider interface {
	AvailableMembers(ctx context.Context, date time.Time, roleID uint64) ([]model.Member, error)
}

// Notifier raises notification intents.  Delivery is fire-and-forget
// relative to the operation that produced the intent: errors are
// reported to the caller for logging but must never roll back
// committed schedule state.
type Notifier interface {
	Notify(ctx context.Context, memberID uint64, kind, title, message string) error
}
