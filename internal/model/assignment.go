package model

import "time"

// Assignment statuses.  An assignment starts as scheduled and moves to
// exactly one of confirmed or cancelled; both are terminal.
const (
	StatusScheduled = "scheduled"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

// Assignment binds one member to one role within one service instance
// as stored in the `rosters` table.  A member holds at most one role
// per service instance; this is enforced both by batch validation and
// by a unique key on (member_id, service_id).
//
// Fields:
//  ID        – primary key identifier.
//  MemberID  – member occupying the role.
//  RoleID    – role being filled.
//  ServiceID – service instance the assignment belongs to.
//  Status    – scheduled, confirmed or cancelled.
//  CreatedAt – timestamp of creation.
//  UpdatedAt – timestamp of last update.
type Assignment struct {
	ID        uint64    `json:"id"`         // rosters.id
	MemberID  uint64    `json:"member_id"`  // rosters.member_id
	RoleID    uint64    `json:"role_id"`    // rosters.role_id
	ServiceID uint64    `json:"service_id"` // rosters.service_id
	Status    string    `json:"status"`     // rosters.status
	CreatedAt time.Time `json:"created_at"` // rosters.created_at
	UpdatedAt time.Time `json:"updated_at"` // rosters.updated_at
}

// AssignmentDetail is an assignment joined with its service date and
// the names needed for display and conflict messages.  It is produced
// by read queries; the engine never writes it.
type AssignmentDetail struct {
	ID          uint64    `json:"id"`
	MemberID    uint64    `json:"member_id"`
	MemberName  string    `json:"member_name"`
	RoleID      uint64    `json:"role_id"`
	RoleName    string    `json:"role_name"`
	ServiceID   uint64    `json:"service_id"`
	ServiceType string    `json:"service_type"`
	Date        time.Time `json:"date"`
	Status      string    `json:"status"`
}

// ValidStatusTransition reports whether an assignment may move from
// one status to another.  Only scheduled assignments may change state.
func ValidStatusTransition(from, to string) bool {
	if from != StatusScheduled {
		return false
	}
	return to == StatusConfirmed || to == StatusCancelled
}
