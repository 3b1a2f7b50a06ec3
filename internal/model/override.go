package model

import "time"

// Override is an administrator-approved exception to normal assignment
// rules as stored in the `roster_overrides` table.  The table is an
// append-only audit log; recording an override never mutates roster
// rows by itself.
//
// Fields:
//  ID         – primary key identifier.
//  MemberID   – member the exception applies to.
//  RoleID     – role the exception applies to.
//  Date       – service date the exception applies to.
//  Reason     – justification supplied by the approver.
//  ApprovedBy – member id of the approving administrator.
//  CreatedAt  – timestamp of creation.
//  MemberName – display name, populated on read via join.
//  RoleName   – role name, populated on read via join.
type Override struct {
	ID         uint64    `json:"id"`          // roster_overrides.id
	MemberID   uint64    `json:"member_id"`   // roster_overrides.member_id
	RoleID     uint64    `json:"role_id"`     // roster_overrides.role_id
	Date       time.Time `json:"date"`        // roster_overrides.date
	Reason     string    `json:"reason"`      // roster_overrides.reason
	ApprovedBy uint64    `json:"approved_by"` // roster_overrides.approved_by
	CreatedAt  time.Time `json:"created_at"`  // roster_overrides.created_at
	MemberName string    `json:"member_name,omitempty"`
	RoleName   string    `json:"role_name,omitempty"`
}

// Substitution records one member replacing another in an existing
// assignment, stored in the `roster_substitutions` table.  The row is
// created atomically with the roster update it documents.
//
// Fields:
//  ID               – primary key identifier.
//  OriginalMemberID – member substituted out.
//  NewMemberID      – member substituted in.
//  RoleID           – role affected.
//  Date             – service date affected.
//  Reason           – why the substitution happened.
//  CreatedAt        – timestamp of creation.
//  OriginalName     – outgoing member's name, populated on read.
//  NewName          – incoming member's name, populated on read.
//  RoleName         – role name, populated on read.
type Substitution struct {
	ID               uint64    `json:"id"`                 // roster_substitutions.id
	OriginalMemberID uint64    `json:"original_member_id"` // roster_substitutions.original_member_id
	NewMemberID      uint64    `json:"new_member_id"`      // roster_substitutions.new_member_id
	RoleID           uint64    `json:"role_id"`            // roster_substitutions.role_id
	Date             time.Time `json:"date"`               // roster_substitutions.date
	Reason           string    `json:"reason"`             // roster_substitutions.reason
	CreatedAt        time.Time `json:"created_at"`         // roster_substitutions.created_at
	OriginalName     string    `json:"original_name,omitempty"`
	NewName          string    `json:"new_name,omitempty"`
	RoleName         string    `json:"role_name,omitempty"`
}
