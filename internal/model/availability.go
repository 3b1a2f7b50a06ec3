package model

import "time"

// Availability is a member's self-declared availability for a single
// date as stored in the `availability` table.  At most one row exists
// per (member, date); the absence of a row means "available".
//
// Fields:
//  ID          – primary key identifier.
//  MemberID    – the declaring member.
//  Date        – the calendar date the declaration applies to.
//  IsAvailable – availability flag.
//  Reason      – optional free-text reason.
//  CreatedAt   – timestamp of creation.
type Availability struct {
	ID          uint64    `json:"id"`           // availability.id
	MemberID    uint64    `json:"member_id"`    // availability.member_id
	Date        time.Time `json:"date"`         // availability.date
	IsAvailable bool      `json:"is_available"` // availability.is_available
	Reason      *string   `json:"reason"`       // availability.reason (nullable)
	CreatedAt   time.Time `json:"created_at"`   // availability.created_at
}

// BlockoutDate is a hard member-level unavailability as stored in the
// `blockout_dates` table.  Registering one over an existing assignment
// raises a conflict but never deletes the assignment; resolution is a
// separate manual action.
//
// Fields:
//  ID        – primary key identifier.
//  MemberID  – the blocked-out member.
//  Date      – the blocked calendar date.
//  Reason    – why the member is unavailable; last write wins.
//  CreatedAt – timestamp of creation.
type BlockoutDate struct {
	ID        uint64    `json:"id"`         // blockout_dates.id
	MemberID  uint64    `json:"member_id"`  // blockout_dates.member_id
	Date      time.Time `json:"date"`       // blockout_dates.date
	Reason    string    `json:"reason"`     // blockout_dates.reason
	CreatedAt time.Time `json:"created_at"` // blockout_dates.created_at
}
