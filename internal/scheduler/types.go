// Package scheduler implements the roster assignment engine: constraint
// validation, candidate scoring, transactional roster creation, optimal
// schedule generation and the override/substitution/blockout subsystem.
// It talks to persistence and messaging through the narrow collaborator
// interfaces declared in store.go and never binds to a concrete driver.
package scheduler

import "time"

// AssignmentRequest describes one proposed binding of a member to a
// role on a dated service instance.  Requests are validated and
// committed in batches; the service instance itself is created lazily
// when the batch commits.
type AssignmentRequest struct {
	MemberID    uint64    `json:"member_id"`
	RoleID      uint64    `json:"role_id"`
	Date        time.Time `json:"date"`
	ServiceType string    `json:"service_type"`
}

// ConflictRecord reports a single violated rule for a single proposed
// assignment.  Batch validation collects every record it finds instead
// of stopping at the first one, so callers always see the full picture.
type ConflictRecord struct {
	Rule       string            `json:"rule"`
	Message    string            `json:"message"`
	Assignment AssignmentRequest `json:"assignment"`
}

// ValidationResult is the outcome of validating a proposed batch.
type ValidationResult struct {
	IsValid   bool             `json:"is_valid"`
	Conflicts []ConflictRecord `json:"conflicts"`
}

// ScoredCandidate is one member ranked for one role on one date.
type ScoredCandidate struct {
	MemberID uint64 `json:"member_id"`
	RoleID   uint64 `json:"role_id"`
	Score    int    `json:"score"`
}
