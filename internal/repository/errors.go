// Package repository implements the persistence collaborators of the
// scheduling engine on MySQL.  Sentinel errors defined here let higher
// layers distinguish failure scenarios without inspecting driver
// errors: not-found conditions map to 404 responses, ErrEmailTaken to
// 409, and ErrConflict to operations blocked by dependent rows.
package repository

import (
	"errors"
	"strings"
)

// ErrMemberNotFound is returned when a member id or email matches no row.
var ErrMemberNotFound = errors.New("member not found")

// ErrRoleNotFound is returned when a role id matches no row.
var ErrRoleNotFound = errors.New("role not found")

// ErrAssignmentNotFound is returned when an assignment id matches no row.
var ErrAssignmentNotFound = errors.New("assignment not found")

// ErrEmailTaken is returned when creating a member with an email that
// already exists.
var ErrEmailTaken = errors.New("email already registered")

// ErrConflict is returned when an update or delete cannot proceed
// because of dependent rows, such as removing a role a member still
// has future assignments for.
var ErrConflict = errors.New("conflict")

// isDuplicateKey reports whether err is a MySQL duplicate-entry error
// (error code 1062).  Unique-key races on idempotent inserts are
// recovered through this check rather than propagated.
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1062")
}
