package model

import "time"

// Role categories.  Stage roles share a fixed service-wide capacity in
// addition to any per-role cap.
const (
	CategoryStage      = "stage"
	CategoryProduction = "production"
	CategoryService    = "service"
)

// Role represents a serving position as stored in the `roles` table.
//
// Fields:
//  ID               – primary key identifier.
//  Name             – unique role name (e.g. "Vocals", "Guitar").
//  Category         – stage, production or service.
//  MaxCapacity      – optional cap on concurrent assignments per
//                     service instance; nil means unconstrained.
//  RequiresTraining – whether members must be trained before serving.
//  CreatedAt        – timestamp of creation.
type Role struct {
	ID               uint64    `json:"id"`                // roles.id
	Name             string    `json:"name"`              // roles.name
	Category         string    `json:"category"`          // roles.category
	MaxCapacity      *uint32   `json:"max_capacity"`      // roles.max_capacity (nullable)
	RequiresTraining bool      `json:"requires_training"` // roles.requires_training
	CreatedAt        time.Time `json:"created_at"`        // roles.created_at
}

// MemberRole links a member to a role they can fill, together with the
// skill level used by the candidate scorer and the preferred flag that
// grants a scoring bonus.  One row exists per (member, role).
//
// Fields:
//  MemberID    – the member holding the role.
//  RoleID      – the role held.
//  SkillLevel  – 0..N proficiency for the role.
//  IsPreferred – whether the member marked this role as preferred.
type MemberRole struct {
	MemberID    uint64 `json:"member_id"`    // member_roles.member_id
	RoleID      uint64 `json:"role_id"`      // member_roles.role_id
	SkillLevel  int    `json:"skill_level"`  // member_roles.skill_level
	IsPreferred bool   `json:"is_preferred"` // member_roles.is_preferred
}
