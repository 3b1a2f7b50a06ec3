package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/stgiuliani/roster-engine/internal/model"
)

// RoleRepo provides operations on serving roles and on the
// member_roles link table that records who can fill which role at
// which skill level.
type RoleRepo struct {
	db *sql.DB
}

// NewRoleRepo returns a new RoleRepo bound to the given database.
func NewRoleRepo(db *sql.DB) *RoleRepo { return &RoleRepo{db: db} }

// GetByID returns a role by id or ErrRoleNotFound.
func (r *RoleRepo) GetByID(ctx context.Context, id uint64) (*model.Role, error) {
	const q = `SELECT id, name, category, max_capacity, requires_training, created_at FROM roles WHERE id = ?`
	var role model.Role
	var maxCap sql.NullInt64
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&role.ID, &role.Name, &role.Category, &maxCap, &role.RequiresTraining, &role.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrRoleNotFound
		}
		return nil, err
	}
	if maxCap.Valid {
		c := uint32(maxCap.Int64)
		role.MaxCapacity = &c
	}
	return &role, nil
}

// List returns all roles ordered by category and name.
func (r *RoleRepo) List(ctx context.Context) ([]model.Role, error) {
	const q = `SELECT id, name, category, max_capacity, requires_training, created_at FROM roles ORDER BY category, name`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	roles := make([]model.Role, 0)
	for rows.Next() {
		var role model.Role
		var maxCap sql.NullInt64
		if err := rows.Scan(&role.ID, &role.Name, &role.Category, &maxCap, &role.RequiresTraining, &role.CreatedAt); err != nil {
			return nil, err
		}
		if maxCap.Valid {
			c := uint32(maxCap.Int64)
			role.MaxCapacity = &c
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// AssignToMember grants a member a role at the given skill level,
// updating the level when the link already exists.
func (r *RoleRepo) AssignToMember(ctx context.Context, memberID, roleID uint64, skillLevel int, preferred bool) error {
	const q = `INSERT INTO member_roles (member_id, role_id, skill_level, is_preferred)
	           VALUES (?, ?, ?, ?)
	           ON DUPLICATE KEY UPDATE skill_level = VALUES(skill_level), is_preferred = VALUES(is_preferred)`
	_, err := r.db.ExecContext(ctx, q, memberID, roleID, skillLevel, preferred)
	return err
}

// RemoveFromMember deletes a member's role link.  The removal is
// refused with ErrConflict while the member still has assignments for
// the role on a future date.
func (r *RoleRepo) RemoveFromMember(ctx context.Context, memberID, roleID uint64) error {
	const check = `SELECT COUNT(*) FROM rosters r
	               JOIN services s ON s.id = r.service_id
	               WHERE r.member_id = ? AND r.role_id = ? AND s.service_date > ?`
	var n int
	today := time.Now().UTC().Format(model.DateLayout)
	if err := r.db.QueryRowContext(ctx, check, memberID, roleID, today).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return ErrConflict
	}
	const del = `DELETE FROM member_roles WHERE member_id = ? AND role_id = ?`
	_, err := r.db.ExecContext(ctx, del, memberID, roleID)
	return err
}

// MemberRoles returns the roles a member holds together with skill
// level and preference.
func (r *RoleRepo) MemberRoles(ctx context.Context, memberID uint64) ([]model.MemberRole, error) {
	const q = `SELECT member_id, role_id, skill_level, is_preferred FROM member_roles WHERE member_id = ?`
	rows, err := r.db.QueryContext(ctx, q, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	links := make([]model.MemberRole, 0)
	for rows.Next() {
		var mr model.MemberRole
		if err := rows.Scan(&mr.MemberID, &mr.RoleID, &mr.SkillLevel, &mr.IsPreferred); err != nil {
			return nil, err
		}
		links = append(links, mr)
	}
	return links, rows.Err()
}
