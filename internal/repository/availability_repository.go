package repository

import (
	"context"
	"database/sql"

	"time"

	"github.com/stgiuliani/roster-engine/internal/model"
)

// AvailabilityRepo manages members' self-declared availability and
// answers the eligibility query behind schedule generation: who can
// fill a role on a date.  Absence of an availability row means the
// member is available; blockout dates always exclude.
type AvailabilityRepo struct {
	db *sql.DB
}

// NewAvailabilityRepo returns a new AvailabilityRepo bound to the
// given database.
func NewAvailabilityRepo(db *sql.DB) *AvailabilityRepo { return &AvailabilityRepo{db: db} }

// Set upserts a member's availability declaration for a date.
func (r *AvailabilityRepo) Set(ctx context.Context, memberID uint64, date time.Time, available bool, reason *string) error {
	const q = `INSERT INTO availability (member_id, date, is_available, reason)
	           VALUES (?, ?, ?, ?)
	           ON DUPLICATE KEY UPDATE is_available = VALUES(is_available), reason = VALUES(reason)`
	_, err := r.db.ExecContext(ctx, q, memberID, date.Format(model.DateLayout), available, reason)
	return err
}

// ListForMember returns a member's declarations within [from, to].
func (r *AvailabilityRepo) ListForMember(ctx context.Context, memberID uint64, from, to time.Time) ([]model.Availability, error) {
	const q = `SELECT id, member_id, date, is_available, reason, created_at
	           FROM availability
	           WHERE member_id = ? AND date >= ? AND date <= ?
	           ORDER BY date`
	rows, err := r.db.QueryContext(ctx, q, memberID, from.Format(model.DateLayout), to.Format(model.DateLayout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := make([]model.Availability, 0)
	for rows.Next() {
		var a model.Availability
		var reason sql.NullString
		if err := rows.Scan(&a.ID, &a.MemberID, &a.Date, &a.IsAvailable, &reason, &a.CreatedAt); err != nil {
			return nil, err
		}
		if reason.Valid {
			s := reason.String
			a.Reason = &s
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

// AvailableMembers returns the active members eligible for a role on a
// date: everyone holding the role, minus explicit "not available"
// declarations and blockout dates.
func (r *AvailabilityRepo) AvailableMembers(ctx context.Context, date time.Time, roleID uint64) ([]model.Member, error) {
	day := date.Format(model.DateLayout)
	const q = `SELECT ` + prefixedMemberColumns + `
	           FROM members m
	           JOIN member_roles mr ON mr.member_id = m.id
	           WHERE mr.role_id = ?
	             AND m.is_active = 1
	             AND NOT EXISTS (
	               SELECT 1 FROM availability a
	               WHERE a.member_id = m.id AND a.date = ? AND a.is_available = 0)
	             AND NOT EXISTS (
	               SELECT 1 FROM blockout_dates b
	               WHERE b.member_id = m.id AND b.date = ?)
	           ORDER BY m.id`
	rows, err := r.db.QueryContext(ctx, q, roleID, day, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	members := make([]model.Member, 0)
	for rows.Next() {
		m, err := scanMember(rows.Scan)
		if err != nil {
			return nil, err
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}
