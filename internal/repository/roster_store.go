package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/stgiuliani/roster-engine/internal/model"
	"github.com/stgiuliani/roster-engine/internal/scheduler"
)

// RosterStore implements scheduler.Store on MySQL.  Read methods serve
// constraint validation and candidate scoring against committed state;
// Transaction is the single write path that creates service instances
// and assignment rows.  Concurrent batch commits against the same
// service instance serialize on its FOR UPDATE row lock before the
// in-transaction capacity recheck; the unique keys on
// (service_date, service_type) and (member_id, service_id) back the
// instance idempotency and same-instance exclusivity.
type RosterStore struct {
	db *sql.DB
}

// NewRosterStore returns a new RosterStore bound to the given database.
func NewRosterStore(db *sql.DB) *RosterStore { return &RosterStore{db: db} }

// DB exposes the underlying handle for wiring at startup.
func (s *RosterStore) DB() *sql.DB { return s.db }

// MemberByID returns the member or ErrMemberNotFound.
func (s *RosterStore) MemberByID(ctx context.Context, id uint64) (*model.Member, error) {
	return NewMemberRepo(s.db).GetByID(ctx, id)
}

// RoleByID returns the role or ErrRoleNotFound.
func (s *RosterStore) RoleByID(ctx context.Context, id uint64) (*model.Role, error) {
	return NewRoleRepo(s.db).GetByID(ctx, id)
}

// CountAssignmentsInWindow counts a member's assignments with
// from <= service date <= to, both bounds inclusive.  This is the
// serving-frequency window.
func (s *RosterStore) CountAssignmentsInWindow(ctx context.Context, memberID uint64, from, to time.Time) (int, error) {
	const q = `SELECT COUNT(*) FROM rosters r
	           JOIN services sv ON sv.id = r.service_id
	           WHERE r.member_id = ? AND sv.service_date >= ? AND sv.service_date <= ?`
	var n int
	err := s.db.QueryRowContext(ctx, q, memberID, from.Format(model.DateLayout), to.Format(model.DateLayout)).Scan(&n)
	return n, err
}

// CountRecentAssignments counts a member's assignments in the 28 days
// strictly before date.  The scorer's recency penalty uses this
// exclusive upper bound; the frequency rule does not.
func (s *RosterStore) CountRecentAssignments(ctx context.Context, memberID uint64, date time.Time) (int, error) {
	const q = `SELECT COUNT(*) FROM rosters r
	           JOIN services sv ON sv.id = r.service_id
	           WHERE r.member_id = ? AND sv.service_date >= ? AND sv.service_date < ?`
	from := date.AddDate(0, 0, -28)
	var n int
	err := s.db.QueryRowContext(ctx, q, memberID, from.Format(model.DateLayout), date.Format(model.DateLayout)).Scan(&n)
	return n, err
}

// AssignmentsOn lists a member's assignments on a date, joined with
// role and service details for conflict messages.
func (s *RosterStore) AssignmentsOn(ctx context.Context, memberID uint64, date time.Time) ([]model.AssignmentDetail, error) {
	const q = `SELECT r.id, r.member_id, CONCAT(m.first_name, ' ', m.last_name), r.role_id, ro.name,
	                  r.service_id, sv.service_type, sv.service_date, r.status
	           FROM rosters r
	           JOIN members m ON m.id = r.member_id
	           JOIN roles ro ON ro.id = r.role_id
	           JOIN services sv ON sv.id = r.service_id
	           WHERE r.member_id = ? AND sv.service_date = ?`
	return s.queryDetails(ctx, q, memberID, date.Format(model.DateLayout))
}

// RosterByDate lists every assignment for one service instance for
// display, ordered by role name.
func (s *RosterStore) RosterByDate(ctx context.Context, date time.Time, serviceType string) ([]model.AssignmentDetail, error) {
	const q = `SELECT r.id, r.member_id, CONCAT(m.first_name, ' ', m.last_name), r.role_id, ro.name,
	                  r.service_id, sv.service_type, sv.service_date, r.status
	           FROM rosters r
	           JOIN members m ON m.id = r.member_id
	           JOIN roles ro ON ro.id = r.role_id
	           JOIN services sv ON sv.id = r.service_id
	           WHERE sv.service_date = ? AND sv.service_type = ?
	           ORDER BY ro.name, m.first_name`
	return s.queryDetails(ctx, q, date.Format(model.DateLayout), serviceType)
}

func (s *RosterStore) queryDetails(ctx context.Context, query string, args ...any) ([]model.AssignmentDetail, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	details := make([]model.AssignmentDetail, 0)
	for rows.Next() {
		var d model.AssignmentDetail
		if err := rows.Scan(
			&d.ID, &d.MemberID, &d.MemberName, &d.RoleID, &d.RoleName,
			&d.ServiceID, &d.ServiceType, &d.Date, &d.Status,
		); err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	return details, rows.Err()
}

// CountRoleAssignments counts committed assignments for a role on one
// service instance.
func (s *RosterStore) CountRoleAssignments(ctx context.Context, roleID uint64, date time.Time, serviceType string) (int, error) {
	const q = `SELECT COUNT(*) FROM rosters r
	           JOIN services sv ON sv.id = r.service_id
	           WHERE r.role_id = ? AND sv.service_date = ? AND sv.service_type = ?`
	var n int
	err := s.db.QueryRowContext(ctx, q, roleID, date.Format(model.DateLayout), serviceType).Scan(&n)
	return n, err
}

// CountStageAssignments counts committed stage-category assignments on
// one service instance across all roles.
func (s *RosterStore) CountStageAssignments(ctx context.Context, date time.Time, serviceType string) (int, error) {
	const q = `SELECT COUNT(*) FROM rosters r
	           JOIN services sv ON sv.id = r.service_id
	           JOIN roles ro ON ro.id = r.role_id
	           WHERE sv.service_date = ? AND sv.service_type = ? AND ro.category = ?`
	var n int
	err := s.db.QueryRowContext(ctx, q, date.Format(model.DateLayout), serviceType, model.CategoryStage).Scan(&n)
	return n, err
}

// SkillLevel returns the member's skill for a role, 0 when the member
// does not hold the role.
func (s *RosterStore) SkillLevel(ctx context.Context, memberID, roleID uint64) (int, error) {
	const q = `SELECT skill_level FROM member_roles WHERE member_id = ? AND role_id = ?`
	var level int
	err := s.db.QueryRowContext(ctx, q, memberID, roleID).Scan(&level)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return level, err
}

// IsPreferredRole reports whether the member marked a role preferred.
func (s *RosterStore) IsPreferredRole(ctx context.Context, memberID, roleID uint64) (bool, error) {
	const q = `SELECT is_preferred FROM member_roles WHERE member_id = ? AND role_id = ?`
	var preferred bool
	err := s.db.QueryRowContext(ctx, q, memberID, roleID).Scan(&preferred)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return preferred, err
}

// PreferenceEnabled reports whether the member has the named serving
// preference enabled.
func (s *RosterStore) PreferenceEnabled(ctx context.Context, memberID uint64, preferenceType string) (bool, error) {
	return NewFamilyRepo(s.db).PreferenceEnabled(ctx, memberID, preferenceType)
}

// HasFamilyMemberServing reports whether any member linked to the
// given member serves on the date.  The relationship is undirected so
// both orientations of the link are considered.
func (s *RosterStore) HasFamilyMemberServing(ctx context.Context, memberID uint64, date time.Time) (bool, error) {
	const q = `SELECT COUNT(*) FROM rosters r
	           JOIN services sv ON sv.id = r.service_id
	           JOIN family_relationships fr
	             ON (fr.member1_id = ? AND fr.member2_id = r.member_id)
	             OR (fr.member2_id = ? AND fr.member1_id = r.member_id)
	           WHERE sv.service_date = ?`
	var n int
	if err := s.db.QueryRowContext(ctx, q, memberID, memberID, date.Format(model.DateLayout)).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// AssignmentByID returns one assignment row or ErrAssignmentNotFound.
func (s *RosterStore) AssignmentByID(ctx context.Context, id uint64) (*model.Assignment, error) {
	const q = `SELECT id, member_id, role_id, service_id, status, created_at, updated_at FROM rosters WHERE id = ?`
	var a model.Assignment
	err := s.db.QueryRowContext(ctx, q, id).Scan(
		&a.ID, &a.MemberID, &a.RoleID, &a.ServiceID, &a.Status, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrAssignmentNotFound
		}
		return nil, err
	}
	return &a, nil
}

// SetAssignmentStatus updates a single assignment's status.
func (s *RosterStore) SetAssignmentStatus(ctx context.Context, id uint64, status string) error {
	const q = `UPDATE rosters SET status = ? WHERE id = ?`
	res, err := s.db.ExecContext(ctx, q, status, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAssignmentNotFound
	}
	return nil
}

// Transaction runs fn against a RosterWriter bound to one database
// transaction.  The transaction is rolled back on any error and on
// panic; it commits only when fn returns nil.
func (s *RosterStore) Transaction(ctx context.Context, fn func(scheduler.RosterWriter) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(&rosterTxn{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// rosterTxn implements scheduler.RosterWriter over one *sql.Tx.
type rosterTxn struct {
	tx *sql.Tx
}

// EnsureServiceInstance returns the service instance id for
// (date, serviceType), inserting a row with default times when none
// exists.  Losing a concurrent insert race on the unique
// (service_date, service_type) key is benign: the duplicate-key error
// is swallowed and the winner's row is read back.
func (t *rosterTxn) EnsureServiceInstance(ctx context.Context, date time.Time, serviceType string) (uint64, error) {
	day := date.Format(model.DateLayout)
	const ins = `INSERT INTO services (service_date, service_type, start_time, end_time) VALUES (?, ?, ?, ?)`
	res, err := t.tx.ExecContext(ctx, ins, day, serviceType, model.DefaultServiceStart, model.DefaultServiceEnd)
	if err == nil {
		id, err := res.LastInsertId()
		if err != nil {
			return 0, err
		}
		return uint64(id), nil
	}
	if !isDuplicateKey(err) {
		return 0, err
	}
	const sel = `SELECT id FROM services WHERE service_date = ? AND service_type = ?`
	var id uint64
	if err := t.tx.QueryRowContext(ctx, sel, day, serviceType).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// LockServiceInstance takes a FOR UPDATE row lock on the service
// instance.  Any concurrent transaction committing assignments for the
// same instance blocks here until this one finishes, so the counts
// read afterwards stay valid through the inserts.
func (t *rosterTxn) LockServiceInstance(ctx context.Context, serviceID uint64) error {
	const q = `SELECT id FROM services WHERE id = ? FOR UPDATE`
	var id uint64
	return t.tx.QueryRowContext(ctx, q, serviceID).Scan(&id)
}

// CountStageAssignments counts stage-category rows on the service
// instance as seen inside the transaction.
func (t *rosterTxn) CountStageAssignments(ctx context.Context, serviceID uint64) (int, error) {
	const q = `SELECT COUNT(*) FROM rosters r
	           JOIN roles ro ON ro.id = r.role_id
	           WHERE r.service_id = ? AND ro.category = ?`
	var n int
	err := t.tx.QueryRowContext(ctx, q, serviceID, model.CategoryStage).Scan(&n)
	return n, err
}

// CountRoleAssignments counts rows for one role on the service
// instance as seen inside the transaction.
func (t *rosterTxn) CountRoleAssignments(ctx context.Context, serviceID, roleID uint64) (int, error) {
	const q = `SELECT COUNT(*) FROM rosters WHERE service_id = ? AND role_id = ?`
	var n int
	err := t.tx.QueryRowContext(ctx, q, serviceID, roleID).Scan(&n)
	return n, err
}

// InsertAssignment inserts one scheduled assignment row and reads it
// back to populate timestamps.  A duplicate (member, service) key
// means a concurrent commit already placed the member on this service
// instance; that is a real conflict and is surfaced as ErrConflict so
// the enclosing transaction rolls back.
func (t *rosterTxn) InsertAssignment(ctx context.Context, serviceID uint64, req scheduler.AssignmentRequest) (*model.Assignment, error) {
	const ins = `INSERT INTO rosters (member_id, role_id, service_id, status) VALUES (?, ?, ?, ?)`
	res, err := t.tx.ExecContext(ctx, ins, req.MemberID, req.RoleID, serviceID, model.StatusScheduled)
	if err != nil {
		if isDuplicateKey(err) {
			return nil, ErrConflict
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	a := &model.Assignment{ID: uint64(id)}
	const sel = `SELECT id, member_id, role_id, service_id, status, created_at, updated_at FROM rosters WHERE id = ?`
	if err := t.tx.QueryRowContext(ctx, sel, a.ID).Scan(
		&a.ID, &a.MemberID, &a.RoleID, &a.ServiceID, &a.Status, &a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return a, nil
}
