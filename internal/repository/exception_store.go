package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/stgiuliani/roster-engine/internal/model"
	"github.com/stgiuliani/roster-engine/internal/scheduler"
)

// ExceptionStore implements scheduler.ExceptionStore on MySQL.  It
// owns the override, substitution and blockout tables and reads roster
// rows only to detect conflicts and to apply substitutions.
type ExceptionStore struct {
	db *sql.DB
}

// NewExceptionStore returns a new ExceptionStore bound to the given
// database.
func NewExceptionStore(db *sql.DB) *ExceptionStore { return &ExceptionStore{db: db} }

// Transaction runs fn against an ExceptionWriter bound to one database
// transaction, rolling back on any error.
func (s *ExceptionStore) Transaction(ctx context.Context, fn func(scheduler.ExceptionWriter) error) error {
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
	if err := fn(&exceptionTxn{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// UpsertBlockout records a blockout date, idempotent on (member, date);
// the latest reason wins.
func (s *ExceptionStore) UpsertBlockout(ctx context.Context, memberID uint64, date time.Time, reason string) error {
	const q = `INSERT INTO blockout_dates (member_id, date, reason)
	           VALUES (?, ?, ?)
	           ON DUPLICATE KEY UPDATE reason = VALUES(reason)`
	_, err := s.db.ExecContext(ctx, q, memberID, date.Format(model.DateLayout), reason)
	return err
}

// AssignmentsOn lists a member's assignments on a date; used to report
// blockout conflicts.
func (s *ExceptionStore) AssignmentsOn(ctx context.Context, memberID uint64, date time.Time) ([]model.AssignmentDetail, error) {
	return NewRosterStore(s.db).AssignmentsOn(ctx, memberID, date)
}

// Overrides lists override audit rows for a date, joined with member
// and role names.
func (s *ExceptionStore) Overrides(ctx context.Context, date time.Time) ([]model.Override, error) {
	const q = `SELECT o.id, o.member_id, o.role_id, o.date, o.reason, o.approved_by, o.created_at,
	                  CONCAT(m.first_name, ' ', m.last_name), ro.name
	           FROM roster_overrides o
	           JOIN members m ON m.id = o.member_id
	           JOIN roles ro ON ro.id = o.role_id
	           WHERE o.date = ?
	           ORDER BY o.created_at DESC`
	rows, err := s.db.QueryContext(ctx, q, date.Format(model.DateLayout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	overrides := make([]model.Override, 0)
	for rows.Next() {
		var ov model.Override
		if err := rows.Scan(
			&ov.ID, &ov.MemberID, &ov.RoleID, &ov.Date, &ov.Reason, &ov.ApprovedBy, &ov.CreatedAt,
			&ov.MemberName, &ov.RoleName,
		); err != nil {
			return nil, err
		}
		overrides = append(overrides, ov)
	}
	return overrides, rows.Err()
}

// SubstitutionHistory lists substitutions involving the member on
// either side, newest first, joined with names for display.
func (s *ExceptionStore) SubstitutionHistory(ctx context.Context, memberID uint64) ([]model.Substitution, error) {
	const q = `SELECT sub.id, sub.original_member_id, sub.new_member_id, sub.role_id, sub.date, sub.reason, sub.created_at,
	                  CONCAT(m1.first_name, ' ', m1.last_name),
	                  CONCAT(m2.first_name, ' ', m2.last_name),
	                  ro.name
	           FROM roster_substitutions sub
	           JOIN members m1 ON m1.id = sub.original_member_id
	           JOIN members m2 ON m2.id = sub.new_member_id
	           JOIN roles ro ON ro.id = sub.role_id
	           WHERE sub.original_member_id = ? OR sub.new_member_id = ?
	           ORDER BY sub.date DESC`
	rows, err := s.db.QueryContext(ctx, q, memberID, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	subs := make([]model.Substitution, 0)
	for rows.Next() {
		var sub model.Substitution
		if err := rows.Scan(
			&sub.ID, &sub.OriginalMemberID, &sub.NewMemberID, &sub.RoleID, &sub.Date, &sub.Reason, &sub.CreatedAt,
			&sub.OriginalName, &sub.NewName, &sub.RoleName,
		); err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// BlockoutDates lists a member's blockouts within [from, to].
func (s *ExceptionStore) BlockoutDates(ctx context.Context, memberID uint64, from, to time.Time) ([]model.BlockoutDate, error) {
	const q = `SELECT id, member_id, date, reason, created_at
	           FROM blockout_dates
	           WHERE member_id = ? AND date >= ? AND date <= ?
	           ORDER BY date`
	rows, err := s.db.QueryContext(ctx, q, memberID, from.Format(model.DateLayout), to.Format(model.DateLayout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	blockouts := make([]model.BlockoutDate, 0)
	for rows.Next() {
		var b model.BlockoutDate
		if err := rows.Scan(&b.ID, &b.MemberID, &b.Date, &b.Reason, &b.CreatedAt); err != nil {
			return nil, err
		}
		blockouts = append(blockouts, b)
	}
	return blockouts, rows.Err()
}

// exceptionTxn implements scheduler.ExceptionWriter over one *sql.Tx.
type exceptionTxn struct {
	tx *sql.Tx
}

// InsertOverride appends an override audit row and populates its id.
func (t *exceptionTxn) InsertOverride(ctx context.Context, ov *model.Override) error {
	const q = `INSERT INTO roster_overrides (member_id, role_id, date, reason, approved_by)
	           VALUES (?, ?, ?, ?, ?)`
	res, err := t.tx.ExecContext(ctx, q, ov.MemberID, ov.RoleID, ov.Date.Format(model.DateLayout), ov.Reason, ov.ApprovedBy)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	ov.ID = uint64(id)
	ov.CreatedAt = time.Now().UTC()
	return nil
}

// ReassignAssignment moves the assignment matching (original member,
// role, date) to the new member and returns the affected row count.
// Zero rows means there was nothing to substitute.
func (t *exceptionTxn) ReassignAssignment(ctx context.Context, originalMemberID, newMemberID, roleID uint64, date time.Time) (int64, error) {
	const q = `UPDATE rosters r
	           JOIN services sv ON sv.id = r.service_id
	           SET r.member_id = ?
	           WHERE r.member_id = ? AND r.role_id = ? AND sv.service_date = ?`
	res, err := t.tx.ExecContext(ctx, q, newMemberID, originalMemberID, roleID, date.Format(model.DateLayout))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// InsertSubstitution appends a substitution audit row and populates
// its id.
func (t *exceptionTxn) InsertSubstitution(ctx context.Context, sub *model.Substitution) error {
	const q = `INSERT INTO roster_substitutions (original_member_id, new_member_id, role_id, date, reason)
	           VALUES (?, ?, ?, ?, ?)`
	res, err := t.tx.ExecContext(ctx, q, sub.OriginalMemberID, sub.NewMemberID, sub.RoleID, sub.Date.Format(model.DateLayout), sub.Reason)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	sub.ID = uint64(id)
	sub.CreatedAt = time.Now().UTC()
	return nil
}
