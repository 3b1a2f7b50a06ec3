package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/stgiuliani/roster-engine/internal/model"
)

// MemberRepo provides CRUD operations for serving team members.  The
// language_skills column stores a JSON object mapping service types to
// proficiency levels; it is marshalled on write and unmarshalled on
// read so business logic only ever sees a map.  All timestamp fields
// are assumed to be stored in UTC.
type MemberRepo struct {
	db *sql.DB
}

// NewMemberRepo returns a new MemberRepo bound to the given database.
func NewMemberRepo(db *sql.DB) *MemberRepo { return &MemberRepo{db: db} }

const memberColumns = `id, first_name, last_name, email, password_hash, phone, date_of_birth, language_skills, is_active, created_at, updated_at`

// prefixedMemberColumns is memberColumns qualified with the `m` table
// alias, for queries that join members against other tables.
const prefixedMemberColumns = `m.id, m.first_name, m.last_name, m.email, m.password_hash, m.phone, m.date_of_birth, m.language_skills, m.is_active, m.created_at, m.updated_at`

// scanMember scans one member row from any row scanner (sql.Row or
// sql.Rows) and decodes the language skills JSON.
func scanMember(scan func(dest ...any) error) (*model.Member, error) {
	return scanMemberWith(scan)
}

// scanMemberWith scans the member columns followed by any extra
// destinations appended to the select list by the caller.
func scanMemberWith(scan func(dest ...any) error, extra ...any) (*model.Member, error) {
	var m model.Member
	var phone sql.NullString
	var dob sql.NullTime
	var skills sql.NullString
	dest := []any{
		&m.ID, &m.FirstName, &m.LastName, &m.Email, &m.PasswordHash,
		&phone, &dob, &skills, &m.IsActive, &m.CreatedAt, &m.UpdatedAt,
	}
	dest = append(dest, extra...)
	if err := scan(dest...); err != nil {
		return nil, err
	}
	if phone.Valid {
		p := phone.String
		m.Phone = &p
	}
	if dob.Valid {
		d := dob.Time
		m.DateOfBirth = &d
	}
	m.LanguageSkills = map[string]string{}
	if skills.Valid && skills.String != "" {
		if err := json.Unmarshal([]byte(skills.String), &m.LanguageSkills); err != nil {
			return nil, err
		}
	}
	return &m, nil
}

// Create inserts a new member and populates the generated ID.  A
// duplicate email is reported as ErrEmailTaken.
func (r *MemberRepo) Create(ctx context.Context, m *model.Member) error {
	skills, err := json.Marshal(m.LanguageSkills)
	if err != nil {
		return err
	}
	var dob any
	if m.DateOfBirth != nil {
		dob = m.DateOfBirth.Format(model.DateLayout)
	}
	const q = `INSERT INTO members (first_name, last_name, email, password_hash, phone, date_of_birth, language_skills, is_active)
	           VALUES (?, ?, ?, ?, ?, ?, ?, 1)`
	res, err := r.db.ExecContext(ctx, q, m.FirstName, m.LastName, m.Email, m.PasswordHash, m.Phone, dob, string(skills))
	if err != nil {
		if isDuplicateKey(err) {
			return ErrEmailTaken
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	m.IsActive = true
	return nil
}

// GetByID returns a member by id or ErrMemberNotFound.
func (r *MemberRepo) GetByID(ctx context.Context, id uint64) (*model.Member, error) {
	const q = `SELECT ` + memberColumns + ` FROM members WHERE id = ?`
	m, err := scanMember(r.db.QueryRowContext(ctx, q, id).Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	return m, nil
}

// GetByEmail returns a member by email or ErrMemberNotFound.
func (r *MemberRepo) GetByEmail(ctx context.Context, email string) (*model.Member, error) {
	const q = `SELECT ` + memberColumns + ` FROM members WHERE email = ?`
	m, err := scanMember(r.db.QueryRowContext(ctx, q, email).Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	return m, nil
}

// MemberUpdate describes a partial member update.  Nil fields are left
// untouched.
type MemberUpdate struct {
	FirstName      *string
	LastName       *string
	Email          *string
	Phone          *string
	DateOfBirth    *time.Time
	LanguageSkills map[string]string
}

// Update applies a partial update, building the SET clause from the
// fields actually provided.  It returns the updated member, or nil
// when no fields were set at all.
func (r *MemberRepo) Update(ctx context.Context, id uint64, upd MemberUpdate) (*model.Member, error) {
	set := make([]string, 0, 6)
	args := make([]any, 0, 7)
	if upd.FirstName != nil {
		set = append(set, "first_name = ?")
		args = append(args, *upd.FirstName)
	}
	if upd.LastName != nil {
		set = append(set, "last_name = ?")
		args = append(args, *upd.LastName)
	}
	if upd.Email != nil {
		set = append(set, "email = ?")
		args = append(args, *upd.Email)
	}
	if upd.Phone != nil {
		set = append(set, "phone = ?")
		args = append(args, *upd.Phone)
	}
	if upd.DateOfBirth != nil {
		set = append(set, "date_of_birth = ?")
		args = append(args, upd.DateOfBirth.Format(model.DateLayout))
	}
	if upd.LanguageSkills != nil {
		skills, err := json.Marshal(upd.LanguageSkills)
		if err != nil {
			return nil, err
		}
		set = append(set, "language_skills = ?")
		args = append(args, string(skills))
	}
	if len(set) == 0 {
		return nil, nil
	}
	args = append(args, id)
	query := `UPDATE members SET ` + strings.Join(set, ", ") + ` WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isDuplicateKey(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// Search returns members whose first name, last name or email matches
// the query, ordered by name.
func (r *MemberRepo) Search(ctx context.Context, query string) ([]model.Member, error) {
	pattern := "%" + query + "%"
	const q = `SELECT ` + memberColumns + ` FROM members
	           WHERE first_name LIKE ? OR last_name LIKE ? OR email LIKE ?
	           ORDER BY first_name, last_name`
	rows, err := r.db.QueryContext(ctx, q, pattern, pattern, pattern)
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

// TeamStats aggregates headline numbers about the serving team.
type TeamStats struct {
	TotalMembers     int            `json:"total_members"`
	TotalRoles       int            `json:"total_roles"`
	TotalAssignments int            `json:"total_assignments"`
	FluentByService  map[string]int `json:"fluent_by_service"`
}

// Stats returns aggregate team statistics.  Fluent speaker counts are
// computed per service type found in the roles currently assigned.
func (r *MemberRepo) Stats(ctx context.Context, serviceTypes []string) (*TeamStats, error) {
	const q = `SELECT
	             (SELECT COUNT(*) FROM members WHERE is_active = 1),
	             (SELECT COUNT(DISTINCT role_id) FROM member_roles),
	             (SELECT COUNT(*) FROM rosters)`
	var stats TeamStats
	if err := r.db.QueryRowContext(ctx, q).Scan(&stats.TotalMembers, &stats.TotalRoles, &stats.TotalAssignments); err != nil {
		return nil, err
	}
	stats.FluentByService = make(map[string]int, len(serviceTypes))
	const fluentQ = `SELECT COUNT(*) FROM members WHERE JSON_UNQUOTE(JSON_EXTRACT(language_skills, ?)) = 'fluent'`
	for _, st := range serviceTypes {
		var n int
		if err := r.db.QueryRowContext(ctx, fluentQ, "$."+st).Scan(&n); err != nil {
			return nil, err
		}
		stats.FluentByService[st] = n
	}
	return &stats, nil
}
