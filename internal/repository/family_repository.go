package repository

import (
	"context"
	"database/sql"

	"github.com/stgiuliani/roster-engine/internal/model"
)

// FamilyRepo manages family relationships and serving preferences.
// Relationships are undirected: a single row links two members and is
// queried from either side.
type FamilyRepo struct {
	db *sql.DB
}

// NewFamilyRepo returns a new FamilyRepo bound to the given database.
func NewFamilyRepo(db *sql.DB) *FamilyRepo { return &FamilyRepo{db: db} }

// UpsertRelationship creates or updates the link between two members.
// The pair is normalized so (a, b) and (b, a) hit the same row.
func (r *FamilyRepo) UpsertRelationship(ctx context.Context, member1ID, member2ID uint64, relationshipType string) error {
	if member2ID < member1ID {
		member1ID, member2ID = member2ID, member1ID
	}
	const q = `INSERT INTO family_relationships (member1_id, member2_id, relationship_type)
	           VALUES (?, ?, ?)
	           ON DUPLICATE KEY UPDATE relationship_type = VALUES(relationship_type)`
	_, err := r.db.ExecContext(ctx, q, member1ID, member2ID, relationshipType)
	return err
}

// FamilyMemberInfo is a linked member together with the relationship
// that links them.
type FamilyMemberInfo struct {
	Member           model.Member `json:"member"`
	RelationshipType string       `json:"relationship_type"`
}

// FamilyMembers returns every member linked to the given member,
// joined with the relationship type.
func (r *FamilyRepo) FamilyMembers(ctx context.Context, memberID uint64) ([]FamilyMemberInfo, error) {
	const q = `SELECT ` + prefixedMemberColumns + `, fr.relationship_type
	           FROM members m
	           JOIN family_relationships fr
	             ON (fr.member1_id = ? AND fr.member2_id = m.id)
	             OR (fr.member2_id = ? AND fr.member1_id = m.id)
	           ORDER BY m.first_name, m.last_name`
	rows, err := r.db.QueryContext(ctx, q, memberID, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	infos := make([]FamilyMemberInfo, 0)
	for rows.Next() {
		var info FamilyMemberInfo
		var rel string
		m, err := scanMemberWith(rows.Scan, &rel)
		if err != nil {
			return nil, err
		}
		info.Member = *m
		info.RelationshipType = rel
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// UpsertPreference records a serving preference, idempotent on
// (member, preference type).
func (r *FamilyRepo) UpsertPreference(ctx context.Context, memberID uint64, preferenceType string, enabled bool) error {
	const q = `INSERT INTO serving_preferences (member_id, preference_type, is_enabled)
	           VALUES (?, ?, ?)
	           ON DUPLICATE KEY UPDATE is_enabled = VALUES(is_enabled)`
	_, err := r.db.ExecContext(ctx, q, memberID, preferenceType, enabled)
	return err
}

// PreferenceEnabled reports whether the member has the named
// preference enabled.  A missing row means disabled.
func (r *FamilyRepo) PreferenceEnabled(ctx context.Context, memberID uint64, preferenceType string) (bool, error) {
	const q = `SELECT is_enabled FROM serving_preferences WHERE member_id = ? AND preference_type = ?`
	var enabled bool
	err := r.db.QueryRowContext(ctx, q, memberID, preferenceType).Scan(&enabled)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return enabled, nil
}
