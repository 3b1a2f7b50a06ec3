package model

// PreferenceFamilyServeTogether marks a member's wish to serve on the
// same date as a linked family member.  For members aged 12 to 16 the
// enabled preference becomes a hard scheduling rule.
const PreferenceFamilyServeTogether = "family_serve_together"

// FamilyRelationship is an undirected link between two members as
// stored in the `family_relationships` table.  The link is queried
// from either side; (member1, member2) and (member2, member1) denote
// the same relationship.
//
// Fields:
//  ID               – primary key identifier.
//  Member1ID        – first endpoint of the link.
//  Member2ID        – second endpoint of the link.
//  RelationshipType – e.g. "parent", "sibling", "spouse".
type FamilyRelationship struct {
	ID               uint64 `json:"id"`                // family_relationships.id
	Member1ID        uint64 `json:"member1_id"`        // family_relationships.member1_id
	Member2ID        uint64 `json:"member2_id"`        // family_relationships.member2_id
	RelationshipType string `json:"relationship_type"` // family_relationships.relationship_type
}

// ServingPreference is a per-member soft preference keyed by
// (member, preference type) in the `serving_preferences` table.
//
// Fields:
//  ID             – primary key identifier.
//  MemberID       – the preference holder.
//  PreferenceType – preference key (e.g. family_serve_together).
//  Enabled        – whether the preference is active.
type ServingPreference struct {
	ID             uint64 `json:"id"`              // serving_preferences.id
	MemberID       uint64 `json:"member_id"`       // serving_preferences.member_id
	PreferenceType string `json:"preference_type"` // serving_preferences.preference_type
	Enabled        bool   `json:"enabled"`         // serving_preferences.is_enabled
}
