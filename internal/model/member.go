package model

import "time"

// Proficiency levels for a member's language skills.  The keys of
// Member.LanguageSkills are service types (e.g. "english", "italian")
// and the values are one of these constants.
const (
	ProficiencyNone   = "none"
	ProficiencyBasic  = "basic"
	ProficiencyFluent = "fluent"
)

// Member represents a serving team member as stored in the `members`
// table.  Language proficiency is tracked per named service type and
// participates in both constraint validation and candidate scoring.
//
// Fields:
//  ID             – primary key identifier.
//  FirstName      – given name.
//  LastName       – family name.
//  Email          – unique email address, also the login identifier.
//  PasswordHash   – bcrypt hashed password.
//  Phone          – optional contact number.
//  DateOfBirth    – optional date of birth; used for age-based rules.
//  LanguageSkills – proficiency per service type (none/basic/fluent).
//  IsActive       – whether the member can be scheduled at all.
//  CreatedAt      – timestamp of creation.
//  UpdatedAt      – timestamp of last update.
type Member struct {
	ID             uint64            `json:"id"`              // members.id
	FirstName      string            `json:"first_name"`      // members.first_name
	LastName       string            `json:"last_name"`       // members.last_name
	Email          string            `json:"email"`           // members.email
	PasswordHash   string            `json:"-"`               // members.password_hash, never serialized
	Phone          *string           `json:"phone"`           // members.phone (nullable)
	DateOfBirth    *time.Time        `json:"date_of_birth"`   // members.date_of_birth (nullable)
	LanguageSkills map[string]string `json:"language_skills"` // members.language_skills (JSON column)
	IsActive       bool              `json:"is_active"`       // members.is_active
	CreatedAt      time.Time         `json:"created_at"`      // members.created_at
	UpdatedAt      time.Time         `json:"updated_at"`      // members.updated_at
}

// FullName returns the member's display name used in conflict messages
// and notifications.
func (m *Member) FullName() string {
	if m.FirstName == "" {
		return m.LastName
	}
	if m.LastName == "" {
		return m.FirstName
	}
	return m.FirstName + " " + m.LastName
}

// Proficiency returns the member's proficiency for the given service
// type, defaulting to "none" when the service type is unknown.
func (m *Member) Proficiency(serviceType string) string {
	if m.LanguageSkills == nil {
		return ProficiencyNone
	}
	if p, ok := m.LanguageSkills[serviceType]; ok && p != "" {
		return p
	}
	return ProficiencyNone
}

// AgeOn computes the member's age in whole years as of the given date.
// It returns -1 when the date of birth is unknown.
func (m *Member) AgeOn(date time.Time) int {
	if m.DateOfBirth == nil {
		return -1
	}
	birth := *m.DateOfBirth
	age := date.Year() - birth.Year()
	if date.Month() < birth.Month() ||
		(date.Month() == birth.Month() && date.Day() < birth.Day()) {
		age--
	}
	return age
}
