package model

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func day(s string) time.Time {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestAgeOn(t *testing.T) {
	dob := day("2012-06-15")
	tests := []struct {
		name string
		dob  *time.Time
		on   string
		want int
	}{
		{name: "birthday passed", dob: &dob, on: "2026-08-01", want: 14},
		{name: "birthday today", dob: &dob, on: "2026-06-15", want: 14},
		{name: "birthday not yet reached", dob: &dob, on: "2026-06-14", want: 13},
		{name: "earlier month", dob: &dob, on: "2026-02-01", want: 13},
		{name: "unknown dob", dob: nil, on: "2026-08-01", want: -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Member{DateOfBirth: tt.dob}
			if got := m.AgeOn(day(tt.on)); got != tt.want {
				t.Errorf("AgeOn = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestProficiency(t *testing.T) {
	m := Member{LanguageSkills: map[string]string{"english": ProficiencyFluent, "spanish": ProficiencyBasic}}
	if got := m.Proficiency("english"); got != ProficiencyFluent {
		t.Errorf("english = %q, want fluent", got)
	}
	if got := m.Proficiency("spanish"); got != ProficiencyBasic {
		t.Errorf("spanish = %q, want basic", got)
	}
	if got := m.Proficiency("italian"); got != ProficiencyNone {
		t.Errorf("italian = %q, want none", got)
	}
	var empty Member
	if got := empty.Proficiency("english"); got != ProficiencyNone {
		t.Errorf("nil skills = %q, want none", got)
	}
}

func TestFullName(t *testing.T) {
	tests := []struct {
		first, last, want string
	}{
		{"Ana", "Rossi", "Ana Rossi"},
		{"Ana", "", "Ana"},
		{"", "Rossi", "Rossi"},
	}
	for _, tt := range tests {
		m := Member{FirstName: tt.first, LastName: tt.last}
		if got := m.FullName(); got != tt.want {
			t.Errorf("FullName(%q, %q) = %q, want %q", tt.first, tt.last, got, tt.want)
		}
	}
}

func TestMemberJSONNeverExposesPasswordHash(t *testing.T) {
	m := Member{
		ID:           7,
		FirstName:    "Ana",
		LastName:     "Rossi",
		Email:        "ana@example.com",
		PasswordHash: "$2a$10$secrethash",
	}
	out, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	s := string(out)
	if strings.Contains(s, "secrethash") || strings.Contains(s, "PasswordHash") || strings.Contains(s, "password_hash") {
		t.Errorf("serialized member leaks password hash: %s", s)
	}
	if !strings.Contains(s, `"first_name":"Ana"`) {
		t.Errorf("serialized member missing snake_case fields: %s", s)
	}
}

func TestAssignmentJSONFieldNames(t *testing.T) {
	out, err := json.Marshal(Assignment{ID: 1, MemberID: 2, RoleID: 3, ServiceID: 4, Status: StatusScheduled})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	s := string(out)
	for _, field := range []string{`"member_id":2`, `"role_id":3`, `"service_id":4`, `"status":"scheduled"`} {
		if !strings.Contains(s, field) {
			t.Errorf("serialized assignment missing %s: %s", field, s)
		}
	}
}

func TestValidStatusTransition(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{StatusScheduled, StatusConfirmed, true},
		{StatusScheduled, StatusCancelled, true},
		{StatusScheduled, StatusScheduled, false},
		{StatusConfirmed, StatusCancelled, false},
		{StatusCancelled, StatusConfirmed, false},
		{StatusScheduled, "archived", false},
	}
	for _, tt := range tests {
		if got := ValidStatusTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("ValidStatusTransition(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}
