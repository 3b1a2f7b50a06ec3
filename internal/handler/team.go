package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/stgiuliani/roster-engine/internal/model"
	"github.com/stgiuliani/roster-engine/internal/repository"
)

// TeamHandler serves member, role and family management endpoints.
type TeamHandler struct {
	Members *repository.MemberRepo
	Roles   *repository.RoleRepo
	Family  *repository.FamilyRepo
}

func NewTeamHandler(members *repository.MemberRepo, roles *repository.RoleRepo, family *repository.FamilyRepo) *TeamHandler {
	return &TeamHandler{Members: members, Roles: roles, Family: family}
}

// ----- DTOs -----

type updateMemberReq struct {
	FirstName      *string           `json:"first_name"`
	LastName       *string           `json:"last_name"`
	Email          *string           `json:"email"`
	Phone          *string           `json:"phone"`
	DateOfBirth    *string           `json:"date_of_birth"` // YYYY-MM-DD
	LanguageSkills map[string]string `json:"language_skills"`
}

type assignRoleReq struct {
	RoleID     uint64 `json:"role_id"`
	SkillLevel int    `json:"skill_level"`
	Preferred  bool   `json:"preferred"`
}

type familyLinkReq struct {
	MemberID         uint64 `json:"member_id"`
	RelatedMemberID  uint64 `json:"related_member_id"`
	RelationshipType string `json:"relationship_type"`
}

type preferenceReq struct {
	PreferenceType string `json:"preference_type"`
	Enabled        bool   `json:"enabled"`
}

// GetMember returns one member's profile.
func (h *TeamHandler) GetMember(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid member id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	m, err := h.Members.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrMemberNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "member not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "lookup failed"})
	}
	return c.JSON(http.StatusOK, m)
}

// UpdateMember applies a partial profile update.
func (h *TeamHandler) UpdateMember(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid member id"})
	}
	var req updateMemberReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	upd := repository.MemberUpdate{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Phone:          req.Phone,
		LanguageSkills: req.LanguageSkills,
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		upd.Email = &email
	}
	if req.DateOfBirth != nil {
		dob, err := time.Parse(model.DateLayout, *req.DateOfBirth)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date_of_birth, want YYYY-MM-DD"})
		}
		upd.DateOfBirth = &dob
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	m, err := h.Members.Update(ctx, id, upd)
	if err != nil {
		switch err {
		case repository.ErrMemberNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "member not found"})
		case repository.ErrEmailTaken:
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	if m == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no fields to update"})
	}
	return c.JSON(http.StatusOK, m)
}

// SearchMembers looks members up by name or email fragment.
func (h *TeamHandler) SearchMembers(c echo.Context) error {
	query := strings.TrimSpace(c.QueryParam("q"))
	if query == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "q required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	members, err := h.Members.Search(ctx, query)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "search failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"members": members})
}

// Stats returns aggregate team statistics.
func (h *TeamHandler) Stats(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	stats, err := h.Members.Stats(ctx, []string{"english", "spanish"})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "stats failed"})
	}
	return c.JSON(http.StatusOK, stats)
}

// ListRoles returns every serving role.
func (h *TeamHandler) ListRoles(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	roles, err := h.Roles.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"roles": roles})
}

// MemberRoles returns the roles a member holds with skill levels.
func (h *TeamHandler) MemberRoles(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid member id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	roles, err := h.Roles.MemberRoles(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"roles": roles})
}

// AssignRole grants a member a role with a skill level, upserting the
// link when it already exists.
func (h *TeamHandler) AssignRole(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid member id"})
	}
	var req assignRoleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.RoleID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "role_id required"})
	}
	if req.SkillLevel < 1 || req.SkillLevel > 5 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "skill_level must be 1..5"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Roles.AssignToMember(ctx, id, req.RoleID, req.SkillLevel, req.Preferred); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "assign failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// RemoveRole revokes a role from a member.  Removal is refused while
// the member still has future assignments in that role.
func (h *TeamHandler) RemoveRole(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid member id"})
	}
	roleID, err := pathID(c, "role_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid role id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Roles.RemoveFromMember(ctx, id, roleID); err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "member has upcoming assignments in this role"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "remove failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// LinkFamily records a family relationship between two members.
func (h *TeamHandler) LinkFamily(c echo.Context) error {
	var req familyLinkReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.MemberID == 0 || req.RelatedMemberID == 0 || req.MemberID == req.RelatedMemberID {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "two distinct member ids required"})
	}
	if req.RelationshipType == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "relationship_type required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Family.UpsertRelationship(ctx, req.MemberID, req.RelatedMemberID, req.RelationshipType); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "link failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// FamilyMembers lists the members linked to the given member.
func (h *TeamHandler) FamilyMembers(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid member id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	family, err := h.Family.FamilyMembers(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"family": family})
}

// SetPreference toggles a named serving preference for a member.
func (h *TeamHandler) SetPreference(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid member id"})
	}
	var req preferenceReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.PreferenceType == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "preference_type required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Family.UpsertPreference(ctx, id, req.PreferenceType, req.Enabled); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// ----- shared helpers -----

// reqCtx derives a bounded context for a handler's database work.
func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}

// pathID parses a numeric path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}

// parseDate parses a YYYY-MM-DD query or body value.
func parseDate(s string) (time.Time, error) {
	return time.Parse(model.DateLayout, strings.TrimSpace(s))
}
