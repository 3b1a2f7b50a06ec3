package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/stgiuliani/roster-engine/internal/repository"
	"github.com/stgiuliani/roster-engine/internal/scheduler"
	"github.com/stgiuliani/roster-engine/internal/service"
)

// RosterHandler serves roster creation, reads and status updates.
type RosterHandler struct {
	Roster       *scheduler.RosterManager
	Store        *repository.RosterStore
	Availability *service.CachedAvailability
}

func NewRosterHandler(roster *scheduler.RosterManager, store *repository.RosterStore, availability *service.CachedAvailability) *RosterHandler {
	return &RosterHandler{Roster: roster, Store: store, Availability: availability}
}

// ----- DTOs -----

type assignmentReq struct {
	MemberID    uint64 `json:"member_id"`
	RoleID      uint64 `json:"role_id"`
	Date        string `json:"date"` // YYYY-MM-DD
	ServiceType string `json:"service_type"`
}

type createRosterReq struct {
	Assignments []assignmentReq `json:"assignments"`
}

type statusReq struct {
	Status string `json:"status"`
}

// toRequests converts the wire DTOs, validating dates and required
// fields up front so the engine only sees well-formed requests.
func toRequests(in []assignmentReq) ([]scheduler.AssignmentRequest, error) {
	reqs := make([]scheduler.AssignmentRequest, 0, len(in))
	for _, a := range in {
		if a.MemberID == 0 || a.RoleID == 0 || a.ServiceType == "" {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "member_id, role_id and service_type required")
		}
		date, err := parseDate(a.Date)
		if err != nil {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
		}
		reqs = append(reqs, scheduler.AssignmentRequest{
			MemberID:    a.MemberID,
			RoleID:      a.RoleID,
			Date:        date,
			ServiceType: a.ServiceType,
		})
	}
	return reqs, nil
}

// Create validates and commits a batch of assignments.  Rule conflicts
// come back as 422 with the complete conflict list.
func (h *RosterHandler) Create(c echo.Context) error {
	var req createRosterReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	reqs, err := toRequests(req.Assignments)
	if err != nil {
		return err
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	created, err := h.Roster.CreateRoster(ctx, reqs)
	if err != nil {
		if ve, ok := scheduler.AsValidationError(err); ok {
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{
				"error":     ve.Message,
				"conflicts": ve.Conflicts,
			})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create roster failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"assignments": created})
}

// Validate runs batch validation without committing anything.
func (h *RosterHandler) Validate(c echo.Context) error {
	var req createRosterReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	reqs, err := toRequests(req.Assignments)
	if err != nil {
		return err
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	result, err := h.Roster.ValidateAssignments(ctx, reqs)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "validation failed"})
	}
	return c.JSON(http.StatusOK, result)
}

// Get returns the committed roster for one service instance.
func (h *RosterHandler) Get(c echo.Context) error {
	date, err := parseDate(c.QueryParam("date"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date, want YYYY-MM-DD"})
	}
	serviceType := strings.TrimSpace(c.QueryParam("service_type"))
	if serviceType == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "service_type required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	roster, err := h.Store.RosterByDate(ctx, date, serviceType)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "roster lookup failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"assignments": roster})
}

// UpdateStatus moves one assignment along its status state machine.
func (h *RosterHandler) UpdateStatus(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid assignment id"})
	}
	var req statusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	a, err := h.Roster.UpdateAssignmentStatus(ctx, id, req.Status)
	if err != nil {
		switch err {
		case repository.ErrAssignmentNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "assignment not found"})
		case scheduler.ErrInvalidTransition:
			return c.JSON(http.StatusConflict, echo.Map{"error": "invalid status transition"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "status update failed"})
	}
	return c.JSON(http.StatusOK, a)
}

// AvailableMembers lists the members eligible to fill a role on a date.
func (h *RosterHandler) AvailableMembers(c echo.Context) error {
	date, err := parseDate(c.QueryParam("date"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date, want YYYY-MM-DD"})
	}
	roleID, err := pathID(c, "role_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid role id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	members, err := h.Availability.AvailableMembers(ctx, date, roleID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "availability lookup failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"members": members})
}
