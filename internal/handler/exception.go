package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/stgiuliani/roster-engine/internal/scheduler"
	"github.com/stgiuliani/roster-engine/internal/service"
)

// ExceptionHandler serves overrides, emergency substitutions and
// blockout dates.
type ExceptionHandler struct {
	Exceptions   *scheduler.ExceptionManager
	Availability *service.CachedAvailability
}

func NewExceptionHandler(exceptions *scheduler.ExceptionManager, availability *service.CachedAvailability) *ExceptionHandler {
	return &ExceptionHandler{Exceptions: exceptions, Availability: availability}
}

// ----- DTOs -----

type overrideReq struct {
	MemberID uint64 `json:"member_id"`
	RoleID   uint64 `json:"role_id"`
	Date     string `json:"date"` // YYYY-MM-DD
	Reason   string `json:"reason"`
}

type substitutionReq struct {
	OriginalMemberID uint64 `json:"original_member_id"`
	NewMemberID      uint64 `json:"new_member_id"`
	RoleID           uint64 `json:"role_id"`
	Date             string `json:"date"` // YYYY-MM-DD
	Reason           string `json:"reason"`
}

type blockoutReq struct {
	Date   string `json:"date"` // YYYY-MM-DD
	Reason string `json:"reason"`
}

// CreateOverride records an administrator-approved schedule override.
func (h *ExceptionHandler) CreateOverride(c echo.Context) error {
	var req overrideReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.MemberID == 0 || req.RoleID == 0 || req.Reason == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "member_id, role_id and reason required"})
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date, want YYYY-MM-DD"})
	}
	approvedBy, ok := memberIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	ov, err := h.Exceptions.CreateOverride(ctx, req.MemberID, req.RoleID, date, req.Reason, approvedBy)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create override failed"})
	}
	return c.JSON(http.StatusCreated, ov)
}

// ListOverrides returns the override audit rows for a date.
func (h *ExceptionHandler) ListOverrides(c echo.Context) error {
	date, err := parseDate(c.QueryParam("date"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date, want YYYY-MM-DD"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	overrides, err := h.Exceptions.Overrides(ctx, date)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"overrides": overrides})
}

// Substitute atomically replaces one member with another in an
// existing assignment.
func (h *ExceptionHandler) Substitute(c echo.Context) error {
	var req substitutionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.OriginalMemberID == 0 || req.NewMemberID == 0 || req.RoleID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "original_member_id, new_member_id and role_id required"})
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date, want YYYY-MM-DD"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	sub, err := h.Exceptions.HandleEmergencySubstitution(ctx, req.OriginalMemberID, req.NewMemberID, req.RoleID, date, req.Reason)
	if err != nil {
		if err == scheduler.ErrSubstitutionNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "no matching assignment to substitute"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "substitution failed"})
	}
	return c.JSON(http.StatusCreated, sub)
}

// SubstitutionHistory lists the substitutions a member was involved in.
func (h *ExceptionHandler) SubstitutionHistory(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid member id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	subs, err := h.Exceptions.SubstitutionHistory(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"substitutions": subs})
}

// RecordBlockout registers a blockout date for the authenticated member
// and reports any assignments that now conflict with it.  The cached
// candidate lists for the date are invalidated so the generator stops
// offering the member.
func (h *ExceptionHandler) RecordBlockout(c echo.Context) error {
	memberID, ok := memberIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req blockoutReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date, want YYYY-MM-DD"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	conflicts, err := h.Exceptions.RecordBlockoutDate(ctx, memberID, date, req.Reason)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "record blockout failed"})
	}
	h.Availability.Invalidate(ctx, date)

	return c.JSON(http.StatusCreated, echo.Map{"conflicts": conflicts})
}

// ListBlockouts returns the authenticated member's blockout dates
// within a range.
func (h *ExceptionHandler) ListBlockouts(c echo.Context) error {
	memberID, ok := memberIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	from, err := parseDate(c.QueryParam("from"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid from date, want YYYY-MM-DD"})
	}
	to, err := parseDate(c.QueryParam("to"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid to date, want YYYY-MM-DD"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	blockouts, err := h.Exceptions.BlockoutDates(ctx, memberID, from, to)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"blockouts": blockouts})
}
