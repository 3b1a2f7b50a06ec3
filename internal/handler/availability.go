package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/stgiuliani/roster-engine/internal/repository"
	"github.com/stgiuliani/roster-engine/internal/service"
)

// AvailabilityHandler lets members declare and review their own
// availability.
type AvailabilityHandler struct {
	Repo  *repository.AvailabilityRepo
	Cache *service.CachedAvailability
}

func NewAvailabilityHandler(repo *repository.AvailabilityRepo, cache *service.CachedAvailability) *AvailabilityHandler {
	return &AvailabilityHandler{Repo: repo, Cache: cache}
}

type availabilityReq struct {
	Date        string  `json:"date"` // YYYY-MM-DD
	IsAvailable bool    `json:"is_available"`
	Reason      *string `json:"reason"`
}

// Set upserts the authenticated member's availability for a date and
// invalidates the cached candidate lists for it.
func (h *AvailabilityHandler) Set(c echo.Context) error {
	memberID, ok := memberIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req availabilityReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date, want YYYY-MM-DD"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Repo.Set(ctx, memberID, date, req.IsAvailable, req.Reason); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "set availability failed"})
	}
	h.Cache.Invalidate(ctx, date)
	return c.NoContent(http.StatusNoContent)
}

// List returns the authenticated member's declarations within a range.
func (h *AvailabilityHandler) List(c echo.Context) error {
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

	list, err := h.Repo.ListForMember(ctx, memberID, from, to)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"availability": list})
}
