package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/stgiuliani/roster-engine/internal/scheduler"
)

// ScheduleHandler serves automatic schedule generation.
type ScheduleHandler struct {
	Generator *scheduler.Generator
}

func NewScheduleHandler(gen *scheduler.Generator) *ScheduleHandler {
	return &ScheduleHandler{Generator: gen}
}

type generateReq struct {
	Date        string   `json:"date"` // YYYY-MM-DD
	ServiceType string   `json:"service_type"`
	RoleIDs     []uint64 `json:"role_ids"`
}

// Generate fills each requested role with its best available candidate
// and commits the whole selection as one batch.  Roles that could not
// be filled are reported back so the planner can follow up manually.
func (h *ScheduleHandler) Generate(c echo.Context) error {
	var req generateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date, want YYYY-MM-DD"})
	}
	if req.ServiceType == "" || len(req.RoleIDs) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "service_type and role_ids required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	created, err := h.Generator.GenerateOptimalSchedule(ctx, date, req.ServiceType, req.RoleIDs)
	if err != nil {
		if ve, ok := scheduler.AsValidationError(err); ok {
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{
				"error":     ve.Message,
				"conflicts": ve.Conflicts,
			})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "schedule generation failed"})
	}

	filled := make(map[uint64]bool, len(created))
	for _, a := range created {
		filled[a.RoleID] = true
	}
	unfilled := make([]uint64, 0)
	for _, roleID := range req.RoleIDs {
		if !filled[roleID] {
			unfilled = append(unfilled, roleID)
		}
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"assignments":    created,
		"unfilled_roles": unfilled,
	})
}
