package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/aman-zulfiqar/pool-quote-engine/internal/engine"
	"github.com/aman-zulfiqar/pool-quote-engine/internal/schedules"
)

func scheduleResponse(o *schedules.Override) ScheduleResponse {
	return ScheduleResponse{Pool: o.Pool, Schedule: o.Schedule, UpdatedAt: o.UpdatedAt}
}

// SchedulesList returns all fee schedule overrides
func (h *Handlers) SchedulesList(c echo.Context) error {
	if h.Schedules == nil {
		return h.err(c, http.StatusServiceUnavailable, "schedule store is not configured", nil)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Schedules.List(ctx)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to list schedules", nil)
	}
	out := make([]ScheduleResponse, 0, len(items))
	for _, o := range items {
		out = append(out, scheduleResponse(o))
	}
	return c.JSON(http.StatusOK, map[string]any{"items": out})
}

// SchedulesGet retrieves the override for a pool
// Returns 404 if none is set
func (h *Handlers) SchedulesGet(c echo.Context) error {
	if h.Schedules == nil {
		return h.err(c, http.StatusServiceUnavailable, "schedule store is not configured", nil)
	}
	pool := c.Param("pool")
	if err := schedules.ValidatePool(pool); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid pool", map[string]any{"pool": "invalid format"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	out, err := h.Schedules.Get(ctx, pool)
	if err != nil {
		if errors.Is(err, schedules.ErrNotFound) {
			return h.err(c, http.StatusNotFound, "schedule not found", nil)
		}
		return h.err(c, http.StatusInternalServerError, "failed to get schedule", nil)
	}
	return c.JSON(http.StatusOK, scheduleResponse(out))
}

// SchedulesPut creates or replaces the override for a configured pool
func (h *Handlers) SchedulesPut(c echo.Context) error {
	if h.Schedules == nil {
		return h.err(c, http.StatusServiceUnavailable, "schedule store is not configured", nil)
	}
	pool := c.Param("pool")
	if err := schedules.ValidatePool(pool); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid pool", map[string]any{"pool": "invalid format"})
	}
	if _, ok := h.findPool(pool); !ok {
		return h.err(c, http.StatusNotFound, "pool not found", nil)
	}

	var req engine.FeeSchedule
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	if err := req.Validate(); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid schedule", map[string]any{"err": err.Error()})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	out, err := h.Schedules.Upsert(ctx, pool, req)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to upsert schedule", nil)
	}
	return c.JSON(http.StatusOK, scheduleResponse(out))
}

// SchedulesDelete removes the override for a pool
// Returns 204 No Content on successful deletion
func (h *Handlers) SchedulesDelete(c echo.Context) error {
	if h.Schedules == nil {
		return h.err(c, http.StatusServiceUnavailable, "schedule store is not configured", nil)
	}
	pool := c.Param("pool")
	if err := schedules.ValidatePool(pool); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid pool", map[string]any{"pool": "invalid format"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	if err := h.Schedules.Delete(ctx, pool); err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to delete schedule", nil)
	}
	return c.NoContent(http.StatusNoContent)
}
