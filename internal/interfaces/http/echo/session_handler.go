package echo

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	domain "github.com/hireloop/resume-import/internal/domain/resumeimport"
)

type sessionView struct {
	ID             string               `json:"id"`
	OrganizationID string               `json:"organization_id"`
	OwnerID        string               `json:"owner_id"`
	Source         string               `json:"source"`
	Status         domain.SessionStatus `json:"status"`
	Progress       domain.Progress      `json:"progress"`
	StartedAt      time.Time            `json:"started_at"`
	CompletedAt    *time.Time           `json:"completed_at,omitempty"`
	Errors         []string             `json:"errors,omitempty"`
}

func toSessionView(s domain.UploadSession) sessionView {
	return sessionView{
		ID:             s.ID,
		OrganizationID: s.OrganizationID,
		OwnerID:        s.OwnerID,
		Source:         s.Source,
		Status:         s.Status,
		Progress:       s.Progress(),
		StartedAt:      s.StartedAt,
		CompletedAt:    s.CompletedAt,
		Errors:         s.Errors,
	}
}

func (h *ImportHandler) GetProgress(c echo.Context) error {
	progress, err := h.imports.GetProgress(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, apiResponse{Data: progress})
}

func (h *ImportHandler) GetResults(c echo.Context) error {
	results, err := h.imports.GetResults(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, apiResponse{Data: results})
}

func (h *ImportHandler) CancelImport(c echo.Context) error {
	sessionID := c.Param("id")
	if err := h.imports.CancelImport(c.Request().Context(), sessionID); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusAccepted, apiResponse{Data: map[string]any{
		"session_id": sessionID,
		"status":     domain.SessionCancelled,
	}})
}

func (h *ImportHandler) ListSessions(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{
				Code:    "invalid_limit",
				Message: "limit must be a non-negative integer",
			}})
		}
		limit = n
	}

	sessions, err := h.imports.ListSessions(c.Request().Context(), c.QueryParam("organization_id"), limit)
	if err != nil {
		return writeError(c, err)
	}

	views := make([]sessionView, 0, len(sessions))
	for _, s := range sessions {
		views = append(views, toSessionView(s))
	}
	return c.JSON(http.StatusOK, apiResponse{Data: views})
}
