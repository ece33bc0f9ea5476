package summary

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/opdlog/opdlog/internal/domain/visit"
)

// Handler serves the daily summary to the UI.
type Handler struct {
	svc *visit.Service
}

func NewHandler(svc *visit.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/summary", h.GetSummary)
}

// GetSummary computes the summary for ?date=YYYY-MM-DD (default today),
// resolved in the process's local zone.
func (h *Handler) GetSummary(c echo.Context) error {
	ref := time.Now()
	if raw := c.QueryParam("date"); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, time.Local)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
		}
		ref = parsed
	}
	return c.JSON(http.StatusOK, Compute(h.svc.All(c.Request().Context()), ref))
}
