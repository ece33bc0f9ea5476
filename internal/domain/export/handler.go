package export

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/opdlog/opdlog/internal/platform/notify"
)

// Handler exposes the export triggers to the UI.
type Handler struct {
	svc    *Service
	center *notify.Center
}

func NewHandler(svc *Service, center *notify.Center) *Handler {
	return &Handler{svc: svc, center: center}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/exports/:format", h.TriggerExport)
}

func (h *Handler) TriggerExport(c echo.Context) error {
	format := Format(c.Param("format"))
	res, err := h.svc.Export(c.Request().Context(), format)
	switch {
	case errors.Is(err, ErrDebounced):
		return echo.NewHTTPError(http.StatusTooManyRequests, err.Error())
	case errors.Is(err, ErrUnknownFormat):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case err != nil:
		h.center.Error("Export failed: %v", err)
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	h.center.Info("Exported %s.", res.Filename)
	return c.JSON(http.StatusAccepted, res)
}
