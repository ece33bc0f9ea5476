package visit

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/opdlog/opdlog/internal/domain/catalog"
	"github.com/opdlog/opdlog/internal/platform/notify"
	"github.com/opdlog/opdlog/pkg/pagination"
)

// Handler exposes the visit store to the UI layer. The UI owns selection
// interactivity; it submits final draft selections here.
type Handler struct {
	svc    *Service
	center *notify.Center
}

func NewHandler(svc *Service, center *notify.Center) *Handler {
	return &Handler{svc: svc, center: center}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/catalog", h.GetCatalog)
	api.GET("/visits", h.ListVisits)
	api.POST("/visits", h.CreateVisit)
	api.PUT("/visits/:uid", h.UpdateVisit)
	api.GET("/visits/:uid", h.GetVisit)
	api.DELETE("/visits", h.ClearAll)
	api.GET("/backup", h.Backup)
	api.POST("/restore", h.Restore)
	api.GET("/message", h.CurrentMessage)
}

// draftRequest carries the UI's validated selection state.
type draftRequest struct {
	PatientID    string `json:"patient_id"`
	Gender       string `json:"gender"`
	AgeGroup     string `json:"age_group"`
	DiagnosisNos []int  `json:"diagnosis_nos"`
	WWFlag       string `json:"ww_flag"`
	Disposition  string `json:"disposition"`
}

func (r draftRequest) toDraft() *Draft {
	return &Draft{
		PatientID:   r.PatientID,
		Gender:      r.Gender,
		AgeGroup:    r.AgeGroup,
		Diagnoses:   r.DiagnosisNos,
		WW:          r.WWFlag,
		Disposition: r.Disposition,
	}
}

// GetCatalog returns the full static reference data in one payload.
func (h *Handler) GetCatalog(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"genders":      catalog.Genders(),
		"age_buckets":  catalog.AgeBuckets(),
		"diagnoses":    catalog.Diagnoses(),
		"ww_options":   catalog.WWOptions(),
		"dispositions": catalog.Dispositions(),
	})
}

func (h *Handler) ListVisits(c echo.Context) error {
	pg := pagination.FromContext(c)
	all := h.svc.List(c.Request().Context())
	start, end := pg.Slice(len(all))
	return c.JSON(http.StatusOK, pagination.NewResponse(all[start:end], len(all), pg.Limit, pg.Offset))
}

func (h *Handler) GetVisit(c echo.Context) error {
	rec, err := h.svc.Find(c.Request().Context(), c.Param("uid"))
	if errors.Is(err, ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "visit not found")
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) CreateVisit(c echo.Context) error {
	var req draftRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	rec, err := h.svc.Create(c.Request().Context(), req.toDraft())
	if err != nil {
		return h.mutationError(err)
	}
	h.center.Info("Saved. New entry ready.")
	return c.JSON(http.StatusCreated, rec)
}

func (h *Handler) UpdateVisit(c echo.Context) error {
	var req draftRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d := req.toDraft()
	d.EditingUID = c.Param("uid")
	rec, err := h.svc.Update(c.Request().Context(), d)
	if err != nil {
		return h.mutationError(err)
	}
	h.center.Info("Updated.")
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) ClearAll(c echo.Context) error {
	if err := h.svc.ClearAll(c.Request().Context()); err != nil {
		h.center.Error("Clear failed: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	h.center.Info("Cleared.")
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Backup(c echo.Context) error {
	payload, err := h.svc.Backup(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="OPD_backup.json"`)
	return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, payload)
}

func (h *Handler) Restore(c echo.Context) error {
	payload, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	count, err := h.svc.Restore(c.Request().Context(), payload)
	if errors.Is(err, ErrRestoreFormat) {
		h.center.Error("Restore failed: %v", err)
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	if err != nil {
		h.center.Error("Restore failed: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	h.center.Info("Data restored/merged.")
	return c.JSON(http.StatusOK, map[string]int{"merged": count})
}

// CurrentMessage returns the transient inline message, or 204 when the
// slot is empty or expired.
func (h *Handler) CurrentMessage(c echo.Context) error {
	msg, ok := h.center.Current()
	if !ok {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, msg)
}

// mutationError maps domain errors to HTTP and mirrors them to the inline
// message channel so no failure is silent.
func (h *Handler) mutationError(err error) error {
	if IsValidation(err) {
		h.center.Error("%s", err.Error())
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	switch {
	case errors.Is(err, ErrRecordNotFound):
		h.center.Error("Record not found.")
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrNotEditing):
		h.center.Error("Not in edit mode.")
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		h.center.Error("Error: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
