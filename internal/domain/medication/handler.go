package medication

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ehr/records/internal/platform/auth"
	"github.com/ehr/records/internal/platform/httpx"
	"github.com/ehr/records/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/medications", auth.RequireRole("doctor"))
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.POST("", h.Prescribe)
	g.DELETE("/:id", h.Delete)
}

func toHTTP(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrUnknownRecord):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ErrNoOrganization):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, ErrNameRequired), errors.Is(err, ErrRecordRequired):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

func (h *Handler) Prescribe(c echo.Context) error {
	var m Medication
	if err := c.Bind(&m); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Prescribe(c.Request().Context(), &m); err != nil {
		return toHTTP(err)
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := httpx.PathUUID(c, "id")
	if err != nil {
		return err
	}
	m, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return toHTTP(err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := httpx.PathUUID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return toHTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) List(c echo.Context) error {
	f := Filter{
		Name: c.QueryParam("name"),
		Code: httpx.StringParam(c, "code"),
	}
	var err error
	if f.MedicalRecordID, err = httpx.UUIDParam(c, "medicalRecordId"); err != nil {
		return err
	}
	if f.PrescribedFrom, err = httpx.TimeParam(c, "prescribedFrom"); err != nil {
		return err
	}
	if f.PrescribedTo, err = httpx.EndTimeParam(c, "prescribedTo"); err != nil {
		return err
	}

	p := pagination.FromContext(c)
	items, total, err := h.svc.Search(c.Request().Context(), f, p)
	if err != nil {
		return toHTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewPage(items, total, p))
}
