package directory

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medrep/medrep/internal/platform/auth"
	"github.com/medrep/medrep/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	// Representatives can look up colleagues and customers when planning.
	read := api.Group("", auth.RequireRole(auth.RoleManager, auth.RoleRepresentative))
	read.GET("/representatives", h.ListRepresentatives)
	read.GET("/representatives/:id", h.GetRepresentative)
	read.GET("/customers", h.ListCustomers)
	read.GET("/customers/:id", h.GetCustomer)
}

func (h *Handler) ListRepresentatives(c echo.Context) error {
	f := RepresentativeFilter{Search: c.QueryParam("q")}
	if v := c.QueryParam("active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "active must be true or false")
		}
		f.Active = &active
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListRepresentatives(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	if items == nil {
		items = []*Representative{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

func (h *Handler) GetRepresentative(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	rep, err := h.svc.GetRepresentative(c.Request().Context(), id)
	if err != nil {
		return lookupError(err, "representative not found")
	}
	return c.JSON(http.StatusOK, rep)
}

func (h *Handler) ListCustomers(c echo.Context) error {
	f := CustomerFilter{
		CustomerType: strings.ToLower(strings.TrimSpace(c.QueryParam("type"))),
		Search:       c.QueryParam("q"),
	}
	if f.CustomerType != "" && !validCustomerType(f.CustomerType) {
		return echo.NewHTTPError(http.StatusBadRequest, "type must be one of: doctor, hospital, pharmacy, clinic")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListCustomers(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	if items == nil {
		items = []*Customer{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

func (h *Handler) GetCustomer(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	cust, err := h.svc.GetCustomer(c.Request().Context(), id)
	if err != nil {
		return lookupError(err, "customer not found")
	}
	return c.JSON(http.StatusOK, cust)
}

func lookupError(err error, notFound string) error {
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, notFound)
	}
	return err
}
