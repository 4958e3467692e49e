package calendar

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medrep/medrep/internal/platform/auth"
	"github.com/medrep/medrep/pkg/pagination"
)

type Handler struct {
	svc    *Service
	logger zerolog.Logger
}

func NewHandler(svc *Service, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// errorResponse is the JSON body of every failed calendar request.
type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	// Read and write: managers for any representative, representatives for
	// their own calendar. Admin passes every role check.
	g := api.Group("", auth.RequireRole(auth.RoleManager, auth.RoleRepresentative))
	g.GET("/representatives/:id/calendar", h.GetMonthCalendar)
	g.GET("/representatives/:id/calendar.ics", h.ExportICS)
	g.GET("/representatives/:id/events/upcoming", h.ListUpcoming)
	g.GET("/representatives/:id/events", h.ListEvents)

	g.POST("/events", h.CreateEvents)
	g.GET("/events/:id", h.GetEvent)
	g.PUT("/events/:id", h.UpdateEvent)
	g.DELETE("/events/:id", h.DeleteEvent)
}

func (h *Handler) GetMonthCalendar(c echo.Context) error {
	repID, err := h.representative(c)
	if err != nil {
		return err
	}
	year, month, err := yearMonth(c)
	if err != nil {
		return err
	}
	view, err := h.svc.MonthCalendar(c.Request().Context(), repID, year, month)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *Handler) ExportICS(c echo.Context) error {
	repID, err := h.representative(c)
	if err != nil {
		return err
	}
	year, month, err := yearMonth(c)
	if err != nil {
		return err
	}
	body, err := h.svc.ExportICS(c.Request().Context(), repID, year, month)
	if err != nil {
		return h.fail(c, err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="calendar-%s.ics"`, repID))
	return c.Blob(http.StatusOK, "text/calendar; charset=utf-8", body)
}

func (h *Handler) ListUpcoming(c echo.Context) error {
	repID, err := h.representative(c)
	if err != nil {
		return err
	}
	days, err := intQuery(c, "days")
	if err != nil {
		return err
	}
	items, err := h.svc.Upcoming(c.Request().Context(), repID, days)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"data": items})
}

func (h *Handler) ListEvents(c echo.Context) error {
	repID, err := h.representative(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListEvents(c.Request().Context(), repID, pg.Limit, pg.Offset)
	if err != nil {
		return h.fail(c, err)
	}
	if items == nil {
		items = []*Event{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

func (h *Handler) CreateEvents(c echo.Context) error {
	var in CreateEventInput
	if err := c.Bind(&in); err != nil {
		return badRequest("invalid request body")
	}
	ctx := c.Request().Context()
	for _, rid := range in.RepresentativeIDs {
		if !auth.CanAccessRepresentative(ctx, rid.String()) {
			return forbidden()
		}
	}
	events, err := h.svc.CreateEvents(ctx, in)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{"data": events})
}

func (h *Handler) GetEvent(c echo.Context) error {
	ev, err := h.ownedEvent(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ev)
}

func (h *Handler) UpdateEvent(c echo.Context) error {
	ev, err := h.ownedEvent(c)
	if err != nil {
		return err
	}
	var in UpdateEventInput
	if err := c.Bind(&in); err != nil {
		return badRequest("invalid request body")
	}
	updated, err := h.svc.UpdateEvent(c.Request().Context(), ev.ID, in)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *Handler) DeleteEvent(c echo.Context) error {
	ev, err := h.ownedEvent(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteEvent(c.Request().Context(), ev.ID); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- helpers --

// representative parses :id and checks the caller may see that calendar.
func (h *Handler) representative(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, badRequest("invalid representative id")
	}
	if !auth.CanAccessRepresentative(c.Request().Context(), id.String()) {
		return uuid.Nil, forbidden()
	}
	return id, nil
}

// ownedEvent loads :id and checks the caller may act on its owner.
func (h *Handler) ownedEvent(c echo.Context) (*Event, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return nil, badRequest("invalid id")
	}
	ev, err := h.svc.GetEvent(c.Request().Context(), id)
	if err != nil {
		return nil, h.fail(c, err)
	}
	if !auth.CanAccessRepresentative(c.Request().Context(), ev.RepresentativeID.String()) {
		// do not reveal events of other representatives
		return nil, h.fail(c, &NotFoundError{Resource: "event", ID: id.String()})
	}
	return ev, nil
}

func yearMonth(c echo.Context) (int, int, error) {
	year, err := intQuery(c, "year")
	if err != nil {
		return 0, 0, err
	}
	month, err := intQuery(c, "month")
	if err != nil {
		return 0, 0, err
	}
	return year, month, nil
}

// intQuery returns 0 when the parameter is absent.
func intQuery(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, errorResponse{
			Error:  "invalid query parameter",
			Fields: map[string]string{name: "must be an integer"},
		})
	}
	return n, nil
}

func badRequest(msg string) error {
	return echo.NewHTTPError(http.StatusBadRequest, errorResponse{Error: msg})
}

func forbidden() error {
	return echo.NewHTTPError(http.StatusForbidden, errorResponse{Error: "access to this representative is not allowed"})
}

// fail maps service errors onto HTTP responses.
func (h *Handler) fail(c echo.Context, err error) error {
	var verr *ValidationError
	var nf *NotFoundError
	switch {
	case errors.As(err, &verr):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, errorResponse{Error: "validation failed", Fields: verr.Fields})
	case errors.As(err, &nf):
		return echo.NewHTTPError(http.StatusNotFound, errorResponse{Error: nf.Error()})
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, errorResponse{Error: "not found"})
	}
	rid, _ := c.Get("request_id").(string)
	h.logger.Error().Err(err).
		Str("request_id", rid).
		Str("path", c.Request().URL.Path).
		Msg("calendar request failed")
	return echo.NewHTTPError(http.StatusInternalServerError, errorResponse{Error: "internal server error"})
}
