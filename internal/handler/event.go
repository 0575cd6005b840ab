package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/shutterbloom/booking-api/internal/model"
	"github.com/shutterbloom/booking-api/internal/repository"
)

// EventStore is the event persistence surface the handlers need. Satisfied
// by *repository.EventRepo.
type EventStore interface {
	Create(ctx context.Context, e *model.Event, userID uint64) error
	GetByIDAndUser(ctx context.Context, id, userID uint64) (model.Event, error)
	ListByUser(ctx context.Context, userID uint64, skip, limit int) ([]model.Event, error)
	Update(ctx context.Context, id, userID uint64, patch model.EventPatch) (model.Event, error)
	Delete(ctx context.Context, id, userID uint64) error
}

// EventHandler serves the /api/events endpoints. Every operation is scoped
// to the authenticated user; another user's event behaves like a missing one.
type EventHandler struct {
	Events EventStore
}

func NewEventHandler(events EventStore) *EventHandler {
	return &EventHandler{Events: events}
}

type eventCreateReq struct {
	NomeCliente           string            `json:"nomeCliente"`
	TipoEvento            string            `json:"tipoEvento"`
	DataOrcamento         model.Date        `json:"dataOrcamento"`
	DataEvento            model.Date        `json:"dataEvento"`
	Status                model.EventStatus `json:"status"`
	ValorEvento           *float64          `json:"valorEvento"`
	IraParcelar           *bool             `json:"iraParcelar"`
	QuantParcelas         *int              `json:"quantParcelas"`
	DataPrimeiroPagamento *model.Date       `json:"dataPrimeiroPagamento"`
	ContatoCliente        *string           `json:"contatoCliente"`
	MotivoRecusa          *string           `json:"motivoRecusa"`
}

// List handles GET /api/events/ with skip/limit pagination.
func (h *EventHandler) List(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	skip := 0
	if v := c.QueryParam("skip"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			skip = n
		}
	}
	limit := 100
	if v := c.QueryParam("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 && n <= 100 {
			limit = n
		}
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	log.Info().Uint64("user_id", userID).Int("skip", skip).Int("limit", limit).Msg("listing events")
	items, err := h.Events.ListByUser(ctx, userID, skip, limit)
	if err != nil {
		log.Error().Err(err).Uint64("user_id", userID).Msg("list events failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
	return c.JSON(http.StatusOK, items)
}

// Create handles POST /api/events/. A past dataEvento is rejected here and
// only here; the stage rules apply to every write including this one.
func (h *EventHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req eventCreateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.Status == "" {
		req.Status = model.StatusOrcamentoRecebido
	}

	ev := model.Event{
		NomeCliente:           req.NomeCliente,
		TipoEvento:            req.TipoEvento,
		DataOrcamento:         req.DataOrcamento,
		DataEvento:            req.DataEvento,
		Status:                req.Status,
		ValorEvento:           req.ValorEvento,
		IraParcelar:           req.IraParcelar,
		QuantParcelas:         req.QuantParcelas,
		DataPrimeiroPagamento: req.DataPrimeiroPagamento,
		ContatoCliente:        req.ContatoCliente,
		MotivoRecusa:          req.MotivoRecusa,
	}
	if err := ev.ValidateNew(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if err := ev.ValidateStatusFields(); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error()})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Events.Create(ctx, &ev, userID); err != nil {
		log.Error().Err(err).Uint64("user_id", userID).Msg("create event failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
	log.Info().Uint64("user_id", userID).Uint64("event_id", ev.ID).Msg("event created")
	return c.JSON(http.StatusCreated, ev)
}

// Get handles GET /api/events/:id.
func (h *EventHandler) Get(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	ev, err := h.Events.GetByIDAndUser(ctx, id, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		log.Error().Err(err).Uint64("event_id", id).Msg("get event failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
	return c.JSON(http.StatusOK, ev)
}

// Update handles PATCH /api/events/:id. The repository merges the sparse
// patch onto the persisted row and re-validates the effective state before
// committing; a stage-rule violation rolls everything back.
func (h *EventHandler) Update(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var patch model.EventPatch
	if err := c.Bind(&patch); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	ev, err := h.Events.Update(ctx, id, userID, patch)
	if err != nil {
		var fe *model.FieldError
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		case errors.As(err, &fe):
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": fe.Message, "field": fe.Field})
		}
		log.Error().Err(err).Uint64("event_id", id).Msg("update event failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
	log.Info().Uint64("user_id", userID).Uint64("event_id", id).Msg("event updated")
	return c.JSON(http.StatusOK, ev)
}

// Delete handles DELETE /api/events/:id.
func (h *EventHandler) Delete(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Events.Delete(ctx, id, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		log.Error().Err(err).Uint64("event_id", id).Msg("delete event failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
	log.Info().Uint64("user_id", userID).Uint64("event_id", id).Msg("event deleted")
	return c.NoContent(http.StatusNoContent)
}
