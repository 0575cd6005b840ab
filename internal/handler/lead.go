package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/shutterbloom/booking-api/internal/config"
	"github.com/shutterbloom/booking-api/internal/model"
	"github.com/shutterbloom/booking-api/internal/queue"
	queue_publisher "github.com/shutterbloom/booking-api/internal/service"
)

// LeadStore is the lead persistence surface. Satisfied by *repository.LeadRepo.
type LeadStore interface {
	Create(ctx context.Context, name, email, phone string) (model.Lead, error)
	List(ctx context.Context) ([]model.Lead, error)
}

// LeadHandler serves lead capture and listing. Capture is public; after the
// database write commits, the lead is relayed to the automation webhooks
// through the lead.captured queue without blocking the response.
type LeadHandler struct {
	Cfg   config.Config
	Leads LeadStore
}

func NewLeadHandler(cfg config.Config, leads LeadStore) *LeadHandler {
	return &LeadHandler{Cfg: cfg, Leads: leads}
}

type leadCreateReq struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Create handles POST /api/leads/.
func (h *LeadHandler) Create(c echo.Context) error {
	var req leadCreateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Phone = strings.TrimSpace(req.Phone)
	if req.Name == "" || req.Phone == "" || !strings.Contains(req.Email, "@") {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, email and phone are required"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	lead, err := h.Leads.Create(ctx, req.Name, req.Email, req.Phone)
	if err != nil {
		log.Error().Err(err).Msg("create lead failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}

	// Relay after the write committed. Fire-and-forget: nothing from here
	// can change the response already being sent.
	go h.relay(lead)

	return c.JSON(http.StatusCreated, echo.Map{"status": "success", "lead": lead})
}

// List handles GET /api/leads/ (protected).
func (h *LeadHandler) List(c echo.Context) error {
	ctx, cancel := reqContext(c)
	defer cancel()

	leads, err := h.Leads.List(ctx)
	if err != nil {
		log.Error().Err(err).Msg("list leads failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"leads": leads})
}

// relay enqueues one webhook job per configured automation target. Publish
// errors are already logged by the publisher and deliberately dropped here.
func (h *LeadHandler) relay(lead model.Lead) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	targets := []struct {
		label, url   string
		registerLink string
	}{
		{queue.LabelSheetIntake, h.Cfg.LeadSheetWebhook, ""},
		{queue.LabelWhatsAppNotify, h.Cfg.LeadWhatsAppWebhook, h.Cfg.RegisterLink},
	}
	for _, t := range targets {
		if t.url == "" {
			continue
		}
		payload, err := json.Marshal(queue.LeadPayload{
			ID:           lead.ID,
			Name:         lead.Name,
			Email:        lead.Email,
			Phone:        lead.Phone,
			CapturedAt:   lead.CreatedAt.UTC().Format(time.RFC3339),
			RegisterLink: t.registerLink,
		})
		if err != nil {
			log.Error().Err(err).Str("label", t.label).Msg("marshal lead payload failed")
			continue
		}
		_ = queue_publisher.PublishWebhookJob(ctx, h.Cfg.AMQPURL, queue.WebhookJob{
			ID:      uuid.NewString(),
			Label:   t.label,
			URL:     t.url,
			Payload: payload,
		})
	}
}
