package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/narratia/narratia-api/internal/handler/dto"
	"github.com/narratia/narratia-api/internal/middleware"
	"github.com/narratia/narratia-api/internal/model"
	"github.com/narratia/narratia-api/internal/security"
	"github.com/narratia/narratia-api/internal/service"
)

// SubscribeHandler handles the email signup endpoints.
type SubscribeHandler struct {
	svc    *service.SubscriptionService
	events *security.Logger
	logger *slog.Logger
}

// NewSubscribeHandler creates a new SubscribeHandler.
func NewSubscribeHandler(svc *service.SubscriptionService, events *security.Logger, logger *slog.Logger) *SubscribeHandler {
	return &SubscribeHandler{
		svc:    svc,
		events: events,
		logger: logger,
	}
}

// Subscribe handles POST /api/subscribe.
func (h *SubscribeHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req dto.SubscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	input := model.SubscribeRequest{
		Email:      req.Email,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Language:   model.Language(req.Language),
		LeadMagnet: model.LeadMagnet(req.LeadMagnet),
		Consent:    req.Consent,
	}

	result, err := h.svc.Subscribe(r.Context(), input)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.logger.Info("subscribed",
		"lead_magnet", string(input.LeadMagnet),
		"language", string(input.Language),
		"already_subscribed", result.AlreadySubscribed,
	)

	writeJSON(w, http.StatusOK, dto.SubscribeResponse{
		Success:           true,
		Message:           result.Message,
		AlreadySubscribed: result.AlreadySubscribed,
	})
}

// Status handles GET /api/subscribe. A missing email is the only error
// this endpoint reports; a provider failure or an unknown address both
// answer subscribed=false so the frontend needs no error branch.
func (h *SubscribeHandler) Status(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		writeError(w, http.StatusBadRequest, "Email required")
		return
	}

	member, err := h.svc.Status(r.Context(), email)
	if err != nil {
		writeJSON(w, http.StatusOK, dto.StatusResponse{Subscribed: false})
		return
	}

	writeJSON(w, http.StatusOK, dto.StatusResponse{
		Subscribed: true,
		Data:       member,
	})
}

func (h *SubscribeHandler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidEmail):
		h.logEvent(r, security.EventEmailValidationFailed, "invalid_email")
		writeError(w, http.StatusBadRequest, "Invalid email address")
	case errors.Is(err, service.ErrConsentRequired):
		h.logEvent(r, security.EventInvalidInput, "consent_missing")
		writeError(w, http.StatusBadRequest, "Consent is required")
	case errors.Is(err, service.ErrNameTooLong):
		h.logEvent(r, security.EventInvalidInput, "name_too_long")
		writeError(w, http.StatusBadRequest, "Name is too long (max 100 characters)")
	case errors.Is(err, service.ErrSubscribeFailed):
		h.logger.Error("subscribe_failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to subscribe")
	default:
		h.logger.Error("subscribe_failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to subscribe")
	}
}

func (h *SubscribeHandler) logEvent(r *http.Request, eventType security.EventType, reason string) {
	if h.events == nil {
		return
	}
	h.events.Log(r.Context(), security.Event{
		Type:     eventType,
		Endpoint: r.URL.Path,
		IP:       middleware.ClientIdentifier(r),
		Details:  map[string]any{"reason": reason},
	})
}
