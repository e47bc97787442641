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

// ContactHandler handles the contact form endpoint.
type ContactHandler struct {
	svc    *service.ContactService
	events *security.Logger
	logger *slog.Logger
}

// NewContactHandler creates a new ContactHandler.
func NewContactHandler(svc *service.ContactService, events *security.Logger, logger *slog.Logger) *ContactHandler {
	return &ContactHandler{
		svc:    svc,
		events: events,
		logger: logger,
	}
}

// Submit handles POST /api/contact.
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req dto.ContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	sub := model.ContactSubmission{
		Name:    req.Name,
		Email:   req.Email,
		Message: req.Message,
	}

	if err := h.svc.Submit(r.Context(), sub); err != nil {
		h.handleError(w, r, err)
		return
	}

	h.logger.Info("contact_submitted", "has_name", req.Name != "")

	writeJSON(w, http.StatusOK, dto.SuccessResponse{
		Success: true,
		Message: "Message sent successfully",
	})
}

// handleError maps contact pipeline errors to HTTP responses. Every
// validation rejection is also recorded as a security event with the
// client identifier, never with the submitted content.
func (h *ContactHandler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrMissingFields):
		h.logEvent(r, security.EventInvalidInput, "missing_fields")
		writeError(w, http.StatusBadRequest, "Missing required fields")
	case errors.Is(err, service.ErrNameTooLong):
		h.logEvent(r, security.EventInvalidInput, "name_too_long")
		writeError(w, http.StatusBadRequest, "Name is too long (max 100 characters)")
	case errors.Is(err, service.ErrEmailTooLong):
		h.logEvent(r, security.EventInvalidInput, "email_too_long")
		writeError(w, http.StatusBadRequest, "Email is too long")
	case errors.Is(err, service.ErrMessageTooLong):
		h.logEvent(r, security.EventInvalidInput, "message_too_long")
		writeError(w, http.StatusBadRequest, "Message is too long (max 5000 characters)")
	case errors.Is(err, service.ErrInvalidEmail):
		h.logEvent(r, security.EventEmailValidationFailed, "invalid_email")
		writeError(w, http.StatusBadRequest, "Invalid email address")
	case errors.Is(err, service.ErrSendFailed):
		h.logger.Error("contact_send_failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to send message")
	default:
		h.logger.Error("contact_failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to send message")
	}
}

func (h *ContactHandler) logEvent(r *http.Request, eventType security.EventType, reason string) {
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
