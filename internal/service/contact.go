// Package service implements the request pipelines behind the form
// endpoints: validation, sanitization, and provider orchestration.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/narratia/narratia-api/internal/metrics"
	"github.com/narratia/narratia-api/internal/model"
	"github.com/narratia/narratia-api/internal/sendgrid"
)

// MailSender delivers transactional email. Satisfied by
// *sendgrid.Client.
type MailSender interface {
	Send(ctx context.Context, email sendgrid.Email) (*sendgrid.SendResult, error)
}

// ErrSendFailed wraps a mail provider failure on the contact path.
// The contact request is atomic: either the owner notification was
// dispatched or the whole operation failed.
var ErrSendFailed = errors.New("failed to send message")

// htmlStripper removes all markup. No tags, no attributes: free-text
// form fields are defanged before they reach an HTML email body.
var htmlStripper = bluemonday.StrictPolicy()

// ContactService forwards contact form submissions to the site owner.
type ContactService struct {
	mail       MailSender
	ownerEmail string
	logger     *slog.Logger
	metrics    metrics.Recorder
}

// NewContactService creates the contact form pipeline.
func NewContactService(mail MailSender, ownerEmail string, logger *slog.Logger, recorder metrics.Recorder) *ContactService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &ContactService{
		mail:       mail,
		ownerEmail: ownerEmail,
		logger:     logger.With("component", "service.contact"),
		metrics:    recorder,
	}
}

// Submit validates, sanitizes, and forwards one submission. No retries:
// each incoming request makes at most one provider call.
func (s *ContactService) Submit(ctx context.Context, sub model.ContactSubmission) error {
	if err := validateContact(sub); err != nil {
		s.metrics.IncContactSubmission("rejected")
		return err
	}

	sub.Name = strings.TrimSpace(htmlStripper.Sanitize(sub.Name))
	sub.Email = strings.TrimSpace(htmlStripper.Sanitize(sub.Email))
	sub.Message = strings.TrimSpace(htmlStripper.Sanitize(sub.Message))

	notification := buildOwnerNotification(s.ownerEmail, sub, time.Now().UTC())

	result, err := s.mail.Send(ctx, notification)
	if err != nil {
		s.logger.Error("contact notification send failed", "error", err)
		s.metrics.IncContactSubmission("failed")
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}

	s.logger.Info("contact notification sent",
		"message_id", result.MessageID,
		"name", sub.Name,
	)
	s.metrics.IncContactSubmission("sent")
	return nil
}
