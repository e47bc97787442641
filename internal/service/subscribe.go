package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/narratia/narratia-api/internal/mailchimp"
	"github.com/narratia/narratia-api/internal/metrics"
	"github.com/narratia/narratia-api/internal/model"
)

// ListClient manages audience members. Satisfied by *mailchimp.Client.
type ListClient interface {
	AddMember(ctx context.Context, audienceID string, input mailchimp.MemberInput) (*mailchimp.Member, error)
	UpdateMemberTags(ctx context.Context, audienceID, email string, tags []string) error
	GetMember(ctx context.Context, audienceID, email string) (*mailchimp.Member, error)
}

// ErrSubscribeFailed wraps a non-duplicate list provider failure.
var ErrSubscribeFailed = errors.New("failed to subscribe")

// SubscribeResult is the outcome of a successful signup.
type SubscribeResult struct {
	AlreadySubscribed bool
	Message           string
}

// SubscriptionService runs the email signup pipeline. The list record
// is the source of truth for "did the user sign up"; the welcome email
// and tag application are best-effort enrichments that never fail the
// request.
type SubscriptionService struct {
	list       ListClient
	mail       MailSender
	audienceID string
	baseURL    string
	logger     *slog.Logger
	metrics    metrics.Recorder
}

// NewSubscriptionService creates the signup pipeline.
func NewSubscriptionService(list ListClient, mail MailSender, audienceID, baseURL string, logger *slog.Logger, recorder metrics.Recorder) *SubscriptionService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &SubscriptionService{
		list:       list,
		mail:       mail,
		audienceID: audienceID,
		baseURL:    baseURL,
		logger:     logger.With("component", "service.subscribe"),
		metrics:    recorder,
	}
}

// Subscribe validates the request, upserts the subscriber, applies the
// derived tags, and sends the welcome email when the lead magnet has
// downloadable material.
func (s *SubscriptionService) Subscribe(ctx context.Context, req model.SubscribeRequest) (*SubscribeResult, error) {
	if err := validateSubscribe(req); err != nil {
		s.metrics.IncSubscription("rejected")
		return nil, err
	}

	tags := model.TagsFor(req.LeadMagnet, req.Language)

	alreadySubscribed := false
	_, err := s.list.AddMember(ctx, s.audienceID, mailchimp.MemberInput{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		if !mailchimp.IsDuplicate(err) {
			s.logger.Error("list signup failed", "error", err)
			s.metrics.IncSubscription("failed")
			return nil, fmt.Errorf("%w: %v", ErrSubscribeFailed, err)
		}
		// Already on the list is a success from the product's point of
		// view; the tags still get applied to the existing member.
		alreadySubscribed = true
	}

	// Tag application is auxiliary enrichment on both paths: failures
	// are logged, never surfaced.
	if len(tags) > 0 {
		if err := s.list.UpdateMemberTags(ctx, s.audienceID, req.Email, tags); err != nil {
			s.logger.Warn("tag update failed", "error", err, "tags", tags)
		}
	}

	if req.LeadMagnet.HasDownload() {
		welcome := buildWelcomeEmail(req, s.baseURL)
		if _, err := s.mail.Send(ctx, welcome); err != nil {
			// The signup already succeeded; a lost welcome email does
			// not change the response.
			s.logger.Warn("welcome email send failed", "error", err, "lead_magnet", string(req.LeadMagnet))
			s.metrics.IncWelcomeEmail("failed")
		} else {
			s.metrics.IncWelcomeEmail("sent")
		}
	}

	if alreadySubscribed {
		s.metrics.IncSubscription("duplicate")
		return &SubscribeResult{
			AlreadySubscribed: true,
			Message:           "You are already subscribed!",
		}, nil
	}

	s.metrics.IncSubscription("subscribed")
	return &SubscribeResult{Message: "Successfully subscribed!"}, nil
}

// Status looks up a subscriber. Callers collapse every failure,
// not-found included, into "not subscribed".
func (s *SubscriptionService) Status(ctx context.Context, email string) (*mailchimp.Member, error) {
	return s.list.GetMember(ctx, s.audienceID, email)
}
