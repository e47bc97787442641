package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/narratia/narratia-api/internal/mailchimp"
	"github.com/narratia/narratia-api/internal/sendgrid"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubMailSender records sent emails and returns a configured error.
type stubMailSender struct {
	sent []sendgrid.Email
	err  error
}

func (s *stubMailSender) Send(ctx context.Context, email sendgrid.Email) (*sendgrid.SendResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.sent = append(s.sent, email)
	return &sendgrid.SendResult{MessageID: "stub", StatusCode: http.StatusAccepted}, nil
}

// stubListClient implements the audience client against in-memory state.
type stubListClient struct {
	addErr error
	getErr error
	member *mailchimp.Member
	added  []mailchimp.MemberInput
	tagged [][]string
}

func (s *stubListClient) AddMember(ctx context.Context, audienceID string, input mailchimp.MemberInput) (*mailchimp.Member, error) {
	if s.addErr != nil {
		return nil, s.addErr
	}
	s.added = append(s.added, input)
	return &mailchimp.Member{EmailAddress: input.Email, Status: "subscribed"}, nil
}

func (s *stubListClient) UpdateMemberTags(ctx context.Context, audienceID, email string, tags []string) error {
	s.tagged = append(s.tagged, tags)
	return nil
}

func (s *stubListClient) GetMember(ctx context.Context, audienceID, email string) (*mailchimp.Member, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.member, nil
}
