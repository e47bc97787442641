package service

import (
	"context"

	"github.com/narratia/narratia-api/internal/mailchimp"
	"github.com/narratia/narratia-api/internal/sendgrid"
)

// fakeMailSender records sends and can be set to fail.
type fakeMailSender struct {
	sent []sendgrid.Email
	err  error
}

func (f *fakeMailSender) Send(ctx context.Context, email sendgrid.Email) (*sendgrid.SendResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, email)
	return &sendgrid.SendResult{MessageID: "msg-1", StatusCode: 202}, nil
}

// fakeListClient records member and tag calls and can be set to fail
// per operation.
type fakeListClient struct {
	addErr error
	tagErr error
	getErr error

	added  []mailchimp.MemberInput
	tagged [][]string
	member *mailchimp.Member
}

func (f *fakeListClient) AddMember(ctx context.Context, audienceID string, input mailchimp.MemberInput) (*mailchimp.Member, error) {
	if f.addErr != nil {
		return nil, f.addErr
	}
	f.added = append(f.added, input)
	return &mailchimp.Member{
		ID:           mailchimp.SubscriberHash(input.Email),
		EmailAddress: input.Email,
		Status:       "subscribed",
	}, nil
}

func (f *fakeListClient) UpdateMemberTags(ctx context.Context, audienceID, email string, tags []string) error {
	if f.tagErr != nil {
		return f.tagErr
	}
	f.tagged = append(f.tagged, tags)
	return nil
}

func (f *fakeListClient) GetMember(ctx context.Context, audienceID, email string) (*mailchimp.Member, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.member, nil
}

// duplicateErr mimics the provider's "member already exists" rejection.
func duplicateErr() error {
	return &mailchimp.APIError{
		StatusCode: 400,
		Title:      "Member Exists",
		Detail:     "is already a list member",
	}
}
