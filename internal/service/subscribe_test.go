package service

import (
	"context"
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	"github.com/narratia/narratia-api/internal/mailchimp"
	"github.com/narratia/narratia-api/internal/metrics"
	"github.com/narratia/narratia-api/internal/model"
)

func newSubscriptionService(list *fakeListClient, mail *fakeMailSender) *SubscriptionService {
	return NewSubscriptionService(list, mail, "aud-1", "https://narratia.pl", slog.Default(), nil)
}

func TestSubscriptionService_Subscribe(t *testing.T) {
	list := &fakeListClient{}
	mail := &fakeMailSender{}
	svc := newSubscriptionService(list, mail)

	result, err := svc.Subscribe(context.Background(), model.SubscribeRequest{
		Email:      "anna@example.com",
		FirstName:  "Anna",
		LastName:   "Nowak",
		Language:   model.LanguagePolish,
		LeadMagnet: model.LeadMagnetEssay,
		Consent:    true,
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	if result.AlreadySubscribed {
		t.Error("AlreadySubscribed = true for a fresh signup")
	}
	if result.Message != "Successfully subscribed!" {
		t.Errorf("Message = %q", result.Message)
	}

	if len(list.added) != 1 {
		t.Fatalf("AddMember called %d times, want 1", len(list.added))
	}
	if list.added[0].FirstName != "Anna" || list.added[0].LastName != "Nowak" {
		t.Errorf("merge fields = %+v", list.added[0])
	}

	if len(list.tagged) != 1 {
		t.Fatalf("UpdateMemberTags called %d times, want 1", len(list.tagged))
	}
	wantTags := []string{"essay-download", "lead-magnet", "lang-pl"}
	if !reflect.DeepEqual(list.tagged[0], wantTags) {
		t.Errorf("tags = %v, want %v", list.tagged[0], wantTags)
	}

	if len(mail.sent) != 1 {
		t.Fatalf("welcome emails sent = %d, want 1", len(mail.sent))
	}
	if !strings.Contains(mail.sent[0].Subject, "esej") {
		t.Errorf("Subject = %q, want the Polish essay keyword", mail.sent[0].Subject)
	}
	if !strings.Contains(mail.sent[0].Text, "https://narratia.pl/pl/download/essay") {
		t.Error("welcome email missing the download landing page link")
	}
}

func TestSubscriptionService_SubscribeConsentRequired(t *testing.T) {
	list := &fakeListClient{}
	mail := &fakeMailSender{}
	svc := newSubscriptionService(list, mail)

	_, err := svc.Subscribe(context.Background(), model.SubscribeRequest{
		Email: "anna@example.com",
	})
	if !errors.Is(err, ErrConsentRequired) {
		t.Errorf("error = %v, want ErrConsentRequired", err)
	}
	if len(list.added) != 0 {
		t.Error("list provider must never be called without consent")
	}
}

func TestSubscriptionService_SubscribeNoWelcomeForNewsletter(t *testing.T) {
	tests := []struct {
		magnet      model.LeadMagnet
		wantWelcome bool
	}{
		{model.LeadMagnetEssay, true},
		{model.LeadMagnetChapters, true},
		{model.LeadMagnetNewsletter, false},
		{model.LeadMagnetAudio, false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.magnet), func(t *testing.T) {
			list := &fakeListClient{}
			mail := &fakeMailSender{}
			svc := newSubscriptionService(list, mail)

			_, err := svc.Subscribe(context.Background(), model.SubscribeRequest{
				Email:      "anna@example.com",
				Language:   model.LanguageEnglish,
				LeadMagnet: tt.magnet,
				Consent:    true,
			})
			if err != nil {
				t.Fatalf("Subscribe() error = %v", err)
			}

			want := 0
			if tt.wantWelcome {
				want = 1
			}
			if len(mail.sent) != want {
				t.Errorf("welcome emails sent = %d, want %d", len(mail.sent), want)
			}
		})
	}
}

func TestSubscriptionService_SubscribeEnglishEssaySubject(t *testing.T) {
	list := &fakeListClient{}
	mail := &fakeMailSender{}
	svc := newSubscriptionService(list, mail)

	_, err := svc.Subscribe(context.Background(), model.SubscribeRequest{
		Email:      "john@example.com",
		Language:   model.LanguageEnglish,
		LeadMagnet: model.LeadMagnetEssay,
		Consent:    true,
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if len(mail.sent) != 1 {
		t.Fatalf("welcome emails sent = %d, want 1", len(mail.sent))
	}
	if !strings.Contains(mail.sent[0].Subject, "Essay") {
		t.Errorf("Subject = %q, want the English essay keyword", mail.sent[0].Subject)
	}
	// No first name given: the greeting falls back to Reader.
	if !strings.Contains(mail.sent[0].Text, "Hello Reader!") {
		t.Errorf("greeting fallback missing from: %q", mail.sent[0].Text[:60])
	}
}

func TestSubscriptionService_SubscribeDuplicateIsSuccess(t *testing.T) {
	list := &fakeListClient{addErr: duplicateErr()}
	mail := &fakeMailSender{}
	svc := newSubscriptionService(list, mail)

	result, err := svc.Subscribe(context.Background(), model.SubscribeRequest{
		Email:      "anna@example.com",
		Language:   model.LanguageEnglish,
		LeadMagnet: model.LeadMagnetNewsletter,
		Consent:    true,
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v, duplicate must not fail", err)
	}

	if !result.AlreadySubscribed {
		t.Error("AlreadySubscribed = false, want true")
	}
	if result.Message != "You are already subscribed!" {
		t.Errorf("Message = %q", result.Message)
	}

	// Tags are still applied to the existing member.
	if len(list.tagged) != 1 {
		t.Errorf("UpdateMemberTags called %d times, want 1", len(list.tagged))
	}
}

func TestSubscriptionService_SubscribeProviderHardFailure(t *testing.T) {
	list := &fakeListClient{addErr: &mailchimp.APIError{StatusCode: 500, Title: "Internal Server Error"}}
	mail := &fakeMailSender{}
	svc := newSubscriptionService(list, mail)

	_, err := svc.Subscribe(context.Background(), model.SubscribeRequest{
		Email:      "error@example.com",
		LeadMagnet: model.LeadMagnetEssay,
		Consent:    true,
	})
	if !errors.Is(err, ErrSubscribeFailed) {
		t.Errorf("error = %v, want ErrSubscribeFailed", err)
	}
	if len(mail.sent) != 0 {
		t.Error("welcome email must not be sent when the signup failed")
	}
}

func TestSubscriptionService_SubscribeTagFailureIsSwallowed(t *testing.T) {
	list := &fakeListClient{tagErr: errors.New("tags endpoint down")}
	mail := &fakeMailSender{}
	svc := newSubscriptionService(list, mail)

	result, err := svc.Subscribe(context.Background(), model.SubscribeRequest{
		Email:      "anna@example.com",
		Language:   model.LanguageEnglish,
		LeadMagnet: model.LeadMagnetNewsletter,
		Consent:    true,
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v, tag failure must not surface", err)
	}
	if result.AlreadySubscribed {
		t.Error("AlreadySubscribed should be false")
	}
}

func TestSubscriptionService_SubscribeWelcomeFailureIsSwallowed(t *testing.T) {
	list := &fakeListClient{}
	mail := &fakeMailSender{err: errors.New("mail provider down")}
	recorder := metrics.NewInMemory()
	svc := NewSubscriptionService(list, mail, "aud-1", "https://narratia.pl", slog.Default(), recorder)

	result, err := svc.Subscribe(context.Background(), model.SubscribeRequest{
		Email:      "anna@example.com",
		Language:   model.LanguagePolish,
		LeadMagnet: model.LeadMagnetChapters,
		Consent:    true,
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v; the list record is the success criterion", err)
	}
	if result.AlreadySubscribed {
		t.Error("AlreadySubscribed should be false")
	}

	snap := recorder.Snapshot()
	if snap.WelcomeEmails["failed"] != 1 {
		t.Errorf("welcome failed counter = %d, want 1", snap.WelcomeEmails["failed"])
	}
	if snap.Subscriptions["subscribed"] != 1 {
		t.Errorf("subscribed counter = %d, want 1", snap.Subscriptions["subscribed"])
	}
}

func TestSubscriptionService_Status(t *testing.T) {
	member := &mailchimp.Member{EmailAddress: "anna@example.com", Status: "subscribed"}
	list := &fakeListClient{member: member}
	svc := newSubscriptionService(list, &fakeMailSender{})

	got, err := svc.Status(context.Background(), "anna@example.com")
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if got.EmailAddress != "anna@example.com" {
		t.Errorf("EmailAddress = %q", got.EmailAddress)
	}
}
