package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/narratia/narratia-api/internal/handler/dto"
	"github.com/narratia/narratia-api/internal/service"
)

func newContactHandler(mail *stubMailSender) *ContactHandler {
	svc := service.NewContactService(mail, "owner@example.com", discardLogger(), nil)
	return NewContactHandler(svc, nil, discardLogger())
}

func TestContactHandler_Submit(t *testing.T) {
	mail := &stubMailSender{}
	h := newContactHandler(mail)

	body := `{"name":"Anna","email":"anna@example.com","message":"Hello there"}`
	req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Submit(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var response dto.SuccessResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !response.Success {
		t.Error("expected success=true")
	}
	if response.Message != "Message sent successfully" {
		t.Errorf("unexpected message: %s", response.Message)
	}
	if len(mail.sent) != 1 {
		t.Fatalf("expected 1 email sent, got %d", len(mail.sent))
	}
}

func TestContactHandler_Submit_InvalidJSON(t *testing.T) {
	h := newContactHandler(&stubMailSender{})

	req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()

	h.Submit(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
}

func TestContactHandler_Submit_ValidationErrors(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantError string
	}{
		{
			name:      "missing fields",
			body:      `{"name":"","email":"","message":""}`,
			wantError: "Missing required fields",
		},
		{
			name:      "name too long",
			body:      `{"name":"` + strings.Repeat("a", 101) + `","email":"a@b.co","message":"hi"}`,
			wantError: "Name is too long (max 100 characters)",
		},
		{
			name:      "message too long",
			body:      `{"name":"Anna","email":"a@b.co","message":"` + strings.Repeat("m", 5001) + `"}`,
			wantError: "Message is too long (max 5000 characters)",
		},
		{
			name:      "invalid email",
			body:      `{"name":"Anna","email":"not-an-email","message":"hi"}`,
			wantError: "Invalid email address",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mail := &stubMailSender{}
			h := newContactHandler(mail)

			req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			h.Submit(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d", rec.Code)
			}

			var response dto.ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if response.Error != tt.wantError {
				t.Errorf("expected error %q, got %q", tt.wantError, response.Error)
			}
			if len(mail.sent) != 0 {
				t.Error("expected no email sent on validation failure")
			}
		})
	}
}

func TestContactHandler_Submit_SendFailure(t *testing.T) {
	mail := &stubMailSender{err: errors.New("provider down")}
	h := newContactHandler(mail)

	body := `{"name":"Anna","email":"anna@example.com","message":"Hello"}`
	req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Submit(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}

	var response dto.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Error != "Failed to send message" {
		t.Errorf("unexpected error message: %s", response.Error)
	}
}
