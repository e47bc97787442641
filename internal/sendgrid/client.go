// Package sendgrid is a thin client for the SendGrid v3 Mail Send API.
package sendgrid

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.sendgrid.com/v3"

// ErrNotConfigured is returned when no API key is available.
var ErrNotConfigured = errors.New("sendgrid: API key not configured")

// Email is a single transactional message.
type Email struct {
	To      string
	ToName  string
	Subject string
	HTML    string
	Text    string
}

// SendResult reports a successful send.
type SendResult struct {
	MessageID  string
	StatusCode int
}

// APIError is a non-2xx response from SendGrid.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("sendgrid: status %d: %s", e.StatusCode, e.Body)
}

// Client sends mail through SendGrid with a fixed From identity.
type Client struct {
	apiKey    string
	baseURL   string
	fromEmail string
	fromName  string
	client    *http.Client
}

// NewClient creates a SendGrid client. An empty apiKey produces a
// client whose sends fail with ErrNotConfigured; callers decide whether
// that is fatal (contact notifications) or merely logged (welcome
// emails).
func NewClient(apiKey, fromEmail, fromName string) *Client {
	return &Client{
		apiKey:    apiKey,
		baseURL:   defaultBaseURL,
		fromEmail: fromEmail,
		fromName:  fromName,
		client:    newHTTPClient(),
	}
}

// SetBaseURL overrides the API endpoint. Used by tests.
func (c *Client) SetBaseURL(u string) {
	c.baseURL = u
}

// Send delivers a single email.
func (c *Client) Send(ctx context.Context, email Email) (*SendResult, error) {
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}

	to := map[string]string{"email": email.To}
	if email.ToName != "" {
		to["name"] = email.ToName
	}

	payload := map[string]any{
		"personalizations": []map[string]any{
			{"to": []map[string]string{to}},
		},
		"from": map[string]string{
			"email": c.fromEmail,
			"name":  c.fromName,
		},
		"subject": email.Subject,
		"content": []map[string]string{
			{"type": "text/plain", "value": email.Text},
			{"type": "text/html", "value": email.HTML},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("sendgrid: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/mail/send", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("sendgrid: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sendgrid: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	return &SendResult{
		MessageID:  resp.Header.Get("X-Message-Id"),
		StatusCode: resp.StatusCode,
	}, nil
}

// newHTTPClient builds an HTTP client with conservative timeouts for
// outbound provider calls.
func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 15 * time.Second,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
		},
	}
}
