// Package mailchimp is a thin client for the Mailchimp Marketing API v3,
// covering the list-member operations the signup flow needs.
package mailchimp

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// ErrNotConfigured is returned when no API key is available.
var ErrNotConfigured = errors.New("mailchimp: API key not configured")

// memberExistsTitle is the problem-document title Mailchimp uses for
// duplicate signups.
const memberExistsTitle = "Member Exists"

// APIError is a Mailchimp problem document (RFC 7807 style).
type APIError struct {
	StatusCode int    `json:"status"`
	Title      string `json:"title"`
	Detail     string `json:"detail"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mailchimp: %d %s: %s", e.StatusCode, e.Title, e.Detail)
}

// IsDuplicate reports whether err is the provider's "member already
// exists" rejection. Callers treat this as success with an
// already-subscribed flag, never as a failure.
func IsDuplicate(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) &&
		apiErr.StatusCode == http.StatusBadRequest &&
		apiErr.Title == memberExistsTitle
}

// MemberInput is the payload for adding a list member.
type MemberInput struct {
	Email     string
	FirstName string
	LastName  string
}

// Member is a list member record as returned by the API.
type Member struct {
	ID           string            `json:"id"`
	EmailAddress string            `json:"email_address"`
	Status       string            `json:"status"`
	MergeFields  map[string]string `json:"merge_fields"`
	Tags         []MemberTag       `json:"tags"`
}

// MemberTag is a tag attached to a member.
type MemberTag struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Client talks to one Mailchimp data center.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewClient creates a Mailchimp client for the given server prefix
// (data center, e.g. "us21").
func NewClient(apiKey, serverPrefix string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: fmt.Sprintf("https://%s.api.mailchimp.com/3.0", serverPrefix),
		client: &http.Client{
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
		},
	}
}

// SetBaseURL overrides the API endpoint. Used by tests.
func (c *Client) SetBaseURL(u string) {
	c.baseURL = u
}

// SubscriberHash returns the member id Mailchimp derives from an email
// address: the md5 of its lowercase form.
func SubscriberHash(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(email)))
	return hex.EncodeToString(sum[:])
}

// AddMember upserts a subscriber with status "subscribed" and the name
// merge fields. A duplicate signup comes back as an *APIError that
// satisfies IsDuplicate.
func (c *Client) AddMember(ctx context.Context, audienceID string, input MemberInput) (*Member, error) {
	body := map[string]any{
		"email_address": input.Email,
		"status":        "subscribed",
		"merge_fields": map[string]string{
			"FNAME": input.FirstName,
			"LNAME": input.LastName,
		},
	}

	var member Member
	path := fmt.Sprintf("/lists/%s/members", audienceID)
	if err := c.do(ctx, http.MethodPost, path, body, &member); err != nil {
		return nil, err
	}
	return &member, nil
}

// UpdateMemberTags activates the given tags on an existing member.
func (c *Client) UpdateMemberTags(ctx context.Context, audienceID, email string, tags []string) error {
	entries := make([]map[string]string, 0, len(tags))
	for _, tag := range tags {
		entries = append(entries, map[string]string{
			"name":   tag,
			"status": "active",
		})
	}

	path := fmt.Sprintf("/lists/%s/members/%s/tags", audienceID, SubscriberHash(email))
	return c.do(ctx, http.MethodPost, path, map[string]any{"tags": entries}, nil)
}

// GetMember looks up a subscriber by email.
func (c *Client) GetMember(ctx context.Context, audienceID, email string) (*Member, error) {
	var member Member
	path := fmt.Sprintf("/lists/%s/members/%s", audienceID, SubscriberHash(email))
	if err := c.do(ctx, http.MethodGet, path, nil, &member); err != nil {
		return nil, err
	}
	return &member, nil
}

// do performs one API call and decodes the response into out (when
// non-nil). Non-2xx responses decode into an *APIError.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if c.apiKey == "" {
		return ErrNotConfigured
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("mailchimp: marshal: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("mailchimp: create request: %w", err)
	}
	// Mailchimp basic auth ignores the username.
	req.SetBasicAuth("anystring", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("mailchimp: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(apiErr); err != nil {
			apiErr.Title = resp.Status
		}
		// Trust the transport status over the body when they disagree.
		if apiErr.StatusCode == 0 {
			apiErr.StatusCode = resp.StatusCode
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("mailchimp: decode response: %w", err)
	}
	return nil
}
