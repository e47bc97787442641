// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import "github.com/narratia/narratia-api/internal/mailchimp"

// ContactRequest represents the contact form request body.
type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// SubscribeRequest represents the email signup request body.
type SubscribeRequest struct {
	Email      string `json:"email"`
	FirstName  string `json:"firstName,omitempty"`
	LastName   string `json:"lastName,omitempty"`
	Language   string `json:"language,omitempty"`
	LeadMagnet string `json:"leadMagnet,omitempty"`
	Consent    bool   `json:"consent"`
}

// SuccessResponse is the body of a successful contact submission.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// SubscribeResponse is the body of a successful signup.
type SubscribeResponse struct {
	Success           bool   `json:"success"`
	Message           string `json:"message"`
	AlreadySubscribed bool   `json:"alreadySubscribed"`
}

// StatusResponse reports whether an address is on the audience list.
// Data is present only when the lookup succeeded; any provider failure
// collapses to subscribed=false.
type StatusResponse struct {
	Subscribed bool              `json:"subscribed"`
	Data       *mailchimp.Member `json:"data,omitempty"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error string `json:"error"`
}
