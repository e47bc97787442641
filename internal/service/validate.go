package service

import (
	"errors"
	"regexp"
	"strings"
	"unicode"

	"github.com/narratia/narratia-api/internal/model"
)

// Validation errors. Handlers map these to 400 responses.
var (
	ErrMissingFields   = errors.New("missing required fields")
	ErrNameTooLong     = errors.New("name is too long")
	ErrEmailTooLong    = errors.New("email is too long")
	ErrMessageTooLong  = errors.New("message is too long")
	ErrInvalidEmail    = errors.New("invalid email address")
	ErrConsentRequired = errors.New("consent is required")
)

// emailPattern is the structural check: one @, no whitespace, and a
// dotted domain. Display-name wrappers ("Name <a@b.c>") never match.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail applies the strict syntactic rule shared by both forms:
// structural shape, a letters-only TLD of at least two characters, and
// an ASCII-only local part.
func ValidEmail(email string) bool {
	if email == "" || len(email) > model.MaxEmailLength {
		return false
	}
	if !emailPattern.MatchString(email) {
		return false
	}

	at := strings.LastIndex(email, "@")
	local, domain := email[:at], email[at+1:]

	for i := 0; i < len(local); i++ {
		if local[i] > unicode.MaxASCII {
			return false
		}
	}

	tld := domain[strings.LastIndex(domain, ".")+1:]
	if len(tld) < 2 {
		return false
	}
	for _, r := range tld {
		if !unicode.IsLetter(r) {
			return false
		}
	}

	return true
}

// validateContact checks a contact submission. All three fields are
// required; there is no partial credit.
func validateContact(sub model.ContactSubmission) error {
	if strings.TrimSpace(sub.Name) == "" ||
		strings.TrimSpace(sub.Email) == "" ||
		strings.TrimSpace(sub.Message) == "" {
		return ErrMissingFields
	}
	if len(sub.Name) > model.MaxNameLength {
		return ErrNameTooLong
	}
	if len(sub.Email) > model.MaxEmailLength {
		return ErrEmailTooLong
	}
	if len(sub.Message) > model.MaxMessageLength {
		return ErrMessageTooLong
	}
	if !ValidEmail(sub.Email) {
		return ErrInvalidEmail
	}
	return nil
}

// validateSubscribe checks a signup request. Consent must be true
// before any provider call is made.
func validateSubscribe(req model.SubscribeRequest) error {
	if !ValidEmail(req.Email) {
		return ErrInvalidEmail
	}
	if !req.Consent {
		return ErrConsentRequired
	}
	if len(req.FirstName) > model.MaxNameLength || len(req.LastName) > model.MaxNameLength {
		return ErrNameTooLong
	}
	return nil
}
