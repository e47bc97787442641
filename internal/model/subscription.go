// Package model defines the domain types for the Narratia forms API.
package model

// Language is a supported site language.
type Language string

// Supported languages.
const (
	LanguagePolish  Language = "pl"
	LanguageEnglish Language = "en"
)

// IsValid reports whether the language is one the site supports.
func (l Language) IsValid() bool {
	return l == LanguagePolish || l == LanguageEnglish
}

// OrDefault returns the language, falling back to English when unset
// or unrecognized.
func (l Language) OrDefault() Language {
	if l.IsValid() {
		return l
	}
	return LanguageEnglish
}

// LeadMagnet identifies the free material a visitor signed up for.
type LeadMagnet string

// Known lead magnets. BookUpdates carries no download material and
// therefore maps to no lead-magnet tag.
const (
	LeadMagnetEssay       LeadMagnet = "essay"
	LeadMagnetChapters    LeadMagnet = "chapters"
	LeadMagnetAudio       LeadMagnet = "audio"
	LeadMagnetNewsletter  LeadMagnet = "newsletter"
	LeadMagnetBookUpdates LeadMagnet = "book-updates"
)

// HasDownload reports whether signing up for this lead magnet entitles
// the subscriber to a welcome email with a download link.
func (m LeadMagnet) HasDownload() bool {
	return m == LeadMagnetEssay || m == LeadMagnetChapters
}

// TagsFor derives the audience tags applied to a subscriber from the
// lead magnet and language of the signup. Unknown or absent lead
// magnets yield no lead-magnet tag (plain email signup).
func TagsFor(magnet LeadMagnet, language Language) []string {
	var tags []string

	switch magnet {
	case LeadMagnetEssay:
		tags = append(tags, "essay-download", "lead-magnet")
	case LeadMagnetChapters:
		tags = append(tags, "chapters-download", "lead-magnet")
	case LeadMagnetAudio:
		tags = append(tags, "audio-download", "lead-magnet")
	case LeadMagnetNewsletter:
		tags = append(tags, "newsletter-signup")
	}

	if language != "" {
		tags = append(tags, "lang-"+string(language))
	}

	return tags
}

// Field length caps shared by both forms.
const (
	MaxNameLength    = 100
	MaxEmailLength   = 254
	MaxMessageLength = 5000
)

// ContactSubmission is a contact form payload. It lives only for the
// duration of one request; nothing is persisted.
type ContactSubmission struct {
	Name    string
	Email   string
	Message string
}

// SubscribeRequest is an email signup payload. Consent must be true or
// the request is rejected before any provider call.
type SubscribeRequest struct {
	Email      string
	FirstName  string
	LastName   string
	Language   Language
	LeadMagnet LeadMagnet
	Consent    bool
}
