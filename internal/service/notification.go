package service

import (
	"fmt"
	"time"

	"github.com/narratia/narratia-api/internal/model"
	"github.com/narratia/narratia-api/internal/sendgrid"
)

// buildOwnerNotification formats the contact form notification sent to
// the site owner. Fields must already be sanitized: they are
// interpolated into the HTML body as-is.
func buildOwnerNotification(ownerEmail string, sub model.ContactSubmission, now time.Time) sendgrid.Email {
	timestamp := now.Format(time.RFC3339)

	text := fmt.Sprintf(`You have received a new contact form submission:

Name: %s
Email: %s

Message:
%s

---
Sent from Narratia Contact Form
%s`, sub.Name, sub.Email, sub.Message, timestamp)

	html := fmt.Sprintf(`<div style="font-family: sans-serif; max-width: 600px; margin: 0 auto;">
  <h2>New Contact Form Submission</h2>

  <div style="background: #f5f5f5; padding: 20px; border-radius: 8px; margin: 20px 0;">
    <p><strong>Name:</strong> %s</p>
    <p><strong>Email:</strong> <a href="mailto:%s">%s</a></p>
  </div>

  <div style="margin: 20px 0;">
    <p><strong>Message:</strong></p>
    <p style="white-space: pre-wrap;">%s</p>
  </div>

  <hr style="border: none; border-top: 1px solid #ddd; margin: 30px 0;">
  <p style="color: #666; font-size: 12px;">
    Sent from Narratia Contact Form<br>
    %s
  </p>
</div>`, sub.Name, sub.Email, sub.Email, sub.Message, timestamp)

	return sendgrid.Email{
		To:      ownerEmail,
		Subject: fmt.Sprintf("New Contact Form Message from %s", sub.Name),
		Text:    text,
		HTML:    html,
	}
}
