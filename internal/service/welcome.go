package service

import (
	"fmt"
	"html"

	"github.com/narratia/narratia-api/internal/model"
	"github.com/narratia/narratia-api/internal/sendgrid"
)

// buildWelcomeEmail assembles the localized lead-magnet welcome email
// with a link to the download landing page (not a direct file link).
// Only essay and chapters signups receive one.
func buildWelcomeEmail(req model.SubscribeRequest, baseURL string) sendgrid.Email {
	lang := req.Language.OrDefault()
	isPl := lang == model.LanguagePolish

	name := req.FirstName
	if name == "" {
		if isPl {
			name = "Czytelnik"
		} else {
			name = "Reader"
		}
	}

	downloadLink := fmt.Sprintf("%s/%s/download/%s", baseURL, lang, req.LeadMagnet)

	var subject, title, description string
	if req.LeadMagnet == model.LeadMagnetEssay {
		if isPl {
			subject = `Dla Ciebie: esej "Odbicie umysłu" - dziękuję za zainteresowanie! Przyjemnego czytania 😉`
			title = "Odbicie umysłu"
			description = "Esej o współpracy człowieka i AI w tłumaczeniu poezji Wordswortha."
		} else {
			subject = `Your Essay "Reflection of the Mind" - Thank You! Happy Reading 😉`
			title = "Reflection of the Mind"
			description = "An essay about human-AI collaboration in translating Wordsworth's poetry."
		}
	} else {
		if isPl {
			subject = "Dla Ciebie: fragmenty książek - dziękuję za zainteresowanie! Przyjemnego czytania 😉"
			title = "Fragmenty książek"
			description = "Pierwsze rozdziały z moich książek - zapoznaj się przed zakupem!"
		} else {
			subject = "Your Chapter Samples - Thank You! Happy Reading 😉"
			title = "Chapter Samples"
			description = "First chapters from my books - try before you buy!"
		}
	}

	greeting := fmt.Sprintf("Hello %s!", name)
	intro := "Thank you for signing up! Here are your materials:"
	downloadLabel := "Download here:"
	footer := "You're receiving this email because you signed up for Narratia."
	if isPl {
		greeting = fmt.Sprintf("Cześć %s!", name)
		intro = "Dziękuję za zapis! Oto Twoje materiały do pobrania:"
		downloadLabel = "Pobierz tutaj:"
		footer = "Otrzymujesz tę wiadomość, ponieważ zapisałeś się na listę Narratia."
	}

	text := fmt.Sprintf(`%s

%s

%s

%s

%s
%s

Sebastian Proba - Narratia
%s/%s/books

---
%s`, greeting, intro, title, description, downloadLabel, downloadLink, baseURL, lang, footer)

	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: sans-serif; line-height: 1.6; color: #2a332a; max-width: 600px; margin: 0 auto; padding: 20px;">
  <div style="background: linear-gradient(135deg, #f1ede9 0%%, #fff 100%%); padding: 30px; border-radius: 8px; margin-bottom: 20px;">
    <h1 style="color: #2a332a; margin-top: 0;">%s</h1>
    <p style="font-size: 18px;">%s</p>
  </div>

  <div style="background: #fff; border: 2px solid #ffbd59; padding: 30px; border-radius: 8px; margin-bottom: 20px;">
    <h2 style="color: #2a332a; margin-top: 0;">%s</h2>
    <p>%s</p>
    <div style="text-align: center; margin: 30px 0;">
      <a href="%s" style="display: inline-block; background: #ffbd59; color: #191919; padding: 15px 40px; text-decoration: none; font-weight: bold; border-radius: 4px; font-size: 18px;">%s</a>
    </div>
    <p style="font-size: 14px; color: #666; text-align: center;">
      <a href="%s" style="color: #ffbd59; word-break: break-all;">%s</a>
    </p>
  </div>

  <div style="padding: 20px; text-align: center; color: #666; font-size: 14px;">
    <p>Sebastian Proba - Narratia</p>
    <p style="margin-top: 20px; font-size: 12px; color: #999;">%s</p>
  </div>
</body>
</html>`,
		html.EscapeString(greeting), intro, title, description,
		downloadLink, downloadLabel, downloadLink, downloadLink, footer)

	return sendgrid.Email{
		To:      req.Email,
		ToName:  req.FirstName,
		Subject: subject,
		Text:    text,
		HTML:    htmlBody,
	}
}
