package mailer

import (
	"fmt"
	"html/template"
	"strings"
	"time"
)

type templateData struct {
	Greeting template.HTML
	Otp      string
	Accent   string
	Year     int
}

var otpTemplate = template.Must(template.New("otp").Parse(`
<div style="font-family: Arial, Helvetica, sans-serif; background-color: #f4f6f8; padding: 20px; text-align: center; color: #333;">
  <div style="max-width: 520px; margin: auto; background: #ffffff; border-radius: 12px; padding: 30px; box-shadow: 0 6px 16px rgba(0,0,0,0.08);">
    <h2 style="color: #2d89ef; margin-bottom: 15px;">{{.Greeting}}</h2>
    <p style="font-size: 15px; line-height: 1.6; color: #555; margin: 0 0 20px;">
      Please use the following OTP:
    </p>
    <div style="margin: 25px 0;">
      <h1 style="background: {{.Accent}}; color: #fff; display: inline-block; padding: 14px 28px; border-radius: 10px; letter-spacing: 5px; font-size: 30px; font-weight: bold;">
        {{.Otp}}
      </h1>
    </div>
    <p style="font-size: 14px; color: #555; margin-bottom: 10px;">
      This OTP will expire in <strong>10 minutes</strong>.
    </p>
    <p style="font-size: 14px; color: #777; margin-top: 20px;">
      If you did not request this, you can safely ignore this email.
    </p>
    <hr style="margin: 30px 0; border: none; border-top: 1px solid #eee;" />
    <p style="font-size: 12px; color: #999; margin: 0; line-height: 1.4;">
      &copy; {{.Year}} MyApp. All rights reserved.<br/>
      This is an automated email, please do not reply.
    </p>
  </div>
</div>
`))

// SignupOTPBody renders the email-verification message sent after signup.
func SignupOTPBody(username, otp string) (string, error) {
	greeting := template.HTML("Welcome 👋")
	if username != "" {
		greeting = template.HTML(fmt.Sprintf("Welcome, <strong>%s</strong> 👋", template.HTMLEscapeString(username)))
	}
	return render(templateData{
		Greeting: greeting,
		Otp:      otp,
		Accent:   "#2d89ef",
		Year:     time.Now().Year(),
	})
}

// ResetOTPBody renders the password-reset message.
func ResetOTPBody(username, otp string) (string, error) {
	greeting := template.HTML("🔑 Password Reset Request")
	if username != "" {
		greeting = template.HTML(fmt.Sprintf("🔑 Password Reset for <strong>%s</strong>", template.HTMLEscapeString(username)))
	}
	return render(templateData{
		Greeting: greeting,
		Otp:      otp,
		Accent:   "#e81123",
		Year:     time.Now().Year(),
	})
}

func render(data templateData) (string, error) {
	var sb strings.Builder
	if err := otpTemplate.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("failed to render email template: %w", err)
	}
	return sb.String(), nil
}
