package email

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/lexhire/lexhire/pkg/mailqueue"
)

// Service handles email sending
type Service struct {
	fromEmail   string
	fromName    string
	sendGridKey string
	useSendGrid bool
}

// NewService creates a new email service
// If sendGridAPIKey is provided, emails will be sent via SendGrid
// Otherwise, emails will be logged to console (development mode)
func NewService(fromEmail, fromName, sendGridAPIKey string) *Service {
	useSendGrid := sendGridAPIKey != ""
	if useSendGrid {
		log.Printf("✅ Email service initialized with SendGrid")
	} else {
		log.Printf("⚠️  Email service in console-only mode (set SENDGRID_API_KEY for production)")
	}

	return &Service{
		fromEmail:   fromEmail,
		fromName:    fromName,
		sendGridKey: sendGridAPIKey,
		useSendGrid: useSendGrid,
	}
}

// SendDigestEmail renders and sends one job alert digest.
func (s *Service) SendDigestEmail(ctx context.Context, event mailqueue.DigestEmailEvent) error {
	subject := digestSubject(event)
	htmlBody := renderDigestHTML(event)
	plainText := renderDigestText(event)

	if s.useSendGrid {
		return s.sendViaSendGrid(event.Email, event.UserName, subject, htmlBody, plainText)
	}
	return s.logEmailToConsole(event.Email, event.UserName, subject, len(event.Listings))
}

// SendRawEmail sends an email with custom subject and body content.
// Uses SendGrid in production, logs to console in development.
func (s *Service) SendRawEmail(toEmail, toName, subject, htmlBody, plainTextBody string) error {
	if s.useSendGrid {
		return s.sendViaSendGrid(toEmail, toName, subject, htmlBody, plainTextBody)
	}

	log.Printf("📧 [EMAIL] %s", subject)
	log.Printf("   To: %s <%s>", toName, toEmail)
	log.Printf("   From: %s <%s>", s.fromName, s.fromEmail)
	log.Printf("   ⚠️  Email NOT sent (development mode)")
	return nil
}

func digestSubject(event mailqueue.DigestEmailEvent) string {
	period := "today"
	if event.Frequency == "weekly" {
		period = "this week"
	}
	if len(event.Listings) == 1 {
		return fmt.Sprintf("1 new legal job %s matches your alert", period)
	}
	return fmt.Sprintf("%d new legal jobs %s match your alert", len(event.Listings), period)
}

func renderDigestHTML(event mailqueue.DigestEmailEvent) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	b.WriteString("<h2>Your job alert digest</h2>")
	name := event.UserName
	if name == "" {
		name = "there"
	}
	fmt.Fprintf(&b, "<p>Hi %s,</p>", name)
	fmt.Fprintf(&b, "<p>Here are the latest positions matching your %s alert:</p>", event.Frequency)
	b.WriteString("<ul>")
	for _, listing := range event.Listings {
		fmt.Fprintf(&b, `<li><a href="%s"><strong>%s</strong></a> at %s`, listing.ClickURL, listing.Title, listing.FirmName)
		if listing.Location != "" {
			fmt.Fprintf(&b, " (%s)", listing.Location)
		}
		b.WriteString("</li>")
	}
	b.WriteString("</ul>")
	b.WriteString("<p>You receive this email because you set up a job alert. Manage your alerts from your account settings.</p>")
	b.WriteString("<p>Thanks,<br>The LexHire Team</p>")
	b.WriteString("</body></html>")
	return b.String()
}

func renderDigestText(event mailqueue.DigestEmailEvent) string {
	var b strings.Builder
	name := event.UserName
	if name == "" {
		name = "there"
	}
	fmt.Fprintf(&b, "Hi %s,\n\n", name)
	fmt.Fprintf(&b, "Here are the latest positions matching your %s alert:\n\n", event.Frequency)
	for _, listing := range event.Listings {
		fmt.Fprintf(&b, "- %s at %s", listing.Title, listing.FirmName)
		if listing.Location != "" {
			fmt.Fprintf(&b, " (%s)", listing.Location)
		}
		fmt.Fprintf(&b, "\n  %s\n", listing.ClickURL)
	}
	b.WriteString("\nYou receive this email because you set up a job alert.\n")
	b.WriteString("\nThanks,\nThe LexHire Team\n")
	return b.String()
}

// sendViaSendGrid sends email using SendGrid API
func (s *Service) sendViaSendGrid(toEmail, toName, subject, htmlBody, plainTextBody string) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail(toName, toEmail)

	message := mail.NewSingleEmail(from, subject, to, plainTextBody, htmlBody)

	client := sendgrid.NewSendClient(s.sendGridKey)
	response, err := client.Send(message)

	if err != nil {
		log.Printf("❌ SendGrid error: %v", err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	if response.StatusCode >= 400 {
		log.Printf("❌ SendGrid returned error status %d: %s", response.StatusCode, response.Body)
		return fmt.Errorf("sendgrid returned error status: %d", response.StatusCode)
	}

	log.Printf("✅ Email sent successfully to %s (SendGrid status: %d)", toEmail, response.StatusCode)
	return nil
}

// logEmailToConsole logs email details to console (development mode)
func (s *Service) logEmailToConsole(toEmail, toName, subject string, listings int) error {
	log.Printf("📧 [EMAIL] %s", subject)
	log.Printf("   To: %s <%s>", toName, toEmail)
	log.Printf("   From: %s <%s>", s.fromName, s.fromEmail)
	log.Printf("   Listings: %d", listings)
	log.Printf("   ---")
	log.Printf("   ⚠️  Email NOT sent (development mode)")
	log.Printf("   Set SENDGRID_API_KEY environment variable to enable email sending")
	log.Printf("   ---")
	return nil
}
