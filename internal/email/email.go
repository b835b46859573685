package email

import (
	"context"
	"fmt"
	"time"

	"lootledger/internal/config"
	"lootledger/internal/logger"
	"lootledger/internal/models"

	"github.com/mailgun/mailgun-go/v5"
)

// Service sends guild notifications through Mailgun. It stays disabled
// unless a domain and API key are configured; callers check IsEnabled
// before use and registration works fine without it.
type Service struct {
	client      mailgun.Mailgun
	domain      string
	senderEmail string
	senderName  string
	enabled     bool
}

func NewService(cfg *config.Config) *Service {
	enabled := cfg.MailgunDomain != "" && cfg.MailgunAPIKey != ""

	var client mailgun.Mailgun
	if enabled {
		client = mailgun.NewMailgun(cfg.MailgunAPIKey)
	}

	return &Service{
		client:      client,
		domain:      cfg.MailgunDomain,
		senderEmail: cfg.MailgunSenderEmail,
		senderName:  cfg.MailgunSenderName,
		enabled:     enabled,
	}
}

func (s *Service) IsEnabled() bool {
	return s.enabled
}

func (s *Service) SendWelcomeEmail(username, recipient string) error {
	if !s.enabled {
		return fmt.Errorf("email service is not configured")
	}

	subject := fmt.Sprintf("Welcome to the loot ledger, %s!", username)
	textBody := fmt.Sprintf(
		"Hi %s,\n\nyour account has been created. Add your characters, sign up for raids and keep an eye on your loot points.\n",
		username,
	)

	return s.send(recipient, subject, textBody)
}

// SendRaidLockedEmail tells a participant that signups closed and
// their reservation points were settled.
func (s *Service) SendRaidLockedEmail(recipient string, raid *models.Raid) error {
	if !s.enabled {
		return fmt.Errorf("email service is not configured")
	}

	subject := fmt.Sprintf("Raid locked: %s on %s", raid.RaidInstance, raid.Date)
	textBody := fmt.Sprintf(
		"Signups for %s (%s %s) are now closed. Loot points for your reservations have been credited to the ledger.\n",
		raid.RaidInstance, raid.Date, raid.Time,
	)

	return s.send(recipient, subject, textBody)
}

func (s *Service) send(recipient, subject, textBody string) error {
	message := mailgun.NewMessage(
		s.domain,
		fmt.Sprintf("%s <%s>", s.senderName, s.senderEmail),
		subject,
		textBody,
		recipient,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	resp, err := s.client.Send(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", recipient, err)
	}

	logger.Debug("Email sent", "recipient", recipient, "message_id", resp)
	return nil
}
