package notification

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"ticket-backend/internal/config"
	"ticket-backend/internal/logger"
	"ticket-backend/internal/models"

	"gopkg.in/gomail.v2"
)

// ErrDelivery marks a ticket email that did not reach the relay.
var ErrDelivery = errors.New("ticket email delivery failed")

const Subject = "🎟️ Your Ticket(s) for the Event"

// Sender is satisfied by *gomail.Dialer.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type EmailNotifier struct {
	From   string
	Sender Sender
	Logger *logger.Logger
}

func NewEmailNotifier(cfg config.EmailConfig, log *logger.Logger) *EmailNotifier {
	return &EmailNotifier{
		From:   cfg.SMTPUsername,
		Sender: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword),
		Logger: log,
	}
}

// Notify mails every ticket id to the buyer with one QR attachment per ticket.
func (n *EmailNotifier) Notify(to, buyerName string, tickets []models.Ticket) error {
	if len(tickets) == 0 {
		return fmt.Errorf("%w: no tickets to send", ErrDelivery)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", Subject)
	m.SetBody("text/plain", Body(buyerName, tickets))

	for _, t := range tickets {
		switch {
		case len(t.Image) > 0:
			img := t.Image
			m.Attach(t.AttachmentName(),
				gomail.SetHeader(map[string][]string{"Content-Type": {"image/png"}}),
				gomail.SetCopyFunc(func(w io.Writer) error {
					_, err := io.Copy(w, bytes.NewReader(img))
					return err
				}),
			)
		case t.ImagePath != "":
			m.Attach(t.ImagePath, gomail.Rename(t.AttachmentName()))
		default:
			return fmt.Errorf("%w: ticket %s has no image", ErrDelivery, t.ID)
		}
	}

	if err := n.Sender.DialAndSend(m); err != nil {
		n.Logger.Error("EMAIL", fmt.Sprintf("Failed to send %d ticket(s) to %s: %v", len(tickets), to, err))
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}

	n.Logger.Info("EMAIL", fmt.Sprintf("📧 Email sent to %s with %d ticket(s)", to, len(tickets)))
	return nil
}

// Body renders the plain-text message listing each ticket id.
func Body(buyerName string, tickets []models.Ticket) string {
	var lines strings.Builder
	for _, t := range tickets {
		fmt.Fprintf(&lines, "- Ticket ID: %s\n", t.ID)
	}

	return fmt.Sprintf(`Hi %s,

Your payment has been confirmed! 🎉
Below are your ticket details:

%s
Each ticket has its own QR code attached to this email.
Please present it at the event gate for entry.

Thank you for your purchase!

-- Event Team
`, buyerName, lines.String())
}
