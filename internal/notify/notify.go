package notify

import (
	"context"
	"fmt"
	"strings"

	"conductor/models"
	"conductor/pkg/logger"

	"gopkg.in/gomail.v2"
)

const signupSubject = "Thank you for signing up for city contracting opportunities"

// Sender отправляет готовые письма, его реализует *gomail.Dialer
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPNotifier отправляет письма поставщикам через SMTP
type SMTPNotifier struct {
	sender Sender
	from   string
	log    *logger.Logger
}

func NewSMTPNotifier(host string, port int, user, password, from string, log *logger.Logger) *SMTPNotifier {
	return &SMTPNotifier{
		sender: gomail.NewDialer(host, port, user, password),
		from:   from,
		log:    log,
	}
}

func newSMTPNotifier(sender Sender, from string, log *logger.Logger) *SMTPNotifier {
	return &SMTPNotifier{sender: sender, from: from, log: log}
}

// VendorSignup письмо-подтверждение со списком подкатегорий
func (n *SMTPNotifier) VendorSignup(ctx context.Context, vendor models.Vendor, categories []models.Category) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m := signupMessage(n.from, vendor, categories)
	if err := n.sender.DialAndSend(m); err != nil {
		return fmt.Errorf("send signup confirmation to %s: %w", vendor.Email, err)
	}
	n.log.Info().Str("email", vendor.Email).Msg("signup confirmation sent")
	return nil
}

func signupMessage(from string, vendor models.Vendor, categories []models.Category) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", vendor.Email)
	m.SetHeader("Subject", signupSubject)
	m.SetBody("text/plain", signupBody(vendor, categories))
	return m
}

func signupBody(vendor models.Vendor, categories []models.Category) string {
	var b strings.Builder
	name := vendor.FirstName
	if name == "" {
		name = vendor.BusinessName
	}
	fmt.Fprintf(&b, "Hello %s,\n\n", name)
	b.WriteString("Thank you for signing up! You will receive updates about new opportunities in:\n\n")
	if len(categories) == 0 {
		b.WriteString("  (no categories selected)\n")
	}
	for _, c := range categories {
		fmt.Fprintf(&b, "  - %s\n", c)
	}
	b.WriteString("\nYou can change your subscriptions at any time from the manage page.\n")
	return b.String()
}

// LogNotifier только пишет в лог, для разработки
type LogNotifier struct {
	log *logger.Logger
}

func NewLogNotifier(log *logger.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) VendorSignup(ctx context.Context, vendor models.Vendor, categories []models.Category) error {
	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = c.String()
	}
	n.log.Info().
		Str("email", vendor.Email).
		Str("business", vendor.BusinessName).
		Strs("categories", names).
		Msg("signup confirmation (smtp disabled)")
	return nil
}
