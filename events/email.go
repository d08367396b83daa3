package events

import (
	"context"
	"fmt"
	"strings"

	"gopkg.in/gomail.v2"
)

// Dialer opens an SMTP session. *gomail.Dialer satisfies it.
type Dialer interface {
	Dial() (gomail.SendCloser, error)
}

// EmailNotifier mails a short order summary to a fixed list of recipients.
type EmailNotifier struct {
	dialer  Dialer
	from    string
	to      []string
	subject string
}

func NewEmailNotifier(dialer Dialer, from string, to []string) *EmailNotifier {
	return &EmailNotifier{
		dialer:  dialer,
		from:    from,
		to:      to,
		subject: "Order created",
	}
}

func (n *EmailNotifier) HandleOrderCreated(ctx context.Context, e OrderCreated) error {
	// gomail has no context support, so only check before dialing
	if err := ctx.Err(); err != nil {
		return err
	}

	ids := make([]string, 0, len(e.ProductIDs))
	for _, id := range e.ProductIDs {
		ids = append(ids, fmt.Sprint(id))
	}

	mailer := gomail.NewMessage()
	mailer.SetHeader("From", n.from)
	mailer.SetHeader("To", n.to...)
	mailer.SetHeader("Subject", fmt.Sprintf("%s #%d", n.subject, e.OrderID))
	mailer.SetBody("text/plain", fmt.Sprintf("Order %d was created at %s with products %s.",
		e.OrderID, e.CreatedAt.UTC().Format("2006-01-02 15:04:05"), strings.Join(ids, ", ")))

	s, err := n.dialer.Dial()
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	defer s.Close()

	if err := gomail.Send(s, mailer); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
