// Package notifier delivers the quiz result email. Delivery is best
// effort: the result is already durable when a send is attempted, and a
// failed send never surfaces to the quiz taker.
package notifier

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"quizflow-service/internal/config"
	"quizflow-service/internal/quizerr"
)

type EmailNotifier struct {
	cfg config.SMTPConfig
}

func NewEmailNotifier(cfg config.SMTPConfig) *EmailNotifier {
	return &EmailNotifier{cfg: cfg}
}

// Configured reports whether an SMTP host is set; without one the
// notifier is a no-op.
func (e *EmailNotifier) Configured() bool { return e.cfg.Host != "" }

// SendResult mails the score and recommendation. Runs the blocking SMTP
// exchange in a goroutine so the caller's context bounds the wait.
func (e *EmailNotifier) SendResult(ctx context.Context, to string, score, maxScore int, recommendation string) error {
	if !e.Configured() {
		return nil
	}

	subject := "Your Quiz Results"
	body := fmt.Sprintf("Your score: %d out of %d\r\n\r\nYour Personalized Recommendation:\r\n%s\r\n", score, maxScore, recommendation)
	recipients := []string{to}

	message := []byte("To: " + strings.Join(recipients, ",") + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"\r\n" +
		body)

	auth := smtp.PlainAuth("", e.cfg.Username, e.cfg.Password, e.cfg.Host)
	addr := e.cfg.Host + ":" + e.cfg.Port

	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(addr, auth, e.cfg.From, recipients, message)
	}()

	select {
	case err := <-done:
		if err != nil {
			return quizerr.Wrap(quizerr.Notification, "send result email", err)
		}
		return nil
	case <-ctx.Done():
		return quizerr.Wrap(quizerr.Notification, "send result email", ctx.Err())
	}
}
