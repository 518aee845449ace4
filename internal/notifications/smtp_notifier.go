package notifications

import (
	"context"
	"fmt"
	"net/smtp"
)

type SMTPNotifier struct {
	addr string
	from string
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPNotifier(host, port, from string) *SMTPNotifier {
	return &SMTPNotifier{
		addr: host + ":" + port,
		from: from,
		send: smtp.SendMail,
	}
}

func (n *SMTPNotifier) SendConfirmationCode(ctx context.Context, in SendConfirmationCodeInput) error {
	subject := "Your reviewhub confirmation code"
	body := fmt.Sprintf(`Hello %s,

Use this confirmation code to obtain an access token:

    %s

The code works once. Request a new one with POST /api/v1/auth/email.`, in.Username, in.Code)

	msg := []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		n.from, in.Email, subject, body))

	errCh := make(chan error, 1)
	go func() {
		errCh <- n.send(n.addr, nil, n.from, []string{in.Email}, msg)
	}()

	// net/smtp has no context support; stop waiting when ctx ends
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("send confirmation email: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
