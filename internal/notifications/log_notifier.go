package notifications

import (
	"context"
	"log/slog"
)

// LogNotifier writes codes to the log instead of mailing them. Local
// development and the memory-store mode use it.
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	if log == nil {
		log = slog.Default()
	}
	return &LogNotifier{log: log}
}

func (n *LogNotifier) SendConfirmationCode(ctx context.Context, in SendConfirmationCodeInput) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	n.log.InfoContext(ctx, "notification.confirmation_code",
		"email", in.Email,
		"username", in.Username,
		"code", in.Code,
	)
	return nil
}
