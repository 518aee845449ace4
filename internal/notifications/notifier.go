package notifications

import "context"

type SendConfirmationCodeInput struct {
	Email    string
	Username string
	Code     string
}

type Notifier interface {
	SendConfirmationCode(ctx context.Context, input SendConfirmationCodeInput) error
}
