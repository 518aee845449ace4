package jobs

import "time"

// SendConfirmationCodePayload carries what the worker needs to mail a code.
// The plain code lives only here and in the message; the users table keeps a hash.
type SendConfirmationCodePayload struct {
	UserID      int64     `json:"userId"`
	Email       string    `json:"email"`
	Username    string    `json:"username"`
	Code        string    `json:"code"`
	RequestedAt time.Time `json:"requestedAt"`
	RequestID   string    `json:"requestId,omitempty"`
}
