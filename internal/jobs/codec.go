package jobs

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/geocoder89/reviewhub/internal/domain/job"
)

// EncodePayload checks the payload matches the job type and marshals it.
func EncodePayload(t JobType, payload any) ([]byte, error) {
	if !t.IsValid() {
		return nil, ErrInvalidJobType
	}

	switch t {
	case JobSendConfirmationCode:
		switch payload.(type) {
		case SendConfirmationCodePayload, *SendConfirmationCodePayload:
		default:
			return nil, ErrPayloadTypeMismatch
		}
	}

	if err := ValidatePayload(t, payload); err != nil {
		return nil, err
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJobPayload, err)
	}

	return b, nil
}

// DecodePayload unmarshals j.Payload into the typed payload for j.Type.
func DecodePayload(j job.Job) (any, error) {
	t := JobType(j.Type)
	if !t.IsValid() {
		return nil, ErrInvalidJobType
	}
	if len(j.Payload) == 0 {
		return nil, ErrInvalidJobPayload
	}

	switch t {
	case JobSendConfirmationCode:
		var p SendConfirmationCodePayload
		if err := json.Unmarshal(j.Payload, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidJobPayload, err)
		}
		if err := ValidatePayload(t, p); err != nil {
			return nil, err
		}
		return p, nil

	default:
		return nil, ErrInvalidJobType
	}
}

// ValidatePayload performs minimal validation on typed payloads.
func ValidatePayload(t JobType, payload any) error {
	if !t.IsValid() {
		return ErrInvalidJobType
	}

	switch t {
	case JobSendConfirmationCode:
		var p SendConfirmationCodePayload
		switch v := payload.(type) {
		case SendConfirmationCodePayload:
			p = v
		case *SendConfirmationCodePayload:
			p = *v
		default:
			return ErrPayloadTypeMismatch
		}
		if p.UserID == 0 || strings.TrimSpace(p.Email) == "" || strings.TrimSpace(p.Code) == "" {
			return ErrInvalidJobPayload
		}
		return nil

	default:
		return ErrInvalidJobType
	}
}

// NewSendConfirmationCode builds the outbox request for one code delivery.
func NewSendConfirmationCode(p SendConfirmationCodePayload) (job.CreateRequest, error) {
	b, err := EncodePayload(JobSendConfirmationCode, p)
	if err != nil {
		return job.CreateRequest{}, err
	}

	return job.CreateRequest{
		Type:    string(JobSendConfirmationCode),
		Payload: b,
	}, nil
}
