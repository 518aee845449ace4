package jobs

type JobType string

const (
	// JobSendConfirmationCode delivers a freshly issued confirmation code.
	JobSendConfirmationCode JobType = "send_confirmation_code"
)

func (t JobType) IsValid() bool {
	switch t {
	case JobSendConfirmationCode:
		return true
	default:
		return false
	}
}
