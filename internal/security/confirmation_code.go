package security

import (
	"errors"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var ErrCodeMismatch = errors.New("confirmation code mismatch")

// NewConfirmationCode returns a fresh random code and its bcrypt hash.
// Only the hash is persisted.
func NewConfirmationCode() (code string, hash string, err error) {
	code = uuid.NewString()

	hash, err = HashCode(code)
	if err != nil {
		return "", "", err
	}
	return code, hash, nil
}

func HashCode(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckCode compares a stored hash with a submitted code.
func CheckCode(hash, plain string) error {
	if hash == "" || plain == "" {
		return ErrCodeMismatch
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)); err != nil {
		return ErrCodeMismatch
	}
	return nil
}
