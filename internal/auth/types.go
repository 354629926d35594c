package auth

import (
	"errors"

	"github.com/nerrad567/solarpool-core/internal/nvs"
)

// MinPasswordLength applies at provisioning, counted after trimming.
const MinPasswordLength = 8

// MaxUsernameLength is the longest username, in bytes, the credential
// record can hold.
const MaxUsernameLength = nvs.MaxStringLength

// Status is a snapshot of provisioning state.
type Status struct {
	Provisioned bool
	Username    string // set only when provisioned
}

// Auth errors.
var (
	ErrAlreadyProvisioned       = errors.New("already provisioned")
	ErrNotProvisioned           = errors.New("provisioning required")
	ErrInvalidCredentials       = errors.New("invalid credentials")
	ErrCurrentPasswordIncorrect = errors.New("current password incorrect")
	ErrPasswordTooShort         = errors.New("password must be at least 8 characters")
	ErrPasswordEmpty            = errors.New("new password cannot be empty")
	ErrUsernameTooLong          = errors.New("username must be at most 127 bytes")
	ErrPersistence              = errors.New("failed to persist credentials")
	ErrCorruptRecord            = errors.New("stored credential record is corrupt")
)
