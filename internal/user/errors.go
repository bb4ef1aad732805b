package user

import (
	"errors"

	"lecture_companion_backend/internal/common"
)

// Repository-level errors. The service turns the duplicate errors into ValidationErrors.
var (
	ErrDuplicateEmail = errors.New("user: email already registered")
	ErrDuplicateLogin = errors.New("user: external login already associated")
)

var (
	// ErrNotFound matches common.ErrNotFound under errors.Is.
	ErrNotFound = common.ErrNotFound.WithDetails("User not found.")
	// ErrInvalidCredentials is the single failure for every rejected password sign-in.
	ErrInvalidCredentials = common.ErrUnauthorized.WithMessage("Invalid email or password.")
)

// Validation error codes.
const (
	CodeDuplicateUserName      = "DuplicateUserName"
	CodeDuplicateEmail         = "DuplicateEmail"
	CodeInvalidEmail           = "InvalidEmail"
	CodePasswordTooShort       = "PasswordTooShort"
	CodeLoginAlreadyAssociated = "LoginAlreadyAssociated"
)

// MinPasswordLength is the only password rule enforced.
const MinPasswordLength = 6
