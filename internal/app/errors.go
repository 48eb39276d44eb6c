package app

import "errors"

var (
	// ErrUnauthenticated is returned when an operation requires a logged-in
	// user and none is present.
	ErrUnauthenticated = errors.New("unauthorized")

	// ErrInvalidCredentials is returned when the supplied credentials do not
	// match a known account. Unknown username and wrong password are not
	// distinguished.
	ErrInvalidCredentials = errors.New("invalid username or password")

	ErrFieldsRequired   = errors.New("all fields are required")
	ErrDuplicateUser    = errors.New("a user with the same details already exists")
	ErrUsernameTaken    = errors.New("username already exists")
	ErrAdminLimit       = errors.New("admin registration limit reached")
	ErrAdminExists      = errors.New("username or email already exists")
	ErrPasswordMismatch = errors.New("new password and confirm password do not match")
	ErrWrongPassword    = errors.New("current password is incorrect")

	ErrProjectNotFound = errors.New("project not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrProjectExists   = errors.New("project already exists")
	ErrPDFNotFound     = errors.New("pdf file not found")

	ErrInvalidFileType = errors.New("invalid file type")
	ErrFileRequired    = errors.New("file is required")

	ErrEntryNotRemoved = errors.New("entry not found")
)
