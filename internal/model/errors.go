package model

import "errors"

var (
	ErrDuplicateUsername  = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMissingEmail       = errors.New("email required")
	ErrNotFound           = errors.New("not found")
	ErrMissingTitle       = errors.New("title required")
	ErrMalformedTimestamp = errors.New("malformed timestamp")

	// import
	ErrUnsupportedFileType = errors.New("only .ics files are supported")
	ErrEmptyFile           = errors.New("empty file")
	ErrUndecodable         = errors.New("undecodable file encoding")
	ErrMalformedCalendar   = errors.New("malformed calendar")

	ErrCompletionFailed = errors.New("completion service failed")
	ErrMailDelivery     = errors.New("mail delivery failed")
)
