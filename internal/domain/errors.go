package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNoImages            = errors.New("at least one profile image is required")
	ErrTooManyImages       = errors.New("too many profile images")
	ErrNoStyles            = errors.New("at least one style is required")
	ErrUnknownStyle        = errors.New("unknown style")
	ErrInvalidFaceMode     = errors.New("invalid face mode")
	ErrInvalidPrimaryIndex = errors.New("primary image index out of range")
	ErrInvalidAngle        = errors.New("invalid target angle")
	ErrInvalidAspectRatio  = errors.New("invalid aspect ratio")
	ErrInvalidYear         = errors.New("invalid year")
	ErrUnsupportedMedia    = errors.New("unsupported media type")
	ErrStreamClosed        = errors.New("event stream closed")
	ErrProviderFailure     = errors.New("provider failure")
)

// ValidationError reports a rejected request field.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Invalid builds a ValidationError for field.
func Invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

// StyleError wraps a failure confined to one style of a request.
type StyleError struct {
	StyleID string
	Err     error
}

func (e *StyleError) Error() string {
	return fmt.Sprintf("style %s: %v", e.StyleID, e.Err)
}

func (e *StyleError) Unwrap() error { return e.Err }
