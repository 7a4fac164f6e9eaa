package generator

import "errors"

// Failure classes. Every GenerationError matches exactly one of them with errors.Is.
var (
	ErrProvider          = errors.New("provider request failed")
	ErrMalformedResponse = errors.New("malformed story response")
	ErrEmptyImage        = errors.New("image generation failed to produce an image")
	ErrInvalidRequest    = errors.New("invalid story request")
)

// GenerationError is the single failure returned by Generate.
type GenerationError struct {
	Class error
	Err   error
}

func (e *GenerationError) Error() string {
	return "failed to generate story: " + e.Err.Error()
}

func (e *GenerationError) Unwrap() []error {
	return []error{e.Class, e.Err}
}

func fail(class, err error) error {
	return &GenerationError{Class: class, Err: err}
}
