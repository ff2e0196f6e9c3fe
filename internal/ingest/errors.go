package ingest

import (
	"errors"
	"fmt"

	"github.com/AngelCh415/marketing-intel/internal/models"
)

var (
	ErrUnknownSource     = errors.New("unknown source")
	ErrSinkNotConfigured = errors.New("sink not configured")
	ErrNoSources         = errors.New("no source urls configured")
	ErrTooLarge          = errors.New("upload exceeds size limit")
)

// DecodeError is a per-source failure; other sources are unaffected.
type DecodeError struct {
	Source models.Source
	Err    error
}

func (e *DecodeError) Error() string { return fmt.Sprintf("decode %s: %v", e.Source, e.Err) }

func (e *DecodeError) Unwrap() error { return e.Err }

// StatusError is a non-2xx response from a remote source or sink.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string { return fmt.Sprintf("non-2xx: %d body=%s", e.Code, e.Body) }

// Retryable reports whether another attempt may succeed.
func (e *StatusError) Retryable() bool { return e.Code >= 500 || e.Code == 429 }
