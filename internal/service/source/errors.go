package source

import "fmt"

// ErrorCode classifies session failures. Recoverable codes are absorbed by
// the session controller via transparent restart; the rest terminate the
// turn without a synthetic completion.
type ErrorCode string

const (
	// ErrNoSpeech - the engine detected no speech in the session window.
	ErrNoSpeech ErrorCode = "no-speech"
	// ErrAudioCapture - transient audio capture fault.
	ErrAudioCapture ErrorCode = "audio-capture"
	// ErrAborted - the session was aborted by the engine.
	ErrAborted ErrorCode = "aborted"
	// ErrNetwork - the recognition backend is unreachable.
	ErrNetwork ErrorCode = "network"
	// ErrNotAllowed - permission to capture or recognize was denied.
	ErrNotAllowed ErrorCode = "not-allowed"
	// ErrServiceNotAllowed - the host forbids the recognition service.
	ErrServiceNotAllowed ErrorCode = "service-not-allowed"
	// ErrLanguageNotSupported - the configured language is unavailable.
	ErrLanguageNotSupported ErrorCode = "language-not-supported"
)

// Recoverable returns true for codes the controller handles internally by
// restarting the underlying session.
func (c ErrorCode) Recoverable() bool {
	switch c {
	case ErrNoSpeech, ErrAudioCapture, ErrAborted:
		return true
	default:
		return false
	}
}

// Error is a session failure tagged with its taxonomy code.
type Error struct {
	Code ErrorCode
	Err  error
}

// NewError wraps err with a classification code.
func NewError(code ErrorCode, err error) *Error {
	return &Error{Code: code, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
