package core

// Error codes for domain errors.
const (
	// ErrCodeStoreUnavailable signals a transient backing-store failure.
	// The connection stays open; the client may retry by resending.
	ErrCodeStoreUnavailable = "store_unavailable"
	// ErrCodeNotIdentified signals a message arriving before the identity
	// handshake completed.
	ErrCodeNotIdentified = "not_identified"
	ErrCodeBadRequest    = "bad_request"
	ErrCodeInvalidFrame  = "invalid_message"
	ErrCodeRateLimited   = "rate_limited"
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}
