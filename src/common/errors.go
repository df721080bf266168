package common

import "fmt"

// ErrType classifies the errors produced by the replication engine.
type ErrType uint32

const (
	// SigningFailure means a post could not be signed. It is the only error
	// that propagates out of post creation.
	SigningFailure ErrType = iota
	// SubmissionFailure is a per-peer delivery failure. It is counted, never
	// returned by a broadcast.
	SubmissionFailure
	// VerificationFailure is advisory and only ever surfaces as a false
	// verification result.
	VerificationFailure
	// FeedLoadDegraded means the feed was served from the local cache.
	FeedLoadDegraded
	// MalformedEnvelope is an envelope or post missing required fields.
	MalformedEnvelope
	// KeyNotFound is returned by stores when a blob does not exist.
	KeyNotFound
	// StoreClosed is returned by stores after Close.
	StoreClosed
)

// String ...
func (t ErrType) String() string {
	switch t {
	case SigningFailure:
		return "Signing Failure"
	case SubmissionFailure:
		return "Submission Failure"
	case VerificationFailure:
		return "Verification Failure"
	case FeedLoadDegraded:
		return "Feed Load Degraded"
	case MalformedEnvelope:
		return "Malformed Envelope"
	case KeyNotFound:
		return "Not Found"
	case StoreClosed:
		return "Store Closed"
	default:
		return "Unknown"
	}
}

// Err is the error type shared by all the packages of the engine. It records
// the component that failed, the class of failure, a free-form detail (a key,
// a peer URL, an envelope id) and the underlying cause if any.
type Err struct {
	component string
	errType   ErrType
	detail    string
	cause     error
}

// NewErr ...
func NewErr(component string, errType ErrType, detail string) Err {
	return Err{
		component: component,
		errType:   errType,
		detail:    detail,
	}
}

// WrapErr creates an Err which keeps a reference to the error that caused it.
func WrapErr(component string, errType ErrType, detail string, cause error) Err {
	return Err{
		component: component,
		errType:   errType,
		detail:    detail,
		cause:     cause,
	}
}

// Error ...
func (e Err) Error() string {
	m := fmt.Sprintf("%s, %s, %s", e.component, e.detail, e.errType)
	if e.cause != nil {
		m = fmt.Sprintf("%s: %v", m, e.cause)
	}
	return m
}

// Unwrap gives errors.Is and errors.As access to the cause.
func (e Err) Unwrap() error {
	return e.cause
}

// Type returns the class of the error.
func (e Err) Type() ErrType {
	return e.errType
}

// Is checks that an error is of type Err, or wraps one, and that its code
// matches the provided ErrType.
func Is(err error, t ErrType) bool {
	for err != nil {
		if e, ok := err.(Err); ok && e.errType == t {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
