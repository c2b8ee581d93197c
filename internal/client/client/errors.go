package client

import "errors"

// Sentinel errors for the sync error taxonomy. The transport maps every
// failure onto exactly one of these so upper layers can switch on errors.Is
// without knowing about HTTP.
var (
	// ErrUnauthorized means there is no usable session: missing, invalid, or
	// expired beyond refresh. Callers force a sign-out.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrOffline means the backend could not be reached at the transport
	// level. Non-fatal; retried on reconnect.
	ErrOffline = errors.New("server unreachable")

	// ErrRemote means the backend answered but rejected the operation.
	ErrRemote = errors.New("remote error")

	// ErrMalformedData means a payload failed shape validation.
	ErrMalformedData = errors.New("malformed data")
)
