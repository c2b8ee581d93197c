package common

// AuthorizationHeaderName carries the bearer access token on API requests.
const AuthorizationHeaderName = "Authorization"

// Error codes returned in API error bodies. The client switches on these to
// decide between refreshing the session and forcing a sign-out.
const (
	CodeTokenExpired        = "token_expired"
	CodeUnauthorized        = "unauthorized"
	CodeNotFound            = "not_found"
	CodeEmailTaken          = "email_taken"
	CodeMalformedPayload    = "malformed_payload"
	CodeRefreshTokenExpired = "refresh_token_expired"
)
