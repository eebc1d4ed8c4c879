package port

// TokenSource supplies the bearer token attached to authenticated requests.
// An empty token means the request goes out without an Authorization header.
type TokenSource interface {
	Token() string
}

// SessionNotifier is told when the backend rejects the current session (HTTP 403).
type SessionNotifier interface {
	SessionExpired()
}

// Signer signs sign-in challenges with the admin's wallet key (EIP-191 personal_sign).
type Signer interface {
	Address() string
	SignMessage(message string) (string, error)
}
