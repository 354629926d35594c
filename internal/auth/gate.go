package auth

import "strings"

// AuthResult is the outcome of the authorisation gate.
type AuthResult int

const (
	AuthAuthorized AuthResult = iota
	AuthMissing
	AuthInvalid
	AuthExpired
)

func (r AuthResult) String() string {
	switch r {
	case AuthAuthorized:
		return "authorized"
	case AuthMissing:
		return "missing"
	case AuthExpired:
		return "expired"
	default:
		return "invalid"
	}
}

// ParseBearer extracts the token from an Authorization header of the form
// "Bearer <token>". The scheme is matched case-insensitively and the token
// must be non-empty after trimming.
func ParseBearer(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found {
		return "", false
	}
	token = strings.TrimSpace(token)
	if !strings.EqualFold(strings.TrimSpace(scheme), "bearer") || token == "" {
		return "", false
	}
	return token, true
}
