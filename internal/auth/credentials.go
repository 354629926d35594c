package auth

import (
	"encoding/hex"
	"fmt"
	"time"
)

// Factory default credential. It exists so the device always has a
// well-formed Credentials value, but login is refused until provisioning
// replaces it.
const (
	DefaultUsername = "admin"
	defaultPassword = "admin"
)

// TokenValidation is the outcome of checking a presented session token.
type TokenValidation int

const (
	TokenInvalid TokenValidation = iota
	TokenAuthorized
	TokenExpired
)

func (v TokenValidation) String() string {
	switch v {
	case TokenAuthorized:
		return "authorized"
	case TokenExpired:
		return "expired"
	default:
		return "invalid"
	}
}

// Credentials is the administrator credential and its optional session.
// PasswordHash is always DerivePasswordHash(password, Salt[:]).
type Credentials struct {
	Username     string
	PasswordHash string
	Salt         [SaltSize]byte

	session *SessionToken
}

// NewCredentials derives a credential for username and password under a
// fresh salt. It carries no session.
func NewCredentials(username, password string) *Credentials {
	c := &Credentials{Username: username}
	c.SetPassword(password)
	return c
}

// DefaultCredentials returns the factory credential.
func DefaultCredentials() *Credentials {
	return NewCredentials(DefaultUsername, defaultPassword)
}

// VerifyPassword reports whether candidate is the stored password.
func (c *Credentials) VerifyPassword(candidate string) bool {
	return ConstantTimeEquals(DerivePasswordHash(candidate, c.Salt[:]), c.PasswordHash)
}

// SetPassword replaces salt and hash together. The session is untouched.
func (c *Credentials) SetPassword(password string) {
	c.Salt = GenerateSalt()
	c.PasswordHash = DerivePasswordHash(password, c.Salt[:])
}

// IssueToken starts a new session, replacing any existing one, and returns
// the token value for the client.
func (c *Credentials) IssueToken(now time.Time) string {
	c.session = newSessionToken(now)
	return c.session.Value
}

// InvalidateToken ends the session if there is one.
func (c *Credentials) InvalidateToken() {
	c.session = nil
}

// HasSession reports whether a session is active. Expired sessions count as
// active until they are next validated.
func (c *Credentials) HasSession() bool {
	return c.session != nil
}

// Session returns a copy of the active session, or nil.
func (c *Credentials) Session() *SessionToken {
	if c.session == nil {
		return nil
	}
	s := *c.session
	return &s
}

// ValidateToken checks candidate against the active session.
//
// A missing session and a wrong token both yield TokenInvalid. A matching
// token past its idle timeout is consumed and yields TokenExpired; a
// matching live token has its idle clock restarted.
func (c *Credentials) ValidateToken(candidate string, now time.Time, idle time.Duration) TokenValidation {
	if c.session == nil {
		return TokenInvalid
	}
	if !ConstantTimeEquals(candidate, c.session.Value) {
		return TokenInvalid
	}
	if c.session.IsExpired(now, idle) {
		c.session = nil
		return TokenExpired
	}
	c.session.Touch(now)
	return TokenAuthorized
}

// Clone returns a deep copy, session included.
func (c *Credentials) Clone() *Credentials {
	out := *c
	if c.session != nil {
		s := *c.session
		out.session = &s
	}
	return &out
}

// Record returns the durable projection of c.
func (c *Credentials) Record(provisioned bool) PersistentRecord {
	return PersistentRecord{
		Username:     c.Username,
		PasswordHash: c.PasswordHash,
		SaltHex:      hex.EncodeToString(c.Salt[:]),
		Provisioned:  provisioned,
	}
}

// PersistentRecord is what survives a restart.
type PersistentRecord struct {
	Username     string
	PasswordHash string
	SaltHex      string
	Provisioned  bool
}

// Credentials rebuilds a credential from a stored record. The salt must be
// SaltSize bytes of hex and the hash a full-length hex digest, otherwise
// ErrCorruptRecord is returned.
func (r PersistentRecord) Credentials() (*Credentials, error) {
	salt, err := hex.DecodeString(r.SaltHex)
	if err != nil {
		return nil, fmt.Errorf("%w: salt is not hex: %v", ErrCorruptRecord, err)
	}
	if len(salt) != SaltSize {
		return nil, fmt.Errorf("%w: salt is %d bytes, want %d", ErrCorruptRecord, len(salt), SaltSize)
	}
	if len(r.PasswordHash) != 2*hashLen {
		return nil, fmt.Errorf("%w: hash is %d characters, want %d", ErrCorruptRecord, len(r.PasswordHash), 2*hashLen)
	}
	if _, err := hex.DecodeString(r.PasswordHash); err != nil {
		return nil, fmt.Errorf("%w: hash is not hex: %v", ErrCorruptRecord, err)
	}
	if r.Username == "" {
		return nil, fmt.Errorf("%w: empty username", ErrCorruptRecord)
	}

	c := &Credentials{
		Username:     r.Username,
		PasswordHash: r.PasswordHash,
	}
	copy(c.Salt[:], salt)
	return c, nil
}
