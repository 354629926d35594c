package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// StoreOptions configures a Store. Zero values select defaults.
type StoreOptions struct {
	// IdleTimeout is the sliding session lifetime. Default: DefaultIdleTimeout.
	IdleTimeout time.Duration

	// Now is the clock. Default: time.Now.
	Now func() time.Time

	Logger *slog.Logger
}

// Session is what a successful provisioning or login hands back.
type Session struct {
	Token     string
	Username  string
	ExpiresIn time.Duration
}

// Store owns the live credential, the provisioned flag, and the session.
//
// Every read and write happens under one mutex, and that mutex is held
// across the persistence call so an in-memory change and its rollback
// can never interleave with another request.
type Store struct {
	mu          sync.Mutex
	creds       *Credentials
	provisioned bool

	gateway *Gateway
	idle    time.Duration
	now     func() time.Time
	logger  *slog.Logger
}

// NewStore loads the persisted credential through gw.
//
// The controller must always boot: an unreadable or corrupt record is
// logged and the store starts unprovisioned with the factory credential.
func NewStore(ctx context.Context, gw *Gateway, opts StoreOptions) *Store {
	s := &Store{
		gateway: gw,
		idle:    opts.IdleTimeout,
		now:     opts.Now,
		logger:  opts.Logger,
	}
	if s.idle <= 0 {
		s.idle = DefaultIdleTimeout
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	s.creds, s.provisioned = s.load(ctx)
	return s
}

func (s *Store) load(ctx context.Context) (*Credentials, bool) {
	rec, err := s.gateway.Load(ctx)
	if err != nil {
		s.logger.Error("reading stored credentials failed, starting unprovisioned", "error", err)
		return DefaultCredentials(), false
	}
	if rec == nil {
		s.logger.Info("no stored credentials, awaiting provisioning")
		return DefaultCredentials(), false
	}

	creds, err := rec.Credentials()
	if err != nil {
		s.logger.Error("stored credentials unusable, starting unprovisioned", "error", err)
		return DefaultCredentials(), false
	}

	s.logger.Info("loaded stored credentials", "username", creds.Username)
	return creds, rec.Provisioned
}

// IdleTimeout returns the configured session idle timeout.
func (s *Store) IdleTimeout() time.Duration {
	return s.idle
}

// Status reports whether the device is provisioned and, if so, for whom.
func (s *Store) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{Provisioned: s.provisioned}
	if s.provisioned {
		st.Username = s.creds.Username
	}
	return st
}

// Provision sets the first administrator credential and opens a session.
//
// It fails with ErrAlreadyProvisioned whatever the arguments once the
// device is provisioned. An empty username becomes DefaultUsername. The
// password must be at least MinPasswordLength after trimming; the
// untrimmed value is what gets hashed.
func (s *Store) Provision(ctx context.Context, username, password string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.provisioned {
		return Session{}, ErrAlreadyProvisioned
	}

	username = strings.TrimSpace(username)
	if username == "" {
		username = DefaultUsername
	}
	if len(strings.TrimSpace(password)) < MinPasswordLength {
		return Session{}, ErrPasswordTooShort
	}
	if len(username) > MaxUsernameLength {
		return Session{}, ErrUsernameTooLong
	}

	prevCreds, prevProvisioned := s.creds, s.provisioned
	s.creds = NewCredentials(username, password)
	s.provisioned = true

	if err := s.gateway.Store(ctx, s.creds.Record(s.provisioned)); err != nil {
		s.creds, s.provisioned = prevCreds, prevProvisioned
		s.logger.Error("persisting provisioned credentials failed", "error", err)
		return Session{}, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	token := s.creds.IssueToken(s.now())
	s.logger.Info("device provisioned", "username", username)

	return Session{Token: token, Username: username, ExpiresIn: s.idle}, nil
}

// Login opens a new session, ending any existing one.
//
// Username and password are both always checked so the response time does
// not reveal which was wrong.
func (s *Store) Login(username, password string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.provisioned {
		return Session{}, ErrNotProvisioned
	}

	userOK := ConstantTimeEquals(username, s.creds.Username)
	passOK := s.creds.VerifyPassword(password)
	if !userOK || !passOK {
		return Session{}, ErrInvalidCredentials
	}

	token := s.creds.IssueToken(s.now())
	return Session{Token: token, Username: s.creds.Username, ExpiresIn: s.idle}, nil
}

// Logout ends the session. It is idempotent.
func (s *Store) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds.InvalidateToken()
}

// ChangePassword re-verifies current, sets next, and ends the session so
// the client must log in again. On a persistence failure the previous
// credential, session included, is restored.
func (s *Store) ChangePassword(ctx context.Context, current, next string) error {
	if strings.TrimSpace(next) == "" {
		return ErrPasswordEmpty
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.creds.VerifyPassword(current) {
		return ErrCurrentPasswordIncorrect
	}

	prev := s.creds.Clone()
	s.creds.SetPassword(next)
	s.creds.InvalidateToken()

	if err := s.gateway.Store(ctx, s.creds.Record(s.provisioned)); err != nil {
		s.creds = prev
		s.logger.Error("persisting changed password failed", "error", err)
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	s.logger.Info("password changed", "username", s.creds.Username)
	return nil
}

// FactoryReset erases the stored credential and returns the store to its
// unprovisioned factory state. If the erase fails nothing changes.
func (s *Store) FactoryReset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.gateway.Clear(ctx); err != nil {
		s.logger.Error("clearing stored credentials failed", "error", err)
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	s.creds = DefaultCredentials()
	s.provisioned = false
	s.logger.Warn("factory reset, credentials cleared")
	return nil
}

// Authorize runs the authorisation gate over an Authorization header.
// present is false when the request carried no such header.
//
// Until the device is provisioned every token is refused.
func (s *Store) Authorize(header string, present bool) AuthResult {
	if !present {
		return AuthMissing
	}
	token, ok := ParseBearer(header)
	if !ok {
		return AuthInvalid
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.provisioned {
		return AuthInvalid
	}

	switch s.creds.ValidateToken(token, s.now(), s.idle) {
	case TokenAuthorized:
		return AuthAuthorized
	case TokenExpired:
		return AuthExpired
	default:
		return AuthInvalid
	}
}
