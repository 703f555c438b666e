package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	domainauth "github.com/siamkarim/2mro-admin/internal/domain/auth"
	"github.com/siamkarim/2mro-admin/internal/ports"
)

// DefaultLoginFailureMessage is shown when the server gives no reason for a failed login.
const DefaultLoginFailureMessage = "Invalid credentials, email or password is wrong."

// Login results reported to the observer.
const (
	LoginSuccess  = "success"
	LoginRejected = "rejected"
	LoginInvalid  = "invalid"
)

// ErrMissingCredentials is returned when email or password is blank.
var ErrMissingCredentials = errors.New("email and password are required")

// LoginObserver receives the outcome of every login attempt.
type LoginObserver interface {
	ObserveLogin(result string)
}

// IdentityForgetter drops cached identity state for the token held by a store.
type IdentityForgetter interface {
	Forget(ctx context.Context, store ports.TokenStore) error
}

// SessionServiceOptions groups dependencies for SessionService.
type SessionServiceOptions struct {
	API      ports.AuthAPI
	Identity ports.IdentityResolver
	// Forgetter is optional. When set, logout also evicts the cached identity.
	Forgetter IdentityForgetter

	AccessTTL  time.Duration
	RefreshTTL time.Duration
	// HomePath is where a successful login lands.
	HomePath string

	Logger   *slog.Logger
	Observer LoginObserver
}

// SessionService orchestrates login, logout and identity lookup against the
// remote auth API and a per-client token store.
type SessionService struct {
	api        ports.AuthAPI
	identity   ports.IdentityResolver
	forgetter  IdentityForgetter
	accessTTL  time.Duration
	refreshTTL time.Duration
	homePath   string
	logger     *slog.Logger
	observer   LoginObserver
}

// NewSessionService constructs a new SessionService.
func NewSessionService(opts SessionServiceOptions) *SessionService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	accessTTL := opts.AccessTTL
	if accessTTL <= 0 {
		accessTTL = 24 * time.Hour
	}
	refreshTTL := opts.RefreshTTL
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	home := opts.HomePath
	if home == "" {
		home = "/dashboard"
	}

	return &SessionService{
		api:        opts.API,
		identity:   opts.Identity,
		forgetter:  opts.Forgetter,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		homePath:   home,
		logger:     logger.With("component", "session"),
		observer:   opts.Observer,
	}
}

// LoginResult contains the result of a successful login.
type LoginResult struct {
	Identity   domainauth.Identity
	RedirectTo string
}

// LoginError is a failed login. Message is safe to show to the user.
type LoginError struct {
	Message string
	Err     error
}

func (e *LoginError) Error() string { return e.Message }

func (e *LoginError) Unwrap() error { return e.Err }

// Login exchanges credentials for a token pair and stores it.
// On failure the store is left untouched.
func (s *SessionService) Login(ctx context.Context, store ports.TokenStore, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		s.observe(LoginInvalid)
		return nil, &LoginError{Message: "Email and password are required.", Err: ErrMissingCredentials}
	}

	pair, err := s.api.Login(ctx, email, password)
	if err != nil {
		s.observe(LoginRejected)
		s.logger.InfoContext(ctx, "login rejected", "error", err)
		return nil, &LoginError{Message: loginFailureMessage(err), Err: err}
	}

	store.Set(pair, s.accessTTL, s.refreshTTL)
	s.observe(LoginSuccess)

	result := &LoginResult{RedirectTo: s.homePath}
	if s.identity != nil {
		id, idErr := s.identity.Resolve(ctx, store)
		if idErr != nil {
			// Guards resolve again per request; the login itself stands.
			s.logger.WarnContext(ctx, "resolve identity after login", "error", idErr)
		} else {
			result.Identity = id
		}
	}
	return result, nil
}

type messageCarrier interface {
	UserMessage() string
}

func loginFailureMessage(err error) string {
	var mc messageCarrier
	if errors.As(err, &mc) {
		if msg := strings.TrimSpace(mc.UserMessage()); msg != "" {
			return msg
		}
	}
	return DefaultLoginFailureMessage
}

// Logout revokes the session upstream and clears the store unconditionally.
// The upstream error is returned for logging only; local state is always gone.
func (s *SessionService) Logout(ctx context.Context, store ports.TokenStore) error {
	var errs []error
	if s.forgetter != nil {
		if err := s.forgetter.Forget(ctx, store); err != nil {
			errs = append(errs, err)
		}
	}
	if store.Get(domainauth.TokenAccess) != "" || store.Get(domainauth.TokenRefresh) != "" {
		if err := s.api.Logout(ctx, store); err != nil {
			errs = append(errs, fmt.Errorf("remote logout: %w", err))
		}
	}
	store.Clear()
	return errors.Join(errs...)
}

// Identify resolves the identity for the access token held by store.
func (s *SessionService) Identify(ctx context.Context, store ports.TokenStore) (domainauth.Identity, error) {
	if store.Get(domainauth.TokenAccess) == "" {
		return domainauth.Identity{}, ErrNotAuthenticated
	}
	if s.identity == nil {
		return domainauth.Identity{}, errors.New("no identity resolver configured")
	}
	return s.identity.Resolve(ctx, store)
}

// AccessTTL returns the lifetime applied to stored access tokens.
func (s *SessionService) AccessTTL() time.Duration { return s.accessTTL }

// HomePath returns the landing path after login.
func (s *SessionService) HomePath() string { return s.homePath }

func (s *SessionService) observe(result string) {
	if s.observer != nil {
		s.observer.ObserveLogin(result)
	}
}
