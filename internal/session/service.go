package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rentpro/portal/internal/backend"
	"github.com/rentpro/portal/internal/token"
	"go.uber.org/zap"
)

// Errors returned by the session service
var (
	ErrInvalidToken = errors.New("backend returned an invalid token")
	ErrNoSession    = errors.New("no active session")
	ErrLockedOut    = errors.New("too many failed login attempts")
)

// Authenticator exchanges credentials for a token
type Authenticator interface {
	Login(ctx context.Context, email, password string) (string, error)
}

// Throttle limits repeated failed logins
type Throttle interface {
	Allow(ctx context.Context, email, ipAddress string) (bool, time.Duration, error)
	Failed(ctx context.Context, email, ipAddress string) error
	Succeeded(ctx context.Context, email, ipAddress string) error
}

// Service stores backend tokens under opaque session IDs
type Service struct {
	auth      Authenticator
	throttle  Throttle // nil disables throttling
	onLogin   func(outcome string, took time.Duration)
	durable   Store // nil when remember-me is unavailable
	ephemeral Store
	inspector *token.Inspector
	idleTTL   time.Duration
	warnMins  int
	logger    *zap.Logger
}

// Options configures a Service
type Options struct {
	// IdleTTL caps the lifetime of non-remembered sessions
	IdleTTL time.Duration
	// ExpiryWarningMinutes is the window reported as "expiring soon"
	ExpiryWarningMinutes int
	// Throttle, if set, guards Login
	Throttle Throttle
	// OnLogin, if set, is called once per Login with its outcome
	OnLogin func(outcome string, took time.Duration)
}

// Login outcomes reported to Options.OnLogin
const (
	LoginSuccess      = "success"
	LoginFailure      = "failure"
	LoginLocked       = "locked"
	LoginInvalidToken = "invalid_token"
	LoginError        = "error"
)

// NewService creates a session service. durable may be nil.
func NewService(auth Authenticator, durable, ephemeral Store, inspector *token.Inspector, opts Options, logger *zap.Logger) *Service {
	if inspector == nil {
		inspector = token.NewInspector(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		auth:      auth,
		throttle:  opts.Throttle,
		onLogin:   opts.OnLogin,
		durable:   durable,
		ephemeral: ephemeral,
		inspector: inspector,
		idleTTL:   opts.IdleTTL,
		warnMins:  opts.ExpiryWarningMinutes,
		logger:    logger,
	}
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required"`
	RememberMe bool   `json:"rememberMe"`
	IPAddress  string `json:"-"`
}

// Session is an established session
type Session struct {
	ID        string        `json:"id"`
	Claims    *token.Claims `json:"claims"`
	ExpiresIn int64         `json:"expiresIn"` // seconds until the token expires
}

// Status describes the token behind a session
type Status struct {
	Subject            string     `json:"subject"`
	UserID             string     `json:"userId"`
	Role               token.Role `json:"role"`
	ExpiresAt          time.Time  `json:"expiresAt"`
	SecondsUntilExpiry int64      `json:"secondsUntilExpiry"`
	ExpiringSoon       bool       `json:"expiringSoon"`
}

// Inspector returns the inspector used to check tokens
func (s *Service) Inspector() *token.Inspector {
	return s.inspector
}

// Login authenticates against the backend and stores the token.
// Remembered sessions go to the durable store when one is configured.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	start := time.Now()
	outcome := LoginError
	defer func() {
		if s.onLogin != nil {
			s.onLogin(outcome, time.Since(start))
		}
	}()

	email := SanitizeEmail(req.Email)

	if s.throttle != nil {
		allowed, retryAfter, err := s.throttle.Allow(ctx, email, req.IPAddress)
		if err != nil {
			// Redis trouble must not lock everyone out
			s.logger.Warn("login throttle unavailable", zap.Error(err))
		} else if !allowed {
			s.logger.Warn("login locked out",
				zap.String("email", email),
				zap.String("ip", req.IPAddress),
				zap.Duration("retry_after", retryAfter),
			)
			outcome = LoginLocked
			return nil, ErrLockedOut
		}
	}

	tok, err := s.auth.Login(ctx, email, req.Password)
	if err != nil {
		if errors.Is(err, backend.ErrUnauthorized) {
			outcome = LoginFailure
			s.recordFailure(ctx, email, req.IPAddress)
		}
		return nil, fmt.Errorf("failed to log in: %w", err)
	}
	s.recordSuccess(ctx, email, req.IPAddress)

	if !s.inspector.IsValid(tok) {
		outcome = LoginInvalidToken
		return nil, ErrInvalidToken
	}
	claims, _ := s.inspector.Parse(tok)

	expiresIn := s.inspector.SecondsUntilExpiry(tok)
	ttl := time.Duration(expiresIn) * time.Second
	store := s.ephemeral
	if req.RememberMe && s.durable != nil {
		store = s.durable
	} else if s.idleTTL > 0 && ttl > s.idleTTL {
		ttl = s.idleTTL
	}

	// A token expiring this very second is still valid but leaves no TTL
	if ttl <= 0 {
		ttl = time.Second
	}

	id := uuid.New().String()
	if err := store.Set(ctx, id, tok, ttl); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	s.logger.Info("session created",
		zap.String("user_id", claims.UserID),
		zap.String("role", string(claims.Role)),
		zap.Bool("remember_me", store == s.durable),
	)

	outcome = LoginSuccess
	return &Session{ID: id, Claims: claims, ExpiresIn: expiresIn}, nil
}

// Token returns the token behind a session, looking in the durable store first.
// A failing store is skipped; its error is returned only when no store has the session.
func (s *Service) Token(ctx context.Context, id string) (string, error) {
	if id == "" {
		return "", ErrNoSession
	}

	var lookupErr error
	for _, store := range s.stores() {
		tok, err := store.Get(ctx, id)
		if err == nil {
			return tok, nil
		}
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn("session store lookup failed", zap.Error(err))
			if lookupErr == nil {
				lookupErr = fmt.Errorf("failed to look up session: %w", err)
			}
		}
	}
	if lookupErr != nil {
		return "", lookupErr
	}
	return "", ErrNoSession
}

// Logout removes the session from every store
func (s *Service) Logout(ctx context.Context, id string) error {
	var errs []error
	for _, store := range s.stores() {
		if err := store.Delete(ctx, id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Status inspects the token behind a session
func (s *Service) Status(ctx context.Context, id string) (*Status, error) {
	tok, err := s.Token(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.StatusOf(tok)
}

// StatusOf inspects a token directly
func (s *Service) StatusOf(tok string) (*Status, error) {
	if !s.inspector.IsValid(tok) {
		return nil, ErrNoSession
	}
	claims, _ := s.inspector.Parse(tok)

	return &Status{
		Subject:            claims.Subject,
		UserID:             claims.UserID,
		Role:               claims.Role,
		ExpiresAt:          claims.ExpiresAtTime().UTC(),
		SecondsUntilExpiry: s.inspector.SecondsUntilExpiry(tok),
		ExpiringSoon:       s.inspector.WillExpireWithin(tok, s.warnMins),
	}, nil
}

func (s *Service) recordFailure(ctx context.Context, email, ip string) {
	if s.throttle == nil {
		return
	}
	if err := s.throttle.Failed(ctx, email, ip); err != nil {
		s.logger.Warn("failed to record login failure", zap.Error(err))
	}
}

func (s *Service) recordSuccess(ctx context.Context, email, ip string) {
	if s.throttle == nil {
		return
	}
	if err := s.throttle.Succeeded(ctx, email, ip); err != nil {
		s.logger.Warn("failed to clear login failures", zap.Error(err))
	}
}

// SanitizeEmail normalizes an email address
func SanitizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) stores() []Store {
	if s.durable != nil {
		return []Store{s.durable, s.ephemeral}
	}
	return []Store{s.ephemeral}
}

var _ Authenticator = (*backend.Client)(nil)
