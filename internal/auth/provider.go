package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"timetrack-web/internal/models"
	"timetrack-web/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	refreshLeeway   = 10 * time.Second
	fallbackTTL     = time.Hour
	sessionLifetime = 30 * 24 * time.Hour
)

// Service is the subset of the auth service the provider needs.
type Service interface {
	SignInWithPassword(ctx context.Context, email, password string) (*Tokens, error)
	Refresh(ctx context.Context, refreshToken string) (*Tokens, error)
	SignOut(ctx context.Context, accessToken string) error
}

type ProviderConfig struct {
	CookieName   string
	CookieSecure bool
}

type Provider struct {
	service  Service
	sessions repository.SessionRepository
	cfg      ProviderConfig
	logger   *logrus.Logger
	now      func() time.Time
}

func NewProvider(service Service, sessions repository.SessionRepository, cfg ProviderConfig, logger *logrus.Logger) *Provider {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Provider{
		service:  service,
		sessions: sessions,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// SignIn authenticates against the auth service, stores the session and sets
// the session cookie.
func (p *Provider) SignIn(ctx context.Context, w http.ResponseWriter, email, password string) (*models.Session, error) {
	tokens, err := p.service.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, err
	}

	session := &models.Session{
		ID:           uuid.NewString(),
		UserID:       tokens.User.ID,
		Email:        tokens.User.Email,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresAt:    p.expiry(tokens),
	}
	if session.Email == "" {
		session.Email = email
	}
	if session.UserID == "" {
		if claims, err := ReadClaims(tokens.AccessToken); err == nil {
			session.UserID = claims.Subject
		}
	}

	if err := p.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	p.setCookie(w, session.ID, p.now().Add(sessionLifetime))
	p.logger.WithField("user_id", session.UserID).Info("User signed in")
	return session, nil
}

// Current returns the request's session, or nil when there is none. The store
// is read on every call and tokens close to expiry are refreshed; a session
// that cannot be refreshed is dropped.
func (p *Provider) Current(r *http.Request) (*models.Session, error) {
	cookie, err := r.Cookie(p.cfg.CookieName)
	if err != nil || cookie.Value == "" {
		return nil, nil
	}

	ctx := r.Context()
	session, err := p.sessions.GetByID(ctx, cookie.Value)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil {
		return nil, nil
	}

	if !session.ExpiresWithin(p.now(), refreshLeeway) {
		return session, nil
	}

	if session.RefreshToken == "" {
		p.drop(ctx, session.ID, "session expired without refresh token")
		return nil, nil
	}

	tokens, err := p.service.Refresh(ctx, session.RefreshToken)
	if err != nil {
		p.logger.WithError(err).WithField("user_id", session.UserID).Warn("Failed to refresh session")
		p.drop(ctx, session.ID, "session refresh failed")
		return nil, nil
	}

	refreshToken := tokens.RefreshToken
	if refreshToken == "" {
		refreshToken = session.RefreshToken
	}
	expiresAt := p.expiry(tokens)
	if err := p.sessions.UpdateTokens(ctx, session.ID, tokens.AccessToken, refreshToken, expiresAt); err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to store refreshed session: %w", err)
	}

	session.AccessToken = tokens.AccessToken
	session.RefreshToken = refreshToken
	session.ExpiresAt = expiresAt
	return session, nil
}

// SignOut ends the request's session and returns its id, empty when there was
// none. The upstream revoke is best effort.
func (p *Provider) SignOut(w http.ResponseWriter, r *http.Request) (string, error) {
	p.setCookie(w, "", time.Unix(0, 0))

	cookie, err := r.Cookie(p.cfg.CookieName)
	if err != nil || cookie.Value == "" {
		return "", nil
	}

	ctx := r.Context()
	session, err := p.sessions.GetByID(ctx, cookie.Value)
	if err != nil {
		return "", fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil {
		return "", nil
	}

	if err := p.service.SignOut(ctx, session.AccessToken); err != nil {
		p.logger.WithError(err).Warn("Auth service sign-out failed")
	}
	if err := p.sessions.Delete(ctx, session.ID); err != nil {
		return session.ID, fmt.Errorf("failed to delete session: %w", err)
	}

	p.logger.WithField("user_id", session.UserID).Info("User signed out")
	return session.ID, nil
}

// PurgeExpired removes sessions whose access token expired more than maxAge
// ago. Their refresh tokens are assumed dead by then.
func (p *Provider) PurgeExpired(ctx context.Context, maxAge time.Duration) (int64, error) {
	return p.sessions.DeleteExpired(ctx, p.now().Add(-maxAge))
}

func (p *Provider) drop(ctx context.Context, id, reason string) {
	if err := p.sessions.Delete(ctx, id); err != nil {
		p.logger.WithError(err).Warn("Failed to delete stale session")
		return
	}
	p.logger.WithField("reason", reason).Debug("Session dropped")
}

func (p *Provider) expiry(tokens *Tokens) time.Time {
	switch {
	case tokens.ExpiresAt > 0:
		return time.Unix(tokens.ExpiresAt, 0)
	case tokens.ExpiresIn > 0:
		return p.now().Add(time.Duration(tokens.ExpiresIn) * time.Second)
	}
	if claims, err := ReadClaims(tokens.AccessToken); err == nil && !claims.ExpiresAt.IsZero() {
		return claims.ExpiresAt
	}
	return p.now().Add(fallbackTTL)
}

func (p *Provider) setCookie(w http.ResponseWriter, value string, expires time.Time) {
	cookie := &http.Cookie{
		Name:     p.cfg.CookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   p.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
	if value == "" {
		cookie.MaxAge = -1
	}
	http.SetCookie(w, cookie)
}

// MaskEmail keeps the first character of the local part and the domain.
func MaskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return "***"
	}
	return email[:1] + "***" + email[at:]
}
