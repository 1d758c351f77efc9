package auth

import (
	"context"

	"timetrack-web/internal/models"
)

type ctxKey struct{}

func WithSession(ctx context.Context, s *models.Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the request's session, nil when signed out.
func FromContext(ctx context.Context) *models.Session {
	s, _ := ctx.Value(ctxKey{}).(*models.Session)
	return s
}

// ContextSessions hands the request session's bearer token to API calls.
type ContextSessions struct{}

func (ContextSessions) BearerToken(ctx context.Context) string {
	return FromContext(ctx).BearerToken()
}
