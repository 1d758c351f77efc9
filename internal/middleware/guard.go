// Package middleware holds the HTTP middleware shared by the web routes.
package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"timetrack-web/internal/auth"
	"timetrack-web/internal/models"

	"github.com/sirupsen/logrus"
)

const (
	LoginPath   = "/login"
	LandingPath = "/employee"
)

// Decision is the guard's verdict for one request. An empty Redirect lets
// the request through.
type Decision struct {
	Redirect string
}

func (d Decision) Allowed() bool {
	return d.Redirect == ""
}

func IsProtected(path string) bool {
	return path == LandingPath || path == "/admin" || strings.HasPrefix(path, "/admin/")
}

// Decide is the whole routing policy: signed-out users are sent from
// protected pages to the login page, signed-in users are sent from the login
// page to the landing page.
func Decide(path string, hasSession bool) Decision {
	switch {
	case IsProtected(path) && !hasSession:
		return Decision{Redirect: LoginRedirect(path)}
	case path == LoginPath && hasSession:
		return Decision{Redirect: LandingPath}
	default:
		return Decision{}
	}
}

// LoginRedirect builds the login URL that returns to path after sign-in.
func LoginRedirect(path string) string {
	escaped := strings.ReplaceAll(url.QueryEscape(path), "%2F", "/")
	return LoginPath + "?redirect=" + escaped
}

type SessionLookup interface {
	Current(r *http.Request) (*models.Session, error)
}

// Guard looks the session up on every request, stores it on the request
// context and applies Decide. Lookup failures count as signed out.
func Guard(sessions SessionLookup, logger *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := sessions.Current(r)
			if err != nil {
				logger.WithError(err).WithField("path", r.URL.Path).Error("Session lookup failed")
				session = nil
			}

			if d := Decide(r.URL.Path, session != nil); !d.Allowed() {
				http.Redirect(w, r, d.Redirect, http.StatusTemporaryRedirect)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithSession(r.Context(), session)))
		})
	}
}
