package handler

import (
	"context"
	"embed"
	"encoding/json"
	"html/template"
	"net/http"
	"time"

	"timetrack-web/internal/auth"
	"timetrack-web/internal/config"
	"timetrack-web/internal/logsink"
	"timetrack-web/internal/metrics"
	"timetrack-web/internal/middleware"
	"timetrack-web/internal/models"
	"timetrack-web/internal/service"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/csrf"
	"github.com/sirupsen/logrus"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Sessions is the session provider as seen by the web tier.
type Sessions interface {
	middleware.SessionLookup
	SignIn(ctx context.Context, w http.ResponseWriter, email, password string) (*models.Session, error)
	SignOut(w http.ResponseWriter, r *http.Request) (string, error)
}

type HealthChecker interface {
	Health(ctx context.Context) (json.RawMessage, error)
}

type Handler struct {
	cfg        *config.WebConfig
	sessions   Sessions
	dashboards *service.DashboardRegistry
	calendar   *service.CalendarService
	backend    HealthChecker
	sink       logsink.Recorder
	metrics    *metrics.Metrics
	logger     *logrus.Logger
	validate   *validator.Validate
	now        func() time.Time

	homeTmpl     *template.Template
	loginTmpl    *template.Template
	employeeTmpl *template.Template
}

type Deps struct {
	Config     *config.WebConfig
	Sessions   Sessions
	Dashboards *service.DashboardRegistry
	Calendar   *service.CalendarService
	Backend    HealthChecker
	Sink       logsink.Recorder
	Metrics    *metrics.Metrics
	Logger     *logrus.Logger
}

func NewHandler(deps Deps) *Handler {
	logger := deps.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Handler{
		cfg:          deps.Config,
		sessions:     deps.Sessions,
		dashboards:   deps.Dashboards,
		calendar:     deps.Calendar,
		backend:      deps.Backend,
		sink:         deps.Sink,
		metrics:      deps.Metrics,
		logger:       logger,
		validate:     validator.New(),
		now:          time.Now,
		homeTmpl:     parsePage("home.html"),
		loginTmpl:    parsePage("login.html"),
		employeeTmpl: parsePage("employee.html"),
	}
}

func parsePage(name string) *template.Template {
	return template.Must(template.ParseFS(templatesFS, "templates/layout.html", "templates/"+name))
}

// Routes wires every endpoint. Page routes go through the session guard and,
// when a key is configured, CSRF protection.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	var observer middleware.HTTPObserver
	if h.metrics != nil {
		observer = h.metrics
	}

	r.Use(chimw.RequestID)
	r.Use(middleware.RequestLogger(h.logger, observer))
	r.Use(chimw.Recoverer)
	r.Use(middleware.SecurityHeaders(middleware.SecurityHeadersConfig{}))

	r.Get("/health", h.health)
	if h.metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.metrics.Handler())
	}
	r.Post("/api/log", logsink.Handler(h.sink))

	r.Group(func(r chi.Router) {
		r.Use(middleware.NoStore)
		if h.cfg.CSRFAuthKey != "" {
			r.Use(h.csrfProtection())
		}
		r.Use(middleware.Guard(h.sessions, h.logger))

		r.Get("/", h.home)
		r.Get("/login", h.loginPage)
		r.Post("/login", h.login)
		r.Get("/employee", h.employee)
		r.Post("/employee", h.employeeAction)
		r.Post("/logout", h.logout)

		// guarded, but this app has no admin pages
		r.HandleFunc("/admin", http.NotFound)
		r.HandleFunc("/admin/*", http.NotFound)
	})

	return r
}

func (h *Handler) csrfProtection() func(http.Handler) http.Handler {
	protect := csrf.Protect(
		[]byte(h.cfg.CSRFAuthKey),
		csrf.Secure(h.cfg.CookieSecure),
		csrf.Path("/"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.ErrorHandler(http.HandlerFunc(h.csrfFailed)),
	)
	return func(next http.Handler) http.Handler {
		protected := protect(next)
		if h.cfg.CookieSecure {
			return protected
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			protected.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
		})
	}
}

func (h *Handler) csrfFailed(w http.ResponseWriter, r *http.Request) {
	h.logger.WithError(csrf.FailureReason(r)).WithField("path", r.URL.Path).Warn("CSRF check failed")
	http.Error(w, "Forbidden - CSRF token invalid", http.StatusForbidden)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// basePage is embedded by every page's data.
type basePage struct {
	Title     string
	SignedIn  bool
	Email     string
	CSRFField template.HTML
}

func (h *Handler) base(r *http.Request, title string) basePage {
	session := auth.FromContext(r.Context())
	page := basePage{
		Title:     title,
		SignedIn:  session != nil,
		CSRFField: csrf.TemplateField(r),
	}
	if session != nil {
		page.Email = session.Email
	}
	return page
}

func (h *Handler) render(w http.ResponseWriter, tmpl *template.Template, status int, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		h.logger.WithError(err).Error("Failed to render template")
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (h *Handler) recordEvent(ctx context.Context, level logsink.Level, message string, fields map[string]any) {
	if h.sink == nil {
		return
	}
	if err := h.sink.Record(ctx, logsink.Event{Level: level, Message: message, Context: fields}); err != nil {
		h.logger.WithError(err).Debug("Failed to record diagnostic event")
	}
}
