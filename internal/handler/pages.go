package handler

import (
	"errors"
	"net/http"
	"strings"

	"timetrack-web/internal/auth"
	"timetrack-web/internal/logsink"
	"timetrack-web/internal/middleware"
	"timetrack-web/internal/models"
	"timetrack-web/internal/service"
)

const emptyCredentialsMessage = "メールアドレスとパスワードを入力してください。"

type homePage struct {
	basePage
	ConnectionStatus string
	APIBaseURL       string
}

func (h *Handler) home(w http.ResponseWriter, r *http.Request) {
	page := homePage{
		basePage:         h.base(r, "ホーム"),
		ConnectionStatus: "未確認",
		APIBaseURL:       h.cfg.APIBaseURL,
	}

	if r.URL.Query().Get("check") == "1" {
		raw, err := h.backend.Health(r.Context())
		if err != nil {
			page.ConnectionStatus = "接続エラー: " + err.Error()
		} else {
			page.ConnectionStatus = "接続成功: " + string(raw)
		}
	}

	h.render(w, h.homeTmpl, http.StatusOK, page)
}

type loginPage struct {
	basePage
	FormEmail string
	Redirect  string
	Error     string
}

type loginForm struct {
	Email    string `validate:"required"`
	Password string `validate:"required"`
}

func (h *Handler) loginPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, h.loginTmpl, http.StatusOK, loginPage{
		basePage: h.base(r, "ログイン"),
		Redirect: safeRedirect(r.URL.Query().Get("redirect")),
	})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	form := loginForm{
		Email:    strings.TrimSpace(r.PostForm.Get("email")),
		Password: r.PostForm.Get("password"),
	}
	page := loginPage{
		basePage:  h.base(r, "ログイン"),
		FormEmail: form.Email,
		Redirect:  safeRedirect(r.PostForm.Get("redirect")),
	}

	if err := h.validate.Struct(form); err != nil {
		page.Error = emptyCredentialsMessage
		h.render(w, h.loginTmpl, http.StatusUnprocessableEntity, page)
		return
	}

	_, err := h.sessions.SignIn(r.Context(), w, form.Email, form.Password)
	if err != nil {
		masked := auth.MaskEmail(form.Email)
		h.logger.WithError(err).WithField("email", masked).Warn("Login failed")
		h.recordEvent(r.Context(), logsink.LevelError, "login_failed", map[string]any{
			"email": masked,
			"error": err.Error(),
		})

		status := http.StatusUnauthorized
		page.Error = err.Error()
		if !auth.IsAuthError(err) {
			status = http.StatusBadGateway
			page.Error = "認証サービスに接続できませんでした。"
		}
		h.render(w, h.loginTmpl, status, page)
		return
	}

	http.Redirect(w, r, page.Redirect, http.StatusSeeOther)
}

// safeRedirect accepts only local absolute paths so the login form cannot be
// used to bounce users to another site.
func safeRedirect(target string) string {
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.Contains(target, `\`) {
		return middleware.LandingPath
	}
	return target
}

type employeePage struct {
	basePage
	View     service.DashboardView
	Holidays []string
}

func (h *Handler) employee(w http.ResponseWriter, r *http.Request) {
	d := h.dashboard(r)
	// a failed load is already recorded on the dashboard and rendered inline
	_ = d.Load(r.Context())
	h.renderEmployee(w, r, d.Snapshot(), "", http.StatusOK)
}

func (h *Handler) employeeAction(w http.ResponseWriter, r *http.Request) {
	d := h.dashboard(r)

	if err := r.ParseForm(); err != nil {
		h.renderEmployee(w, r, d.Snapshot(), "不正なリクエストです。", http.StatusBadRequest)
		return
	}

	action, ok := models.ParseAction(r.PostForm.Get("action"))
	if !ok {
		h.renderEmployee(w, r, d.Snapshot(), "不正な操作です。", http.StatusBadRequest)
		return
	}

	err := d.Dispatch(r.Context(), action)
	switch {
	case err == nil:
		h.renderEmployee(w, r, d.Snapshot(), "", http.StatusOK)
	case errors.Is(err, service.ErrActionNotPermitted):
		h.renderEmployee(w, r, d.Snapshot(), "この操作は現在実行できません。", http.StatusConflict)
	case errors.Is(err, service.ErrBusy):
		h.renderEmployee(w, r, d.Snapshot(), "処理中です。しばらくお待ちください。", http.StatusConflict)
	default:
		h.renderEmployee(w, r, d.Snapshot(), "", http.StatusBadGateway)
	}
}

func (h *Handler) dashboard(r *http.Request) *service.Dashboard {
	// the guard has already redirected signed-out users
	return h.dashboards.Get(auth.FromContext(r.Context()).ID)
}

func (h *Handler) renderEmployee(w http.ResponseWriter, r *http.Request, snap service.Snapshot, message string, status int) {
	view := service.BuildView(snap)
	if message != "" {
		view.Error = message
	}

	page := employeePage{basePage: h.base(r, "ダッシュボード"), View: view}

	if h.calendar != nil {
		now := h.now()
		page.View.NonWorkingDay = h.calendar.IsNonWorkingDay(r.Context(), now)
		days, err := h.calendar.NonWorkingDaysForMonth(r.Context(), now.Year(), now.Month())
		if err != nil {
			h.logger.WithError(err).Warn("Failed to list non-working days")
		}
		for _, d := range days {
			page.Holidays = append(page.Holidays, d.Date.In(now.Location()).Format("1/2"))
		}
	}

	h.render(w, h.employeeTmpl, status, page)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	id, err := h.sessions.SignOut(w, r)
	if err != nil {
		h.logger.WithError(err).Warn("Sign-out failed")
	}
	if id != "" {
		h.dashboards.Remove(id)
	}
	http.Redirect(w, r, middleware.LoginPath, http.StatusSeeOther)
}
