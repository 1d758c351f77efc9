package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"timetrack-web/internal/apiclient"
	"timetrack-web/internal/auth"
	"timetrack-web/internal/config"
	"timetrack-web/internal/handler"
	"timetrack-web/internal/logging"
	"timetrack-web/internal/logsink"
	"timetrack-web/internal/metrics"
	"timetrack-web/internal/repository"
	"timetrack-web/internal/service"
	"timetrack-web/pkg/telegram"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	dashboardIdleTTL   = 30 * time.Minute
	sweepInterval      = 5 * time.Minute
	staleSessionMaxAge = 30 * 24 * time.Hour
	shutdownTimeout    = 10 * time.Second
)

func main() {
	logrus.Info("Initializing config...")
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load config")
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	logger.WithFields(logrus.Fields{
		"env":    cfg.Env,
		"api":    cfg.APIBaseURL,
		"listen": cfg.ListenAddr,
	}).Info("Config initialized")

	db, err := gorm.Open(sqlite.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.WithError(err).Fatal("Failed to get database instance")
	}

	sessionRepo, err := repository.NewGormSessionRepository(db, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create session repository")
	}

	nonWorkingDayRepo, err := repository.NewGormNonWorkingDayRepository(db)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create non-working day repository")
	}

	calendarService := service.NewCalendarService(nonWorkingDayRepo, logger)
	if cfg.HolidaysFile != "" {
		if _, err := calendarService.LoadFromJSON(context.Background(), cfg.HolidaysFile); err != nil {
			logger.WithError(err).Warn("Failed to load holidays file")
		}
	}

	var notifier logsink.Notifier
	if cfg.AlertsEnabled() {
		client, err := telegram.NewClient(cfg.TelegramToken, cfg.TelegramAlertChatID)
		if err != nil {
			logger.WithError(err).Warn("Telegram alerts disabled")
		} else {
			logger.Infof("Alerts go to Telegram as %s", client.Bot.Self.UserName)
			notifier = client
		}
	}
	sink := logsink.NewFileSink(cfg.ClientLogFile, notifier, logger)

	appMetrics := metrics.New()

	provider := auth.NewProvider(
		auth.NewClient(cfg.AuthURL, cfg.AuthPublicKey, nil),
		sessionRepo,
		auth.ProviderConfig{CookieName: cfg.SessionCookieName, CookieSecure: cfg.CookieSecure},
		logger,
	)

	api := apiclient.NewClient(cfg.APIBaseURL, cfg.APITimeout, auth.ContextSessions{}, logger,
		apiclient.WithObserver(appMetrics))
	attendance := apiclient.NewAttendanceClient(api)

	dashboards := service.NewDashboardRegistry(func() *service.Dashboard {
		return service.NewDashboard(service.DashboardDeps{
			API:      attendance,
			Sink:     sink,
			Observer: appMetrics,
			Limit:    cfg.RecordsLimit,
			Logger:   logger,
		})
	}, dashboardIdleTTL, logger)

	webHandler := handler.NewHandler(handler.Deps{
		Config:     cfg,
		Sessions:   provider,
		Dashboards: dashboards,
		Calendar:   calendarService,
		Backend:    attendance,
		Sink:       sink,
		Metrics:    appMetrics,
		Logger:     logger,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go dashboards.Run(ctx, sweepInterval)
	go purgeSessions(ctx, provider, logger)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           webHandler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// graceful shutdown on SIGINT/SIGTERM
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Infof("Web server listening on %s", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Web server failed")
		}
	}()

	<-stop
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("Web server shutdown incomplete")
	}

	if err := sqlDB.Close(); err != nil {
		logger.Infof("Error closing database: %v", err)
	}

	logger.Info("Web server stopped gracefully")
}

func purgeSessions(ctx context.Context, provider *auth.Provider, logger *logrus.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		if _, err := provider.PurgeExpired(ctx, staleSessionMaxAge); err != nil {
			logger.WithError(err).Warn("Failed to purge stale sessions")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
