package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"conductor/db"
	"conductor/db/migrations"
	"conductor/internal/handlers"
	"conductor/internal/notify"
	"conductor/internal/opportunities"
	"conductor/internal/session"
	"conductor/internal/web"
	"conductor/pkg/config"
	"conductor/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New(logger.Config{}).Fatal().Err(err).Msg("load config")
	}

	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbConn, err := db.Connect(ctx, cfg.DB.ConnectionString())
	if err != nil {
		log.Fatal().Err(err).Msg("cannot connect to db")
	}
	defer dbConn.Close()

	if err := migrations.Run(dbConn.DB); err != nil {
		log.Fatal().Err(err).Msg("migrations")
	}

	store := db.NewStorage(dbConn)

	var notifier opportunities.Notifier = notify.NewLogNotifier(log)
	if cfg.SMTP.Enabled() {
		notifier = notify.NewSMTPNotifier(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Password, cfg.SMTP.From, log)
	}

	renderer, err := web.NewTemplateRenderer(cfg.App.TemplatesDir)
	if err != nil {
		log.Fatal().Err(err).Msg("load templates")
	}
	sessions := session.NewManager(cfg.Session.Secret, cfg.Session.TTL(), cfg.App.IsProduction())
	app := web.NewApp(sessions, store, renderer, log)

	h := handlers.NewHandler(store, opportunities.NewService(store, notifier, log), log)

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr(),
		Handler:           handlers.NewRouter(h, app, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.App.Env).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
	log.Info().Msg("server stopped")
}
