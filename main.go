package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/parentplanner/server/config"
	"github.com/parentplanner/server/handlers"
	"github.com/parentplanner/server/middleware"
	"github.com/parentplanner/server/services"
	"github.com/parentplanner/server/store"
	"github.com/parentplanner/server/store/boltstore"
	"github.com/parentplanner/server/store/memstore"
	"github.com/parentplanner/server/store/mongostore"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}

	log.SetOutput(os.Stdout)
	log.SetFormatter(&log.JSONFormatter{})
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithField("level", cfg.LogLevel).Warn("unknown log level, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg)
	if err != nil {
		log.WithError(err).WithField("backend", cfg.StoreBackend).Fatal("failed to open store")
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := st.Close(closeCtx); err != nil {
			log.WithError(err).Error("store close error")
		}
	}()

	// Redis is optional; without it every lookup goes to the store.
	var cache services.UserCache
	if cfg.RedisAddr != "" {
		client, err := services.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.WithError(err).Warn("redis unavailable, user cache disabled")
		} else {
			defer client.Close()
			cache = services.NewRedisUserCache(client, cfg.UserCacheTTL)
		}
	}

	var mailer services.Mailer = services.NoMail{}
	if cfg.MailEnabled() {
		mailer = &services.SMTPMailer{
			Server:   cfg.SmtpServer,
			Port:     cfg.SmtpPort,
			User:     cfg.SmtpUser,
			Password: cfg.SmtpPassword,
			From:     cfg.SmtpUser,
		}
	}

	userService := services.NewUserService(st, cache, mailer, cfg.AppBaseURL)
	activityService := services.NewActivityService(st, userService)
	authService := services.NewAuthService(st, userService, cfg.JWTSecret, cfg.TokenTTL)

	limiter := middleware.NewRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst, cfg.TrustProxy)
	go limiter.Cleanup(ctx, time.Minute, 3*time.Minute)

	r := handlers.NewRouter(handlers.RouterConfig{
		Users:          userService,
		Activities:     activityService,
		Auth:           authService,
		JWTSecret:      cfg.JWTSecret,
		AllowedOrigins: cfg.AllowedOrigins,
		RateLimiter:    limiter,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("addr", srv.Addr).Info("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server error")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server shutdown error")
	}
}

func openStore(ctx context.Context, cfg config.Config) (store.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendMongo:
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		return mongostore.Connect(connectCtx, cfg.MongoURI, cfg.MongoDatabase)
	case config.BackendBolt:
		return boltstore.New(cfg.BoltPath)
	case config.BackendMemory:
		log.Warn("using in-memory store, data is lost on restart")
		return memstore.New(), nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}
