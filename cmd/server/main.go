package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/juju/clock"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/go_outdoor/internal/config"
	"github.com/Skotchmaster/go_outdoor/internal/db"
	"github.com/Skotchmaster/go_outdoor/internal/events"
	"github.com/Skotchmaster/go_outdoor/internal/gateway"
	"github.com/Skotchmaster/go_outdoor/internal/httpserver"
	"github.com/Skotchmaster/go_outdoor/internal/lock"
	"github.com/Skotchmaster/go_outdoor/internal/logging"
	"github.com/Skotchmaster/go_outdoor/internal/mailer"
	"github.com/Skotchmaster/go_outdoor/internal/metrics"
	authmw "github.com/Skotchmaster/go_outdoor/internal/middleware/auth"
	"github.com/Skotchmaster/go_outdoor/internal/middleware/csrf"
	loggingmw "github.com/Skotchmaster/go_outdoor/internal/middleware/logging"
	"github.com/Skotchmaster/go_outdoor/internal/oauth"
	"github.com/Skotchmaster/go_outdoor/internal/repo"
	"github.com/Skotchmaster/go_outdoor/internal/search"
	"github.com/Skotchmaster/go_outdoor/internal/service"
	"github.com/Skotchmaster/go_outdoor/internal/tokens"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LogLevel)
	slog.SetDefault(logger)
	ctx := logging.IntoContext(context.Background(), logger)

	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	gdb, err := db.Open(initCtx, cfg.DSN())
	if err == nil && cfg.AutoMigrate {
		err = db.Migrate(initCtx, gdb)
	}
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	m, err := metrics.New()
	if err != nil {
		log.Fatalf("metrics: %v", err)
	}

	var publisher events.Publisher = events.Noop{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaProducer(cfg.KafkaBrokers)
	}

	var locker lock.Locker = lock.Noop{}
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		if rdb, err = lock.NewClient(ctx, cfg.RedisAddr); err != nil {
			log.Fatalf("redis: %v", err)
		}
		locker = lock.NewRedisLocker(rdb)
	}

	Repo := &repo.GormRepo{DB: gdb}
	issuer := &tokens.Issuer{
		AccessSecret:  []byte(cfg.JWT.AccessSecret),
		RefreshSecret: []byte(cfg.JWT.RefreshSecret),
	}
	pay := gateway.NewMidtrans(gateway.Config{
		ServerKey:    cfg.Midtrans.ServerKey,
		IsProduction: cfg.Midtrans.IsProduction,
		Timeout:      cfg.Midtrans.Timeout,
	}, logger)
	mail := &mailer.Mailer{
		Sender: mailer.NewSMTPSender(mailer.SMTPConfig{
			Host:     cfg.Email.Host,
			Port:     cfg.Email.Port,
			User:     cfg.Email.User,
			Password: cfg.Email.Password,
		}),
		BaseURL: cfg.BaseURL,
	}

	catalog := &service.CatalogService{Repo: Repo}
	if cfg.ES.URL != "" {
		es, err := search.NewElastic(search.Config{
			URL:      cfg.ES.URL,
			User:     cfg.ES.User,
			Password: cfg.ES.Password,
			Index:    cfg.ES.Index,
		})
		if err != nil {
			log.Fatalf("elasticsearch: %v", err)
		}
		catalog.Search = es
		if err := catalog.IndexAll(ctx); err != nil {
			logger.Warn("initial_index_failed", "error", err)
		}
	}

	authService := &service.AuthService{
		Repo:   Repo,
		Tokens: issuer,
		Mailer: mail,
		Events: publisher,
		Clock:  clock.WallClock,
	}
	authHandler := &httpserver.AuthHTTP{Svc: authService, BaseURL: cfg.BaseURL}
	if cfg.GoogleEnabled() {
		authHandler.Google = oauth.NewGoogle(cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.Google.CallbackURL)
	}

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 30 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), middleware.Secure())
	e.Use(m.Middleware())
	e.Use(loggingmw.RequestLogger(logger))
	if cfg.CSRFEnabled {
		e.Use(csrf.Middleware(csrf.Config{
			SkipPrefixes: []string{"/api/midtrans-notification", "/health", "/metrics"},
		}))
	}
	if cfg.StaticDir != "" {
		e.Static("/", cfg.StaticDir)
	}

	httpserver.Register(e, &httpserver.Deps{
		AuthHandler:    authHandler,
		ProductHandler: &httpserver.ProductHTTP{Svc: catalog},
		CartHandler:    &httpserver.CartHTTP{Svc: &service.CartService{Repo: Repo}},
		OrderHandler: &httpserver.OrderHTTP{Svc: &service.CheckoutService{
			Repo:         Repo,
			Gateway:      pay,
			Locker:       locker,
			Events:       publisher,
			Metrics:      m,
			EnforceStock: cfg.EnforceStock,
			LockTTL:      cfg.Midtrans.Timeout + 15*time.Second,
		}},
		PaymentHandler: &httpserver.PaymentHTTP{
			Svc: &service.PaymentService{
				Repo:    Repo,
				Gateway: pay,
				Events:  publisher,
				Metrics: m,
				Clock:   clock.WallClock,
			},
			ClientKey:    cfg.Midtrans.ClientKey,
			IsProduction: cfg.Midtrans.IsProduction,
		},
		AuthMW:  authmw.NewAutoRefresh(issuer, authService),
		DB:      gdb,
		Metrics: m,
	})

	go func() {
		logger.Info("server_starting", "addr", cfg.Addr())
		if err := e.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("echo start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting_down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("echo_shutdown_failed", "error", err)
	}
	if err := publisher.Close(); err != nil {
		logger.Error("kafka_close_failed", "error", err)
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			logger.Error("redis_close_failed", "error", err)
		}
	}
	db.Close(gdb)

	logger.Info("shutdown_complete")
}
