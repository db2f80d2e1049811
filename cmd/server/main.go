package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/lingodex/backend/internal/config"
	"github.com/lingodex/backend/internal/database"
	"github.com/lingodex/backend/internal/handler"
	"github.com/lingodex/backend/internal/oauth"
	"github.com/lingodex/backend/internal/queue"
	"github.com/lingodex/backend/internal/repository"
	"github.com/lingodex/backend/internal/router"
	"github.com/lingodex/backend/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional; real environments set vars directly
	cfg := config.Load()

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.SentryDSN, Environment: cfg.Env}); err != nil {
			log.Printf("sentry init failed: %v", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database open failed: %v", err)
	}
	defer db.Close()
	if err := database.Migrate(db); err != nil {
		log.Fatalf("database migrate failed: %v", err)
	}

	users := repository.NewUserRepo(db)
	methods := repository.NewAuthMethodRepo(db)
	tokens := repository.NewTokenRepo(db)

	var events service.EventPublisher = service.NopPublisher{}
	if cfg.RabbitURL != "" {
		events = service.NewAMQPPublisher(cfg.RabbitURL)
		go queue.StartAccountLockedConsumer(cfg.RabbitURL)
	}

	ledger := service.NewTokenLedger(tokens, methods, users, cfg.JWTSecret,
		time.Duration(cfg.AccessTTLMin)*time.Minute,
		time.Duration(cfg.RefreshTTLDays)*24*time.Hour)
	authSvc := service.NewAuthService(users, methods, ledger, events, cfg.BcryptCost)

	var oauthHandler *handler.OAuthHandler
	if cfg.GoogleEnabled() {
		provider := oauth.NewGoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
		states := oauth.NewStateCodec(cfg.OAuthStateSecret)
		oauthSvc := service.NewOAuthService(users, methods, ledger, events)
		oauthHandler = handler.NewOAuthHandler(provider, states, oauthSvc, cfg.FrontendURL)
	} else {
		log.Printf("google oauth disabled: client credentials not configured")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reaper := service.NewTokenReaper(tokens, time.Duration(cfg.ReaperIntervalHours)*time.Hour)
	go reaper.Run(ctx)

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(authSvc), oauthHandler, cfg, config.NewRedisClient())

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			log.Printf("server shutdown: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Printf("server stopped: %v", err)
	}
}
