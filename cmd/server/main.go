package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/billetterie/pretix-admin/internal/config"
	"github.com/billetterie/pretix-admin/internal/database"
	"github.com/billetterie/pretix-admin/internal/handler"
	"github.com/billetterie/pretix-admin/internal/middleware"
	"github.com/billetterie/pretix-admin/internal/pretix"
	"github.com/billetterie/pretix-admin/internal/queue"
	"github.com/billetterie/pretix-admin/internal/repository"
	"github.com/billetterie/pretix-admin/internal/router"
)

func main() {
	// Load .env when present; real environments set variables directly.
	_ = godotenv.Load()

	cfg := config.Load()
	e := echo.New()
	e.HideBanner = true

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	if err := database.EnsureSchema(ctx, db); err != nil {
		cancel()
		log.Fatalf("schema migration failed: %v", err)
	}
	cancel()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable, rate limiting disabled")
	}
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	creds := repository.NewCredentialRepo(db, cfg.CredentialKey)

	resolver := pretix.NewResolver(creds, pretix.Credentials{
		BaseURL:   cfg.PretixURL,
		APIKey:    cfg.PretixKey,
		Organizer: cfg.PretixOrganizer,
	})
	client := pretix.NewClient(&http.Client{Timeout: 30 * time.Second})

	authH := handler.NewAuthHandler(cfg, users, tokens)
	pretixH := handler.NewPretixHandler(resolver, client)
	configH := handler.NewConfigHandler(creds)

	router.RegisterRoutes(e, db)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterPretix(e, pretixH, configH, cfg.JWTSecret, limiter)

	// The audit consumer runs in-process only when asked; dedicated worker
	// deployments set AUDIT_CONSUMER=1 and nothing else.
	if v := os.Getenv("AUDIT_CONSUMER"); v == "1" || strings.EqualFold(v, "true") {
		go func() {
			if err := queue.StartAuditConsumer(); err != nil {
				log.Printf("audit consumer stopped: %v", err)
			}
		}()
	}

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
