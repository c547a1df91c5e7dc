package main

import (
	"context"
	"log"
	"net/http"
	"time"

	alertApp "fx-alert-bot/internal/application/alert"
	authApp "fx-alert-bot/internal/application/auth"
	authinfra "fx-alert-bot/internal/infrastructure/auth"
	"fx-alert-bot/internal/infrastructure/chart"
	"fx-alert-bot/internal/infrastructure/config"
	"fx-alert-bot/internal/infrastructure/db"
	"fx-alert-bot/internal/infrastructure/external/litefinance"
	"fx-alert-bot/internal/infrastructure/external/twelvedata"
	marketinfra "fx-alert-bot/internal/infrastructure/marketdata"
	"fx-alert-bot/internal/infrastructure/notify"
	"fx-alert-bot/internal/infrastructure/persistence/postgres"
	httpapi "fx-alert-bot/internal/interface/http"
)

func main() {
	cfg, err := config.LoadFromFile("config.yaml")
	if err != nil {
		log.Fatalf("CRITICAL: load config failed: %v", err)
	}
	log.Printf("configuration loaded (HTTP_ADDR=%s)", cfg.HTTP.Addr)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := db.Connect(ctx, cfg.DB)
	cancel()
	if err != nil {
		log.Fatalf("CRITICAL: database connection failed: %v", err)
	}
	if pool == nil {
		log.Fatal("CRITICAL: DB_DSN is required")
	}
	defer pool.Close()
	log.Printf("database connected successfully")

	// 市場資料:主要源 + 次要源 + 金鑰池
	primary := litefinance.NewClient(cfg.MarketData.LiteFinanceURL, cfg.MarketData.Timeout)
	secondary := twelvedata.NewClient(cfg.MarketData.TwelveDataURL, cfg.MarketData.Timeout)
	keyPool := marketinfra.NewKeyPool(cfg.MarketData.APIKeys, cfg.MarketData.RotateEvery)
	prices := marketinfra.NewService(primary, secondary, keyPool, cfg.MarketData.BlockFor)
	if len(cfg.MarketData.APIKeys) == 0 {
		log.Printf("warning: no TD_API_KEYS configured, running on the primary source only")
	}

	// 警報服務與評估引擎
	alertRepo := postgres.NewAlertRepo(pool)
	alertSvc := alertApp.NewService(alertRepo, prices)
	notifier := notify.NewTelegramClient(cfg.Telegram.Token, cfg.Telegram.BaseURL)
	charts := chart.NewClient(cfg.Chart.BaseURL, cfg.Chart.Timeout)
	engine := alertApp.NewEngine(alertRepo, prices, notifier, charts, cfg.Alerts.Concurrency, cfg.Chart.Outputsize)
	scheduler := alertApp.NewScheduler(engine, cfg.Alerts.CheckInterval)
	if err := scheduler.Start(context.Background()); err != nil {
		log.Fatalf("CRITICAL: start scheduler failed: %v", err)
	}
	defer scheduler.Stop()

	// 後台帳號
	authRepo := postgres.NewAuthRepo(pool)
	if cfg.Auth.AdminPassword != "" {
		hash, err := authinfra.HashPassword(cfg.Auth.AdminPassword)
		if err != nil {
			log.Fatalf("CRITICAL: hash admin password failed: %v", err)
		}
		seedCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = authRepo.EnsureAdmin(seedCtx, cfg.Auth.AdminUser, hash)
		cancel()
		if err != nil {
			log.Printf("warning: seed admin user failed: %v", err)
		}
	}
	tokenSvc := authinfra.NewJWTIssuer(cfg.Auth.Secret, cfg.Auth.TokenTTL)
	loginUC := authApp.NewLoginUseCase(authRepo, authinfra.BcryptHasher{}, tokenSvc)

	apiServer := httpapi.NewServer(loginUC, alertSvc, prices, tokenSvc, pool)
	log.Printf("starting HTTP server on %s", cfg.HTTP.Addr)
	if err := http.ListenAndServe(cfg.HTTP.Addr, apiServer.Handler()); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
