package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	adapthttp "mealprice/internal/adapter/http"
	"mealprice/internal/adapter/memory"
	"mealprice/internal/adapter/postgres"
	"mealprice/internal/adapter/rates"
	"mealprice/internal/app"
	"mealprice/internal/config"
	"mealprice/internal/domain"
)

type store interface {
	domain.FoodItemRepository
	domain.PurchaseRepository
	domain.MealRepository
	domain.MealInstanceRepository
	domain.UserRepository
}

func main() {
	configPath := flag.String("config", "", "path to config file (default ./config.yaml if present)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		db       store
		sessions domain.SessionRepository
	)
	if cfg.DatabaseURL == "" {
		log.Printf("DATABASE_URL not set, using in-memory store")
		mem := memory.New()
		db, sessions = mem, mem.NewSessionRepo()
	} else {
		pg, err := postgres.Open(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("db open: %v", err)
		}
		defer func() { _ = pg.Close() }()
		db, sessions = pg, postgres.NewSessionRepo(pg)
	}

	rateProvider, err := rates.NewStatic(cfg.Rates)
	if err != nil {
		log.Fatalf("rates: %v", err)
	}

	foods := app.NewFoodItemService(db, db)
	meals := app.NewMealService(db, foods, db)
	authSvc := app.NewAuthService(db, sessions, app.AuthOptions{
		SessionTTL:  cfg.SessionTTL,
		TokenSecret: []byte(cfg.JWT.Secret),
		TokenTTL:    cfg.JWT.TTL,
	})
	svc := adapthttp.Services{
		Foods:     foods,
		Purchases: app.NewPurchaseService(db, foods),
		Meals:     meals,
		Instances: app.NewMealInstanceService(db, meals),
		Pricing:   app.NewPricingService(db, db, domain.DefaultConversionTable(), rateProvider),
		Auth:      authSvc,
	}

	oidcConfig, err := setupOIDC(ctx, cfg.OIDC)
	if err != nil {
		log.Fatalf("oidc: %v", err)
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           adapthttp.New(svc, oidcConfig).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go purgeSessions(ctx, authSvc)

	go func() {
		log.Printf("listening on %s (%d exchange rates)", cfg.Addr, rateProvider.Len())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

func setupOIDC(ctx context.Context, c config.OIDCConfig) (adapthttp.OIDCConfig, error) {
	if !c.Enabled() {
		return adapthttp.OIDCConfig{}, nil
	}
	provider, err := oidc.NewProvider(ctx, c.Issuer)
	if err != nil {
		return adapthttp.OIDCConfig{}, err
	}
	log.Printf("sso enabled via %s", c.Issuer)
	return adapthttp.OIDCConfig{
		Enabled:  true,
		Provider: provider,
		OAuth2Config: oauth2.Config{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			RedirectURL:  c.RedirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
	}, nil
}

func purgeSessions(ctx context.Context, auth *app.AuthService) {
	t := time.NewTicker(time.Hour)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := auth.PurgeExpiredSessions(ctx); err != nil {
				log.Printf("purge sessions: %v", err)
			}
		}
	}
}
