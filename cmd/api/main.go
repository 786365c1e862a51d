package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"idhub.org/internal/config"
	"idhub.org/internal/httpapi"
	"idhub.org/internal/identity"
	"idhub.org/internal/obs"
	"idhub.org/internal/store/pg"
)

var (
	version = "0.3.1"
	commit  = "dev"
)

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)

	cfg := config.Load()
	if cfg.PGDSN == "" {
		log.Fatal("missing DSN: set IDHUB_PG_DSN")
	}
	if cfg.AuthSecret == "" {
		log.Fatal("missing token secret: set IDHUB_AUTH_SECRET")
	}

	store, err := pg.Open(cfg.PGDSN)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}

	tokens, err := identity.NewTokenIssuer(cfg.AuthSecret,
		identity.WithIssuer(cfg.TokenIssuer),
		identity.WithTokenTTL(cfg.TokenTTL),
	)
	if err != nil {
		log.Fatalf("token issuer: %v", err)
	}
	svc, err := identity.NewService(store, tokens,
		identity.WithGrantExpiry(cfg.EnforceGrantExpiry),
	)
	if err != nil {
		log.Fatalf("identity service: %v", err)
	}

	api := httpapi.New(httpapi.ReadyProbe{DB: store.DB()}, version, svc)
	api.SetRateLimit(cfg.RateBurst, cfg.RatePerSec)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting idhub-api %s on %s", version, srv.Addr)

	// graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	_ = store.Close()
	log.Println("Stopped")
}
