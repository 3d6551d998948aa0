package main

import (
	"context"
	"encoding/hex"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"github.com/coteri/server/internal/config"
	"github.com/coteri/server/internal/coteri/service"
	sqlitestore "github.com/coteri/server/internal/coteri/store/sqlite"
	"github.com/coteri/server/internal/coteri/token"
	"github.com/coteri/server/internal/db"
	"github.com/coteri/server/internal/httpapi"
)

// devKeyHex is used only when COTERI_ENV=dev and no keys are configured.
const devKeyHex = "6465762d6f6e6c792d746f6b656e2d6b65792d3332627974652121"

func main() {
	logger := log.New(os.Stdout, "coteri-server ", log.LstdFlags|log.LUTC)

	cfg, err := config.FromEnv()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}

	keys, err := cfg.HMACKeys()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}
	activeKeyID := cfg.TokenActiveKeyID
	if len(keys) == 0 {
		if cfg.Env != "dev" {
			logger.Fatal("COTERI_TOKEN_KEYS is required outside dev")
		}
		logger.Printf("no token keys configured; using built-in dev key")
		devKey, _ := hex.DecodeString(devKeyHex)
		keys = map[string][]byte{"k1": devKey}
		activeKeyID = "k1"
	}

	keyring, err := token.NewKeyring(keys, activeKeyID)
	if err != nil {
		logger.Fatalf("keyring: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(ctx, db.Config{Path: cfg.DBPath, Env: cfg.Env})
	if err != nil {
		logger.Fatalf("db open: %v", err)
	}
	defer conn.Close()

	if cfg.Env == "dev" {
		if err := db.SeedDev(ctx, conn, db.SeedDevOptions{}); err != nil {
			logger.Fatalf("seed dev: %v", err)
		}
	}

	writer := db.NewWriter(conn)
	defer writer.Close()

	// Stores
	membershipStore := sqlitestore.NewMembershipStore(conn)
	venueStore := sqlitestore.NewVenueStore(conn)
	eventStore := sqlitestore.NewVerificationEventStore(conn, writer)

	// Verification core
	replay := service.NewReplayCache(cfg.ReplayWindow)
	verifySvc := service.NewVerifyService(service.Dependencies{
		Memberships:   membershipStore,
		Venues:        venueStore,
		Events:        eventStore,
		Keyring:       keyring,
		Replay:        replay,
		Logger:        logger,
		LookupTimeout: cfg.LookupTimeout,
	})

	janitor := service.NewSessionJanitor(replay, service.JanitorConfig{
		Retention: cfg.SessionRetention,
		Interval:  cfg.JanitorInterval,
	}, logger)
	janitor.Start(ctx)
	defer janitor.Stop()

	// HTTP
	srv := httpapi.NewServer(httpapi.Dependencies{
		Logger:        logger,
		Addr:          cfg.HTTPAddr,
		VerifyService: verifySvc,
	})

	go func() {
		logger.Printf("listening on %s", cfg.HTTPAddr)
		if err := srv.Start(); err != nil {
			logger.Printf("server error: %v", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
