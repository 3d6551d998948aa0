// mint-pass is a dev/ops tool for the scan-token keyring: generate a root
// signing key, or mint a signed scan token for a membership at a venue.
//
//	mint-pass -new-key
//	COTERI_TOKEN_KEYS=k1:<hex> mint-pass -membership mem_active -venue venue_dev -ttl 1h
package main

import (
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/coteri/server/internal/config"
	"github.com/coteri/server/internal/coteri/token"
)

func main() {
	newKey := flag.Bool("new-key", false, "generate a random 32-byte signing key (hex) and exit")
	membershipID := flag.String("membership", "", "membership id to mint for")
	venueID := flag.String("venue", "", "venue id the token is bound to")
	ttl := flag.Duration("ttl", 0, "token lifetime (default from COTERI_TOKEN_TTL)")
	flag.Parse()

	logger := log.New(os.Stderr, "mint-pass ", 0)

	if *newKey {
		key := make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			logger.Fatalf("generate key: %v", err)
		}
		fmt.Println(hex.EncodeToString(key))
		return
	}

	if *membershipID == "" || *venueID == "" {
		logger.Fatal("-membership and -venue are required (or use -new-key)")
	}

	cfg, err := config.FromEnv()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}
	keys, err := cfg.HMACKeys()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}
	if len(keys) == 0 {
		logger.Fatal("COTERI_TOKEN_KEYS is required")
	}

	keyring, err := token.NewKeyring(keys, cfg.TokenActiveKeyID)
	if err != nil {
		logger.Fatalf("keyring: %v", err)
	}

	effectiveTTL := *ttl
	if effectiveTTL <= 0 {
		effectiveTTL = cfg.TokenTTL
	}

	out, err := keyring.Encode(*membershipID, *venueID, time.Now().UTC(), effectiveTTL)
	if err != nil {
		logger.Fatalf("mint: %v", err)
	}
	fmt.Println(out)
}
