package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/crypto/hkdf"
)

const (
	signedPrefix = "v2:"
	legacyPrefix = "membership:"
)

// Token is the parse result of a raw scan payload. Exactly one concrete
// type comes back: *SignedToken for the versioned signed format,
// *LegacyToken for the old unsigned format, or nil when the payload is
// unrecognized or fails any integrity check. Malformed input is a normal
// outcome, not an error.
type Token interface {
	token()
}

// SignedToken is a venue-bound, time-limited credential whose signature
// verified against a configured key.
type SignedToken struct {
	MembershipID string
	VenueID      string
	IssuedAt     time.Time
	ExpiresAt    time.Time
}

func (*SignedToken) token() {}

// LegacyToken carries only a membership id. No signature, no venue
// binding, no TTL — callers must treat it as lower-trust.
type LegacyToken struct {
	MembershipID string
}

func (*LegacyToken) token() {}

// tokenBody is the canonical serialization signed into the v2 format.
type tokenBody struct {
	KeyID        string `json:"kid"`
	MembershipID string `json:"mid"`
	VenueID      string `json:"vid"`
	IssuedAt     int64  `json:"iat"`
	ExpiresAt    int64  `json:"exp"`
}

// Keyring stores root HMAC keys and the active signing key id. Rotation:
// new tokens sign with the active key; verification accepts any configured
// key, selected by the kid carried in the token body.
type Keyring struct {
	keys        map[string][]byte
	activeKeyID string
}

// NewKeyring constructs a keyring for token signing and verification.
func NewKeyring(keys map[string][]byte, activeKeyID string) (*Keyring, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("hmac keys are required")
	}
	activeKeyID = strings.TrimSpace(activeKeyID)
	if activeKeyID == "" {
		return nil, fmt.Errorf("active hmac key id is required")
	}
	if _, ok := keys[activeKeyID]; !ok {
		return nil, fmt.Errorf("active hmac key id is not configured")
	}
	return &Keyring{keys: keys, activeKeyID: activeKeyID}, nil
}

// ActiveKeyID returns the configured signing key id.
func (k *Keyring) ActiveKeyID() string {
	if k == nil {
		return ""
	}
	return k.activeKeyID
}

// Encode mints a signed scan token binding a membership to a venue for the
// given TTL.
func (k *Keyring) Encode(membershipID, venueID string, issuedAt time.Time, ttl time.Duration) (string, error) {
	if k == nil {
		return "", fmt.Errorf("hmac keyring is not configured")
	}
	membershipID = strings.TrimSpace(membershipID)
	venueID = strings.TrimSpace(venueID)
	if membershipID == "" {
		return "", fmt.Errorf("membership id is required")
	}
	if venueID == "" {
		return "", fmt.Errorf("venue id is required")
	}
	if ttl <= 0 {
		return "", fmt.Errorf("token ttl must be positive")
	}

	body, err := json.Marshal(tokenBody{
		KeyID:        k.activeKeyID,
		MembershipID: membershipID,
		VenueID:      venueID,
		IssuedAt:     issuedAt.Unix(),
		ExpiresAt:    issuedAt.Add(ttl).Unix(),
	})
	if err != nil {
		return "", fmt.Errorf("marshal token body: %w", err)
	}

	key, err := k.deriveKey(k.activeKeyID, venueID)
	if err != nil {
		return "", err
	}
	sig := sign(key, body)

	enc := base64.RawURLEncoding
	return signedPrefix + enc.EncodeToString(body) + "." + enc.EncodeToString(sig), nil
}

// Decode parses a raw scan payload. A nil result means the payload was
// unrecognized, malformed, tampered with, or past its TTL — all of which
// the caller treats as the same INVALID outcome.
func (k *Keyring) Decode(raw string, now time.Time) Token {
	raw = strings.TrimSpace(raw)

	switch {
	case strings.HasPrefix(raw, signedPrefix):
		return k.decodeSigned(strings.TrimPrefix(raw, signedPrefix), now)

	case strings.HasPrefix(raw, legacyPrefix):
		id := strings.TrimSpace(strings.TrimPrefix(raw, legacyPrefix))
		if id == "" {
			return nil
		}
		return &LegacyToken{MembershipID: id}

	default:
		return nil
	}
}

func (k *Keyring) decodeSigned(payload string, now time.Time) Token {
	if k == nil {
		return nil
	}

	dot := strings.LastIndexByte(payload, '.')
	if dot <= 0 || dot == len(payload)-1 {
		return nil
	}

	enc := base64.RawURLEncoding
	body, err := enc.DecodeString(payload[:dot])
	if err != nil {
		return nil
	}
	sig, err := enc.DecodeString(payload[dot+1:])
	if err != nil {
		return nil
	}

	var b tokenBody
	if err := json.Unmarshal(body, &b); err != nil {
		return nil
	}
	if b.MembershipID == "" || b.VenueID == "" || b.ExpiresAt == 0 {
		return nil
	}

	key, err := k.deriveKey(b.KeyID, b.VenueID)
	if err != nil {
		return nil
	}
	// Constant-time compare.
	if !hmac.Equal(sign(key, body), sig) {
		return nil
	}

	expiresAt := time.Unix(b.ExpiresAt, 0).UTC()
	if !expiresAt.After(now) {
		return nil
	}

	return &SignedToken{
		MembershipID: b.MembershipID,
		VenueID:      b.VenueID,
		IssuedAt:     time.Unix(b.IssuedAt, 0).UTC(),
		ExpiresAt:    expiresAt,
	}
}

func (k *Keyring) deriveKey(keyID, venueID string) ([]byte, error) {
	rootKey, ok := k.keys[strings.TrimSpace(keyID)]
	if !ok {
		return nil, fmt.Errorf("hmac key id is unknown")
	}
	return deriveVenueKey(rootKey, venueID)
}

// deriveVenueKey scopes a root key to one venue so a leaked venue key
// cannot mint tokens for any other venue.
func deriveVenueKey(rootKey []byte, venueID string) ([]byte, error) {
	venueID = strings.TrimSpace(venueID)
	if venueID == "" {
		return nil, fmt.Errorf("venue id is required")
	}
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, rootKey, nil, []byte("venue:"+venueID)), key); err != nil {
		return nil, fmt.Errorf("derive venue key: %w", err)
	}
	return key, nil
}

func sign(key, body []byte) []byte {
	mac := hmac.New(sha256.New, key)
	_, _ = mac.Write(body)
	return mac.Sum(nil)
}
