package token_test

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/coteri/server/internal/coteri/token"
)

func newTestKeyring(t *testing.T) *token.Keyring {
	t.Helper()
	k, err := token.NewKeyring(map[string][]byte{
		"k1": []byte("test-root-key-one-32-bytes-long!"),
		"k2": []byte("test-root-key-two-32-bytes-long!"),
	}, "k1")
	if err != nil {
		t.Fatalf("NewKeyring: %v", err)
	}
	return k
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	k := newTestKeyring(t)
	now := time.Date(2026, 2, 15, 12, 0, 0, 0, time.UTC)

	raw, err := k.Encode("mem-123", "venue-a", now, time.Hour)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !strings.HasPrefix(raw, "v2:") {
		t.Fatalf("expected v2: prefix, got %q", raw)
	}

	tok := k.Decode(raw, now.Add(time.Minute))
	signed, ok := tok.(*token.SignedToken)
	if !ok {
		t.Fatalf("expected *SignedToken, got %T", tok)
	}
	if signed.MembershipID != "mem-123" {
		t.Errorf("expected membership mem-123, got %q", signed.MembershipID)
	}
	if signed.VenueID != "venue-a" {
		t.Errorf("expected venue venue-a, got %q", signed.VenueID)
	}
	if !signed.ExpiresAt.Equal(now.Add(time.Hour)) {
		t.Errorf("expected expiry %v, got %v", now.Add(time.Hour), signed.ExpiresAt)
	}
}

func TestDecode_ExpiredToken(t *testing.T) {
	k := newTestKeyring(t)
	now := time.Date(2026, 2, 15, 12, 0, 0, 0, time.UTC)

	raw, err := k.Encode("mem-123", "venue-a", now, time.Hour)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	if tok := k.Decode(raw, now.Add(time.Hour+time.Second)); tok != nil {
		t.Errorf("expected nil for expired token, got %T", tok)
	}
}

func TestDecode_TamperedBody(t *testing.T) {
	k := newTestKeyring(t)
	now := time.Date(2026, 2, 15, 12, 0, 0, 0, time.UTC)

	raw, err := k.Encode("mem-123", "venue-a", now, time.Hour)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	payload := strings.TrimPrefix(raw, "v2:")
	dot := strings.LastIndexByte(payload, '.')
	enc := base64.RawURLEncoding

	body, err := enc.DecodeString(payload[:dot])
	if err != nil {
		t.Fatalf("decode body: %v", err)
	}
	sig := payload[dot+1:]

	// Flipping any single byte of the body must kill the token.
	for i := range body {
		mutated := make([]byte, len(body))
		copy(mutated, body)
		mutated[i] ^= 0x01

		tampered := "v2:" + enc.EncodeToString(mutated) + "." + sig
		if tok := k.Decode(tampered, now); tok != nil {
			t.Fatalf("body byte %d: expected nil for tampered token, got %T", i, tok)
		}
	}
}

func TestDecode_TamperedSignature(t *testing.T) {
	k := newTestKeyring(t)
	now := time.Date(2026, 2, 15, 12, 0, 0, 0, time.UTC)

	raw, err := k.Encode("mem-123", "venue-a", now, time.Hour)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	payload := strings.TrimPrefix(raw, "v2:")
	dot := strings.LastIndexByte(payload, '.')
	enc := base64.RawURLEncoding

	body := payload[:dot]
	sig, err := enc.DecodeString(payload[dot+1:])
	if err != nil {
		t.Fatalf("decode sig: %v", err)
	}

	for i := range sig {
		mutated := make([]byte, len(sig))
		copy(mutated, sig)
		mutated[i] ^= 0x01

		tampered := "v2:" + body + "." + enc.EncodeToString(mutated)
		if tok := k.Decode(tampered, now); tok != nil {
			t.Fatalf("sig byte %d: expected nil for tampered signature, got %T", i, tok)
		}
	}
}

func TestDecode_RotatedKeyStillVerifies(t *testing.T) {
	now := time.Date(2026, 2, 15, 12, 0, 0, 0, time.UTC)

	oldRing, err := token.NewKeyring(map[string][]byte{
		"k1": []byte("test-root-key-one-32-bytes-long!"),
	}, "k1")
	if err != nil {
		t.Fatalf("NewKeyring: %v", err)
	}
	raw, err := oldRing.Encode("mem-123", "venue-a", now, time.Hour)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	// After rotation k2 signs, but k1 tokens remain verifiable.
	rotated := newTestKeyring(t)
	if _, ok := rotated.Decode(raw, now).(*token.SignedToken); !ok {
		t.Error("expected token signed by retained key to verify after rotation")
	}
}

func TestDecode_UnknownKeyID(t *testing.T) {
	now := time.Date(2026, 2, 15, 12, 0, 0, 0, time.UTC)

	other, err := token.NewKeyring(map[string][]byte{
		"k9": []byte("some-other-root-key-32-bytes-ok!"),
	}, "k9")
	if err != nil {
		t.Fatalf("NewKeyring: %v", err)
	}
	raw, err := other.Encode("mem-123", "venue-a", now, time.Hour)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	k := newTestKeyring(t)
	if tok := k.Decode(raw, now); tok != nil {
		t.Errorf("expected nil for unknown key id, got %T", tok)
	}
}

func TestDecode_LegacyFormat(t *testing.T) {
	k := newTestKeyring(t)
	now := time.Now().UTC()

	tok := k.Decode("membership:mem-legacy-1", now)
	legacy, ok := tok.(*token.LegacyToken)
	if !ok {
		t.Fatalf("expected *LegacyToken, got %T", tok)
	}
	if legacy.MembershipID != "mem-legacy-1" {
		t.Errorf("expected membership mem-legacy-1, got %q", legacy.MembershipID)
	}
}

func TestDecode_Unrecognized(t *testing.T) {
	k := newTestKeyring(t)
	now := time.Now().UTC()

	cases := []string{
		"",
		"   ",
		"membership:",
		"v2:",
		"v2:notbase64.!!",
		"v2:bm9ib2R5",
		"v1:YWJj.ZGVm",
		"https://example.com/whatever",
	}
	for _, raw := range cases {
		if tok := k.Decode(raw, now); tok != nil {
			t.Errorf("Decode(%q): expected nil, got %T", raw, tok)
		}
	}
}

func TestEncode_Validation(t *testing.T) {
	k := newTestKeyring(t)
	now := time.Now().UTC()

	if _, err := k.Encode("", "venue-a", now, time.Hour); err == nil {
		t.Error("expected error for empty membership id")
	}
	if _, err := k.Encode("mem-1", "", now, time.Hour); err == nil {
		t.Error("expected error for empty venue id")
	}
	if _, err := k.Encode("mem-1", "venue-a", now, 0); err == nil {
		t.Error("expected error for zero ttl")
	}
}

func TestNewKeyring_Validation(t *testing.T) {
	if _, err := token.NewKeyring(nil, "k1"); err == nil {
		t.Error("expected error for empty key map")
	}
	if _, err := token.NewKeyring(map[string][]byte{"k1": []byte("x")}, ""); err == nil {
		t.Error("expected error for empty active key id")
	}
	if _, err := token.NewKeyring(map[string][]byte{"k1": []byte("x")}, "k2"); err == nil {
		t.Error("expected error for unconfigured active key id")
	}
}
