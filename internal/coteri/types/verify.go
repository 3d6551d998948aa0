package types

// VerifyRequest carries one scan attempt. Staff identity and venue
// assignment are resolved by the session layer before this core sees the
// request; the raw payload is untrusted input straight from the scanner.
type VerifyRequest struct {
	StaffUserID string `json:"staff_user_id"`
	VenueID     string `json:"venue_id"`
	SessionID   string `json:"session_id"`
	RawPayload  string `json:"payload"`
}

// Verification outcomes. GRACE memberships admit, so they surface as VALID.
const (
	ResultValid   = "VALID"
	ResultExpired = "EXPIRED"
	ResultInvalid = "INVALID"
)

// VerifyResult is the sole contract display layers depend on.
type VerifyResult struct {
	Result         string  `json:"result"` // VALID | EXPIRED | INVALID
	Tier           *string `json:"tier"`
	Venue          string  `json:"venue"`
	LastVerifiedAt *string `json:"lastVerifiedAt"` // RFC3339, previous scan of this membership
	ExpiresAt      *string `json:"expiresAt"`      // RFC3339
	VerifiedAt     string  `json:"verifiedAt"`     // RFC3339
	RateLimited    bool    `json:"rateLimited,omitempty"`
}
