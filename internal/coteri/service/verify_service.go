package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/coteri/server/internal/coteri/state"
	"github.com/coteri/server/internal/coteri/store"
	"github.com/coteri/server/internal/coteri/token"
	"github.com/coteri/server/internal/coteri/types"
)

var (
	ErrInvalidStaffUserID = errors.New("staff_user_id is required")
	ErrInvalidVenueID     = errors.New("venue_id is required")
)

// DefaultLookupTimeout bounds the membership lookup. A decision at a
// physical door must never hang; past the deadline the scan fails closed.
const DefaultLookupTimeout = 3 * time.Second

// unknownVenueName is shown when the venue name cannot be resolved.
const unknownVenueName = "—"

// VerifyService turns an untrusted scanned payload into an admit/deny
// decision. All storage access is read-only except the append-only audit
// write, which is best-effort.
type VerifyService struct {
	memberships   store.MembershipStore
	venues        store.VenueStore
	events        store.VerificationEventStore
	keyring       *token.Keyring
	replay        *ReplayCache
	logger        *log.Logger
	lookupTimeout time.Duration
}

// Dependencies holds the collaborators for NewVerifyService.
type Dependencies struct {
	Memberships store.MembershipStore
	Venues      store.VenueStore
	Events      store.VerificationEventStore
	Keyring     *token.Keyring
	Replay      *ReplayCache
	Logger      *log.Logger

	// LookupTimeout bounds the membership lookup. Defaults to
	// DefaultLookupTimeout.
	LookupTimeout time.Duration
}

func NewVerifyService(d Dependencies) *VerifyService {
	timeout := d.LookupTimeout
	if timeout <= 0 {
		timeout = DefaultLookupTimeout
	}
	return &VerifyService{
		memberships:   d.Memberships,
		venues:        d.Venues,
		events:        d.Events,
		keyring:       d.Keyring,
		replay:        d.Replay,
		logger:        d.Logger,
		lookupTimeout: timeout,
	}
}

// Verify decides VALID / EXPIRED / INVALID for one scan attempt.
//
// Within the replay window a repeated submission from the same staff
// session returns the cached result verbatim (marked rateLimited) with no
// new audit row. Otherwise every attempt is independently evaluated,
// fraud-scored, and logged.
func (s *VerifyService) Verify(ctx context.Context, req types.VerifyRequest) (types.VerifyResult, error) {
	now := time.Now().UTC()

	staffUserID := strings.TrimSpace(req.StaffUserID)
	venueID := strings.TrimSpace(req.VenueID)
	rawPayload := strings.TrimSpace(req.RawPayload)

	if staffUserID == "" {
		return types.VerifyResult{}, ErrInvalidStaffUserID
	}
	if venueID == "" {
		return types.VerifyResult{}, ErrInvalidVenueID
	}

	if cached, ok := s.replay.Check(req.SessionID, now); ok && rawPayload != "" {
		return cached, nil
	}

	venueName := s.venueName(ctx, venueID)

	res, membership := s.decide(ctx, rawPayload, venueID, venueName, now)

	flag := s.scoreFraud(ctx, staffUserID, venueID, now)

	s.recordEvent(ctx, staffUserID, venueID, rawPayload, res.Result, membership, flag, now)
	s.replay.Store(req.SessionID, now, res)

	return res, nil
}

// decide resolves the payload to a membership and maps its state to the
// door decision. The returned membership is nil whenever no record could
// be associated with the attempt.
func (s *VerifyService) decide(ctx context.Context, rawPayload, venueID, venueName string, now time.Time) (types.VerifyResult, *store.MembershipRecord) {
	invalid := types.VerifyResult{
		Result:     types.ResultInvalid,
		Venue:      venueName,
		VerifiedAt: now.Format(time.RFC3339),
	}

	var membership *store.MembershipRecord

	switch t := s.keyring.Decode(rawPayload, now).(type) {
	case *token.SignedToken:
		// A token admits only at the venue it was minted against, even
		// when signature and expiry check out.
		if t.VenueID != venueID {
			return invalid, nil
		}
		membership = s.lookupMembership(ctx, venueID, t.MembershipID, false)

	case *token.LegacyToken:
		membership = s.lookupMembership(ctx, venueID, t.MembershipID, true)

	default:
		// Unrecognized or tampered payload: no lookup at all.
		return invalid, nil
	}

	if membership == nil {
		return invalid, nil
	}

	d := state.Evaluate(membership.Status, membership.ExpiresAt, now)

	result := types.ResultInvalid
	switch {
	case d.CanVerify:
		// GRACE folds into VALID for the door decision.
		result = types.ResultValid
	case d.State == state.Expired:
		result = types.ResultExpired
	}

	res := types.VerifyResult{
		Result:         result,
		Venue:          venueName,
		LastVerifiedAt: s.lastVerifiedAt(ctx, membership.ID),
		VerifiedAt:     now.Format(time.RFC3339),
	}
	if membership.Tier != "" {
		tier := membership.Tier
		res.Tier = &tier
	}
	if membership.ExpiresAt != nil {
		exp := membership.ExpiresAt.UTC().Format(time.RFC3339)
		res.ExpiresAt = &exp
	}

	return res, membership
}

// lookupMembership fetches the membership scoped to the staff venue,
// failing closed on storage errors or timeout. Legacy payloads fall back
// to a by-user-id lookup when no membership matches the id directly.
func (s *VerifyService) lookupMembership(ctx context.Context, venueID, id string, legacyFallback bool) *store.MembershipRecord {
	lookupCtx, cancel := context.WithTimeout(ctx, s.lookupTimeout)
	defer cancel()

	rec, err := s.memberships.GetByIDAndVenue(lookupCtx, id, venueID)
	if err != nil {
		s.logger.Printf("membership lookup failed (fail closed): %v", err)
		return nil
	}
	if rec == nil && legacyFallback {
		rec, err = s.memberships.GetByUserAndVenue(lookupCtx, id, venueID)
		if err != nil {
			s.logger.Printf("membership user lookup failed (fail closed): %v", err)
			return nil
		}
	}
	return rec
}

// lastVerifiedAt reports the previous scan of this membership. Read
// before the new event is inserted; informational only, so a read failure
// just omits the field.
func (s *VerifyService) lastVerifiedAt(ctx context.Context, membershipID string) *string {
	t, err := s.events.LatestByMembership(ctx, membershipID)
	if err != nil {
		s.logger.Printf("last-verified lookup failed (omitting): %v", err)
		return nil
	}
	if t == nil {
		return nil
	}
	formatted := t.UTC().Format(time.RFC3339)
	return &formatted
}

func (s *VerifyService) venueName(ctx context.Context, venueID string) string {
	name, err := s.venues.GetName(ctx, venueID)
	if err != nil {
		s.logger.Printf("venue name lookup failed (omitting): %v", err)
		return unknownVenueName
	}
	if name == "" {
		return unknownVenueName
	}
	return name
}

// recordEvent appends the decision to the audit log. Errors are
// intentionally not returned to the caller — a failed audit write must not
// revoke or delay the admission result already shown to staff.
func (s *VerifyService) recordEvent(
	ctx context.Context,
	staffUserID, venueID, rawPayload, result string,
	membership *store.MembershipRecord,
	flag *FraudFlag,
	occurredAt time.Time,
) {
	rec := store.VerificationEventRecord{
		StaffUserID: staffUserID,
		VenueID:     venueID,
		Result:      strings.ToLower(result),
		RawPayload:  rawPayload,
		OccurredAt:  occurredAt,
	}
	if membership != nil {
		id := membership.ID
		rec.MembershipID = &id
	}
	if flag != nil {
		reason := flag.Reason
		score := flag.Score
		rec.FlagReason = &reason
		rec.FlagScore = &score
	}

	if err := s.events.RecordEvent(ctx, rec); err != nil {
		s.logger.Printf("audit write failed (dropped): %v", err)
	}
}
