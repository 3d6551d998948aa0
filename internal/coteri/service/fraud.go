package service

import (
	"context"
	"time"

	"github.com/coteri/server/internal/coteri/store"
)

// Fraud heuristics over a staff member's recent scan history. Scoring is a
// best-effort annotation: it runs after the admission decision and a
// history-read failure attaches no flag rather than blocking the door.
const (
	fraudLookback = 2 * time.Minute
	burstWindow   = 60 * time.Second

	burstThreshold   = 10 // events inside burstWindow
	invalidThreshold = 5  // invalid/expired events inside fraudLookback

	reasonBurstAttempts    = "burst_attempts"
	reasonRepeatedInvalids = "repeated_invalids"

	scoreBurstAttempts    = 60
	scoreRepeatedInvalids = 70
)

// FraudFlag annotates a suspicious scanning pattern on one decision.
type FraudFlag struct {
	Reason string
	Score  int
}

// scoreFraud inspects the staff member's events at this venue over the
// lookback window. Rules are evaluated in a fixed order — burst first,
// then invalids, with a later rule overwriting only on a strictly higher
// score — so repeated audits reproduce the same flag.
func (s *VerifyService) scoreFraud(ctx context.Context, staffUserID, venueID string, now time.Time) *FraudFlag {
	events, err := s.events.RecentByStaffAndVenue(ctx, staffUserID, venueID, now.Add(-fraudLookback))
	if err != nil {
		s.logger.Printf("fraud scoring skipped: history read failed: %v", err)
		return nil
	}
	return applyFraudRules(events, now)
}

func applyFraudRules(events []store.VerificationEventRecord, now time.Time) *FraudFlag {
	inBurstWindow := 0
	invalidInLookback := 0
	burstCutoff := now.Add(-burstWindow)

	for _, ev := range events {
		if !ev.OccurredAt.Before(burstCutoff) {
			inBurstWindow++
		}
		if ev.Result == "invalid" || ev.Result == "expired" {
			invalidInLookback++
		}
	}

	var flag *FraudFlag
	if inBurstWindow >= burstThreshold {
		flag = &FraudFlag{Reason: reasonBurstAttempts, Score: scoreBurstAttempts}
	}
	if invalidInLookback >= invalidThreshold && (flag == nil || scoreRepeatedInvalids > flag.Score) {
		flag = &FraudFlag{Reason: reasonRepeatedInvalids, Score: scoreRepeatedInvalids}
	}
	return flag
}
