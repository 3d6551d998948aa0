package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/coteri/server/internal/coteri/store"
	dbpkg "github.com/coteri/server/internal/db"
)

// VerificationEventStore is the append-only audit log. Inserts go through
// the serialized writer; reads go straight to the connection.
type VerificationEventStore struct {
	db     *sql.DB
	writer *dbpkg.Writer
}

func NewVerificationEventStore(db *sql.DB, writer *dbpkg.Writer) *VerificationEventStore {
	return &VerificationEventStore{db: db, writer: writer}
}

func (s *VerificationEventStore) RecordEvent(ctx context.Context, rec store.VerificationEventRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.OccurredAt.IsZero() {
		rec.OccurredAt = time.Now().UTC()
	}
	occurredMs := rec.OccurredAt.UTC().UnixMilli()

	var membershipID any
	if rec.MembershipID != nil && strings.TrimSpace(*rec.MembershipID) != "" {
		membershipID = *rec.MembershipID
	}

	var flagReason, flagScore any
	if rec.FlagReason != nil && rec.FlagScore != nil {
		flagReason = *rec.FlagReason
		flagScore = *rec.FlagScore
	}

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO verification_events(
  event_id, staff_user_id, venue_id, membership_id, result,
  raw_payload, flag_reason, flag_score, occurred_at_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);
`,
			rec.ID, rec.StaffUserID, rec.VenueID, membershipID, rec.Result,
			rec.RawPayload, flagReason, flagScore, occurredMs,
		); err != nil {
			return fmt.Errorf("RecordEvent insert: %w", err)
		}
		return nil
	})
}

func (s *VerificationEventStore) LatestByMembership(ctx context.Context, membershipID string) (*time.Time, error) {
	membershipID = strings.TrimSpace(membershipID)
	if membershipID == "" {
		return nil, nil
	}

	var occurredMs int64
	err := s.db.QueryRowContext(ctx, `
SELECT occurred_at_ms
FROM verification_events
WHERE membership_id = ?
ORDER BY occurred_at_ms DESC
LIMIT 1;
`, membershipID).Scan(&occurredMs)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("LatestByMembership query: %w", err)
	}

	t := time.UnixMilli(occurredMs).UTC()
	return &t, nil
}

func (s *VerificationEventStore) RecentByStaffAndVenue(ctx context.Context, staffUserID, venueID string, since time.Time) ([]store.VerificationEventRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT event_id, staff_user_id, venue_id, membership_id, result,
       raw_payload, flag_reason, flag_score, occurred_at_ms
FROM verification_events
WHERE staff_user_id = ? AND venue_id = ? AND occurred_at_ms >= ?
ORDER BY occurred_at_ms ASC;
`, staffUserID, venueID, since.UTC().UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("RecentByStaffAndVenue query: %w", err)
	}
	defer rows.Close()

	var out []store.VerificationEventRecord
	for rows.Next() {
		var (
			rec          store.VerificationEventRecord
			membershipID sql.NullString
			flagReason   sql.NullString
			flagScore    sql.NullInt64
			occurredMs   int64
		)
		if err := rows.Scan(
			&rec.ID, &rec.StaffUserID, &rec.VenueID, &membershipID, &rec.Result,
			&rec.RawPayload, &flagReason, &flagScore, &occurredMs,
		); err != nil {
			return nil, fmt.Errorf("RecentByStaffAndVenue scan: %w", err)
		}
		if membershipID.Valid {
			v := membershipID.String
			rec.MembershipID = &v
		}
		if flagReason.Valid {
			v := flagReason.String
			rec.FlagReason = &v
		}
		if flagScore.Valid {
			v := int(flagScore.Int64)
			rec.FlagScore = &v
		}
		rec.OccurredAt = time.UnixMilli(occurredMs).UTC()
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("RecentByStaffAndVenue rows: %w", err)
	}
	return out, nil
}
