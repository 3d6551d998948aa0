// Package state derives the single admission/display state for a
// membership snapshot. All gating, labels, and badges come from Evaluate;
// nothing should branch on raw status strings elsewhere.
package state

import (
	"strings"
	"time"
)

// State is the derived membership state.
type State string

const (
	Active  State = "ACTIVE"
	Grace   State = "GRACE"
	Expired State = "EXPIRED"
	Revoked State = "REVOKED"
	Pending State = "PENDING"
)

// GraceDays is how long after expiry a lapsed membership still admits.
// Fixed additive duration, not a calendar boundary.
const GraceDays = 7

// Display carries everything the door and the UI need for one state.
type Display struct {
	State       State
	Label       string
	BadgeColor  string // green | orange | red | gray | yellow
	CanVerify   bool
	ShowRenewal bool
}

// Evaluate maps a stored membership snapshot to its state at the given
// instant. Deterministic: same inputs, same output, first rule wins.
// Unrecognized statuses fail closed as PENDING/"Unknown".
func Evaluate(status string, expiresAt *time.Time, now time.Time) Display {
	status = strings.ToLower(strings.TrimSpace(status))

	if status == "revoked" {
		return Display{State: Revoked, Label: "Revoked", BadgeColor: "red"}
	}

	if status == "expired" {
		return Display{State: Expired, Label: "Expired", BadgeColor: "red", ShowRenewal: true}
	}

	if expiresAt != nil && !expiresAt.After(now) {
		graceEnd := expiresAt.Add(GraceDays * 24 * time.Hour)
		if !now.After(graceEnd) {
			// Lapsed but recent: admit anyway rather than reject at the door.
			return Display{State: Grace, Label: "Grace period", BadgeColor: "orange", CanVerify: true, ShowRenewal: true}
		}
		return Display{State: Expired, Label: "Expired", BadgeColor: "red", ShowRenewal: true}
	}

	if status == "pending" || status == "provisioning" {
		return Display{State: Pending, Label: "Pending", BadgeColor: "yellow"}
	}

	if status == "active" {
		return Display{
			State:       Active,
			Label:       "Active",
			BadgeColor:  "green",
			CanVerify:   true,
			ShowRenewal: expiresAt != nil, // open-ended memberships need no nudge
		}
	}

	return Display{State: Pending, Label: "Unknown", BadgeColor: "gray"}
}
