package model

// State is a user's verification state for the current reference-timezone day.
type State int

const (
	// StateNone means the user has no live record for today; the next
	// activity signal in a gated channel issues a fresh challenge.
	StateNone State = iota
	// StatePending means a challenge was issued today and has not been
	// answered yet.
	StatePending
	// StateVerified means the user completed the check-in today.
	StateVerified
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateVerified:
		return "verified"
	default:
		return "none"
	}
}

// UserVerification is the per-user record backing the daily check-in.
// The record is global, not per guild: one check-in unlocks every gated
// channel the user can reach.
//
// Invariant: when PendingAffirmation is non-empty, VerifiedDate is the day
// the challenge was issued, not a day of completed verification.
type UserVerification struct {
	UserID             int64
	VerifiedDate       Date
	PendingAffirmation string // empty means no outstanding challenge
}

// Resolve derives the verification state from a stored record and "today"
// in the reference timezone. A nil record resolves to StateNone. A record
// dated any day other than today is stale and resolves to StateNone
// regardless of its pending text; physical cleanup is the reset scheduler's
// job, not the resolver's.
//
// Resolve is pure: same record and same today always yield the same result.
// The pending affirmation text is returned alongside StatePending.
func Resolve(v *UserVerification, today Date) (State, string) {
	if v == nil {
		return StateNone, ""
	}
	if v.VerifiedDate != today {
		return StateNone, ""
	}
	if v.PendingAffirmation != "" {
		return StatePending, v.PendingAffirmation
	}
	return StateVerified, ""
}
