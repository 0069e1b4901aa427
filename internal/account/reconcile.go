package account

import (
	"encoding/json"
	"log/slog"
)

// reconcileState is the slice of manager state the reconciliation protocol
// operates on.
type reconcileState struct {
	users   []User
	current *User
}

type reconcileResult struct {
	state reconcileState
	// dropPointer is set when the local session was terminated because the
	// user disappeared from the set; the persisted pointer must be removed
	// so a later notification cannot resurrect the session.
	dropPointer bool
}

// reconcile computes the post-notification state from the previous state,
// the user set written by the other context, and the persisted session
// pointer (consulted only when no session is active). It is pure and
// idempotent: feeding its output back in with the same inputs yields the
// same result.
func reconcile(prev reconcileState, next []User, pointerEmail string, havePointer bool) reconcileResult {
	res := reconcileResult{state: reconcileState{users: next}}

	if prev.current != nil {
		refreshed := findByID(next, prev.current.ID)
		if refreshed == nil {
			// Deleted concurrently: terminate the local session.
			res.dropPointer = true
			return res
		}
		if refreshed.Status != prev.current.Status || refreshed.IsAdmin != prev.current.IsAdmin {
			u := *refreshed
			res.state.current = &u
		} else {
			res.state.current = prev.current
		}
		return res
	}

	// No active session: adopt one if a pointer set by another context now
	// matches an entry in the new set.
	if havePointer {
		if adopted := findByEmail(next, pointerEmail); adopted != nil {
			u := *adopted
			res.state.current = &u
		}
	}
	return res
}

// decodeUsers parses a raw notification payload, failing open to an empty
// set on absent or malformed data.
func decodeUsers(raw []byte, logger *slog.Logger) []User {
	if len(raw) == 0 {
		return nil
	}
	var users []User
	if err := json.Unmarshal(raw, &users); err != nil {
		logger.Warn("malformed user set payload, treating as empty", slog.Any("error", err))
		return nil
	}
	return users
}

func findByID(users []User, id string) *User {
	for i := range users {
		if users[i].ID == id {
			return &users[i]
		}
	}
	return nil
}
