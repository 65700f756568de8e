package correction

import (
	"errors"
	"strings"
)

// ErrUnknownKey is returned by HandleKey for keys without a binding.
var ErrUnknownKey = errors.New("correction: unknown key")

// Action is a session transition bound to a key.
type Action int

const (
	ActionNone Action = iota
	ActionAdvance
	ActionRetreat
	ActionCycle
	ActionCommit
)

// String returns the name of the action.
func (a Action) String() string {
	switch a {
	case ActionAdvance:
		return "advance"
	case ActionRetreat:
		return "retreat"
	case ActionCycle:
		return "cycle"
	case ActionCommit:
		return "commit"
	default:
		return "none"
	}
}

// KeyAction maps a key name to its action.
func KeyAction(key string) Action {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "right", "n":
		return ActionAdvance
	case "left", "p":
		return ActionRetreat
	case "t":
		return ActionCycle
	case "s":
		return ActionCommit
	default:
		return ActionNone
	}
}

// HandleKey performs the transition bound to key.
func (s *Session) HandleKey(key string) (Action, error) {
	action := KeyAction(key)
	switch action {
	case ActionAdvance:
		s.Advance()
	case ActionRetreat:
		s.Retreat()
	case ActionCycle:
		s.CycleLabel()
	case ActionCommit:
		return action, s.Commit()
	default:
		return action, ErrUnknownKey
	}
	return action, nil
}
