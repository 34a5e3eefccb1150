package dispatch

import "fmt"

// Action is an operation an actor can perform on a section or its train.
type Action int

const (
	ActionManned Action = iota + 1
	ActionCancel
	ActionAbort
	ActionUndo
	ActionRequest
	ActionAccept
	ActionReject
	ActionRevoke
	ActionDepart
	ActionPass
	ActionArrive
)

// allActions is the order in which legal actions are listed.
var allActions = []Action{
	ActionManned, ActionCancel, ActionRequest, ActionAccept, ActionReject,
	ActionRevoke, ActionDepart, ActionPass, ActionArrive, ActionAbort, ActionUndo,
}

var actionNames = map[Action]string{
	ActionManned:  "manned",
	ActionCancel:  "cancel",
	ActionAbort:   "abort",
	ActionUndo:    "undo",
	ActionRequest: "request",
	ActionAccept:  "accept",
	ActionReject:  "reject",
	ActionRevoke:  "revoke",
	ActionDepart:  "depart",
	ActionPass:    "pass",
	ActionArrive:  "arrive",
}

func (a Action) String() string {
	if n, ok := actionNames[a]; ok {
		return n
	}
	return "unknown"
}

// ParseAction is the inverse of String.
func ParseAction(s string) (Action, error) {
	for a, n := range actionNames {
		if n == s {
			return a, nil
		}
	}
	return 0, fmt.Errorf("unknown action %q", s)
}

// MarshalText encodes the action by name.
func (a Action) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

// UnmarshalText decodes an action name.
func (a *Action) UnmarshalText(b []byte) error {
	v, err := ParseAction(string(b))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// TrainAction reports whether the action changes the train state and can
// therefore be undone.
func (a Action) TrainAction() bool {
	return a == ActionManned || a == ActionCancel || a == ActionAbort
}

// Role is the relationship an actor must have with a section to perform an
// action.
type Role int

const (
	RoleDeparture Role = iota + 1
	RoleArrival
	RoleEither
	RoleSignal
)

func (r Role) String() string {
	switch r {
	case RoleDeparture:
		return "departure"
	case RoleArrival:
		return "arrival"
	case RoleEither:
		return "either"
	case RoleSignal:
		return "signal"
	default:
		return "unknown"
	}
}

// MarshalText encodes the role by name.
func (r Role) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// roleOf is the role each action requires. Undo inherits the role of the
// action it reverts.
var roleOf = map[Action]Role{
	ActionManned:  RoleDeparture,
	ActionCancel:  RoleDeparture,
	ActionAbort:   RoleEither,
	ActionRequest: RoleDeparture,
	ActionAccept:  RoleArrival,
	ActionReject:  RoleArrival,
	ActionRevoke:  RoleEither,
	ActionDepart:  RoleDeparture,
	ActionPass:    RoleSignal,
	ActionArrive:  RoleArrival,
}

// ActionOption is one currently legal action together with what is needed to
// invoke it.
type ActionOption struct {
	Action   Action `json:"action"`
	Role     Role   `json:"role"`
	SignalID int64  `json:"signal_id,omitempty"`
	Label    string `json:"label"`
}
