package model

import "fmt"

// TrainState is the lifecycle of a train over its whole journey.
type TrainState int

const (
	TrainPlanned TrainState = iota
	TrainManned
	TrainRunning
	TrainCompleted
	TrainCanceled
	TrainAborted
)

func (s TrainState) String() string {
	switch s {
	case TrainPlanned:
		return "planned"
	case TrainManned:
		return "manned"
	case TrainRunning:
		return "running"
	case TrainCompleted:
		return "completed"
	case TrainCanceled:
		return "canceled"
	case TrainAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Terminal reports whether the journey is over.
func (s TrainState) Terminal() bool {
	return s == TrainCompleted || s == TrainCanceled || s == TrainAborted
}

// DispatchState is the state of one train section.
type DispatchState int

const (
	DispatchNone DispatchState = iota
	DispatchRequested
	DispatchAccepted
	DispatchRejected
	DispatchRevoked
	DispatchDeparted
	DispatchArrived
)

func (s DispatchState) String() string {
	switch s {
	case DispatchNone:
		return "none"
	case DispatchRequested:
		return "requested"
	case DispatchAccepted:
		return "accepted"
	case DispatchRejected:
		return "rejected"
	case DispatchRevoked:
		return "revoked"
	case DispatchDeparted:
		return "departed"
	case DispatchArrived:
		return "arrived"
	default:
		return "unknown"
	}
}

// BlockPassageState is the state of a train at one intermediate signal.
type BlockPassageState int

const (
	PassageExpected BlockPassageState = iota
	PassagePassed
	PassageCanceled
)

func (s BlockPassageState) String() string {
	switch s {
	case PassageExpected:
		return "expected"
	case PassagePassed:
		return "passed"
	case PassageCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

var trainStates = []TrainState{TrainPlanned, TrainManned, TrainRunning, TrainCompleted, TrainCanceled, TrainAborted}

var dispatchStates = []DispatchState{
	DispatchNone, DispatchRequested, DispatchAccepted, DispatchRejected,
	DispatchRevoked, DispatchDeparted, DispatchArrived,
}

var passageStates = []BlockPassageState{PassageExpected, PassagePassed, PassageCanceled}

func parseState[S fmt.Stringer](kind, name string, all []S) (S, error) {
	for _, v := range all {
		if v.String() == name {
			return v, nil
		}
	}
	var zero S
	return zero, fmt.Errorf("unknown %s state %q", kind, name)
}

// ParseTrainState is the inverse of String.
func ParseTrainState(s string) (TrainState, error) { return parseState("train", s, trainStates) }

// ParseDispatchState is the inverse of String.
func ParseDispatchState(s string) (DispatchState, error) {
	return parseState("dispatch", s, dispatchStates)
}

// ParseBlockPassageState is the inverse of String.
func ParseBlockPassageState(s string) (BlockPassageState, error) {
	return parseState("passage", s, passageStates)
}

func (s TrainState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *TrainState) UnmarshalText(b []byte) error {
	v, err := ParseTrainState(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

func (s DispatchState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *DispatchState) UnmarshalText(b []byte) error {
	v, err := ParseDispatchState(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

func (s BlockPassageState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *BlockPassageState) UnmarshalText(b []byte) error {
	v, err := ParseBlockPassageState(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
