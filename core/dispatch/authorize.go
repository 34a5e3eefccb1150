package dispatch

import (
	"fmt"
	"strconv"
	"strings"

	apperrors "github.com/kilianp07/trackdispatch/core/errors"
	"github.com/kilianp07/trackdispatch/core/model"
)

// AuthInput is everything authorization needs to know about one section.
// It is a value snapshot; Authorize and LegalActions never mutate it.
type AuthInput struct {
	Section  Section
	Train    Train
	Previous *Section // nil for the first section
	// InProgress is true for the first section of the train not yet arrived.
	InProgress bool

	DepartureActor int64
	ArrivalActor   int64
	// SignalControllers holds the controlling dispatcher of each signal of
	// the section, in travel order.
	SignalControllers []int64
	SignalNames       []string
}

// Authorize checks whether actor may perform a on the section described by
// in. The returned error is an *apperrors.Error.
//
//gocyclo:ignore
func Authorize(in AuthInput, actor int64, a Action) error {
	sec := in.Section
	deny := func(kind apperrors.Kind, format string, args ...any) error {
		return apperrors.New(kind, format, args...).
			With("section", strconv.FormatInt(sec.ID, 10)).
			With("action", a.String())
	}
	if in.Train.State.Terminal() && a != ActionUndo {
		return deny(apperrors.KindInvalidTransition, "train %s is %s", in.Train.Name(), in.Train.State)
	}
	if a != ActionUndo && a != ActionPass {
		if err := checkRole(in, actor, roleOf[a]); err != nil {
			return deny(apperrors.KindInvalidTransition, "%s: %v", a, err)
		}
	}

	switch a {
	case ActionManned, ActionCancel:
		if !sec.First() {
			return deny(apperrors.KindInvalidTransition, "train actions are only available on the first section")
		}
		if _, ok := nextTrainState(a, in.Train.State); !ok {
			return deny(apperrors.KindInvalidTransition, "cannot %s a %s train", a, in.Train.State)
		}
	case ActionAbort:
		if in.Train.State != model.TrainRunning {
			return deny(apperrors.KindInvalidTransition, "only running trains can be aborted (train is %s)", in.Train.State)
		}
		if !in.InProgress {
			return deny(apperrors.KindInvalidTransition, "section %d is not in progress", sec.ID)
		}
	case ActionUndo:
		u := in.Train.undo
		if u == nil {
			return deny(apperrors.KindInvalidTransition, "nothing to undo for train %s", in.Train.Name())
		}
		if u.section != sec.ID {
			return deny(apperrors.KindInvalidTransition, "%s was performed on section %d", u.action, u.section)
		}
		if err := checkRole(in, actor, u.role); err != nil {
			return deny(apperrors.KindInvalidTransition, "undo %s: %v", u.action, err)
		}
	case ActionRequest:
		switch sec.State {
		case model.DispatchNone, model.DispatchRejected, model.DispatchRevoked:
		default:
			return deny(apperrors.KindInvalidTransition, "cannot request a %s section", sec.State)
		}
		if sec.First() {
			if in.Train.State != model.TrainManned {
				return deny(apperrors.KindInvalidTransition, "train %s must be manned (is %s)", in.Train.Name(), in.Train.State)
			}
			break
		}
		if in.Previous == nil || (in.Previous.State != model.DispatchDeparted && in.Previous.State != model.DispatchArrived) {
			return deny(apperrors.KindSequencingViolation, "previous section has not departed yet")
		}
	case ActionAccept, ActionReject:
		if sec.State != model.DispatchRequested {
			return deny(apperrors.KindInvalidTransition, "cannot %s a %s section", a, sec.State)
		}
	case ActionRevoke:
		if sec.State != model.DispatchAccepted {
			return deny(apperrors.KindInvalidTransition, "cannot revoke a %s section", sec.State)
		}
	case ActionDepart:
		if sec.State != model.DispatchAccepted {
			return deny(apperrors.KindInvalidTransition, "cannot depart a %s section", sec.State)
		}
		if sec.First() {
			if in.Train.State != model.TrainManned {
				return deny(apperrors.KindInvalidTransition, "train %s must be manned (is %s)", in.Train.Name(), in.Train.State)
			}
			break
		}
		if in.Previous == nil || in.Previous.State != model.DispatchArrived {
			return deny(apperrors.KindSequencingViolation, "previous section has not arrived yet")
		}
	case ActionPass:
		if sec.State != model.DispatchDeparted {
			return deny(apperrors.KindInvalidTransition, "cannot pass a signal on a %s section", sec.State)
		}
		if _, ok := sec.NextSignal(); !ok {
			return deny(apperrors.KindInvalidTransition, "all signals of section %d are passed", sec.ID)
		}
		if controller(in, sec.BlockIndex) == actor {
			break
		}
		for i := sec.BlockIndex + 1; i < len(sec.Signals); i++ {
			if controller(in, i) == actor {
				return deny(apperrors.KindSequencingViolation, "signal %s must be passed first", signalName(in, sec.BlockIndex))
			}
		}
		return deny(apperrors.KindInvalidTransition, "actor %d does not control signal %s", actor, signalName(in, sec.BlockIndex))
	case ActionArrive:
		if sec.State != model.DispatchDeparted {
			return deny(apperrors.KindInvalidTransition, "cannot arrive a %s section", sec.State)
		}
		if sec.BlockIndex != len(sec.Signals) {
			return deny(apperrors.KindSequencingViolation, "%d of %d signals passed", sec.BlockIndex, len(sec.Signals))
		}
	default:
		return deny(apperrors.KindInvalidTransition, "unknown action %d", int(a))
	}
	return nil
}

// LegalActions lists the actions actor may currently perform on the
// section, in a stable order.
func LegalActions(in AuthInput, actor int64) []ActionOption {
	var out []ActionOption
	for _, a := range allActions {
		if Authorize(in, actor, a) != nil {
			continue
		}
		opt := ActionOption{Action: a, Role: roleOf[a], Label: label(in, a)}
		switch a {
		case ActionPass:
			sig, _ := in.Section.NextSignal()
			opt.SignalID = sig.PlaceID
		case ActionUndo:
			opt.Role = in.Train.undo.role
		}
		out = append(out, opt)
	}
	return out
}

func checkRole(in AuthInput, actor int64, r Role) error {
	switch r {
	case RoleDeparture:
		if actor == in.DepartureActor {
			return nil
		}
	case RoleArrival:
		if actor == in.ArrivalActor {
			return nil
		}
	case RoleEither:
		if actor == in.DepartureActor || actor == in.ArrivalActor {
			return nil
		}
	}
	return fmt.Errorf("actor %d is not the %s dispatcher", actor, r)
}

func controller(in AuthInput, i int) int64 {
	if i < 0 || i >= len(in.SignalControllers) {
		return 0
	}
	return in.SignalControllers[i]
}

func signalName(in AuthInput, i int) string {
	if i >= 0 && i < len(in.SignalNames) && in.SignalNames[i] != "" {
		return in.SignalNames[i]
	}
	if i >= 0 && i < len(in.Section.Signals) {
		return strconv.FormatInt(in.Section.Signals[i].PlaceID, 10)
	}
	return "?"
}

func label(in AuthInput, a Action) string {
	name := in.Train.Name()
	switch a {
	case ActionManned:
		return "Mark " + name + " manned"
	case ActionPass:
		return fmt.Sprintf("Pass %s at %s", name, signalName(in, in.Section.BlockIndex))
	case ActionUndo:
		undone, _ := in.Train.CanUndo()
		return fmt.Sprintf("Undo %s of %s", undone, name)
	default:
		s := a.String()
		return strings.ToUpper(s[:1]) + s[1:] + " " + name
	}
}
