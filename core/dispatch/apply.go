package dispatch

import (
	apperrors "github.com/kilianp07/trackdispatch/core/errors"
	"github.com/kilianp07/trackdispatch/core/model"
	"github.com/kilianp07/trackdispatch/core/topology"
)

// apply performs an authorized action. Occupancy changes come first so that
// a capacity failure leaves the state machines untouched.
func (c *Coordinator) apply(sec *Section, train *Train, a Action) error {
	now := c.clock.Now()
	switch a {
	case ActionManned:
		c.changeTrain(sec, train, a, nil)
	case ActionCancel:
		c.changeTrain(sec, train, a, nil)
		for _, id := range train.Sections {
			c.occ.ReleaseAll(id)
		}
	case ActionAbort:
		reacquire := sec.block(sec.BlockIndex)
		if sec.State != model.DispatchDeparted {
			reacquire = nil
		}
		c.changeTrain(sec, train, a, reacquire)
		c.occ.ReleaseAll(sec.ID)
	case ActionUndo:
		return c.undo(train)
	case ActionRequest:
		sec.State = model.DispatchRequested
	case ActionAccept:
		sec.State = model.DispatchAccepted
	case ActionReject:
		sec.State = model.DispatchRejected
	case ActionRevoke:
		sec.State = model.DispatchRevoked
	case ActionDepart:
		if _, err := c.occ.Acquire(sec.ID, sec.block(0)); err != nil {
			return err
		}
		sec.State = model.DispatchDeparted
		sec.BlockIndex = 0
		sec.TrackStretchIndex = 0
		c.calls[sec.DepartureCallID].ActualDeparture = now
		if sec.First() {
			train.State = model.TrainRunning
		}
	case ActionPass:
		i := sec.BlockIndex
		if err := c.occ.Move(sec.ID, sec.block(i), sec.block(i+1)); err != nil {
			return err
		}
		sec.Signals[i].State = model.PassagePassed
		sec.Signals[i].PassedAt = now
		sec.BlockIndex = i + 1
		sec.TrackStretchIndex = sec.route.BlockStart(i + 1)
	case ActionArrive:
		c.occ.ReleaseAll(sec.ID)
		sec.State = model.DispatchArrived
		c.calls[sec.ArrivalCallID].ActualArrival = now
		if sec.Last() {
			train.State = model.TrainCompleted
		}
	default:
		return apperrors.New(apperrors.KindInvalidTransition, "unknown action %d", int(a))
	}
	if a != ActionUndo && !a.TrainAction() {
		train.undo = nil
	}
	return nil
}

// changeTrain moves the train to the state reached by a and records the
// undo step, replacing any earlier one.
func (c *Coordinator) changeTrain(sec *Section, train *Train, a Action, reacquire []topology.Leg) {
	to, _ := nextTrainState(a, train.State)
	u := &undoRecord{
		action: a, section: sec.ID, role: roleOf[a], prev: train.State,
		signals: make(map[int64][]SignalPassage), reacquire: reacquire,
	}
	if to == model.TrainCanceled || to == model.TrainAborted {
		for _, id := range train.Sections {
			s := c.sections[id]
			if s.State == model.DispatchArrived {
				continue
			}
			u.signals[id] = s.copySignals()
			s.cancelExpected()
		}
	}
	train.State = to
	train.undo = u
}

// undo reverts the pending train-state change. An abort is only reverted if
// the block it released is still free.
func (c *Coordinator) undo(train *Train) error {
	u := train.undo
	if len(u.reacquire) > 0 {
		if _, err := c.occ.Acquire(u.section, u.reacquire); err != nil {
			return apperrors.New(apperrors.KindCapacityUnavailable,
				"cannot undo %s: block was taken meanwhile: %v", u.action, err)
		}
	}
	for id, sigs := range u.signals {
		c.sections[id].Signals = sigs
	}
	train.State = u.prev
	train.undo = nil
	return nil
}
