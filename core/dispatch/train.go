package dispatch

import (
	"github.com/kilianp07/trackdispatch/core/model"
	"github.com/kilianp07/trackdispatch/core/topology"
)

// Train is the runtime state of a scheduled train.
type Train struct {
	model.Train
	State    model.TrainState
	Sections []int64 // journey order

	undo *undoRecord
}

// undoRecord holds what is needed to revert the latest train-state change.
type undoRecord struct {
	action  Action
	section int64
	role    Role
	prev    model.TrainState
	signals map[int64][]SignalPassage // section -> signal states before
	// reacquire is the block given up by an abort.
	reacquire []topology.Leg
}

// CanUndo reports whether an undo step is pending and which action it
// reverts.
func (t *Train) CanUndo() (Action, bool) {
	if t.undo == nil {
		return 0, false
	}
	return t.undo.action, true
}

// trainTransitions lists the legal train-state changes per action.
var trainTransitions = map[Action]map[model.TrainState]model.TrainState{
	ActionManned: {model.TrainPlanned: model.TrainManned},
	ActionCancel: {model.TrainPlanned: model.TrainCanceled, model.TrainManned: model.TrainCanceled},
	ActionAbort:  {model.TrainRunning: model.TrainAborted},
}

// nextTrainState returns the state reached by applying a train action.
func nextTrainState(a Action, from model.TrainState) (model.TrainState, bool) {
	to, ok := trainTransitions[a][from]
	return to, ok
}
