package topology

import (
	"context"

	"github.com/kilianp07/trackdispatch/core/model"
)

// Provider supplies topology and timetable data. Callers read the
// collections in declaration order; the data is assumed internally
// consistent and is only checked as far as lookups require.
type Provider interface {
	Places(ctx context.Context) ([]model.Place, error)
	TrackStretches(ctx context.Context) ([]model.TrackStretch, error)
	DispatchStretches(ctx context.Context) ([]model.DispatchStretch, error)
	Trains(ctx context.Context) ([]model.Train, error)
	Calls(ctx context.Context) ([]model.TrainStationCall, error)
}

// StaticProvider serves in-memory collections. Useful for tests and for
// embedding a fixed network.
type StaticProvider struct {
	PlaceList    []model.Place
	StretchList  []model.TrackStretch
	DispatchList []model.DispatchStretch
	TrainList    []model.Train
	CallList     []model.TrainStationCall
}

func (p *StaticProvider) Places(context.Context) ([]model.Place, error) { return p.PlaceList, nil }
func (p *StaticProvider) TrackStretches(context.Context) ([]model.TrackStretch, error) {
	return p.StretchList, nil
}
func (p *StaticProvider) DispatchStretches(context.Context) ([]model.DispatchStretch, error) {
	return p.DispatchList, nil
}
func (p *StaticProvider) Trains(context.Context) ([]model.Train, error) { return p.TrainList, nil }
func (p *StaticProvider) Calls(context.Context) ([]model.TrainStationCall, error) {
	return p.CallList, nil
}
