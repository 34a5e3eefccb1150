// Package occupancy tracks which section holds which track and enforces that
// a track is never booked twice.
//
// A claim on a stretch whose far end is an uncontrolled place (halt or
// unsignalled junction) cascades onto every other stretch touching that
// place, and on through chained uncontrolled places, until a station or a
// signal place bounds it. A cascaded claim books the track of the cascaded
// stretch matching the origin track by name, or by position when no name
// matches. A stretch without a matching track is blocked as a whole.
package occupancy

import (
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/kilianp07/trackdispatch/core/clock"
	apperrors "github.com/kilianp07/trackdispatch/core/errors"
	"github.com/kilianp07/trackdispatch/core/model"
	"github.com/kilianp07/trackdispatch/core/topology"
)

// Network is the read-only topology view the engine needs.
type Network interface {
	Place(id int64) (model.Place, bool)
	Stretch(id int64) (model.TrackStretch, bool)
	StretchesAt(place int64) []int64
}

// Claim is one recorded occupancy.
type Claim struct {
	Section  int64
	Stretch  int64
	Track    int64 // zero when a cascaded claim blocks the whole stretch
	Origin   int64 // stretch whose claim caused this one; equals Stretch when direct
	Cascaded bool
	Since    time.Time
}

// Engine records occupancies. It is safe for concurrent use.
type Engine struct {
	mu     sync.Mutex
	net    Network
	clock  clock.Clock
	claims map[int64][]Claim // by stretch
}

// New returns an engine over net. A nil clock falls back to the wall clock.
func New(net Network, c clock.Clock) *Engine {
	if c == nil {
		c = clock.System{}
	}
	return &Engine{net: net, clock: c, claims: make(map[int64][]Claim)}
}

// CanOccupy reports whether section could occupy some track of stretch when
// travelling in dir.
func (e *Engine) CanOccupy(section, stretch int64, dir model.Direction) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.net.Stretch(stretch)
	if !ok {
		return false
	}
	_, ok = e.freeTrack(section, s, dir)
	return ok
}

// Occupy claims track on stretch for section, travelling in dir, together
// with the cascade beyond the stretch's far end. Nothing is recorded when any
// part of the closure is held by another section.
func (e *Engine) Occupy(section, stretch, track int64, dir model.Direction) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.net.Stretch(stretch)
	if !ok {
		return apperrors.New(apperrors.KindUnknownReference, "unknown track stretch %d", stretch)
	}
	t, ok := s.Track(track)
	if !ok {
		return apperrors.New(apperrors.KindUnknownReference, "track %d is not on stretch %d", track, stretch)
	}
	if !t.Mode.Permits(dir) {
		return apperrors.New(apperrors.KindCapacityUnavailable,
			"track %s of stretch %d is %s", t.Name, stretch, t.Mode)
	}
	if !e.trackFree(section, s, t.ID) {
		return apperrors.New(apperrors.KindCapacityUnavailable,
			"track %s of stretch %d is occupied", t.Name, stretch).With("stretch", strconv.FormatInt(stretch, 10))
	}
	p := plannedClaim{stretch: stretch, track: track, dir: dir}
	if err := e.checkCascade(section, []plannedClaim{p}); err != nil {
		return err
	}
	e.commit(section, []plannedClaim{p})
	return nil
}

// Acquire claims one free permitted track on every leg, all or none.
func (e *Engine) Acquire(section int64, legs []topology.Leg) ([]Claim, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	plan, err := e.plan(section, legs)
	if err != nil {
		return nil, err
	}
	e.commit(section, plan)
	return e.held(section), nil
}

// Move claims the to legs and then releases the from legs. The section's own
// claims on from never count against to, and no other section can observe
// the stretch in between.
func (e *Engine) Move(section int64, from, to []topology.Leg) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	plan, err := e.plan(section, to)
	if err != nil {
		return err
	}
	e.commit(section, plan)
	keep := make(map[int64]bool, len(to))
	for _, l := range to {
		keep[l.StretchID] = true
	}
	for _, l := range from {
		if !keep[l.StretchID] {
			e.dropDirect(section, l.StretchID)
		}
	}
	e.recascade(section)
	return nil
}

// Release removes section's claim on stretch and the cascade it caused.
func (e *Engine) Release(section, stretch int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.dropDirect(section, stretch) {
		return
	}
	e.recascade(section)
}

// ReleaseAll removes every claim held by section.
func (e *Engine) ReleaseAll(section int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for id := range e.claims {
		e.filter(id, func(c Claim) bool { return c.Section != section })
	}
}

// Occupancies lists the claims on stretch.
func (e *Engine) Occupancies(stretch int64) []Claim {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Claim(nil), e.claims[stretch]...)
}

// Held lists the claims of section ordered by stretch.
func (e *Engine) Held(section int64) []Claim {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.held(section)
}

// OccupiedTracks counts directly claimed tracks.
func (e *Engine) OccupiedTracks() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, list := range e.claims {
		for _, c := range list {
			if !c.Cascaded {
				n++
			}
		}
	}
	return n
}

type plannedClaim struct {
	stretch int64
	track   int64
	dir     model.Direction
}

func (e *Engine) plan(section int64, legs []topology.Leg) ([]plannedClaim, error) {
	out := make([]plannedClaim, 0, len(legs))
	for _, l := range legs {
		s, ok := e.net.Stretch(l.StretchID)
		if !ok {
			return nil, apperrors.New(apperrors.KindUnknownReference, "unknown track stretch %d", l.StretchID)
		}
		track, ok := e.freeTrack(section, s, l.Direction)
		if !ok {
			return nil, apperrors.New(apperrors.KindCapacityUnavailable,
				"no free track on stretch %d towards place %d", s.ID, s.FarEnd(l.Direction)).
				With("stretch", strconv.FormatInt(s.ID, 10))
		}
		out = append(out, plannedClaim{stretch: s.ID, track: track, dir: l.Direction})
	}
	if err := e.checkCascade(section, out); err != nil {
		return nil, err
	}
	return out, nil
}

// freeTrack picks the first track of s usable by section in dir. A track the
// section already holds is reused.
func (e *Engine) freeTrack(section int64, s model.TrackStretch, dir model.Direction) (int64, bool) {
	for _, c := range e.claims[s.ID] {
		if c.Section == section && !c.Cascaded {
			return c.Track, true
		}
	}
	for _, t := range s.Tracks {
		if t.Mode.Permits(dir) && e.trackFree(section, s, t.ID) {
			return t.ID, true
		}
	}
	return 0, false
}

func (e *Engine) trackFree(section int64, s model.TrackStretch, track int64) bool {
	for _, c := range e.claims[s.ID] {
		if c.Section != section && blocks(c, track) {
			return false
		}
	}
	return true
}

// blocks reports whether c makes track unavailable. Track zero stands for
// the whole stretch on either side.
func blocks(c Claim, track int64) bool {
	return c.Track == 0 || track == 0 || c.Track == track
}

func (e *Engine) checkCascade(section int64, plan []plannedClaim) error {
	for _, p := range plan {
		for _, id := range e.closure(p.stretch, p.dir) {
			track := e.cascadeTrack(p.stretch, p.track, id)
			for _, c := range e.claims[id] {
				if c.Section != section && blocks(c, track) {
					return apperrors.New(apperrors.KindCapacityUnavailable,
						"stretch %d beyond stretch %d is held by section %d", id, p.stretch, c.Section).
						With("stretch", strconv.FormatInt(id, 10))
				}
			}
		}
	}
	return nil
}

// cascadeTrack returns the track of stretch to continuing track of stretch
// from: same name first, then same position. Zero means no track matches.
func (e *Engine) cascadeTrack(from, track, to int64) int64 {
	src, ok := e.net.Stretch(from)
	if !ok {
		return 0
	}
	dst, ok := e.net.Stretch(to)
	if !ok {
		return 0
	}
	pos := -1
	var name string
	for i, t := range src.Tracks {
		if t.ID == track {
			pos, name = i, t.Name
			break
		}
	}
	if pos < 0 {
		return 0
	}
	if name != "" {
		for _, t := range dst.Tracks {
			if t.Name == name {
				return t.ID
			}
		}
	}
	if pos < len(dst.Tracks) {
		return dst.Tracks[pos].ID
	}
	return 0
}

// closure returns the stretches reached by cascading from the far end of
// origin travelled in dir. Visited places and stretches are tracked across
// the whole walk so cycles of uncontrolled places terminate.
func (e *Engine) closure(origin int64, dir model.Direction) []int64 {
	s, ok := e.net.Stretch(origin)
	if !ok {
		return nil
	}
	seenStretch := map[int64]bool{origin: true}
	seenPlace := map[int64]bool{}
	var out []int64
	queue := []int64{s.FarEnd(dir)}
	for len(queue) > 0 {
		place := queue[0]
		queue = queue[1:]
		if seenPlace[place] {
			continue
		}
		seenPlace[place] = true
		p, ok := e.net.Place(place)
		if !ok || !p.CascadesOccupancy() {
			continue
		}
		for _, id := range e.net.StretchesAt(place) {
			if seenStretch[id] {
				continue
			}
			seenStretch[id] = true
			out = append(out, id)
			if next, ok := e.net.Stretch(id); ok {
				other := next.FromID
				if other == place {
					other = next.ToID
				}
				queue = append(queue, other)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (e *Engine) commit(section int64, plan []plannedClaim) {
	now := e.clock.Now()
	direct := make(map[int64]bool, len(plan))
	for _, p := range plan {
		direct[p.stretch] = true
	}
	for _, p := range plan {
		if !e.holdsDirect(section, p.stretch) {
			e.claims[p.stretch] = append(e.claims[p.stretch], Claim{
				Section: section, Stretch: p.stretch, Track: p.track, Origin: p.stretch, Since: now,
			})
		}
		for _, id := range e.closure(p.stretch, p.dir) {
			if direct[id] || e.holdsDirect(section, id) || e.holdsCascade(section, id) {
				continue
			}
			e.claims[id] = append(e.claims[id], Claim{
				Section: section, Stretch: id, Track: e.cascadeTrack(p.stretch, p.track, id),
				Origin: p.stretch, Cascaded: true, Since: now,
			})
		}
	}
}

// recascade drops the section's cascaded claims and rebuilds them from its
// remaining direct claims, keeping the original timestamps.
func (e *Engine) recascade(section int64) {
	since := make(map[int64]time.Time)
	var directs []Claim
	for id, list := range e.claims {
		for _, c := range list {
			if c.Section != section {
				continue
			}
			if c.Cascaded {
				since[id] = c.Since
			} else {
				directs = append(directs, c)
			}
		}
		e.filter(id, func(c Claim) bool { return c.Section != section || !c.Cascaded })
	}
	sort.Slice(directs, func(i, j int) bool { return directs[i].Stretch < directs[j].Stretch })
	for _, d := range directs {
		s, ok := e.net.Stretch(d.Stretch)
		if !ok {
			continue
		}
		// Either end may lead into uncontrolled places; the original travel
		// direction is not retained, so both are walked.
		for _, dir := range []model.Direction{model.Forward, model.Backward} {
			if p, ok := e.net.Place(s.FarEnd(dir)); !ok || !p.CascadesOccupancy() {
				continue
			}
			for _, id := range e.closure(d.Stretch, dir) {
				if !e.hadCascade(since, id) || e.holdsDirect(section, id) || e.holdsCascade(section, id) {
					continue
				}
				e.claims[id] = append(e.claims[id], Claim{
					Section: section, Stretch: id, Track: e.cascadeTrack(d.Stretch, d.Track, id),
					Origin: d.Stretch, Cascaded: true, Since: since[id],
				})
			}
		}
	}
}

func (e *Engine) hadCascade(since map[int64]time.Time, stretch int64) bool {
	_, ok := since[stretch]
	return ok
}

func (e *Engine) dropDirect(section, stretch int64) bool {
	before := len(e.claims[stretch])
	e.filter(stretch, func(c Claim) bool { return c.Section != section || c.Cascaded })
	return len(e.claims[stretch]) != before
}

func (e *Engine) filter(stretch int64, keep func(Claim) bool) {
	list := e.claims[stretch]
	out := list[:0]
	for _, c := range list {
		if keep(c) {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		delete(e.claims, stretch)
		return
	}
	e.claims[stretch] = out
}

func (e *Engine) holdsDirect(section, stretch int64) bool {
	for _, c := range e.claims[stretch] {
		if c.Section == section && !c.Cascaded {
			return true
		}
	}
	return false
}

func (e *Engine) holdsCascade(section, stretch int64) bool {
	for _, c := range e.claims[stretch] {
		if c.Section == section && c.Cascaded {
			return true
		}
	}
	return false
}

func (e *Engine) held(section int64) []Claim {
	var out []Claim
	for _, list := range e.claims {
		for _, c := range list {
			if c.Section == section {
				out = append(out, c)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Stretch != out[j].Stretch {
			return out[i].Stretch < out[j].Stretch
		}
		return !out[i].Cascaded && out[j].Cascaded
	})
	return out
}
