package topology

import (
	"sort"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/kilianp07/trackdispatch/core/model"
)

// CascadeCycle is a group of uncontrolled places whose connecting stretches
// form at least one cycle. Cascading occupancy inside such a group has to
// track visited stretches to terminate.
type CascadeCycle struct {
	Places    []int64
	Stretches []int64
}

// CascadeCycles reports every connected group of OtherPlaces that contains a
// cycle, including parallel stretches and loops back onto the same place.
func (t *Topology) CascadeCycles() []CascadeCycle {
	g := simple.NewUndirectedGraph()
	for _, p := range t.Places() {
		if p.Kind == model.PlaceOther {
			g.AddNode(simple.Node(p.ID))
		}
	}
	var inner []model.TrackStretch
	for _, s := range t.Stretches() {
		if !t.isOther(s.FromID) || !t.isOther(s.ToID) {
			continue
		}
		inner = append(inner, s)
		if s.FromID == s.ToID {
			continue
		}
		if !g.HasEdgeBetween(s.FromID, s.ToID) {
			g.SetEdge(g.NewEdge(simple.Node(s.FromID), simple.Node(s.ToID)))
		}
	}

	component := make(map[int64]int)
	comps := topo.ConnectedComponents(g)
	for i, nodes := range comps {
		for _, n := range nodes {
			component[n.ID()] = i
		}
	}
	edges := make([][]int64, len(comps))
	for _, s := range inner {
		c := component[s.FromID]
		edges[c] = append(edges[c], s.ID)
	}

	var out []CascadeCycle
	for i, nodes := range comps {
		if len(edges[i]) < len(nodes) {
			continue
		}
		cyc := CascadeCycle{Stretches: edges[i]}
		for _, n := range nodes {
			cyc.Places = append(cyc.Places, n.ID())
		}
		sortIDs(cyc.Places)
		sortIDs(cyc.Stretches)
		out = append(out, cyc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Places[0] < out[j].Places[0] })
	return out
}

func (t *Topology) isOther(place int64) bool {
	p, ok := t.places[place]
	return ok && p.Kind == model.PlaceOther
}
