// Package plugins links the built-in backends into the binary and lists the
// names they register under.
package plugins

import (
	coremetrics "github.com/kilianp07/trackdispatch/core/metrics"
	"github.com/kilianp07/trackdispatch/core/snapshot"
	"github.com/kilianp07/trackdispatch/core/topology"

	// Backends register themselves in their init functions.
	_ "github.com/kilianp07/trackdispatch/infra/metrics"
	_ "github.com/kilianp07/trackdispatch/infra/snapshot"
	_ "github.com/kilianp07/trackdispatch/infra/topology"
)

// Available maps each pluggable component to its registered backend names.
func Available() map[string][]string {
	return map[string][]string{
		"topology": topology.ProviderTypes(),
		"snapshot": snapshot.StoreTypes(),
		"metrics":  coremetrics.SinkTypes(),
		"journal":  {"memory", "jsonl", "sqlite"},
	}
}
