// Package metrics defines the sinks that observe dispatch activity. A sink
// records every action; optional recorder interfaces cover occupancy samples
// and snapshot outcomes and are asserted at the call site. Several sinks
// configured together are wrapped in a MultiSink.
package metrics
