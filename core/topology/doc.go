// Package topology holds the static network: places, track stretches and the
// dispatch stretches built from them. A Topology is built in two phases.
// First every entity is indexed by its raw id, then a single resolution pass
// creates one dispatcher per station and links signal places to their
// controlling dispatcher. Relations are stored as id-keyed lookups.
//
// Routes split a dispatch stretch into blocks in travel order; the occupancy
// engine walks the Network view to cascade claims through uncontrolled places.
package topology
