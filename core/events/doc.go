// Package events defines the dispatch events emitted on the event bus.
//
// Available event types:
//   - SectionEvent: an action changed a section or its train
//   - ActionFailedEvent: an action was refused
//   - PersistEvent: outcome of a background snapshot save
package events
