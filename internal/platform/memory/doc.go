// Package memory provides in-memory implementations of the store
// interfaces. They back the unit tests and local development without a
// live database; the scheduler itself only ever sees the injected
// interfaces, never these concrete types.
package memory
