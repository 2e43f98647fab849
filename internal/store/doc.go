// Package store provides the persistence abstractions for the review
// scheduler: interfaces for the review item and review session stores,
// shared store errors, and a transaction helper. Concrete adapters live in
// internal/platform/postgres and internal/platform/memory.
package store
