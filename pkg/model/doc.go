// Package model is the change-tracking and association layer of the settee
// document mapper.
//
// An Entity carries a fixed, ordered set of declared properties. Every
// entity owns a Tracker that compares live property values with a deep-copied
// Snapshot taken at the last load or save, so in-place mutation of nested
// sequences and mappings is detected. A Database orchestrates saves and loads
// against a types.Store: persisted entities with no changes never reach the
// store, conflicting writes surface types.ErrConflict with dirty state
// intact, and successful writes re-snapshot the entity.
//
// Associations declared with Schema.HasMany are exposed as
// ForeignKeyCollection values: lazily materialized through a Finder on first
// read, and stamping the owner's identity into every item they build, create
// or save.
//
// Entities and their collections are not safe for concurrent mutation.
package model
