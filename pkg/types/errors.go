package types

import "errors"

// Store operation errors.
var (
	ErrNotFound         = errors.New("document not found")
	ErrConflict         = errors.New("document update conflict")
	ErrInvalidID        = errors.New("invalid document ID")
	ErrInvalidData      = errors.New("invalid document data")
	ErrInvalidFilter    = errors.New("invalid filter")
	ErrStoreUnavailable = errors.New("store unavailable")
)

// Backend lifecycle errors.
var (
	ErrStoreDetached   = errors.New("store is detached")
	ErrAlreadyAttached = errors.New("store is already attached")
)

// Mapper errors.
var (
	ErrValidation      = errors.New("validation failed")
	ErrUnknownType     = errors.New("unknown document type")
	ErrUnknownProperty = errors.New("unknown property")
	ErrDestroyed       = errors.New("entity was destroyed")
	ErrNotBound        = errors.New("entity is not bound to a database")
	ErrNotNew          = errors.New("entity is already persisted")

	ErrUnknownAssociation = errors.New("unknown association")
	ErrOwnerNotPersisted  = errors.New("association owner is not persisted")
)
