package model

import (
	"context"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/settee/pkg/types"
)

// Validator gates saves. It returns one FieldError per failed rule; an empty
// result lets the write proceed.
type Validator interface {
	Validate(ctx context.Context, e *Entity) []FieldError
}

// ValidatorFunc adapts a function to the Validator interface.
type ValidatorFunc func(ctx context.Context, e *Entity) []FieldError

// Validate calls f.
func (f ValidatorFunc) Validate(ctx context.Context, e *Entity) []FieldError {
	return f(ctx, e)
}

// FieldError is a single validation failure. Property is empty for rules
// that span the whole entity.
type FieldError struct {
	Property string `json:"property,omitempty"`
	Message  string `json:"message"`
}

func (f FieldError) Error() string {
	if f.Property == "" {
		return f.Message
	}
	return f.Property + ": " + f.Message
}

// ValidationError aborts a save before the write. It matches
// types.ErrValidation with errors.Is.
type ValidationError struct {
	Type   string
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		msgs[i] = fe.Error()
	}
	return fmt.Sprintf("%s %s: %s", types.ErrValidation, e.Type, strings.Join(msgs, "; "))
}

func (e *ValidationError) Unwrap() error {
	return types.ErrValidation
}
