package transform

import (
	"fmt"

	"github.com/rgehrsitz/taxgo/internal/domain"
)

// ReturnTransform defines the interface for all what-if changes to a return.
// Transforms are composable operations that modify a return file in
// predictable ways, enabling what-if comparison and break-even analysis.
type ReturnTransform interface {
	// Apply transforms a base return and returns a new modified return.
	// The base is never modified.
	Apply(base *domain.ReturnFile) (*domain.ReturnFile, error)

	// Name returns a short identifier for this transform (e.g., "max_section").
	Name() string

	// Description returns a human-readable description of what this transform does.
	Description() string

	// Validate checks if the transform can be applied to base without applying it.
	Validate(base *domain.ReturnFile) error
}

// ApplyTransforms applies a sequence of transforms to a base return.
// Transforms are applied in order, with each transform receiving the output of the previous one.
func ApplyTransforms(base *domain.ReturnFile, transforms []ReturnTransform) (*domain.ReturnFile, error) {
	if base == nil {
		return nil, fmt.Errorf("base return cannot be nil")
	}

	if len(transforms) == 0 {
		return base.DeepCopy(), nil
	}

	current := base
	for i, transform := range transforms {
		if transform == nil {
			return nil, fmt.Errorf("transform at index %d is nil", i)
		}

		if err := transform.Validate(current); err != nil {
			return nil, fmt.Errorf("transform %s validation failed: %w", transform.Name(), err)
		}

		next, err := transform.Apply(current)
		if err != nil {
			return nil, fmt.Errorf("transform %s failed: %w", transform.Name(), err)
		}

		current = next
	}

	return current, nil
}

// TransformError represents an error that occurred during transformation.
type TransformError struct {
	TransformName string
	Operation     string
	Reason        string
	Err           error
}

func (e *TransformError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transform %s (%s): %s: %v", e.TransformName, e.Operation, e.Reason, e.Err)
	}
	return fmt.Sprintf("transform %s (%s): %s", e.TransformName, e.Operation, e.Reason)
}

func (e *TransformError) Unwrap() error {
	return e.Err
}

// NewTransformError creates a new TransformError.
func NewTransformError(transformName, operation, reason string, err error) error {
	return &TransformError{
		TransformName: transformName,
		Operation:     operation,
		Reason:        reason,
		Err:           err,
	}
}
