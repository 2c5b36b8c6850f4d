package transform

import (
	"fmt"

	"github.com/rgehrsitz/savingsim/internal/domain"
)

// ContractTransform defines the interface for all what-if transformations.
// Transforms are composable operations that modify contract inputs in
// predictable ways, enabling variant comparison and the break-even solver.
type ContractTransform interface {
	// Apply returns modified inputs. The base is never mutated.
	Apply(base domain.ContractInputs) (domain.ContractInputs, error)

	// Name returns a short identifier for this transform (e.g., "adjust_yield").
	Name() string

	// Description returns a human-readable description of what this transform does.
	Description() string

	// Validate checks if the transform parameters are valid without applying it.
	Validate(base domain.ContractInputs) error
}

// ApplyTransforms applies a sequence of transforms to base inputs.
// Transforms are applied in order, with each transform receiving the output of the previous one.
// Returns an error if any transform fails to apply.
func ApplyTransforms(base domain.ContractInputs, transforms []ContractTransform) (domain.ContractInputs, error) {
	current := base.DeepCopy()

	for i, transform := range transforms {
		if transform == nil {
			return domain.ContractInputs{}, fmt.Errorf("transform at index %d is nil", i)
		}

		if err := transform.Validate(current); err != nil {
			return domain.ContractInputs{}, fmt.Errorf("transform %s validation failed: %w", transform.Name(), err)
		}

		next, err := transform.Apply(current)
		if err != nil {
			return domain.ContractInputs{}, fmt.Errorf("transform %s failed: %w", transform.Name(), err)
		}

		current = next
	}

	return current, nil
}

// Describe joins the descriptions of a transform chain
func Describe(transforms []ContractTransform) string {
	out := ""
	for i, t := range transforms {
		if t == nil {
			continue
		}
		if i > 0 {
			out += "; "
		}
		out += t.Description()
	}
	return out
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
