package infer

import (
	"errors"
	"fmt"

	"github.com/vitalvas/typedoc/types"
)

// ErrShapeContract is wrapped by every ContractError.
var ErrShapeContract = errors.New("shape contract violation")

// ContractError reports a type that does not have the structure an
// extension requires. It signals a bug in the extension, not bad input.
type ContractError struct {
	Expected string
	Got      types.Type
}

func (e *ContractError) Error() string {
	got := "nil"
	if e.Got != nil {
		got = e.Got.String()
	}
	return fmt.Sprintf("%s: expected %s, got %s", ErrShapeContract, e.Expected, got)
}

func (e *ContractError) Unwrap() error {
	return ErrShapeContract
}

// Violation panics with a ContractError. Hooks call it on precondition
// failures; the broker recovers the panic.
func Violation(expected string, got types.Type) {
	panic(&ContractError{Expected: expected, Got: got})
}
