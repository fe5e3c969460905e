package embedded

import (
	"fmt"
)

// ContractError is a failed precondition of an action.
type ContractError struct {
	msg      string
	tryLater bool
}

func NewContractError(msg string, tryLater bool) *ContractError {
	return &ContractError{msg: msg, tryLater: tryLater}
}

func (e *ContractError) Error() string {
	return e.msg
}

// TryLater reports whether a deferred action failing with this error may succeed later.
func (e *ContractError) TryLater() bool {
	return e.tryLater
}

// InvariantError is the panic value of a broken internal invariant.
type InvariantError struct {
	msg string
}

func (e *InvariantError) Error() string {
	return "invariant violated: " + e.msg
}

func assert(cond bool, format string, args ...interface{}) {
	if !cond {
		panic(&InvariantError{msg: fmt.Sprintf(format, args...)})
	}
}
