package query

import (
	"errors"
	"fmt"
)

// ErrContractViolation is wrapped by every ContractViolation so callers that
// recover from a builder panic can test for it with errors.Is.
var ErrContractViolation = errors.New("query contract violation")

// ContractViolation describes a query the caller should never have built:
// filtering a document query, conflicting inequality fields, or an ordering
// that disagrees with the inequality field. Builder methods panic with it;
// CheckFilter and CheckOrderBy return it instead.
type ContractViolation struct {
	Op  string
	Msg string
}

func (e *ContractViolation) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Msg)
}

func (e *ContractViolation) Unwrap() error {
	return ErrContractViolation
}

func violation(op, format string, args ...interface{}) *ContractViolation {
	return &ContractViolation{Op: op, Msg: fmt.Sprintf(format, args...)}
}

// hardAssert panics with a ContractViolation when cond is false
func hardAssert(cond bool, op, format string, args ...interface{}) {
	if !cond {
		panic(violation(op, format, args...))
	}
}

// Recover runs fn and converts a ContractViolation panic into an error.
// Other panics propagate.
func Recover(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			cv, ok := r.(*ContractViolation)
			if !ok {
				panic(r)
			}
			err = cv
		}
	}()
	fn()
	return nil
}
