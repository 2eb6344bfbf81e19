package models

import (
	"fmt"
	"strings"
)

// ContractError reports required input fields missing from a table handed
// to a core operation. It is fatal: the operation refuses to start rather
// than default silently.
type ContractError struct {
	Op      string
	Missing []string
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("%s: missing required columns: %s", e.Op, strings.Join(e.Missing, ", "))
}

// NewContractError builds a ContractError for an operation.
func NewContractError(op string, missing ...string) *ContractError {
	return &ContractError{Op: op, Missing: missing}
}
