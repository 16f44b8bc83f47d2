package errors

import (
	stderrors "errors"
	"fmt"

	"vindex/jsonx"
)

// LedgerErrorCode represents standardized error codes for ledger operations
type LedgerErrorCode string

const (
	// General errors
	ErrCodeInternal LedgerErrorCode = "internal_error"

	// Validation errors
	ErrCodeInvalidTransaction LedgerErrorCode = "invalid_transaction"
	ErrCodeInvalidSignature   LedgerErrorCode = "invalid_signature"
	ErrCodeInvalidAmount      LedgerErrorCode = "invalid_amount"
	ErrCodeInvalidTimestamp   LedgerErrorCode = "invalid_timestamp"
	ErrCodeInvalidPayload     LedgerErrorCode = "invalid_payload"
	ErrCodeBlockImmutable     LedgerErrorCode = "block_immutable"

	// Resource errors
	ErrCodeAccountNotFound      LedgerErrorCode = "account_not_found"
	ErrCodeInsufficientFunds    LedgerErrorCode = "insufficient_funds"
	ErrCodeInsufficientStake    LedgerErrorCode = "insufficient_stake"
	ErrCodeStakeBelowMinimum    LedgerErrorCode = "stake_below_minimum"
	ErrCodeValidatorNotFound    LedgerErrorCode = "validator_not_found"
	ErrCodeRegistryFull         LedgerErrorCode = "validator_registry_full"
	ErrCodeDuplicateTransaction LedgerErrorCode = "duplicate_transaction"

	// Swap errors
	ErrCodePoolExists       LedgerErrorCode = "pool_already_exists"
	ErrCodePoolNotFound     LedgerErrorCode = "pool_not_found"
	ErrCodeSlippageExceeded LedgerErrorCode = "slippage_exceeded"
)

// LedgerError represents a standardized ledger error
type LedgerError struct {
	Code    LedgerErrorCode `json:"code"`
	Message string          `json:"message"`
}

// Error implements the error interface
func (e *LedgerError) Error() string {
	err, _ := jsonx.Marshal(LedgerError{
		Code:    e.Code,
		Message: e.Message,
	})
	return string(err)
}

// New creates a new LedgerError and returns it as error interface
func New(code LedgerErrorCode, message string) error {
	return &LedgerError{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new LedgerError with a formatted message
func Newf(code LedgerErrorCode, format string, args ...interface{}) error {
	return &LedgerError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// CodeOf extracts the LedgerErrorCode from err, or ErrCodeInternal if err
// carries no code.
func CodeOf(err error) LedgerErrorCode {
	var le *LedgerError
	if stderrors.As(err, &le) {
		return le.Code
	}
	return ErrCodeInternal
}

// Is reports whether err carries the given code.
func Is(err error, code LedgerErrorCode) bool {
	return CodeOf(err) == code
}
