package token

import (
	"errors"
	"fmt"
)

// ErrorCode discriminates token failures so callers can branch on kind.
type ErrorCode string

const (
	CodeUnauthorized          ErrorCode = "UNAUTHORIZED"
	CodePaused                ErrorCode = "PAUSED"
	CodeFrozen                ErrorCode = "FROZEN"
	CodeAlreadyBlocked        ErrorCode = "ALREADY_BLOCKED"
	CodeNotBlocked            ErrorCode = "NOT_BLOCKED"
	CodeInsufficientBalance   ErrorCode = "INSUFFICIENT_BALANCE"
	CodeInsufficientAllowance ErrorCode = "INSUFFICIENT_ALLOWANCE"
	CodeInvalidFeeValue       ErrorCode = "INVALID_FEE_VALUE"
	CodePriceInvalid          ErrorCode = "PRICE_INVALID"
	CodeReentrantCall         ErrorCode = "REENTRANT_CALL"
	CodeExpired               ErrorCode = "EXPIRED"
	CodeInvalidSignature      ErrorCode = "INVALID_SIGNATURE"
	CodeZeroAddress           ErrorCode = "ZERO_ADDRESS"
	CodeInvalidArgument       ErrorCode = "INVALID_ARGUMENT"
	CodeOverflow              ErrorCode = "OVERFLOW"
	CodeAlreadyInitialized    ErrorCode = "ALREADY_INITIALIZED"
	CodeNotFound              ErrorCode = "NOT_FOUND"
)

// Error is a typed token failure. Every rejected operation returns one of
// these; the ledger and configuration remain valid afterwards.
type Error struct {
	Code    ErrorCode
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return string(e.Code) + ": " + e.Message
}

// Is matches errors by code so errors.Is works against code sentinels.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

// NewError creates a typed error with a formatted message.
func NewError(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func Unauthorized(format string, args ...any) *Error {
	return NewError(CodeUnauthorized, format, args...)
}

func PausedErr() *Error {
	return NewError(CodePaused, "operations are paused")
}

func FrozenErr(account string) *Error {
	return NewError(CodeFrozen, "account %s is blocked", account)
}

func InsufficientBalance(format string, args ...any) *Error {
	return NewError(CodeInsufficientBalance, format, args...)
}

func InsufficientAllowance(format string, args ...any) *Error {
	return NewError(CodeInsufficientAllowance, format, args...)
}

func InvalidFeeValue(format string, args ...any) *Error {
	return NewError(CodeInvalidFeeValue, format, args...)
}

func PriceInvalid(format string, args ...any) *Error {
	return NewError(CodePriceInvalid, format, args...)
}

func InvalidSignature(format string, args ...any) *Error {
	return NewError(CodeInvalidSignature, format, args...)
}

func ZeroAddress(what string) *Error {
	return NewError(CodeZeroAddress, "%s must not be the zero address", what)
}

func InvalidArgument(format string, args ...any) *Error {
	return NewError(CodeInvalidArgument, format, args...)
}

func Overflow(format string, args ...any) *Error {
	return NewError(CodeOverflow, format, args...)
}

// IsCode reports whether err carries the given token error code.
func IsCode(err error, code ErrorCode) bool {
	var te *Error
	return errors.As(err, &te) && te.Code == code
}
