package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error categories. Every domain error wraps exactly one of these.
var (
	ErrConfiguration    = errors.New("configuration error")
	ErrValidation       = errors.New("validation error")
	ErrConflict         = errors.New("conflict")
	ErrNotFound         = errors.New("resource not found")
	ErrForbidden        = errors.New("forbidden")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrChainUnavailable = errors.New("chain unavailable")
	ErrMint             = errors.New("mint failed")
)

// Domain errors
var (
	ErrInvalidSignature   = fmt.Errorf("%w: invalid wallet signature", ErrValidation)
	ErrNonceMismatch      = fmt.Errorf("%w: nonce missing, expired or already used", ErrValidation)
	ErrDecryption         = fmt.Errorf("%w: malformed encrypted private key", ErrValidation)
	ErrInvalidAddress     = fmt.Errorf("%w: invalid wallet address", ErrValidation)
	ErrCodeNotFound       = fmt.Errorf("%w: redemption code", ErrNotFound)
	ErrWalletNotFound     = fmt.Errorf("%w: wallet", ErrNotFound)
	ErrEventNotFound      = fmt.Errorf("%w: event", ErrNotFound)
	ErrQuestNotFound      = fmt.Errorf("%w: quest", ErrNotFound)
	ErrAlreadyLinked      = fmt.Errorf("%w: wallet already linked", ErrConflict)
	ErrAlreadyRedeemed    = fmt.Errorf("%w: code already redeemed", ErrConflict)
	ErrCodeInactive       = fmt.Errorf("%w: redemption code is inactive", ErrForbidden)
	ErrCustodialUnlink    = fmt.Errorf("%w: custodial wallets cannot be unlinked", ErrForbidden)
	ErrNoWalletAvailable  = fmt.Errorf("%w: user has no wallet to receive the credential", ErrConflict)
	ErrMintReverted       = fmt.Errorf("%w: transaction reverted", ErrMint)
	ErrMintOutcomeUnknown = fmt.Errorf("%w: outcome unknown", ErrMint)
)

// Error codes returned to API clients
const (
	CodeBadRequest       = "BAD_REQUEST"
	CodeValidation       = "VALIDATION_ERROR"
	CodeNotFound         = "NOT_FOUND"
	CodeConflict         = "CONFLICT"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeForbidden        = "FORBIDDEN"
	CodeChainUnavailable = "CHAIN_UNAVAILABLE"
	CodeMintError        = "MINT_ERROR"
	CodeInternalError    = "INTERNAL_ERROR"
)

// AppError represents application error with HTTP status
type AppError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new app error
func NewAppError(status int, code, message string, err error) *AppError {
	return &AppError{
		Status:  status,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common error constructors
func NotFound(message string) *AppError {
	return NewAppError(http.StatusNotFound, CodeNotFound, message, ErrNotFound)
}

func BadRequest(message string) *AppError {
	return NewAppError(http.StatusBadRequest, CodeBadRequest, message, ErrValidation)
}

func Unauthorized(message string) *AppError {
	return NewAppError(http.StatusUnauthorized, CodeUnauthorized, message, ErrUnauthorized)
}

func Forbidden(message string) *AppError {
	return NewAppError(http.StatusForbidden, CodeForbidden, message, ErrForbidden)
}

func Conflict(message string) *AppError {
	return NewAppError(http.StatusConflict, CodeConflict, message, ErrConflict)
}

func InternalError(err error) *AppError {
	return NewAppError(http.StatusInternalServerError, CodeInternalError, "internal server error", err)
}

// Configuration reports a startup configuration problem. These are fatal.
func Configuration(message string) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, message)
}

// MintFailed wraps a chain-side failure of a submitted or attempted mint.
func MintFailed(message string, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %s", ErrMint, message)
	}
	return fmt.Errorf("%w: %s: %v", ErrMint, message, err)
}

// FromError maps any error onto an AppError using its category.
func FromError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, ErrValidation):
		return NewAppError(http.StatusBadRequest, CodeValidation, err.Error(), err)
	case errors.Is(err, ErrUnauthorized):
		return NewAppError(http.StatusUnauthorized, CodeUnauthorized, err.Error(), err)
	case errors.Is(err, ErrForbidden):
		return NewAppError(http.StatusForbidden, CodeForbidden, err.Error(), err)
	case errors.Is(err, ErrNotFound):
		return NewAppError(http.StatusNotFound, CodeNotFound, err.Error(), err)
	case errors.Is(err, ErrConflict):
		return NewAppError(http.StatusConflict, CodeConflict, err.Error(), err)
	case errors.Is(err, ErrChainUnavailable):
		return NewAppError(http.StatusServiceUnavailable, CodeChainUnavailable, err.Error(), err)
	case errors.Is(err, ErrMint):
		return NewAppError(http.StatusBadGateway, CodeMintError, err.Error(), err)
	default:
		return InternalError(err)
	}
}

// TxError attaches the hash of a submitted transaction to a chain error.
type TxError struct {
	TxHash string
	Err    error
}

func (e *TxError) Error() string {
	return e.Err.Error() + " (tx " + e.TxHash + ")"
}

func (e *TxError) Unwrap() error {
	return e.Err
}

// WithTxHash wraps err with the transaction it concerns.
func WithTxHash(err error, txHash string) error {
	if err == nil {
		return nil
	}
	return &TxError{TxHash: txHash, Err: err}
}

// TxHashOf returns the transaction hash carried by err, if any.
func TxHashOf(err error) string {
	var txErr *TxError
	if errors.As(err, &txErr) {
		return txErr.TxHash
	}
	return ""
}
