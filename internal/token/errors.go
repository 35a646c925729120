package token

import "errors"

// Token engine errors. Every failure aborts the whole operation with no
// partial state change and is returned to the immediate caller.
var (
	// ErrUnauthorized means the caller does not hold the required capability.
	ErrUnauthorized = errors.New("unauthorized: caller does not hold the required capability")
	// ErrZeroAmount means a quantity argument was zero where positive is required.
	ErrZeroAmount = errors.New("amount must be positive")
	// ErrInsufficientBalance means a transfer or burn exceeds available funds.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrDeniedAddress means a transfer counterpart is on the deny list.
	ErrDeniedAddress = errors.New("address is on the deny list")
	// ErrAlreadyInitialized means genesis initialization ran twice.
	ErrAlreadyInitialized = errors.New("token already initialized")
	// ErrNotInitialized means an operation ran before genesis initialization.
	ErrNotInitialized = errors.New("token not initialized")
	// ErrUnknownCapability means the presented capability ID does not resolve.
	ErrUnknownCapability = errors.New("unknown capability")
	// ErrBadNonce means the transaction nonce does not follow the sender's sequence.
	ErrBadNonce = errors.New("bad transaction nonce")
	// ErrSupplyOverflow means a mint would overflow the supply counter.
	ErrSupplyOverflow = errors.New("mint would overflow total supply")
)
