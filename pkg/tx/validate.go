package tx

import (
	"errors"
	"fmt"
)

// PubKeySize is the compressed secp256k1 public key length.
const PubKeySize = 33

// Validation errors.
var (
	ErrBadSignature  = errors.New("transaction signature invalid")
	ErrBadPubKey     = errors.New("pubkey must be a compressed secp256k1 key")
	ErrZeroAmount    = errors.New("amount must be positive")
	ErrNoCapability  = errors.New("operation requires a capability")
	ErrZeroRecipient = errors.New("recipient address is required")
)

// ValidateBasic checks envelope-level rules that need no ledger state:
// version, operation shape, pubkey length, and signature. Ledger-level
// rules (balances, deny list, capability holdership) are enforced by the
// token engine.
func ValidateBasic(t *Transaction) error {
	if t.Version != Version {
		return fmt.Errorf("unsupported transaction version %d", t.Version)
	}
	// The length byte in SigningBytes only covers 0..255; reject anything
	// that is not an actual compressed key before it gets there.
	if len(t.PubKey) != PubKeySize {
		return fmt.Errorf("%w: got %d bytes", ErrBadPubKey, len(t.PubKey))
	}

	switch t.Op {
	case OpTransfer:
		if t.Amount == 0 {
			return ErrZeroAmount
		}
		if t.To.IsZero() {
			return ErrZeroRecipient
		}
	case OpMint:
		if t.Amount == 0 {
			return ErrZeroAmount
		}
		if t.To.IsZero() {
			return ErrZeroRecipient
		}
		if t.Capability.IsZero() {
			return ErrNoCapability
		}
	case OpBurn:
		if t.Amount == 0 {
			return ErrZeroAmount
		}
		if t.Capability.IsZero() {
			return ErrNoCapability
		}
	case OpDenyAdd, OpDenyRemove:
		if t.To.IsZero() {
			return ErrZeroRecipient
		}
		if t.Capability.IsZero() {
			return ErrNoCapability
		}
	case OpCapTransfer:
		if t.To.IsZero() {
			return ErrZeroRecipient
		}
		if t.Capability.IsZero() {
			return ErrNoCapability
		}
	default:
		return fmt.Errorf("unknown operation %d", uint8(t.Op))
	}

	if !t.VerifySignature() {
		return ErrBadSignature
	}
	return nil
}
