package block

import (
	"errors"
	"fmt"

	"github.com/kanari-network/kanari-go/pkg/crypto"
)

// Validation errors.
var (
	// ErrUnauthorized means the header is not signed by the chain administrator.
	ErrUnauthorized = errors.New("unauthorized: block not signed by administrator")
	// ErrInvalidReference means prev_hash does not resolve to the chain tip.
	ErrInvalidReference = errors.New("invalid reference: prev_hash does not match any known block")
	// ErrInvalidTimestamp means the block time does not advance past its parent.
	ErrInvalidTimestamp = errors.New("invalid timestamp: block time must exceed parent time")
	// ErrMerkleMismatch means the header merkle root does not match the transactions.
	ErrMerkleMismatch = errors.New("merkle root does not match transaction set")
)

// MaxBlockTxs caps the number of transaction payloads per block.
const MaxBlockTxs = 500

// MaxTxPayload caps the size of a single transaction payload in bytes.
const MaxTxPayload = 65_536

// ValidateStructure checks block shape independent of chain context:
// header presence, version tag, payload limits, and that the header
// merkle root matches the transaction set.
func ValidateStructure(b *Block) error {
	if b == nil || b.Header == nil {
		return fmt.Errorf("block has no header")
	}
	if b.Header.Version != Version {
		return fmt.Errorf("unsupported block version %d", b.Header.Version)
	}
	if len(b.Transactions) > MaxBlockTxs {
		return fmt.Errorf("too many transactions: %d, max %d", len(b.Transactions), MaxBlockTxs)
	}
	for i, payload := range b.Transactions {
		if len(payload) > MaxTxPayload {
			return fmt.Errorf("transaction %d payload too large: %d bytes, max %d", i, len(payload), MaxTxPayload)
		}
	}
	if ComputeMerkleRoot(b.TxHashes()) != b.Header.MerkleRoot {
		return ErrMerkleMismatch
	}
	return nil
}

// VerifyAdminSig checks the header's admin signature against the
// deployment-fixed administrator public key.
func VerifyAdminSig(h *Header, adminPubKey []byte) error {
	if len(h.AdminSig) == 0 {
		return ErrUnauthorized
	}
	hash := h.Hash()
	if !crypto.VerifySignature(hash[:], h.AdminSig, adminPubKey) {
		return ErrUnauthorized
	}
	return nil
}
