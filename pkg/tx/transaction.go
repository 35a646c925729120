// Package tx defines the signed transaction envelope for token operations.
//
// A transaction is a single token-engine operation (transfer, mint, burn,
// deny-list change, capability transfer) authenticated by a Schnorr
// signature from the sender. The sender address is derived from the
// embedded public key; capability-gated operations additionally name the
// capability being presented.
package tx

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/kanari-network/kanari-go/pkg/crypto"
	"github.com/kanari-network/kanari-go/pkg/types"
)

// Version is the current transaction envelope version.
const Version uint32 = 1

// OpType identifies a token-engine operation.
type OpType uint8

// Token operations.
const (
	OpTransfer OpType = iota + 1
	OpMint
	OpBurn
	OpDenyAdd
	OpDenyRemove
	OpCapTransfer
)

// String returns the operation name.
func (op OpType) String() string {
	switch op {
	case OpTransfer:
		return "transfer"
	case OpMint:
		return "mint"
	case OpBurn:
		return "burn"
	case OpDenyAdd:
		return "deny_add"
	case OpDenyRemove:
		return "deny_remove"
	case OpCapTransfer:
		return "cap_transfer"
	default:
		return fmt.Sprintf("op(%d)", uint8(op))
	}
}

// Transaction is a signed token operation.
//
// Field use by operation:
//   - transfer:     To = recipient, Amount = base units
//   - mint:         To = recipient, Amount = base units, Capability = treasury
//   - burn:         Amount = base units, Capability = treasury
//   - deny_add:     To = denied address, Capability = deny
//   - deny_remove:  To = un-denied address, Capability = deny
//   - cap_transfer: To = new holder, Capability = moved capability
type Transaction struct {
	Version    uint32             `json:"version"`
	Op         OpType             `json:"op"`
	To         types.Address      `json:"to,omitempty"`
	Amount     uint64             `json:"amount,omitempty"`
	Capability types.CapabilityID `json:"capability,omitempty"`
	Nonce      uint64             `json:"nonce"`
	PubKey     []byte             `json:"pubkey"`
	Signature  []byte             `json:"signature"`
}

// txJSON carries pubkey and signature as hex strings.
type txJSON struct {
	Version    uint32             `json:"version"`
	Op         OpType             `json:"op"`
	To         types.Address      `json:"to,omitempty"`
	Amount     uint64             `json:"amount,omitempty"`
	Capability types.CapabilityID `json:"capability,omitempty"`
	Nonce      uint64             `json:"nonce"`
	PubKey     string             `json:"pubkey"`
	Signature  string             `json:"signature"`
}

// MarshalJSON encodes pubkey and signature as hex.
func (t *Transaction) MarshalJSON() ([]byte, error) {
	return json.Marshal(txJSON{
		Version:    t.Version,
		Op:         t.Op,
		To:         t.To,
		Amount:     t.Amount,
		Capability: t.Capability,
		Nonce:      t.Nonce,
		PubKey:     hex.EncodeToString(t.PubKey),
		Signature:  hex.EncodeToString(t.Signature),
	})
}

// UnmarshalJSON decodes hex pubkey and signature.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	var j txJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	pub, err := hex.DecodeString(j.PubKey)
	if err != nil {
		return fmt.Errorf("invalid pubkey hex: %w", err)
	}
	sig, err := hex.DecodeString(j.Signature)
	if err != nil {
		return fmt.Errorf("invalid signature hex: %w", err)
	}
	t.Version = j.Version
	t.Op = j.Op
	t.To = j.To
	t.Amount = j.Amount
	t.Capability = j.Capability
	t.Nonce = j.Nonce
	t.PubKey = pub
	t.Signature = sig
	return nil
}

// SigningBytes returns the canonical bytes covered by the signature.
// Format: version(4 LE) | op(1) | to(20) | amount(8 LE) | capability(32) |
// nonce(8 LE) | pubkeyLen(1) | pubkey
func (t *Transaction) SigningBytes() []byte {
	buf := make([]byte, 0, 74+len(t.PubKey))
	buf = binary.LittleEndian.AppendUint32(buf, t.Version)
	buf = append(buf, byte(t.Op))
	buf = append(buf, t.To[:]...)
	buf = binary.LittleEndian.AppendUint64(buf, t.Amount)
	buf = append(buf, t.Capability[:]...)
	buf = binary.LittleEndian.AppendUint64(buf, t.Nonce)
	buf = append(buf, byte(len(t.PubKey)))
	buf = append(buf, t.PubKey...)
	return buf
}

// Hash returns the transaction ID: BLAKE3 over the signing bytes.
// The signature is excluded so the ID is stable before and after signing.
func (t *Transaction) Hash() types.Hash {
	return crypto.Hash(t.SigningBytes())
}

// Sender returns the address derived from the embedded public key.
func (t *Transaction) Sender() types.Address {
	return crypto.AddressFromPubKey(t.PubKey)
}

// Sign attaches the signer's public key and a Schnorr signature over
// the transaction hash.
func (t *Transaction) Sign(key *crypto.PrivateKey) error {
	t.PubKey = key.PublicKey()
	hash := t.Hash()
	sig, err := key.Sign(hash[:])
	if err != nil {
		return fmt.Errorf("sign transaction: %w", err)
	}
	t.Signature = sig
	return nil
}

// VerifySignature checks the signature against the embedded public key.
func (t *Transaction) VerifySignature() bool {
	if len(t.PubKey) == 0 || len(t.Signature) == 0 {
		return false
	}
	hash := t.Hash()
	return crypto.VerifySignature(hash[:], t.Signature, t.PubKey)
}

// Encode serializes the transaction to its wire form (JSON).
// This is the opaque payload format carried inside blocks.
func (t *Transaction) Encode() ([]byte, error) {
	return json.Marshal(t)
}

// Decode parses a wire-form transaction.
func Decode(data []byte) (*Transaction, error) {
	var t Transaction
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decode transaction: %w", err)
	}
	return &t, nil
}
