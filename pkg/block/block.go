// Package block defines block types, hashing, and validation.
package block

import (
	"encoding/hex"
	"encoding/json"

	"github.com/kanari-network/kanari-go/pkg/crypto"
	"github.com/kanari-network/kanari-go/pkg/types"
)

// Block represents a sealed block: a header plus the ordered transaction
// payloads it commits to. Payloads are opaque to the ledger; the token
// engine and other components interpret them independently.
type Block struct {
	Header       *Header  `json:"header"`
	Transactions [][]byte `json:"transactions"`
}

// blockJSON carries transactions as hex strings.
type blockJSON struct {
	Header       *Header  `json:"header"`
	Transactions []string `json:"transactions"`
}

// NewBlock creates a block with the given header and transaction payloads.
func NewBlock(header *Header, txs [][]byte) *Block {
	return &Block{
		Header:       header,
		Transactions: txs,
	}
}

// Hash returns the block's identity: the header hash.
func (b *Block) Hash() types.Hash {
	return b.Header.Hash()
}

// TxHashes returns the BLAKE3 hash of each transaction payload, in order.
func (b *Block) TxHashes() []types.Hash {
	hashes := make([]types.Hash, len(b.Transactions))
	for i, payload := range b.Transactions {
		hashes[i] = crypto.Hash(payload)
	}
	return hashes
}

// MarshalJSON encodes transaction payloads as hex strings.
func (b *Block) MarshalJSON() ([]byte, error) {
	j := blockJSON{
		Header:       b.Header,
		Transactions: make([]string, len(b.Transactions)),
	}
	for i, payload := range b.Transactions {
		j.Transactions[i] = hex.EncodeToString(payload)
	}
	return json.Marshal(j)
}

// UnmarshalJSON decodes hex transaction payloads.
func (b *Block) UnmarshalJSON(data []byte) error {
	var j blockJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	b.Header = j.Header
	b.Transactions = make([][]byte, len(j.Transactions))
	for i, s := range j.Transactions {
		payload, err := hex.DecodeString(s)
		if err != nil {
			return err
		}
		b.Transactions[i] = payload
	}
	return nil
}
