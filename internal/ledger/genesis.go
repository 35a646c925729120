package ledger

import (
	"github.com/kanari-network/kanari-go/config"
	"github.com/kanari-network/kanari-go/pkg/block"
)

// CreateGenesisBlock builds the deterministic genesis block for a deployment.
// Every node with the same genesis config derives the same genesis hash.
// The genesis block carries no admin signature: it is fixed by configuration,
// not sealed at runtime.
func CreateGenesisBlock(gen *config.Genesis) *block.Block {
	var payloads [][]byte
	if gen.ExtraData != "" {
		payloads = [][]byte{[]byte(gen.ExtraData)}
	}

	blk := block.NewBlock(&block.Header{
		Version: block.Version,
		Time:    gen.Timestamp,
		Height:  0,
		// ChainID as nonce separates genesis hashes between networks.
		Nonce: gen.ChainID,
	}, payloads)
	blk.Header.MerkleRoot = block.ComputeMerkleRoot(blk.TxHashes())
	return blk
}
