// Package ledger implements the admin-gated block chain component.
//
// The ledger is a linear, append-only chain of immutable blocks. Every
// non-genesis block must be signed by the deployment-fixed administrator,
// reference the current tip as its parent, and advance the parent's
// timestamp. Block creation is atomic and one-shot: a header is built,
// hashed, sealed, and stored, with no intermediate observable state.
package ledger

import (
	"fmt"
	"sync"

	"github.com/kanari-network/kanari-go/config"
	klog "github.com/kanari-network/kanari-go/internal/log"
	"github.com/kanari-network/kanari-go/internal/storage"
	"github.com/kanari-network/kanari-go/pkg/block"
	"github.com/kanari-network/kanari-go/pkg/crypto"
	"github.com/kanari-network/kanari-go/pkg/types"
	"github.com/rs/zerolog"
)

// Ledger is the block chain state machine.
type Ledger struct {
	mu     sync.Mutex // Protects tip state across AppendBlock/Seal.
	blocks *BlockStore

	chainID     uint64
	adminPubKey []byte
	genesisHash types.Hash

	tipHash   types.Hash
	tipHeight uint64
	logger    zerolog.Logger
}

// New opens a ledger over db for the given genesis configuration,
// initializing the genesis block on first run and recovering the tip
// otherwise.
func New(db storage.DB, gen *config.Genesis) (*Ledger, error) {
	if db == nil {
		return nil, fmt.Errorf("storage db is nil")
	}
	adminPub, err := gen.AdminPubKeyBytes()
	if err != nil {
		return nil, err
	}

	blocks := NewBlockStore(db)
	l := &Ledger{
		blocks:      blocks,
		chainID:     gen.ChainID,
		adminPubKey: adminPub,
		logger:      klog.Ledger,
	}

	genesisBlk := CreateGenesisBlock(gen)
	genesisHash := genesisBlk.Hash()

	tipHash, tipHeight, err := blocks.GetTip()
	if err != nil {
		return nil, fmt.Errorf("recover tip: %w", err)
	}

	if tipHash.IsZero() {
		// Fresh database: persist genesis.
		if err := blocks.PutBlock(genesisBlk); err != nil {
			return nil, fmt.Errorf("store genesis: %w", err)
		}
		if err := blocks.SetTip(genesisHash, 0); err != nil {
			return nil, fmt.Errorf("set genesis tip: %w", err)
		}
		tipHash, tipHeight = genesisHash, 0
		l.logger.Info().
			Str("hash", genesisHash.String()).
			Uint64("chain_id", gen.ChainID).
			Msg("Genesis block created")
	} else {
		// Existing database must belong to the same deployment.
		stored, err := blocks.GetBlockByHeight(0)
		if err != nil {
			return nil, fmt.Errorf("recover genesis: %w", err)
		}
		if stored.Hash() != genesisHash {
			return nil, fmt.Errorf("database genesis %s does not match configured genesis %s",
				stored.Hash(), genesisHash)
		}
	}

	l.genesisHash = genesisHash
	l.tipHash = tipHash
	l.tipHeight = tipHeight
	return l, nil
}

// ChainID returns the deployment chain ID.
func (l *Ledger) ChainID() uint64 {
	return l.chainID
}

// GenesisHash returns the genesis block hash.
func (l *Ledger) GenesisHash() types.Hash {
	return l.genesisHash
}

// TipHash returns the current tip block hash.
func (l *Ledger) TipHash() types.Hash {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tipHash
}

// Height returns the current tip height.
func (l *Ledger) Height() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tipHeight
}

// GetBlock retrieves a block by hash.
func (l *Ledger) GetBlock(hash types.Hash) (*block.Block, error) {
	return l.blocks.GetBlock(hash)
}

// GetBlockByHeight retrieves a block by height.
func (l *Ledger) GetBlockByHeight(height uint64) (*block.Block, error) {
	return l.blocks.GetBlockByHeight(height)
}

// HasBlock checks whether a block exists.
func (l *Ledger) HasBlock(hash types.Hash) (bool, error) {
	return l.blocks.HasBlock(hash)
}

// AppendBlock validates a sealed block against the chain and persists it.
// Validation order: structure, admin signature, parent linkage, height,
// timestamp monotonicity. Either the block commits fully or the chain is
// unchanged.
func (l *Ledger) AppendBlock(blk *block.Block) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.appendLocked(blk)
}

func (l *Ledger) appendLocked(blk *block.Block) error {
	if err := block.ValidateStructure(blk); err != nil {
		return err
	}
	if err := block.VerifyAdminSig(blk.Header, l.adminPubKey); err != nil {
		return err
	}
	if blk.Header.PrevHash != l.tipHash {
		return fmt.Errorf("%w: prev %s, tip %s",
			block.ErrInvalidReference, blk.Header.PrevHash, l.tipHash)
	}
	if blk.Header.Height != l.tipHeight+1 {
		return fmt.Errorf("%w: height %d, want %d",
			block.ErrInvalidReference, blk.Header.Height, l.tipHeight+1)
	}

	parent, err := l.blocks.GetBlock(blk.Header.PrevHash)
	if err != nil {
		return fmt.Errorf("load parent: %w", err)
	}
	if blk.Header.Time <= parent.Header.Time {
		return fmt.Errorf("%w: time %d, parent %d",
			block.ErrInvalidTimestamp, blk.Header.Time, parent.Header.Time)
	}

	hash := blk.Hash()
	if err := l.blocks.PutBlock(blk); err != nil {
		return err
	}
	if err := l.blocks.SetTip(hash, blk.Header.Height); err != nil {
		return err
	}
	l.tipHash = hash
	l.tipHeight = blk.Header.Height

	l.logger.Info().
		Str("hash", hash.String()).
		Uint64("height", blk.Header.Height).
		Int("txs", len(blk.Transactions)).
		Msg("Block appended")
	return nil
}

// Seal builds, signs, and appends a block on top of the current tip using
// the administrator key. The merkle root is derived from the payloads, not
// caller-supplied. Returns the sealed block.
func (l *Ledger) Seal(adminKey *crypto.PrivateKey, time, nonce uint64, payloads [][]byte) (*block.Block, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	blk := block.NewBlock(&block.Header{
		Version:  block.Version,
		PrevHash: l.tipHash,
		Time:     time,
		Height:   l.tipHeight + 1,
		Nonce:    nonce,
	}, payloads)
	blk.Header.MerkleRoot = block.ComputeMerkleRoot(blk.TxHashes())

	hash := blk.Header.Hash()
	sig, err := adminKey.Sign(hash[:])
	if err != nil {
		return nil, fmt.Errorf("seal block: %w", err)
	}
	blk.Header.AdminSig = sig

	if err := l.appendLocked(blk); err != nil {
		return nil, err
	}
	return blk, nil
}
