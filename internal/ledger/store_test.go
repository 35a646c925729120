package ledger

import (
	"testing"

	"github.com/kanari-network/kanari-go/internal/storage"
	"github.com/kanari-network/kanari-go/pkg/block"
	"github.com/kanari-network/kanari-go/pkg/types"
)

func storedBlock(height uint64, payloads [][]byte) *block.Block {
	blk := block.NewBlock(&block.Header{
		Version: block.Version,
		Time:    100 + height,
		Height:  height,
	}, payloads)
	blk.Header.MerkleRoot = block.ComputeMerkleRoot(blk.TxHashes())
	return blk
}

func TestBlockStore_PutGet(t *testing.T) {
	bs := NewBlockStore(storage.NewMemory())

	blk := storedBlock(1, [][]byte{[]byte("payload")})
	if err := bs.PutBlock(blk); err != nil {
		t.Fatalf("PutBlock: %v", err)
	}

	got, err := bs.GetBlock(blk.Hash())
	if err != nil {
		t.Fatalf("GetBlock: %v", err)
	}
	if got.Hash() != blk.Hash() {
		t.Error("retrieved block hash differs")
	}
	if len(got.Transactions) != 1 || string(got.Transactions[0]) != "payload" {
		t.Error("retrieved block lost its payloads")
	}
}

func TestBlockStore_GetByHeight(t *testing.T) {
	bs := NewBlockStore(storage.NewMemory())

	blk := storedBlock(7, nil)
	if err := bs.PutBlock(blk); err != nil {
		t.Fatalf("PutBlock: %v", err)
	}

	got, err := bs.GetBlockByHeight(7)
	if err != nil {
		t.Fatalf("GetBlockByHeight: %v", err)
	}
	if got.Hash() != blk.Hash() {
		t.Error("height index returned wrong block")
	}
}

func TestBlockStore_GetMissing(t *testing.T) {
	bs := NewBlockStore(storage.NewMemory())

	if _, err := bs.GetBlock(types.Hash{0x01}); err == nil {
		t.Error("expected error for missing block")
	}
	if _, err := bs.GetBlockByHeight(42); err == nil {
		t.Error("expected error for missing height")
	}
}

func TestBlockStore_HasBlock(t *testing.T) {
	bs := NewBlockStore(storage.NewMemory())

	blk := storedBlock(1, nil)
	has, err := bs.HasBlock(blk.Hash())
	if err != nil || has {
		t.Errorf("HasBlock before put = %v, %v", has, err)
	}

	if err := bs.PutBlock(blk); err != nil {
		t.Fatalf("PutBlock: %v", err)
	}
	has, err = bs.HasBlock(blk.Hash())
	if err != nil || !has {
		t.Errorf("HasBlock after put = %v, %v", has, err)
	}
}

func TestBlockStore_Tip(t *testing.T) {
	bs := NewBlockStore(storage.NewMemory())

	// Uninitialized: zero hash, height 0.
	hash, height, err := bs.GetTip()
	if err != nil {
		t.Fatalf("GetTip: %v", err)
	}
	if !hash.IsZero() || height != 0 {
		t.Errorf("uninitialized tip = %s/%d, want zero/0", hash, height)
	}

	want := types.Hash{0xAB}
	if err := bs.SetTip(want, 5); err != nil {
		t.Fatalf("SetTip: %v", err)
	}
	hash, height, err = bs.GetTip()
	if err != nil {
		t.Fatalf("GetTip: %v", err)
	}
	if hash != want || height != 5 {
		t.Errorf("tip = %s/%d, want %s/5", hash, height, want)
	}
}
