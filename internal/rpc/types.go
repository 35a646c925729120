package rpc

import (
	"github.com/kanari-network/kanari-go/pkg/block"
	"github.com/kanari-network/kanari-go/pkg/tx"
)

// JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
	CodeNotFound       = -32000
	CodeUnauthorized   = -32001
	CodeRejected       = -32002
)

// Request is a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
	ID      interface{} `json:"id"`
}

// Response is a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string      `json:"jsonrpc"`
	Result  interface{} `json:"result,omitempty"`
	Error   *Error      `json:"error,omitempty"`
	ID      interface{} `json:"id"`
}

// Error is a JSON-RPC 2.0 error object.
type Error struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ── Param types ─────────────────────────────────────────────────────────

// HashParam is used by endpoints that take a single block hash.
type HashParam struct {
	Hash string `json:"hash"`
}

// NumberParam is used by endpoints that take a block height.
type NumberParam struct {
	Number uint64 `json:"number"`
}

// AddressParam is used by endpoints that take an account address.
type AddressParam struct {
	Address string `json:"address"`
}

// SendTxParam is used by kanari_sendTransaction.
type SendTxParam struct {
	Transaction *tx.Transaction `json:"transaction"`
}

// EventsParam is used by kanari_getTokenEvents.
type EventsParam struct {
	From  uint64 `json:"from,omitempty"`
	Limit int    `json:"limit,omitempty"`
}

// ── Result types ────────────────────────────────────────────────────────

// NodeInfoResult is returned by kanari_getNodeInfo.
type NodeInfoResult struct {
	Version     string `json:"version"`
	ChainID     uint64 `json:"chain_id"`
	ChainName   string `json:"chain_name"`
	NodeType    string `json:"node_type"` // "sealer" or "observer".
	Height      uint64 `json:"height"`
	TipHash     string `json:"tip_hash"`
	GenesisHash string `json:"genesis_hash"`
	Pending     int    `json:"pending"`
	Sealer      bool   `json:"sealer"`
	Syncing     bool   `json:"is_syncing"` // Always false: no peer sync.
	Uptime      uint64 `json:"uptime"`     // Seconds since the server started.
}

// BlockResult wraps a block with its precomputed hash for RPC responses.
type BlockResult struct {
	Hash         string        `json:"hash"`
	Header       *block.Header `json:"header"`
	Transactions []string      `json:"transactions"` // Transaction IDs (hex)
	TxCount      int           `json:"tx_count"`
}

// NewBlockResult creates a BlockResult from a block, precomputing all hashes.
func NewBlockResult(b *block.Block) *BlockResult {
	txids := make([]string, 0, len(b.Transactions))
	for _, h := range b.TxHashes() {
		txids = append(txids, h.String())
	}
	return &BlockResult{
		Hash:         b.Hash().String(),
		Header:       b.Header,
		Transactions: txids,
		TxCount:      len(b.Transactions),
	}
}

// BalanceResult is returned by kanari_getBalance.
type BalanceResult struct {
	Address string `json:"address"`
	Balance uint64 `json:"balance"` // Base units.
	Nonce   uint64 `json:"nonce"`   // Last accepted transaction nonce.
	Denied  bool   `json:"denied"`
}

// TokenInfoResult is returned by kanari_getKariTokenInfo.
type TokenInfoResult struct {
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Decimals    uint8  `json:"decimals"`
	Description string `json:"description,omitempty"`
	IconURL     string `json:"icon_url,omitempty"`
	TotalSupply uint64 `json:"total_supply"`
}

// SendTxResult is returned by kanari_sendTransaction.
type SendTxResult struct {
	TxHash string `json:"tx_hash"`
}

// CreateBlockResult is returned by kanari_createBlock.
type CreateBlockResult struct {
	BlockHash string `json:"block_hash"`
	Height    uint64 `json:"height"`
	TxCount   int    `json:"tx_count"`
}

// DenyListResult is returned by kanari_getDenyList.
type DenyListResult struct {
	Count     int      `json:"count"`
	Addresses []string `json:"addresses"`
}

// CapabilityEntry describes a capability record in RPC results.
type CapabilityEntry struct {
	ID     string `json:"id"`
	Kind   string `json:"kind"`
	Holder string `json:"holder"`
}

// CapabilitiesResult is returned by kanari_getCapabilities.
type CapabilitiesResult struct {
	Capabilities []CapabilityEntry `json:"capabilities"`
}

// EventEntry describes a token journal event in RPC results.
type EventEntry struct {
	Seq        uint64 `json:"seq"`
	Type       string `json:"type"`
	From       string `json:"from,omitempty"`
	To         string `json:"to,omitempty"`
	Amount     uint64 `json:"amount,omitempty"`
	Capability string `json:"capability,omitempty"`
	Supply     uint64 `json:"supply"`
}

// EventsResult is returned by kanari_getTokenEvents.
type EventsResult struct {
	Count  int          `json:"count"`
	Events []EventEntry `json:"events"`
}
