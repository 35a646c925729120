package rpc

import (
	"errors"
	"fmt"
	"time"

	"github.com/kanari-network/kanari-go/config"
	"github.com/kanari-network/kanari-go/internal/storage"
	"github.com/kanari-network/kanari-go/internal/token"
	"github.com/kanari-network/kanari-go/pkg/block"
	"github.com/kanari-network/kanari-go/pkg/tx"
	"github.com/kanari-network/kanari-go/pkg/types"
)

// handleGetNodeInfo returns node identity, chain tip, and uptime.
func (s *Server) handleGetNodeInfo(req *Request) (interface{}, *Error) {
	nodeType := "observer"
	if s.adminKey != nil {
		nodeType = "sealer"
	}
	var uptime uint64
	if !s.started.IsZero() {
		uptime = uint64(time.Since(s.started).Seconds())
	}
	return &NodeInfoResult{
		Version:     config.Version,
		ChainID:     s.genesis.ChainID,
		ChainName:   s.genesis.ChainName,
		NodeType:    nodeType,
		Height:      s.ledger.Height(),
		TipHash:     s.ledger.TipHash().String(),
		GenesisHash: s.ledger.GenesisHash().String(),
		Pending:     s.PendingCount(),
		Sealer:      s.adminKey != nil,
		Uptime:      uptime,
	}, nil
}

// handleGetChainID returns the numeric chain ID.
func (s *Server) handleGetChainID(req *Request) (interface{}, *Error) {
	return s.genesis.ChainID, nil
}

// handleGetBlockHeight returns the current tip height.
func (s *Server) handleGetBlockHeight(req *Request) (interface{}, *Error) {
	return s.ledger.Height(), nil
}

// handleGetLatestBlock returns the tip block.
func (s *Server) handleGetLatestBlock(req *Request) (interface{}, *Error) {
	blk, err := s.ledger.GetBlock(s.ledger.TipHash())
	if err != nil {
		return nil, internalError(err)
	}
	return NewBlockResult(blk), nil
}

// handleGetBlockByHash returns the block with the given hash.
func (s *Server) handleGetBlockByHash(req *Request) (interface{}, *Error) {
	var p HashParam
	if rpcErr := parseParams(req, &p); rpcErr != nil {
		return nil, rpcErr
	}
	hash, err := types.HexToHash(p.Hash)
	if err != nil {
		return nil, &Error{Code: CodeInvalidParams, Message: fmt.Sprintf("invalid hash: %v", err)}
	}

	blk, err := s.ledger.GetBlock(hash)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, &Error{Code: CodeNotFound, Message: "block not found"}
	}
	if err != nil {
		return nil, internalError(err)
	}
	return NewBlockResult(blk), nil
}

// handleGetBlockByNumber returns the block at the given height.
func (s *Server) handleGetBlockByNumber(req *Request) (interface{}, *Error) {
	var p NumberParam
	if rpcErr := parseParams(req, &p); rpcErr != nil {
		return nil, rpcErr
	}

	blk, err := s.ledger.GetBlockByHeight(p.Number)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, &Error{Code: CodeNotFound, Message: fmt.Sprintf("no block at height %d", p.Number)}
	}
	if err != nil {
		return nil, internalError(err)
	}
	return NewBlockResult(blk), nil
}

// handleGetBalance returns the token balance, nonce, and deny status of
// an address.
func (s *Server) handleGetBalance(req *Request) (interface{}, *Error) {
	var p AddressParam
	if rpcErr := parseParams(req, &p); rpcErr != nil {
		return nil, rpcErr
	}
	addr, err := types.ParseAddress(p.Address)
	if err != nil {
		return nil, &Error{Code: CodeInvalidParams, Message: fmt.Sprintf("invalid address: %v", err)}
	}

	balance, err := s.engine.BalanceOf(addr)
	if err != nil {
		return nil, internalError(err)
	}
	nonce, err := s.engine.NonceOf(addr)
	if err != nil {
		return nil, internalError(err)
	}
	denied, err := s.engine.IsDenied(addr)
	if err != nil {
		return nil, internalError(err)
	}

	return &BalanceResult{
		Address: addr.String(),
		Balance: balance,
		Nonce:   nonce,
		Denied:  denied,
	}, nil
}

// handleGetTokenInfo returns the KARI metadata and current supply.
func (s *Server) handleGetTokenInfo(req *Request) (interface{}, *Error) {
	meta, err := s.engine.Metadata()
	if errors.Is(err, token.ErrNotInitialized) {
		return nil, &Error{Code: CodeNotFound, Message: "token not initialized"}
	}
	if err != nil {
		return nil, internalError(err)
	}
	supply, err := s.engine.Supply()
	if err != nil {
		return nil, internalError(err)
	}

	return &TokenInfoResult{
		Name:        meta.Name,
		Symbol:      meta.Symbol,
		Decimals:    meta.Decimals,
		Description: meta.Description,
		IconURL:     meta.IconURL,
		TotalSupply: supply,
	}, nil
}

// handleSendTransaction applies a signed transaction to the token engine
// and stages its payload for the next sealed block.
func (s *Server) handleSendTransaction(req *Request) (interface{}, *Error) {
	var p SendTxParam
	if rpcErr := parseParams(req, &p); rpcErr != nil {
		return nil, rpcErr
	}
	if p.Transaction == nil {
		return nil, &Error{Code: CodeInvalidParams, Message: "transaction required"}
	}

	payload, err := p.Transaction.Encode()
	if err != nil {
		return nil, &Error{Code: CodeInvalidParams, Message: fmt.Sprintf("encode transaction: %v", err)}
	}
	if len(payload) > block.MaxTxPayload {
		return nil, &Error{Code: CodeInvalidParams, Message: "transaction too large"}
	}

	s.pendingMu.Lock()
	full := len(s.pending) >= maxPendingTxs
	s.pendingMu.Unlock()
	if full {
		return nil, &Error{Code: CodeRejected, Message: "pending queue full"}
	}

	if err := s.engine.Apply(p.Transaction); err != nil {
		return nil, tokenError(err)
	}

	s.pendingMu.Lock()
	s.pending = append(s.pending, payload)
	s.pendingMu.Unlock()

	hash := p.Transaction.Hash()
	s.logger.Info().
		Str("tx", hash.String()).
		Str("op", p.Transaction.Op.String()).
		Msg("Transaction accepted")
	return &SendTxResult{TxHash: hash.String()}, nil
}

// handleCreateBlock seals the staged transactions into a new block. Only
// the node holding the administrator key can serve this.
func (s *Server) handleCreateBlock(req *Request) (interface{}, *Error) {
	if s.adminKey == nil {
		return nil, &Error{Code: CodeUnauthorized, Message: "node has no administrator key"}
	}

	s.sealMu.Lock()
	defer s.sealMu.Unlock()

	s.pendingMu.Lock()
	n := len(s.pending)
	if n > block.MaxBlockTxs {
		n = block.MaxBlockTxs
	}
	payloads := s.pending[:n]
	s.pendingMu.Unlock()

	// Timestamps must strictly increase along the chain.
	parent, err := s.ledger.GetBlock(s.ledger.TipHash())
	if err != nil {
		return nil, internalError(err)
	}
	sealTime := uint64(time.Now().Unix())
	if sealTime <= parent.Header.Time {
		sealTime = parent.Header.Time + 1
	}

	blk, err := s.ledger.Seal(s.adminKey, sealTime, 0, payloads)
	if err != nil {
		if errors.Is(err, block.ErrInvalidReference) || errors.Is(err, block.ErrUnauthorized) {
			return nil, &Error{Code: CodeRejected, Message: err.Error()}
		}
		return nil, internalError(err)
	}

	s.pendingMu.Lock()
	s.pending = s.pending[n:]
	s.pendingMu.Unlock()

	return &CreateBlockResult{
		BlockHash: blk.Hash().String(),
		Height:    blk.Header.Height,
		TxCount:   len(blk.Transactions),
	}, nil
}

// handleGetTokenEvents returns a page of the token event journal.
func (s *Server) handleGetTokenEvents(req *Request) (interface{}, *Error) {
	var p EventsParam
	if req.Params != nil {
		if rpcErr := parseParams(req, &p); rpcErr != nil {
			return nil, rpcErr
		}
	}
	if p.Limit <= 0 || p.Limit > 1000 {
		p.Limit = 1000
	}

	events, err := s.engine.Events(p.From, p.Limit)
	if err != nil {
		return nil, internalError(err)
	}

	entries := make([]EventEntry, 0, len(events))
	for _, ev := range events {
		entry := EventEntry{
			Seq:    ev.Seq,
			Type:   string(ev.Type),
			Amount: ev.Amount,
			Supply: ev.Supply,
		}
		if ev.From != (types.Address{}) {
			entry.From = ev.From.String()
		}
		if ev.To != (types.Address{}) {
			entry.To = ev.To.String()
		}
		if ev.Capability != (types.CapabilityID{}) {
			entry.Capability = ev.Capability.String()
		}
		entries = append(entries, entry)
	}
	return &EventsResult{Count: len(entries), Events: entries}, nil
}

// handleGetDenyList returns the full deny list.
func (s *Server) handleGetDenyList(req *Request) (interface{}, *Error) {
	addrs, err := s.engine.DenyList()
	if err != nil {
		return nil, internalError(err)
	}
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, a.String())
	}
	return &DenyListResult{Count: len(out), Addresses: out}, nil
}

// handleGetCapabilities returns the capability records and their holders.
func (s *Server) handleGetCapabilities(req *Request) (interface{}, *Error) {
	caps, err := s.engine.Capabilities()
	if err != nil {
		return nil, internalError(err)
	}
	entries := make([]CapabilityEntry, 0, len(caps))
	for _, c := range caps {
		entries = append(entries, CapabilityEntry{
			ID:     c.ID.String(),
			Kind:   c.Kind.String(),
			Holder: c.Holder.String(),
		})
	}
	return &CapabilitiesResult{Capabilities: entries}, nil
}

// tokenError maps token engine failures to JSON-RPC error objects.
func tokenError(err error) *Error {
	switch {
	case errors.Is(err, token.ErrUnauthorized):
		return &Error{Code: CodeUnauthorized, Message: err.Error()}
	case errors.Is(err, token.ErrUnknownCapability),
		errors.Is(err, token.ErrNotInitialized):
		return &Error{Code: CodeNotFound, Message: err.Error()}
	case errors.Is(err, token.ErrZeroAmount),
		errors.Is(err, token.ErrInsufficientBalance),
		errors.Is(err, token.ErrDeniedAddress),
		errors.Is(err, token.ErrBadNonce),
		errors.Is(err, token.ErrSupplyOverflow),
		errors.Is(err, tx.ErrBadSignature):
		return &Error{Code: CodeRejected, Message: err.Error()}
	default:
		return internalError(err)
	}
}

func internalError(err error) *Error {
	return &Error{Code: CodeInternalError, Message: err.Error()}
}
