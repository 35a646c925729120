// Package rpcclient provides a JSON-RPC 2.0 client for kanarid nodes.
package rpcclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kanari-network/kanari-go/internal/rpc"
	"github.com/kanari-network/kanari-go/pkg/tx"
)

// Client is a JSON-RPC 2.0 HTTP client.
type Client struct {
	endpoint string
	http     *http.Client
}

// New creates a new RPC client targeting the given endpoint URL.
func New(endpoint string) *Client {
	return NewWithTimeout(endpoint, 10*time.Second)
}

// NewWithTimeout creates a new RPC client with a custom HTTP timeout.
func NewWithTimeout(endpoint string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		endpoint: endpoint,
		http: &http.Client{
			Timeout: timeout,
		},
	}
}

// request is a JSON-RPC 2.0 request.
type request struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
	ID      int         `json:"id"`
}

// response is a JSON-RPC 2.0 response.
type response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
	ID      int             `json:"id"`
}

// rpcError is a JSON-RPC 2.0 error.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// RPCError is returned when the server responds with an error.
type RPCError struct {
	Code    int
	Message string
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Call invokes a JSON-RPC method and unmarshals the result into the provided pointer.
// If result is nil, the response result is discarded.
func (c *Client) Call(method string, params, result interface{}) error {
	req := request{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      1,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	resp, err := c.http.Post(c.endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var rpcResp response
	if err := json.Unmarshal(data, &rpcResp); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	if rpcResp.Error != nil {
		return &RPCError{
			Code:    rpcResp.Error.Code,
			Message: rpcResp.Error.Message,
		}
	}

	if result != nil && rpcResp.Result != nil {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return fmt.Errorf("decode result: %w", err)
		}
	}

	return nil
}

// ── Typed convenience wrappers ──────────────────────────────────────────

// NodeInfo returns chain identity and tip state.
func (c *Client) NodeInfo() (*rpc.NodeInfoResult, error) {
	var out rpc.NodeInfoResult
	if err := c.Call("kanari_getNodeInfo", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// BlockHeight returns the current tip height.
func (c *Client) BlockHeight() (uint64, error) {
	var out uint64
	if err := c.Call("kanari_getBlockHeight", nil, &out); err != nil {
		return 0, err
	}
	return out, nil
}

// LatestBlock returns the tip block.
func (c *Client) LatestBlock() (*rpc.BlockResult, error) {
	var out rpc.BlockResult
	if err := c.Call("kanari_getLatestBlock", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// BlockByHash returns the block with the given hex hash.
func (c *Client) BlockByHash(hash string) (*rpc.BlockResult, error) {
	var out rpc.BlockResult
	if err := c.Call("kanari_getBlockByHash", rpc.HashParam{Hash: hash}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// BlockByNumber returns the block at the given height.
func (c *Client) BlockByNumber(height uint64) (*rpc.BlockResult, error) {
	var out rpc.BlockResult
	if err := c.Call("kanari_getBlockByNumber", rpc.NumberParam{Number: height}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Balance returns the balance, nonce, and deny status of an address.
func (c *Client) Balance(address string) (*rpc.BalanceResult, error) {
	var out rpc.BalanceResult
	if err := c.Call("kanari_getBalance", rpc.AddressParam{Address: address}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TokenInfo returns the KARI metadata and current supply.
func (c *Client) TokenInfo() (*rpc.TokenInfoResult, error) {
	var out rpc.TokenInfoResult
	if err := c.Call("kanari_getKariTokenInfo", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SendTransaction submits a signed transaction.
func (c *Client) SendTransaction(t *tx.Transaction) (*rpc.SendTxResult, error) {
	var out rpc.SendTxResult
	if err := c.Call("kanari_sendTransaction", rpc.SendTxParam{Transaction: t}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateBlock asks the node to seal pending transactions into a block.
// Fails unless the node holds the administrator key.
func (c *Client) CreateBlock() (*rpc.CreateBlockResult, error) {
	var out rpc.CreateBlockResult
	if err := c.Call("kanari_createBlock", struct{}{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TokenEvents returns a page of the token event journal.
func (c *Client) TokenEvents(from uint64, limit int) (*rpc.EventsResult, error) {
	var out rpc.EventsResult
	if err := c.Call("kanari_getTokenEvents", rpc.EventsParam{From: from, Limit: limit}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DenyList returns the full deny list.
func (c *Client) DenyList() (*rpc.DenyListResult, error) {
	var out rpc.DenyListResult
	if err := c.Call("kanari_getDenyList", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Capabilities returns the capability records and their holders.
func (c *Client) Capabilities() (*rpc.CapabilitiesResult, error) {
	var out rpc.CapabilitiesResult
	if err := c.Call("kanari_getCapabilities", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
