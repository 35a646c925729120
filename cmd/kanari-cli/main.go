// kanari-cli is a command-line client for interacting with a kanarid node.
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/kanari-network/kanari-go/config"
	"github.com/kanari-network/kanari-go/internal/rpcclient"
	"github.com/kanari-network/kanari-go/pkg/crypto"
	"github.com/kanari-network/kanari-go/pkg/tx"
	"github.com/kanari-network/kanari-go/pkg/types"
	"golang.org/x/term"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	// Parse global flags that appear before the subcommand.
	rpcURL := "http://127.0.0.1:8545"

	args := os.Args[1:]
	for len(args) > 0 {
		switch {
		case args[0] == "--rpc" && len(args) > 1:
			rpcURL = args[1]
			args = args[2:]
		case strings.HasPrefix(args[0], "--rpc="):
			rpcURL = args[0][len("--rpc="):]
			args = args[1:]
		default:
			goto dispatch
		}
	}

dispatch:
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	client := rpcclient.New(rpcURL)
	cmd := args[0]
	cmdArgs := args[1:]

	switch cmd {
	case "status":
		cmdStatus(client)
	case "block":
		cmdBlock(client, cmdArgs)
	case "balance":
		cmdBalance(client, cmdArgs)
	case "token":
		cmdToken(client, cmdArgs)
	case "denylist":
		cmdDenyList(client)
	case "capabilities":
		cmdCapabilities(client)
	case "send":
		cmdSend(client, cmdArgs)
	case "mint":
		cmdMint(client, cmdArgs)
	case "burn":
		cmdBurn(client, cmdArgs)
	case "deny":
		cmdDeny(client, cmdArgs)
	case "cap":
		cmdCap(client, cmdArgs)
	case "createblock":
		cmdCreateBlock(client)
	case "key":
		cmdKey(cmdArgs)
	case "help", "--help", "-h":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: kanari-cli [global flags] <command> [flags]

Global flags:
  --rpc <url>         RPC endpoint (default: http://127.0.0.1:8545)

Commands:
  status                          Show chain status
  block <hash|height>             Show block details
  balance <address>               Show KARI balance of an address
  token info                      Show KARI metadata and supply
  token events [--from n] [--limit n]
                                  Show the token event journal
  denylist                        Show the deny list
  capabilities                    Show capability holders

  send --key <file> --to <addr> --amount <KARI>
                                  Transfer KARI
  mint --key <file> --to <addr> --amount <KARI> [--cap <id>]
                                  Mint KARI (treasury capability required)
  burn --key <file> --amount <KARI> [--cap <id>]
                                  Burn KARI from own balance (treasury required)
  deny add --key <file> --address <addr> [--cap <id>]
                                  Add an address to the deny list
  deny remove --key <file> --address <addr> [--cap <id>]
                                  Remove an address from the deny list
  cap transfer --key <file> --cap <id> --to <addr>
                                  Hand a capability to a new holder
  createblock                     Seal pending transactions (admin node only)

  key new [--out <file>] [--encrypt]
                                  Generate a private key
  key show <file>                 Show pubkey and address for a keyfile
`)
}

// ── status ──────────────────────────────────────────────────────────────

func cmdStatus(client *rpcclient.Client) {
	info, err := client.NodeInfo()
	if err != nil {
		fatal("kanari_getNodeInfo: %v", err)
	}

	fmt.Printf("Node:     %s v%s\n", info.NodeType, info.Version)
	fmt.Printf("Chain:    %s (id %d)\n", info.ChainName, info.ChainID)
	fmt.Printf("Height:   %d\n", info.Height)
	fmt.Printf("Tip:      %s\n", info.TipHash)
	fmt.Printf("Genesis:  %s\n", info.GenesisHash)
	fmt.Printf("Pending:  %d\n", info.Pending)
	fmt.Printf("Sealer:   %t\n", info.Sealer)
	fmt.Printf("Uptime:   %ds\n", info.Uptime)
}

// ── block ───────────────────────────────────────────────────────────────

func cmdBlock(client *rpcclient.Client, args []string) {
	if len(args) < 1 {
		fatal("Usage: kanari-cli block <hash|height>")
	}

	arg := args[0]

	// Try as height first (pure number).
	var result *struct {
		Hash   string `json:"hash"`
		Header struct {
			PrevHash   string `json:"prev_hash"`
			MerkleRoot string `json:"merkle_root"`
			Time       uint64 `json:"time"`
			Height     uint64 `json:"height"`
			Nonce      uint64 `json:"nonce"`
		} `json:"header"`
		Transactions []string `json:"transactions"`
	}
	var err error
	if height, perr := strconv.ParseUint(arg, 10, 64); perr == nil {
		err = client.Call("kanari_getBlockByNumber", map[string]uint64{"number": height}, &result)
	} else {
		err = client.Call("kanari_getBlockByHash", map[string]string{"hash": arg}, &result)
	}
	if err != nil {
		fatal("get block: %v", err)
	}

	fmt.Printf("Hash:         %s\n", result.Hash)
	fmt.Printf("Height:       %d\n", result.Header.Height)
	fmt.Printf("Prev:         %s\n", result.Header.PrevHash)
	fmt.Printf("Merkle Root:  %s\n", result.Header.MerkleRoot)
	ts := time.Unix(int64(result.Header.Time), 0).UTC()
	fmt.Printf("Time:         %s\n", ts.Format("2006-01-02 15:04:05 UTC"))
	fmt.Printf("Transactions: %d\n", len(result.Transactions))
	for i, id := range result.Transactions {
		fmt.Printf("  [%d] %s\n", i, id)
	}
}

// ── balance ─────────────────────────────────────────────────────────────

func cmdBalance(client *rpcclient.Client, args []string) {
	if len(args) < 1 {
		fatal("Usage: kanari-cli balance <address>")
	}

	bal, err := client.Balance(args[0])
	if err != nil {
		fatal("kanari_getBalance: %v", err)
	}

	fmt.Printf("Address: %s\n", bal.Address)
	fmt.Printf("Balance: %s KARI (%d base units)\n", formatAmount(bal.Balance), bal.Balance)
	fmt.Printf("Nonce:   %d\n", bal.Nonce)
	if bal.Denied {
		fmt.Printf("Denied:  yes\n")
	}
}

// ── token ───────────────────────────────────────────────────────────────

func cmdToken(client *rpcclient.Client, args []string) {
	if len(args) < 1 {
		fatal("Usage: kanari-cli token <info|events>")
	}

	switch args[0] {
	case "info":
		info, err := client.TokenInfo()
		if err != nil {
			fatal("kanari_getKariTokenInfo: %v", err)
		}
		fmt.Printf("Name:     %s\n", info.Name)
		fmt.Printf("Symbol:   %s\n", info.Symbol)
		fmt.Printf("Decimals: %d\n", info.Decimals)
		if info.Description != "" {
			fmt.Printf("About:    %s\n", info.Description)
		}
		fmt.Printf("Supply:   %s KARI (%d base units)\n", formatAmount(info.TotalSupply), info.TotalSupply)

	case "events":
		fs := flag.NewFlagSet("token events", flag.ExitOnError)
		from := fs.Uint64("from", 0, "first sequence number")
		limit := fs.Int("limit", 50, "maximum events")
		fs.Parse(args[1:])

		events, err := client.TokenEvents(*from, *limit)
		if err != nil {
			fatal("kanari_getTokenEvents: %v", err)
		}
		for _, ev := range events.Events {
			line := fmt.Sprintf("[%d] %-12s", ev.Seq, ev.Type)
			if ev.From != "" {
				line += " from=" + ev.From
			}
			if ev.To != "" {
				line += " to=" + ev.To
			}
			if ev.Amount > 0 {
				line += fmt.Sprintf(" amount=%s", formatAmount(ev.Amount))
			}
			line += fmt.Sprintf(" supply=%s", formatAmount(ev.Supply))
			fmt.Println(line)
		}

	default:
		fatal("Unknown token subcommand: %s", args[0])
	}
}

// ── denylist / capabilities ─────────────────────────────────────────────

func cmdDenyList(client *rpcclient.Client) {
	list, err := client.DenyList()
	if err != nil {
		fatal("kanari_getDenyList: %v", err)
	}
	fmt.Printf("Denied addresses: %d\n", list.Count)
	for _, a := range list.Addresses {
		fmt.Printf("  %s\n", a)
	}
}

func cmdCapabilities(client *rpcclient.Client) {
	caps, err := client.Capabilities()
	if err != nil {
		fatal("kanari_getCapabilities: %v", err)
	}
	for _, c := range caps.Capabilities {
		fmt.Printf("%-9s %s\n", c.Kind, c.ID)
		fmt.Printf("  holder: %s\n", c.Holder)
	}
}

// ── signed operations ───────────────────────────────────────────────────

func cmdSend(client *rpcclient.Client, args []string) {
	fs := flag.NewFlagSet("send", flag.ExitOnError)
	keyPath := fs.String("key", "", "sender keyfile")
	to := fs.String("to", "", "recipient address")
	amount := fs.String("amount", "", "amount in KARI (e.g. 1.5)")
	fs.Parse(args)

	key := mustLoadKey(*keyPath)
	defer key.Zero()
	toAddr := mustParseAddress(*to)
	units := mustParseAmount(*amount)

	txn, err := tx.NewTransfer(key, toAddr, units, nextNonce(client, key))
	if err != nil {
		fatal("build transfer: %v", err)
	}
	submit(client, txn)
}

func cmdMint(client *rpcclient.Client, args []string) {
	fs := flag.NewFlagSet("mint", flag.ExitOnError)
	keyPath := fs.String("key", "", "treasury holder keyfile")
	to := fs.String("to", "", "recipient address")
	amount := fs.String("amount", "", "amount in KARI")
	capHex := fs.String("cap", "", "treasury capability ID (default: look up)")
	fs.Parse(args)

	key := mustLoadKey(*keyPath)
	defer key.Zero()
	toAddr := mustParseAddress(*to)
	units := mustParseAmount(*amount)
	capID := resolveCapability(client, *capHex, "treasury")

	txn, err := tx.NewMint(key, capID, toAddr, units, nextNonce(client, key))
	if err != nil {
		fatal("build mint: %v", err)
	}
	submit(client, txn)
}

func cmdBurn(client *rpcclient.Client, args []string) {
	fs := flag.NewFlagSet("burn", flag.ExitOnError)
	keyPath := fs.String("key", "", "treasury holder keyfile")
	amount := fs.String("amount", "", "amount in KARI")
	capHex := fs.String("cap", "", "treasury capability ID (default: look up)")
	fs.Parse(args)

	key := mustLoadKey(*keyPath)
	defer key.Zero()
	units := mustParseAmount(*amount)
	capID := resolveCapability(client, *capHex, "treasury")

	txn, err := tx.NewBurn(key, capID, units, nextNonce(client, key))
	if err != nil {
		fatal("build burn: %v", err)
	}
	submit(client, txn)
}

func cmdDeny(client *rpcclient.Client, args []string) {
	if len(args) < 1 {
		fatal("Usage: kanari-cli deny <add|remove> --key <file> --address <addr>")
	}
	sub := args[0]
	if sub != "add" && sub != "remove" {
		fatal("Unknown deny subcommand: %s", sub)
	}

	fs := flag.NewFlagSet("deny "+sub, flag.ExitOnError)
	keyPath := fs.String("key", "", "deny holder keyfile")
	address := fs.String("address", "", "target address")
	capHex := fs.String("cap", "", "deny capability ID (default: look up)")
	fs.Parse(args[1:])

	key := mustLoadKey(*keyPath)
	defer key.Zero()
	target := mustParseAddress(*address)
	capID := resolveCapability(client, *capHex, "deny")

	var txn *tx.Transaction
	var err error
	if sub == "add" {
		txn, err = tx.NewDenyAdd(key, capID, target, nextNonce(client, key))
	} else {
		txn, err = tx.NewDenyRemove(key, capID, target, nextNonce(client, key))
	}
	if err != nil {
		fatal("build deny %s: %v", sub, err)
	}
	submit(client, txn)
}

func cmdCap(client *rpcclient.Client, args []string) {
	if len(args) < 1 || args[0] != "transfer" {
		fatal("Usage: kanari-cli cap transfer --key <file> --cap <id> --to <addr>")
	}

	fs := flag.NewFlagSet("cap transfer", flag.ExitOnError)
	keyPath := fs.String("key", "", "current holder keyfile")
	capHex := fs.String("cap", "", "capability ID")
	to := fs.String("to", "", "new holder address")
	fs.Parse(args[1:])

	if *capHex == "" {
		fatal("--cap is required")
	}
	key := mustLoadKey(*keyPath)
	defer key.Zero()
	newHolder := mustParseAddress(*to)
	capID := mustParseCapability(*capHex)

	txn, err := tx.NewCapTransfer(key, capID, newHolder, nextNonce(client, key))
	if err != nil {
		fatal("build cap transfer: %v", err)
	}
	submit(client, txn)
}

func cmdCreateBlock(client *rpcclient.Client) {
	created, err := client.CreateBlock()
	if err != nil {
		fatal("kanari_createBlock: %v", err)
	}
	fmt.Printf("Block sealed\n")
	fmt.Printf("  Hash:   %s\n", created.BlockHash)
	fmt.Printf("  Height: %d\n", created.Height)
	fmt.Printf("  Txs:    %d\n", created.TxCount)
}

// ── key management ──────────────────────────────────────────────────────

func cmdKey(args []string) {
	if len(args) < 1 {
		fatal("Usage: kanari-cli key <new|show>")
	}

	switch args[0] {
	case "new":
		fs := flag.NewFlagSet("key new", flag.ExitOnError)
		out := fs.String("out", "", "write keyfile here (default: print to stdout)")
		encrypt := fs.Bool("encrypt", false, "encrypt the keyfile with a passphrase")
		fs.Parse(args[1:])

		key, err := crypto.GenerateKey()
		if err != nil {
			fatal("generate key: %v", err)
		}
		defer key.Zero()

		addr := crypto.AddressFromPubKey(key.PublicKey())
		fmt.Printf("pubkey=%s\n", hex.EncodeToString(key.PublicKey()))
		fmt.Printf("address=%s\n", addr)

		if *out == "" {
			if *encrypt {
				fatal("--encrypt requires --out")
			}
			fmt.Printf("private=%s\n", hex.EncodeToString(key.Serialize()))
			return
		}

		var data []byte
		if *encrypt {
			pass, err := readPassword("Keyfile passphrase: ")
			if err != nil {
				fatal("read passphrase: %v", err)
			}
			confirm, err := readPassword("Confirm passphrase: ")
			if err != nil {
				fatal("read passphrase: %v", err)
			}
			if string(pass) != string(confirm) {
				fatal("passphrases do not match")
			}
			data, err = crypto.EncryptKey(key, pass, crypto.DefaultKDFParams())
			if err != nil {
				fatal("encrypt key: %v", err)
			}
		} else {
			data = []byte(hex.EncodeToString(key.Serialize()) + "\n")
		}
		if err := os.WriteFile(*out, data, 0600); err != nil {
			fatal("write keyfile: %v", err)
		}
		fmt.Printf("keyfile written to %s\n", *out)

	case "show":
		if len(args) < 2 {
			fatal("Usage: kanari-cli key show <file>")
		}
		key := mustLoadKey(args[1])
		defer key.Zero()
		fmt.Printf("pubkey=%s\n", hex.EncodeToString(key.PublicKey()))
		fmt.Printf("address=%s\n", crypto.AddressFromPubKey(key.PublicKey()))

	default:
		fatal("Unknown key subcommand: %s", args[0])
	}
}

// ── helpers ─────────────────────────────────────────────────────────────

// submit sends a signed transaction and prints the accepted hash.
func submit(client *rpcclient.Client, txn *tx.Transaction) {
	sent, err := client.SendTransaction(txn)
	if err != nil {
		fatal("kanari_sendTransaction: %v", err)
	}
	fmt.Printf("Transaction accepted: %s\n", sent.TxHash)
}

// nextNonce queries the sender's last accepted nonce and returns the next.
func nextNonce(client *rpcclient.Client, key *crypto.PrivateKey) uint64 {
	addr := crypto.AddressFromPubKey(key.PublicKey())
	bal, err := client.Balance(addr.String())
	if err != nil {
		fatal("kanari_getBalance: %v", err)
	}
	return bal.Nonce + 1
}

// resolveCapability returns the capability ID from hex, or looks up the
// deployment's capability of the given kind when hex is empty.
func resolveCapability(client *rpcclient.Client, capHex, kind string) types.CapabilityID {
	if capHex != "" {
		return mustParseCapability(capHex)
	}
	caps, err := client.Capabilities()
	if err != nil {
		fatal("kanari_getCapabilities: %v", err)
	}
	for _, c := range caps.Capabilities {
		if c.Kind == kind {
			return mustParseCapability(c.ID)
		}
	}
	fatal("no %s capability found on this chain", kind)
	return types.CapabilityID{}
}

func mustLoadKey(path string) *crypto.PrivateKey {
	if path == "" {
		fatal("--key is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		fatal("read keyfile: %v", err)
	}
	var pass []byte
	if crypto.IsEncryptedKeyfile(data) {
		pass, err = readPassword("Keyfile passphrase: ")
		if err != nil {
			fatal("read passphrase: %v", err)
		}
	}
	key, err := crypto.LoadKeyfile(path, pass)
	if err != nil {
		fatal("load keyfile: %v", err)
	}
	return key
}

func mustParseAddress(s string) types.Address {
	if s == "" {
		fatal("address is required")
	}
	addr, err := types.ParseAddress(s)
	if err != nil {
		fatal("invalid address %q: %v", s, err)
	}
	return addr
}

func mustParseCapability(s string) types.CapabilityID {
	h, err := types.HexToHash(s)
	if err != nil {
		fatal("invalid capability ID %q: %v", s, err)
	}
	return types.CapabilityID(h)
}

// formatAmount renders base units as a decimal KARI amount.
func formatAmount(units uint64) string {
	whole := units / config.Coin
	frac := units % config.Coin
	return fmt.Sprintf("%d.%08d", whole, frac)
}

// mustParseAmount converts a decimal KARI amount ("1.5") to base units.
func mustParseAmount(s string) uint64 {
	if s == "" {
		fatal("--amount is required")
	}
	units, err := parseAmount(s)
	if err != nil {
		fatal("invalid amount %q: %v", s, err)
	}
	return units
}

func parseAmount(s string) (uint64, error) {
	parts := strings.SplitN(s, ".", 2)
	whole, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return 0, err
	}
	var frac uint64
	if len(parts) == 2 {
		fracStr := parts[1]
		if len(fracStr) > config.Decimals {
			return 0, fmt.Errorf("more than %d decimal places", config.Decimals)
		}
		for len(fracStr) < config.Decimals {
			fracStr += "0"
		}
		frac, err = strconv.ParseUint(fracStr, 10, 64)
		if err != nil {
			return 0, err
		}
	}
	const maxWhole = ^uint64(0) / config.Coin
	if whole > maxWhole || (whole == maxWhole && frac > ^uint64(0)%config.Coin) {
		return 0, fmt.Errorf("amount overflows")
	}
	return whole*config.Coin + frac, nil
}

// ── Password helper ─────────────────────────────────────────────────────

func readPassword(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr) // newline after hidden input
	if err != nil {
		return nil, err
	}
	return password, nil
}

// ── Error helper ────────────────────────────────────────────────────────

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
