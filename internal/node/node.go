// Package node assembles a full kanarid node: storage, ledger, token
// engine, and the RPC server. It can be embedded in any binary.
package node

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kanari-network/kanari-go/config"
	"github.com/kanari-network/kanari-go/internal/ledger"
	klog "github.com/kanari-network/kanari-go/internal/log"
	"github.com/kanari-network/kanari-go/internal/rpc"
	"github.com/kanari-network/kanari-go/internal/storage"
	"github.com/kanari-network/kanari-go/internal/token"
	"github.com/kanari-network/kanari-go/pkg/crypto"
	"github.com/rs/zerolog"
)

// Node is a fully-initialized kanarid node.
type Node struct {
	cfg     *config.Config
	genesis *config.Genesis
	logger  zerolog.Logger

	db     storage.DB
	ledger *ledger.Ledger
	engine *token.Engine

	// adminKey is set only on the chain administrator's node.
	adminKey *crypto.PrivateKey

	rpcServer *rpc.Server
}

// New creates and initializes a Node. It performs all setup (logger,
// genesis, storage, ledger, token engine, admin key) but does not bind
// the RPC listener. Call Start for that.
//
// adminPassphrase is used only when the configured admin keyfile is
// encrypted; pass nil for plain keyfiles or read-only nodes.
func New(cfg *config.Config, adminPassphrase []byte) (*Node, error) {
	// ── 1. Init logger ──────────────────────────────────────────────
	logFile := cfg.Log.File
	if logFile == "" {
		logsDir := cfg.LogsDir()
		if err := os.MkdirAll(logsDir, 0755); err != nil {
			return nil, fmt.Errorf("creating logs dir: %w", err)
		}
		logFile = filepath.Join(logsDir, "kanarid.log")
	}
	if err := klog.Init(cfg.Log.Level, cfg.Log.JSON, logFile); err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}
	logger := klog.Node

	// ── 2. Genesis ──────────────────────────────────────────────────
	var genesis *config.Genesis
	var err error
	if cfg.GenesisFile != "" {
		genesis, err = config.LoadGenesis(cfg.GenesisFile)
		if err != nil {
			return nil, err
		}
	} else {
		genesis = config.GenesisFor(cfg.Network)
	}

	logger.Info().
		Uint64("chain_id", genesis.ChainID).
		Str("chain_name", genesis.ChainName).
		Str("network", string(cfg.Network)).
		Msg("Starting Kanari node")

	// ── 3. Open storage ─────────────────────────────────────────────
	db, err := storage.NewBadger(cfg.ChainDataDir())
	if err != nil {
		return nil, fmt.Errorf("open database at %s: %w", cfg.ChainDataDir(), err)
	}
	logger.Info().Str("path", cfg.ChainDataDir()).Msg("Database opened")

	// ── 4. Ledger ───────────────────────────────────────────────────
	l, err := ledger.New(db, genesis)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	if l.Height() == 0 {
		logger.Info().Str("genesis", l.GenesisHash().String()).Msg("Chain at genesis")
	} else {
		logger.Info().
			Uint64("height", l.Height()).
			Str("tip", l.TipHash().String()[:16]+"...").
			Msg("Chain resumed from database")
	}

	// ── 5. Token engine ─────────────────────────────────────────────
	engine := token.NewEngine(db)
	initialized, err := engine.Initialized()
	if err != nil {
		db.Close()
		return nil, err
	}
	if !initialized {
		if _, _, err := engine.Init(genesis); err != nil {
			db.Close()
			return nil, fmt.Errorf("init token: %w", err)
		}
	}

	// ── 6. Admin key ────────────────────────────────────────────────
	var adminKey *crypto.PrivateKey
	if cfg.Admin.KeyFile != "" {
		adminKey, err = crypto.LoadKeyfile(cfg.Admin.KeyFile, adminPassphrase)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("load admin key %s: %w", cfg.Admin.KeyFile, err)
		}
		// The key must actually be the administrator named in genesis.
		adminPub, err := genesis.AdminPubKeyBytes()
		if err != nil {
			db.Close()
			adminKey.Zero()
			return nil, err
		}
		if crypto.AddressFromPubKey(adminKey.PublicKey()) != crypto.AddressFromPubKey(adminPub) {
			db.Close()
			adminKey.Zero()
			return nil, fmt.Errorf("admin keyfile does not match the genesis administrator")
		}
		logger.Info().Msg("Administrator key loaded, block sealing enabled")
	}

	n := &Node{
		cfg:      cfg,
		genesis:  genesis,
		logger:   logger,
		db:       db,
		ledger:   l,
		engine:   engine,
		adminKey: adminKey,
	}

	if cfg.RPC.Enabled {
		n.rpcServer = rpc.New(cfg.RPCListenAddr(), l, engine, genesis, adminKey, cfg.RPC)
	}
	return n, nil
}

// Start binds the RPC listener (when enabled).
func (n *Node) Start() error {
	if n.rpcServer == nil {
		n.logger.Warn().Msg("RPC disabled, node is storage-only")
		return nil
	}
	if err := n.rpcServer.Start(); err != nil {
		return err
	}
	n.logger.Info().Str("addr", n.rpcServer.Addr()).Msg("RPC server listening")
	return nil
}

// Stop shuts down the RPC server, wipes the admin key, and closes storage.
func (n *Node) Stop() error {
	if n.rpcServer != nil {
		if err := n.rpcServer.Stop(); err != nil {
			n.logger.Error().Err(err).Msg("RPC shutdown error")
		}
	}
	if n.adminKey != nil {
		n.adminKey.Zero()
	}
	err := n.db.Close()
	n.logger.Info().Msg("Node stopped")
	return err
}

// Ledger returns the node's block chain.
func (n *Node) Ledger() *ledger.Ledger {
	return n.ledger
}

// Engine returns the node's token engine.
func (n *Node) Engine() *token.Engine {
	return n.engine
}

// Genesis returns the node's genesis configuration.
func (n *Node) Genesis() *config.Genesis {
	return n.genesis
}

// RPCAddr returns the bound RPC address, or "" when RPC is disabled.
func (n *Node) RPCAddr() string {
	if n.rpcServer == nil {
		return ""
	}
	return n.rpcServer.Addr()
}

// IsSealer reports whether this node holds the administrator key.
func (n *Node) IsSealer() bool {
	return n.adminKey != nil
}
