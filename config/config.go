// Package config handles application configuration.
//
// Configuration is split into two categories:
//   - Protocol rules: Defined in genesis, immutable, must match across all nodes
//   - Node settings: Runtime configuration, can vary per node
package config

import (
	"net"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
)

// Version is the node software version reported by --version and RPC.
const Version = "0.1.0"

// NetworkType identifies mainnet or testnet.
type NetworkType string

const (
	Mainnet NetworkType = "mainnet"
	Testnet NetworkType = "testnet"
)

// =============================================================================
// Node Configuration (runtime, per-node settings)
// =============================================================================

// Config holds node-specific runtime configuration.
// These settings can vary between nodes without breaking the ledger rules.
type Config struct {
	// Core
	Network NetworkType `conf:"network"`
	DataDir string      `conf:"datadir"`

	// Custom genesis file (empty = built-in genesis for the network).
	GenesisFile string `conf:"genesis"`

	// RPC server
	RPC RPCConfig

	// Administrator (block sealing)
	Admin AdminConfig

	// Logging
	Log LogConfig
}

// RPCConfig holds RPC server settings.
type RPCConfig struct {
	Enabled     bool     `conf:"rpc.enabled"`
	Addr        string   `conf:"rpc.addr"`
	Port        int      `conf:"rpc.port"`
	AllowedIPs  []string `conf:"rpc.allowed"`
	CORSOrigins []string `conf:"rpc.cors"` // Allowed CORS origins ("*" = all).
}

// AdminConfig holds administrator key settings. Only the node run by the
// chain administrator sets these; everyone else runs read-only.
type AdminConfig struct {
	KeyFile string `conf:"admin.keyfile"` // Path to the admin private key.
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `conf:"log.level"`
	File  string `conf:"log.file"`
	JSON  bool   `conf:"log.json"`
}

// =============================================================================
// Directory helpers
// =============================================================================

// DefaultDataDir returns the platform-specific default data directory.
//
//	Linux:   ~/.kanari
//	macOS:   ~/Library/Application Support/Kanari
//	Windows: %APPDATA%\Kanari
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".kanari"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Kanari")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "Kanari")
		}
		return filepath.Join(home, "AppData", "Roaming", "Kanari")
	default:
		return filepath.Join(home, ".kanari")
	}
}

// NetworkDir returns the per-network directory under the data dir.
func (c *Config) NetworkDir() string {
	return filepath.Join(c.DataDir, string(c.Network))
}

// ChainDataDir returns the block/token database directory.
func (c *Config) ChainDataDir() string {
	return filepath.Join(c.NetworkDir(), "chaindata")
}

// LogsDir returns the log file directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.NetworkDir(), "logs")
}

// RPCListenAddr returns the host:port the RPC server binds to.
func (c *Config) RPCListenAddr() string {
	return net.JoinHostPort(c.RPC.Addr, strconv.Itoa(c.RPC.Port))
}
