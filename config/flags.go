package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Flags holds parsed command-line flags.
type Flags struct {
	// Commands
	Help    bool
	Version bool

	// Core
	Network string
	DataDir string
	Config  string
	Genesis string

	// RPC
	RPC        bool
	RPCAddr    string
	RPCPort    int
	RPCAllowed string
	RPCCORS    string

	// Admin
	AdminKey string

	// Logging
	LogLevel string
	LogFile  string
	LogJSON  bool

	// Remaining args
	Args []string

	// Explicitly-set bool flags (for true/false overrides).
	SetRPC     bool
	SetLogJSON bool
}

// ParseFlags parses command-line arguments.
func ParseFlags(args []string) (*Flags, error) {
	f := &Flags{}
	fs := flag.NewFlagSet("kanarid", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	fs.BoolVar(&f.Help, "help", false, "Show help")
	fs.BoolVar(&f.Version, "version", false, "Show version")

	fs.StringVar(&f.Network, "network", "", "Network: mainnet or testnet")
	fs.StringVar(&f.DataDir, "datadir", "", "Data directory")
	fs.StringVar(&f.Config, "config", "", "Config file path")
	fs.StringVar(&f.Genesis, "genesis", "", "Custom genesis file path")

	fs.BoolVar(&f.RPC, "rpc", true, "Enable RPC server")
	fs.StringVar(&f.RPCAddr, "rpc-addr", "", "RPC listen address")
	fs.IntVar(&f.RPCPort, "rpc-port", 0, "RPC listen port")
	fs.StringVar(&f.RPCAllowed, "rpc-allowed", "", "Comma-separated allowed RPC client IPs/CIDRs")
	fs.StringVar(&f.RPCCORS, "rpc-cors", "", "Comma-separated allowed CORS origins")

	fs.StringVar(&f.AdminKey, "admin-key", "", "Path to the chain administrator keyfile (enables block sealing)")

	fs.StringVar(&f.LogLevel, "log-level", "", "Log level: debug, info, warn, error")
	fs.StringVar(&f.LogFile, "log-file", "", "Log file path")
	fs.BoolVar(&f.LogJSON, "log-json", false, "Log as JSON to stdout")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "rpc":
			f.SetRPC = true
		case "log-json":
			f.SetLogJSON = true
		}
	})

	f.Args = fs.Args()
	return f, nil
}

// Load builds the effective configuration: defaults, then config file,
// then command-line flags (highest precedence). Returns the config and
// the parsed flags.
func Load() (*Config, *Flags, error) {
	flags, err := ParseFlags(os.Args[1:])
	if err != nil {
		return nil, nil, err
	}

	if flags.Help {
		PrintUsage()
		os.Exit(0)
	}
	if flags.Version {
		fmt.Println("kanarid version " + Version)
		os.Exit(0)
	}

	network := Mainnet
	if strings.EqualFold(flags.Network, string(Testnet)) {
		network = Testnet
	} else if flags.Network != "" && !strings.EqualFold(flags.Network, string(Mainnet)) {
		return nil, nil, fmt.Errorf("unknown network %q", flags.Network)
	}

	cfg := Default(network)

	// Config file: explicit path, or <datadir>/kanari.conf if present.
	confPath := flags.Config
	if confPath == "" {
		dataDir := cfg.DataDir
		if flags.DataDir != "" {
			dataDir = flags.DataDir
		}
		confPath = filepath.Join(dataDir, "kanari.conf")
	}
	values, err := LoadFile(confPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config file %s: %w", confPath, err)
	}
	if err := ApplyFileConfig(cfg, values); err != nil {
		return nil, nil, err
	}

	// Flags override the file.
	ApplyFlags(cfg, flags)

	if err := Validate(cfg); err != nil {
		return nil, nil, err
	}
	return cfg, flags, nil
}

// ApplyFlags applies command-line flags on top of cfg.
func ApplyFlags(cfg *Config, f *Flags) {
	if f.Network != "" {
		cfg.Network = NetworkType(strings.ToLower(f.Network))
	}
	if f.DataDir != "" {
		cfg.DataDir = f.DataDir
	}
	if f.Genesis != "" {
		cfg.GenesisFile = f.Genesis
	}

	if f.SetRPC {
		cfg.RPC.Enabled = f.RPC
	}
	if f.RPCAddr != "" {
		cfg.RPC.Addr = f.RPCAddr
	}
	if f.RPCPort != 0 {
		cfg.RPC.Port = f.RPCPort
	}
	if f.RPCAllowed != "" {
		cfg.RPC.AllowedIPs = splitList(f.RPCAllowed)
	}
	if f.RPCCORS != "" {
		cfg.RPC.CORSOrigins = splitList(f.RPCCORS)
	}

	if f.AdminKey != "" {
		cfg.Admin.KeyFile = f.AdminKey
	}

	if f.LogLevel != "" {
		cfg.Log.Level = f.LogLevel
	}
	if f.LogFile != "" {
		cfg.Log.File = f.LogFile
	}
	if f.SetLogJSON {
		cfg.Log.JSON = f.LogJSON
	}
}

// PrintUsage prints daemon usage to stdout.
func PrintUsage() {
	fmt.Println(`kanarid - Kanari ledger node

Usage:
  kanarid [flags]

Flags:
  --network <name>      mainnet or testnet (default mainnet)
  --datadir <path>      Data directory
  --config <path>       Config file (default <datadir>/kanari.conf)
  --genesis <path>      Custom genesis file
  --rpc=<bool>          Enable RPC server (default true)
  --rpc-addr <addr>     RPC listen address (default 127.0.0.1)
  --rpc-port <port>     RPC listen port (default 8545, testnet 8645)
  --rpc-allowed <list>  Allowed RPC client IPs/CIDRs
  --rpc-cors <list>     Allowed CORS origins
  --admin-key <path>    Administrator keyfile (enables block sealing)
  --log-level <level>   debug, info, warn, error
  --log-file <path>     Log file path
  --log-json            JSON log output
  --help                Show this help
  --version             Show version`)
}
