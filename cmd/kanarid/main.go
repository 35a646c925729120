// Kanari full node daemon.
//
// Usage:
//
//	kanarid [--admin-key=...]  Run node (sealing enabled with admin key)
//	kanarid --help             Show help
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kanari-network/kanari-go/config"
	"github.com/kanari-network/kanari-go/internal/node"
	"github.com/kanari-network/kanari-go/pkg/crypto"
	"golang.org/x/term"
)

func main() {
	cfg, _, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Encrypted admin keyfiles need a passphrase before the node starts.
	var passphrase []byte
	if cfg.Admin.KeyFile != "" {
		data, err := os.ReadFile(cfg.Admin.KeyFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: read admin keyfile: %v\n", err)
			os.Exit(1)
		}
		if crypto.IsEncryptedKeyfile(data) {
			fmt.Fprint(os.Stderr, "Admin keyfile passphrase: ")
			passphrase, err = term.ReadPassword(int(syscall.Stdin))
			fmt.Fprintln(os.Stderr)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: read passphrase: %v\n", err)
				os.Exit(1)
			}
		}
	}

	n, err := node.New(cfg, passphrase)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := n.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		n.Stop()
		os.Exit(1)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	n.Stop()
}
