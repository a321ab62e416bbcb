// Package config loads the node's startup configuration: command line
// flags for where it listens and what it calls itself, and an optional
// TOML file selecting which subsystems (proof-of-work, transactions) are
// active and with what parameters.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
)

// BlockGen carries the proof-of-work retargeting parameters. A node
// started without a [block_gen] section in its config file runs with
// proof-of-work disabled.
type BlockGen struct {
	TimeExpected                int     `toml:"time_expected"`
	DifficultyInit              float64 `toml:"difficulty_init"`
	DifficultyAdjustAfter       int     `toml:"difficulty_adjust_after"`
	DifficultyAdjustFactorLimit float64 `toml:"difficulty_adjust_factor_limit"`
}

// Transaction carries the transaction subsystem's parameters. A node
// started without a [transaction] section runs with transactions
// disabled and never builds a UTXO set or mempool.
type Transaction struct {
	RewardAmount uint64 `toml:"reward_amount"`
}

// file is the shape of the TOML configuration file.
type file struct {
	BlockGen    *BlockGen    `toml:"block_gen"`
	Transaction *Transaction `toml:"transaction"`
}

// Config is the fully resolved, immutable configuration a node runs
// with: its own identity, where it listens, and which optional
// subsystems are active. It is loaded once at startup and passed by
// reference into the subsystems that need it; there is no singleton.
type Config struct {
	Name          string
	ConfigPath    string
	WebsocketHost string
	WebsocketPort int
	HTTPHost      string
	HTTPPort      int
	Verbose       bool
	BlockGen      *BlockGen
	Transaction   *Transaction
}

// Set of exit codes this package's callers should use, per the CLI
// contract: 2 for an unrecognized flag, 1 for any other startup failure
// (a malformed config file, a missing required flag).
const (
	ExitUnknownFlag = 2
	ExitFailure     = 1
)

// ErrUnknownFlag marks an error produced by an unrecognized flag, so
// main can tell it apart from an otherwise malformed invocation and
// exit with the code the CLI contract requires.
type ErrUnknownFlag struct {
	Err error
}

func (e *ErrUnknownFlag) Error() string {
	return e.Err.Error()
}

func (e *ErrUnknownFlag) Unwrap() error {
	return e.Err
}

// Parse builds the node's Config from args: the --name, --config,
// --websocket-host, --websocket-port, --http-host, --http-port and
// --verbose flags, plus whatever [block_gen]/[transaction] sections are
// present in the file --config points at.
func Parse(args []string) (Config, error) {
	var cfg Config

	cmd := &cobra.Command{
		Use:           "node",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return nil
		},
	}

	cmd.Flags().StringVar(&cfg.Name, "name", "", "this node's advertised identity")
	cmd.Flags().StringVar(&cfg.ConfigPath, "config", "", "path to the TOML configuration file")
	cmd.Flags().StringVar(&cfg.WebsocketHost, "websocket-host", "", "host the peer-to-peer websocket listener binds to")
	cmd.Flags().IntVar(&cfg.WebsocketPort, "websocket-port", 0, "port the peer-to-peer websocket listener binds to")
	cmd.Flags().StringVar(&cfg.HTTPHost, "http-host", "", "host the HTTP API listener binds to")
	cmd.Flags().IntVar(&cfg.HTTPPort, "http-port", 0, "port the HTTP API listener binds to")
	cmd.Flags().BoolVar(&cfg.Verbose, "verbose", false, "enable verbose logging")

	cmd.SetArgs(args)

	if err := cmd.Execute(); err != nil {
		if isUnknownFlagError(err) {
			return Config{}, &ErrUnknownFlag{Err: err}
		}
		return Config{}, fmt.Errorf("parsing flags: %w", err)
	}

	for _, required := range []struct {
		name string
		set  bool
	}{
		{"name", cfg.Name != ""},
		{"websocket-host", cfg.WebsocketHost != ""},
		{"websocket-port", cfg.WebsocketPort != 0},
		{"http-host", cfg.HTTPHost != ""},
		{"http-port", cfg.HTTPPort != 0},
	} {
		if !required.set {
			return Config{}, fmt.Errorf("missing required flag --%s", required.name)
		}
	}

	if cfg.ConfigPath != "" {
		blockGen, txn, err := loadFile(cfg.ConfigPath)
		if err != nil {
			return Config{}, err
		}
		cfg.BlockGen = blockGen
		cfg.Transaction = txn
	}

	return cfg, nil
}

// isUnknownFlagError reports whether err is pflag's own "unrecognized
// flag" error rather than some other flag-parsing failure (a malformed
// value for a flag that does exist, for instance), so only a genuinely
// unknown flag maps to ExitUnknownFlag.
func isUnknownFlagError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "unknown flag:") ||
		strings.Contains(msg, "unknown shorthand flag:") ||
		strings.Contains(msg, "unknown command")
}

// loadFile reads and decodes the TOML configuration file at path. A
// missing section yields a nil pointer, which callers treat as that
// subsystem being disabled.
func loadFile(path string) (*BlockGen, *Transaction, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading config file: %w", err)
	}

	var f file
	if err := toml.Unmarshal(raw, &f); err != nil {
		return nil, nil, fmt.Errorf("parsing config file: %w", err)
	}

	return f.BlockGen, f.Transaction, nil
}
