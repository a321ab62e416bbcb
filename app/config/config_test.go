package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ardanlabs/blocknode/app/config"
)

func requiredArgs(extra ...string) []string {
	base := []string{
		"--name", "node1",
		"--websocket-host", "0.0.0.0",
		"--websocket-port", "9000",
		"--http-host", "0.0.0.0",
		"--http-port", "8000",
	}
	return append(base, extra...)
}

func Test_ParseMinimalFlags(t *testing.T) {
	cfg, err := config.Parse(requiredArgs())
	if err != nil {
		t.Fatalf("should parse a fully specified flag set: %s", err)
	}

	if cfg.Name != "node1" || cfg.WebsocketPort != 9000 || cfg.HTTPPort != 8000 {
		t.Fatalf("should populate every required field: %+v", cfg)
	}

	if cfg.BlockGen != nil || cfg.Transaction != nil {
		t.Fatalf("should leave both optional subsystems disabled without a --config file")
	}
}

func Test_ParseMissingRequiredFlag(t *testing.T) {
	args := []string{"--name", "node1"}
	if _, err := config.Parse(args); err == nil {
		t.Fatalf("should reject a flag set missing required fields")
	}
}

func Test_ParseUnknownFlag(t *testing.T) {
	args := requiredArgs("--does-not-exist")
	_, err := config.Parse(args)
	if err == nil {
		t.Fatalf("should reject an unrecognized flag")
	}

	var uf *config.ErrUnknownFlag
	if !errors.As(err, &uf) {
		t.Fatalf("should classify the error as ErrUnknownFlag so the caller exits with code 2: %s", err)
	}
}

func Test_ParseMalformedFlagValueIsNotUnknownFlag(t *testing.T) {
	args := requiredArgs()
	args[5] = "not-a-port"
	_, err := config.Parse(args)
	if err == nil {
		t.Fatalf("should reject a malformed flag value")
	}

	var uf *config.ErrUnknownFlag
	if errors.As(err, &uf) {
		t.Fatalf("a malformed flag value should not be classified as ErrUnknownFlag: %s", err)
	}
}

func Test_ParseLoadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "node.toml")

	contents := `
[block_gen]
time_expected = 10
difficulty_init = 4.0
difficulty_adjust_after = 50
difficulty_adjust_factor_limit = 4.0

[transaction]
reward_amount = 50
`
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("writing fixture config file: %s", err)
	}

	cfg, err := config.Parse(requiredArgs("--config", path))
	if err != nil {
		t.Fatalf("should parse a flag set referencing a valid config file: %s", err)
	}

	if cfg.BlockGen == nil {
		t.Fatalf("should enable proof-of-work when [block_gen] is present")
	}
	if cfg.BlockGen.DifficultyAdjustAfter != 50 {
		t.Fatalf("should read difficulty_adjust_after from the file: got %d", cfg.BlockGen.DifficultyAdjustAfter)
	}

	if cfg.Transaction == nil || cfg.Transaction.RewardAmount != 50 {
		t.Fatalf("should enable transactions and read reward_amount from the file: %+v", cfg.Transaction)
	}
}
