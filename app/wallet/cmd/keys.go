package cmd

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/ardanlabs/blocknode/foundation/blockchain/crypto"
)

// loadKeyPair reads the hex-encoded private key scalar written by generate
// and reconstructs the full key pair.
func loadKeyPair(path string) (crypto.KeyPair, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return crypto.KeyPair{}, fmt.Errorf("reading wallet %s: %w", path, err)
	}

	priv, err := hex.DecodeString(string(raw))
	if err != nil {
		return crypto.KeyPair{}, fmt.Errorf("decoding wallet %s: %w", path, err)
	}

	return crypto.ParsePrivateKey(priv)
}
