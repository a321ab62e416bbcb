package cmd

import (
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/ardanlabs/blocknode/foundation/blockchain/crypto"
	"github.com/spf13/cobra"
)

// generateCmd represents the generate command.
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new key pair",
	Run: func(cmd *cobra.Command, args []string) {
		keyPair, err := crypto.NewKeyPair()
		if err != nil {
			log.Fatal(err)
		}

		path := getPrivateKeyPath()
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			log.Fatal(err)
		}

		raw := hex.EncodeToString(keyPair.SerializePrivate())
		if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
			log.Fatal(err)
		}

		fmt.Println("wallet:", path)
		fmt.Println("address:", keyPair.Address())
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)
}
