// Package cmd implements the wallet CLI: a thin HTTP client over a node's
// JSON API for generating keys and moving value between addresses.
package cmd

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var (
	privateKeyName string
	walletPath     string
)

const keyExtension = ".key"

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Generate keys and move value on a blocknode network",
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main(). It only needs to happen
// once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&privateKeyName, "wallet", "w", "private", "Name of the private key.")
	rootCmd.PersistentFlags().StringVarP(&walletPath, "wallet-path", "p", "zblock/wallets/", "Path to the directory holding private keys.")
}

func getPrivateKeyPath() string {
	if !strings.HasSuffix(privateKeyName, keyExtension) {
		privateKeyName += keyExtension
	}
	return filepath.Join(walletPath, privateKeyName)
}
