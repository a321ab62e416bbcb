package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

// addressCmd represents the address command.
var addressCmd = &cobra.Command{
	Use:   "address",
	Short: "Print the address for a wallet",
	Run: func(cmd *cobra.Command, args []string) {
		keyPair, err := loadKeyPair(getPrivateKeyPath())
		if err != nil {
			log.Fatal(err)
		}

		fmt.Println(keyPair.Address())
	},
}

func init() {
	rootCmd.AddCommand(addressCmd)
}
