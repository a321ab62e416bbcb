package cmd

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/ardanlabs/blocknode/foundation/blockchain/transaction"
	"github.com/spf13/cobra"
)

var nodeURL string

// balanceCmd represents the balance command.
var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Print the wallet's spendable balance",
	Run: func(cmd *cobra.Command, args []string) {
		keyPair, err := loadKeyPair(getPrivateKeyPath())
		if err != nil {
			log.Fatal(err)
		}

		address := keyPair.Address()

		unspent, err := fetchUnspent(nodeURL)
		if err != nil {
			log.Fatal(err)
		}

		var balance uint64
		for _, u := range unspent {
			if u.Output.Address == address {
				balance += u.Output.Amount
			}
		}

		fmt.Println(balance)
	},
}

func fetchUnspent(nodeURL string) ([]transaction.UnspentOutput, error) {
	resp, err := http.Get(nodeURL + "/v1/transactions/unspent")
	if err != nil {
		return nil, fmt.Errorf("fetching unspent outputs: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching unspent outputs: node returned %s", resp.Status)
	}

	var unspent []transaction.UnspentOutput
	if err := json.NewDecoder(resp.Body).Decode(&unspent); err != nil {
		return nil, fmt.Errorf("decoding unspent outputs: %w", err)
	}

	return unspent, nil
}

func init() {
	rootCmd.AddCommand(balanceCmd)
	balanceCmd.Flags().StringVarP(&nodeURL, "url", "u", "http://localhost:8000", "HTTP API address of the node.")
}
