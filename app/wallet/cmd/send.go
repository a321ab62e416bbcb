package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/ardanlabs/blocknode/foundation/blockchain/crypto"
	"github.com/ardanlabs/blocknode/foundation/blockchain/transaction"
	"github.com/spf13/cobra"
)

var (
	sendTo     string
	sendAmount uint64
)

// sendCmd represents the send command.
var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send coins to an address",
	Run: func(cmd *cobra.Command, args []string) {
		keyPair, err := loadKeyPair(getPrivateKeyPath())
		if err != nil {
			log.Fatal(err)
		}

		if err := send(nodeURL, keyPair, sendTo, sendAmount); err != nil {
			log.Fatal(err)
		}
	},
}

func send(nodeURL string, keyPair crypto.KeyPair, to string, amount uint64) error {
	unspent, err := fetchUnspent(nodeURL)
	if err != nil {
		return err
	}

	from := keyPair.Address()

	var inputs []transaction.Input
	var total uint64
	for _, u := range unspent {
		if u.Output.Address != from {
			continue
		}

		inputs = append(inputs, transaction.Input{OutputHash: u.OutputRef.Hash, OutputIndex: u.OutputRef.Index})
		total += u.Output.Amount

		if total >= amount {
			break
		}
	}

	if total < amount {
		return fmt.Errorf("insufficient funds: have %d, need %d", total, amount)
	}

	outputs := []transaction.Output{{Amount: amount, Address: to}}
	if total > amount {
		outputs = append(outputs, transaction.Output{Amount: total - amount, Address: from})
	}

	tx := transaction.NewStandard(0, inputs, outputs)

	for i := range tx.Inputs {
		if err := tx.SignInput(i, keyPair); err != nil {
			return fmt.Errorf("signing input %d: %w", i, err)
		}
	}

	body, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("encoding transaction: %w", err)
	}

	resp, err := http.Post(nodeURL+"/v1/transactions", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("posting transaction: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("node rejected transaction: %s", resp.Status)
	}

	fmt.Println("sent:", tx.Hash)
	return nil
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&nodeURL, "url", "u", "http://localhost:8000", "HTTP API address of the node.")
	sendCmd.Flags().StringVarP(&sendTo, "to", "t", "", "Address to send to.")
	sendCmd.Flags().Uint64VarP(&sendAmount, "amount", "a", 0, "Amount to send.")
	sendCmd.MarkFlagRequired("to")
	sendCmd.MarkFlagRequired("amount")
}
