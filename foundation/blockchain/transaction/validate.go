package transaction

import (
	"errors"
	"fmt"
)

// Set of errors returned by ValidateBlock.
var (
	ErrEmptyBlock       = errors.New("block carries no transactions")
	ErrMissingReward    = errors.New("first transaction is not a reward")
	ErrBadRewardInputs  = errors.New("reward transaction carries inputs")
	ErrBadRewardOutputs = errors.New("reward transaction must have exactly one output")
	ErrBadRewardAmount  = errors.New("reward transaction pays the wrong amount")
	ErrUnexpectedReward = errors.New("only the first transaction may be a reward")
	ErrUnknownOutput    = errors.New("input references an unknown or already-spent output")
	ErrInvalidInput     = errors.New("input signature does not verify")
	ErrUnbalanced       = errors.New("inputs do not equal outputs")
	ErrZeroOutput       = errors.New("output amount must be positive")
	ErrDoubleSpend      = errors.New("input spent more than once in the same block")
	ErrBadRewardIndex   = errors.New("reward transaction's index does not match its containing block")
)

// ValidateBlock checks that txs is a legal block body: the first
// transaction is a reward of exactly rewardAmount with no inputs and an
// index matching blockIndex, every later transaction is a balanced
// standard transaction whose inputs refer to outputs unspent in utxo (and
// not already consumed earlier in the same block) and whose signatures
// verify, and no output pays a non-positive amount.
func ValidateBlock(txs []Transaction, blockIndex uint64, utxo *UTXOSet, rewardAmount uint64) error {
	if len(txs) == 0 {
		return ErrEmptyBlock
	}

	if err := validateReward(txs[0], blockIndex, rewardAmount); err != nil {
		return err
	}

	spent := make(map[OutputRef]bool)

	for i := 1; i < len(txs); i++ {
		tx := txs[i]

		if tx.Type == KindReward {
			return ErrUnexpectedReward
		}

		if err := tx.ValidateHash(); err != nil {
			return err
		}

		if err := validateStandard(tx, utxo, spent); err != nil {
			return fmt.Errorf("transaction %s: %w", tx.Hash, err)
		}
	}

	return nil
}

func validateReward(tx Transaction, blockIndex uint64, rewardAmount uint64) error {
	if tx.Type != KindReward {
		return ErrMissingReward
	}

	if err := tx.ValidateHash(); err != nil {
		return err
	}

	if tx.Index != int(blockIndex) {
		return ErrBadRewardIndex
	}

	if len(tx.Inputs) != 0 {
		return ErrBadRewardInputs
	}

	if len(tx.Outputs) != 1 {
		return ErrBadRewardOutputs
	}

	if tx.Outputs[0].Amount != rewardAmount {
		return ErrBadRewardAmount
	}

	return nil
}

func validateStandard(tx Transaction, utxo *UTXOSet, spent map[OutputRef]bool) error {
	var totalIn, totalOut uint64

	for i, in := range tx.Inputs {
		ref := OutputRef{Hash: in.OutputHash, Index: in.OutputIndex}

		if spent[ref] {
			return ErrDoubleSpend
		}

		out, ok := utxo.Lookup(ref)
		if !ok {
			return ErrUnknownOutput
		}

		if err := tx.verifyInputSignature(i, out.Address); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidInput, err)
		}

		spent[ref] = true
		totalIn += out.Amount
	}

	for _, out := range tx.Outputs {
		if out.Amount == 0 {
			return ErrZeroOutput
		}
		totalOut += out.Amount
	}

	if totalIn != totalOut {
		return ErrUnbalanced
	}

	return nil
}

// Apply folds tx's effects into utxo: every referenced input is spent and
// every output is added as newly unspent. Apply assumes tx already passed
// ValidateBlock and does not re-check balance or signatures.
func Apply(tx Transaction, utxo *UTXOSet) {
	for _, in := range tx.Inputs {
		_ = utxo.Spend(OutputRef{Hash: in.OutputHash, Index: in.OutputIndex})
	}

	for i, out := range tx.Outputs {
		utxo.Add(OutputRef{Hash: tx.Hash, Index: i}, out)
	}
}
