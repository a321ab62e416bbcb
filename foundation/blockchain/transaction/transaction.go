// Package transaction implements the UTXO-style transaction model: inputs
// that reference unspent outputs, outputs that create new ones, canonical
// hashing, secp256k1 signing/verification, and the rules a block's
// transaction list must satisfy.
package transaction

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"

	bccrypto "github.com/ardanlabs/blocknode/foundation/blockchain/crypto"
)

// Kind distinguishes the inputless, miner-paid reward transaction that
// must lead every block from the standard transactions that follow it.
type Kind string

// Set of known transaction kinds.
const (
	KindReward   Kind = "reward"
	KindStandard Kind = "standard"
)

// Input references a prior transaction's output by its (output_hash,
// output_index) coordinates and carries the signature authorizing the
// spend.
type Input struct {
	OutputHash  string `json:"output_hash"`
	OutputIndex int    `json:"output_index"`
	Signature   string `json:"signature"`
}

// Output credits amount to address, the base64 DER encoding of the
// receiving secp256k1 public key.
type Output struct {
	Amount  uint64 `json:"amount"`
	Address string `json:"address"`
}

// Transaction is a signed request to move value from a set of referenced
// outputs to a new set of outputs, or (for a reward transaction) to mint
// new value with no inputs.
type Transaction struct {
	Type    Kind     `json:"type"`
	Index   int      `json:"index"`
	Hash    string   `json:"hash"`
	Inputs  []Input  `json:"inputs"`
	Outputs []Output `json:"outputs"`
}

// ComputeHash returns the canonical hash of the transaction: the hex
// SHA-256 of the stringified index, then for each input the output hash
// and output index, then for each output the amount and address. The
// signature field never participates in the hash.
func (tx Transaction) ComputeHash() string {
	var sb []byte
	sb = append(sb, strconv.Itoa(tx.Index)...)

	for _, in := range tx.Inputs {
		sb = append(sb, in.OutputHash...)
		sb = append(sb, strconv.Itoa(in.OutputIndex)...)
	}

	for _, out := range tx.Outputs {
		sb = append(sb, strconv.FormatUint(out.Amount, 10)...)
		sb = append(sb, out.Address...)
	}

	sum := sha256.Sum256(sb)
	return hex.EncodeToString(sum[:])
}

// hashBytes decodes the transaction's hex hash into the raw bytes that are
// actually signed.
func (tx Transaction) hashBytes() ([]byte, error) {
	return hex.DecodeString(tx.Hash)
}

// NewReward builds and hashes (but does not sign, as reward transactions
// carry no inputs to sign for) the inputless reward transaction that must
// lead every block.
func NewReward(index int, minerAddress string, amount uint64) Transaction {
	tx := Transaction{
		Type:    KindReward,
		Index:   index,
		Outputs: []Output{{Amount: amount, Address: minerAddress}},
	}
	tx.Hash = tx.ComputeHash()
	return tx
}

// NewStandard builds and hashes a standard transaction from its inputs
// (not yet signed) and outputs.
func NewStandard(index int, inputs []Input, outputs []Output) Transaction {
	tx := Transaction{
		Type:    KindStandard,
		Index:   index,
		Inputs:  inputs,
		Outputs: outputs,
	}
	tx.Hash = tx.ComputeHash()
	return tx
}

// SignInput signs tx's hash with keyPair and stores the resulting DER
// signature on input i. i's UTXO must be owned by keyPair for Verify to
// later succeed.
func (tx *Transaction) SignInput(i int, keyPair bccrypto.KeyPair) error {
	if i < 0 || i >= len(tx.Inputs) {
		return fmt.Errorf("signing input %d: out of range", i)
	}

	digest, err := tx.hashBytes()
	if err != nil {
		return fmt.Errorf("signing input %d: %w", i, err)
	}

	sig, err := keyPair.Sign(digest)
	if err != nil {
		return fmt.Errorf("signing input %d: %w", i, err)
	}

	tx.Inputs[i].Signature = sig
	return nil
}

// verifyInputSignature checks input i's signature against the address
// that owns the output it references.
func (tx Transaction) verifyInputSignature(i int, address string) error {
	digest, err := tx.hashBytes()
	if err != nil {
		return err
	}

	return bccrypto.Verify(address, digest, tx.Inputs[i].Signature)
}

// =============================================================================
// Standalone structural validation, used before a transaction is admitted
// to the mempool or checked against a block.

// ErrMalformedHash is returned when a transaction's stored hash does not
// match its recomputed hash.
var ErrMalformedHash = errors.New("transaction hash does not match its contents")

// ValidateHash recomputes the transaction's hash and confirms it matches
// the stored value.
func (tx Transaction) ValidateHash() error {
	if tx.Hash != tx.ComputeHash() {
		return ErrMalformedHash
	}
	return nil
}
