package transaction

import (
	"encoding/json"
	"fmt"
)

// OutputRef identifies a single output of a transaction: the hash of the
// transaction that created it and the output's position within it.
type OutputRef struct {
	Hash  string `json:"output_hash"`
	Index int    `json:"output_index"`
}

// UTXOSet tracks the outputs that have been created and not yet spent.
// Insertion order is preserved so List can return outputs in
// block-then-output order, matching how the chain produced them.
type UTXOSet struct {
	outputs map[OutputRef]Output
	order   []OutputRef
}

// NewUTXOSet constructs an empty UTXO set.
func NewUTXOSet() *UTXOSet {
	return &UTXOSet{
		outputs: make(map[OutputRef]Output),
	}
}

// Add records a new unspent output. It is a programming error to Add the
// same ref twice; Add overwrites silently since the chain never produces
// colliding transaction hashes in practice.
func (s *UTXOSet) Add(ref OutputRef, out Output) {
	if _, exists := s.outputs[ref]; !exists {
		s.order = append(s.order, ref)
	}
	s.outputs[ref] = out
}

// Lookup returns the output for ref and whether it is currently unspent.
func (s *UTXOSet) Lookup(ref OutputRef) (Output, bool) {
	out, ok := s.outputs[ref]
	return out, ok
}

// Spend removes ref from the unspent set. It returns an error if ref does
// not refer to a currently unspent output.
func (s *UTXOSet) Spend(ref OutputRef) error {
	if _, ok := s.outputs[ref]; !ok {
		return fmt.Errorf("spend %s:%d: not an unspent output", ref.Hash, ref.Index)
	}

	delete(s.outputs, ref)
	for i, r := range s.order {
		if r == ref {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}

	return nil
}

// List returns every unspent output's reference, in the order it was
// added.
func (s *UTXOSet) List() []OutputRef {
	cpy := make([]OutputRef, len(s.order))
	copy(cpy, s.order)
	return cpy
}

// UnspentOutput pairs an output reference with the value and address it
// carries, the shape callers outside this package actually want to see.
type UnspentOutput struct {
	OutputRef
	Output
}

// MarshalJSON renders the pair in the wire shape callers expect: the
// reference fields inline, the output value nested under "output".
func (u UnspentOutput) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		OutputHash  string `json:"output_hash"`
		OutputIndex int    `json:"output_index"`
		Output      Output `json:"output"`
	}{
		OutputHash:  u.OutputRef.Hash,
		OutputIndex: u.OutputRef.Index,
		Output:      u.Output,
	})
}

// UnmarshalJSON parses the nested wire shape produced by MarshalJSON back
// into the pair's embedded fields.
func (u *UnspentOutput) UnmarshalJSON(raw []byte) error {
	var wire struct {
		OutputHash  string `json:"output_hash"`
		OutputIndex int    `json:"output_index"`
		Output      Output `json:"output"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return err
	}

	u.OutputRef = OutputRef{Hash: wire.OutputHash, Index: wire.OutputIndex}
	u.Output = wire.Output
	return nil
}

// ListEntries returns every unspent output in full, in block-then-output
// order.
func (s *UTXOSet) ListEntries() []UnspentOutput {
	entries := make([]UnspentOutput, 0, len(s.order))
	for _, ref := range s.order {
		entries = append(entries, UnspentOutput{OutputRef: ref, Output: s.outputs[ref]})
	}
	return entries
}

// Clone returns a deep copy, used when staging speculative changes (such
// as validating a candidate chain) without disturbing the live set.
func (s *UTXOSet) Clone() *UTXOSet {
	cpy := NewUTXOSet()
	for _, ref := range s.order {
		cpy.Add(ref, s.outputs[ref])
	}
	return cpy
}
