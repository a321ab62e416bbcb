package transaction

import (
	"errors"
	"fmt"
)

// ErrConflict is returned when a transaction's inputs overlap with inputs
// already projected as spent by the mempool.
var ErrConflict = errors.New("transaction conflicts with a pending transaction")

// Mempool holds transactions that have been validated against the UTXO set
// (and the mempool's own projected spends) but have not yet appeared in an
// accepted block. Arrival order is preserved.
type Mempool struct {
	txs     map[string]Transaction
	order   []string
	pending map[OutputRef]string
}

// NewMempool constructs an empty mempool.
func NewMempool() *Mempool {
	return &Mempool{
		txs:     make(map[string]Transaction),
		pending: make(map[OutputRef]string),
	}
}

// Add validates tx against utxo, projected against every input already
// claimed by a pending mempool entry, and inserts it on success.
func (m *Mempool) Add(tx Transaction, utxo *UTXOSet) error {
	if err := tx.ValidateHash(); err != nil {
		return err
	}

	if _, exists := m.txs[tx.Hash]; exists {
		return nil
	}

	if err := validateStandard(tx, utxo, make(map[OutputRef]bool)); err != nil {
		return err
	}

	for _, in := range tx.Inputs {
		ref := OutputRef{Hash: in.OutputHash, Index: in.OutputIndex}
		if owner, claimed := m.pending[ref]; claimed && owner != tx.Hash {
			return fmt.Errorf("%w: output %s:%d already claimed", ErrConflict, ref.Hash, ref.Index)
		}
	}

	m.txs[tx.Hash] = tx
	m.order = append(m.order, tx.Hash)
	for _, in := range tx.Inputs {
		m.pending[OutputRef{Hash: in.OutputHash, Index: in.OutputIndex}] = tx.Hash
	}

	return nil
}

// Remove drops hash from the mempool, releasing any outputs it had
// claimed.
func (m *Mempool) Remove(hash string) {
	tx, ok := m.txs[hash]
	if !ok {
		return
	}

	delete(m.txs, hash)
	for i, h := range m.order {
		if h == hash {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}

	for _, in := range tx.Inputs {
		ref := OutputRef{Hash: in.OutputHash, Index: in.OutputIndex}
		if m.pending[ref] == hash {
			delete(m.pending, ref)
		}
	}
}

// List returns every pending transaction, in arrival order.
func (m *Mempool) List() []Transaction {
	out := make([]Transaction, 0, len(m.order))
	for _, h := range m.order {
		out = append(out, m.txs[h])
	}
	return out
}

// RemoveAccepted drops every mempool entry that appears in an accepted
// block, or whose inputs were consumed by one of the block's transactions.
func (m *Mempool) RemoveAccepted(blockTxs []Transaction) {
	included := make(map[string]bool, len(blockTxs))
	spent := make(map[OutputRef]bool)

	for _, tx := range blockTxs {
		included[tx.Hash] = true
		for _, in := range tx.Inputs {
			spent[OutputRef{Hash: in.OutputHash, Index: in.OutputIndex}] = true
		}
	}

	for _, hash := range m.copyOrder() {
		tx := m.txs[hash]

		if included[hash] {
			m.Remove(hash)
			continue
		}

		for _, in := range tx.Inputs {
			if spent[OutputRef{Hash: in.OutputHash, Index: in.OutputIndex}] {
				m.Remove(hash)
				break
			}
		}
	}
}

func (m *Mempool) copyOrder() []string {
	cpy := make([]string, len(m.order))
	copy(cpy, m.order)
	return cpy
}

// Drain returns every pending transaction fundable against utxo, in
// arrival order, skipping any that would now conflict (because an earlier
// drained transaction already spent one of its inputs). It does not
// mutate the mempool; callers remove entries via RemoveAccepted once the
// resulting block is accepted.
func (m *Mempool) Drain(utxo *UTXOSet) []Transaction {
	spent := make(map[OutputRef]bool)
	var drained []Transaction

	for _, hash := range m.order {
		tx := m.txs[hash]

		conflict := false
		for _, in := range tx.Inputs {
			ref := OutputRef{Hash: in.OutputHash, Index: in.OutputIndex}
			if spent[ref] {
				conflict = true
				break
			}
			if _, ok := utxo.Lookup(ref); !ok {
				conflict = true
				break
			}
		}
		if conflict {
			continue
		}

		for _, in := range tx.Inputs {
			spent[OutputRef{Hash: in.OutputHash, Index: in.OutputIndex}] = true
		}
		drained = append(drained, tx)
	}

	return drained
}
