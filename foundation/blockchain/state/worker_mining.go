package state

import (
	"github.com/ardanlabs/blocknode/foundation/blockchain"
	"github.com/ardanlabs/blocknode/foundation/blockchain/transaction"
)

// runMiner is the background mining worker: it reads an immutable
// snapshot of the current head, searches for a satisfying nonce, and
// submits whatever it finds as an ordinary AddBlock command. It never
// touches chain/UTXO/mempool state directly, so it carries no lock of its
// own beyond the cancellation flag described for the concurrency model.
func (s *State) runMiner() {
	defer s.wg.Done()

	for {
		select {
		case <-s.shut:
			return
		default:
		}

		block, ok := s.mineNext()
		if !ok {
			continue
		}

		if err := s.AddBlock(block); err != nil {
			s.log.Infow("miner: locally mined block rejected", "hash", fmtHash(block), "error", err)
			continue
		}

		s.log.Infow("miner: solved block", "hash", fmtHash(block), "index", block.Index)
	}
}

// mineNext builds the next candidate — genesis, if the chain is still
// empty — against the current head and runs the proof-of-work search,
// honoring cancellation triggered by a concurrently accepted block.
func (s *State) mineNext() (blockchain.Block, bool) {
	index, prevHash := s.chain.NextSlot()

	data := s.nextBlockData(index)

	ctx := s.registerMiningContext()

	zeroBits := s.chain.RequiredZeroBits(index)
	block, ok := blockchain.MineCandidate(ctx, index, prevHash, data, zeroBits)

	s.minerMu.Lock()
	s.minerCancel = nil
	s.minerMu.Unlock()

	if !ok {
		select {
		case <-ctx.Done():
		default:
		}
		return blockchain.Block{}, false
	}

	return block, true
}

// nextBlockData assembles the payload for the block at index: a reward
// transaction followed by whatever the mempool can fund, when
// transactions are enabled; the fixed placeholder text otherwise.
func (s *State) nextBlockData(index uint64) blockchain.Data {
	if !s.cfg.Chain.TransactionsEnabled {
		return blockchain.NewStringData("")
	}

	reward := transaction.NewReward(int(index), s.cfg.MinerAddress, s.cfg.Chain.RewardAmount)
	txs := []transaction.Transaction{reward}

	s.submit(func() {
		if s.mempool != nil && s.utxo != nil {
			txs = append(txs, s.mempool.Drain(s.utxo)...)
		}
	})

	return blockchain.NewTransactionData(txs)
}
