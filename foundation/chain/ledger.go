// Package chain implements the append-only block log and the longest valid
// chain rules used to reconcile divergent copies of it.
package chain

import (
	"fmt"
	"time"
)

// GenesisTime is the fixed timestamp stamped into every genesis block.
// Independently started nodes must agree on the genesis hash or their
// chains can never merge, so wall-clock time cannot be used here.
var GenesisTime = time.Date(2023, time.June, 1, 0, 0, 0, 0, time.UTC)

// Ledger owns the in-memory block sequence. It performs no locking of its
// own, all mutation must be funneled through a single goroutine.
type Ledger struct {
	blocks []Block
}

// NewLedger constructs a ledger and synthesizes the genesis block. The
// genesis is created exactly once, at construction.
func NewLedger() *Ledger {
	genesis := Block{
		Index:     0,
		PrevHash:  GenesisPrevHash,
		TimeStamp: GenesisTime.UnixMilli(),
		Payload:   Payload{Kind: KindGenesis},
	}
	genesis.Hash = BlockHash(genesis)

	return &Ledger{
		blocks: []Block{genesis},
	}
}

// Genesis returns the first block in the chain.
func (l *Ledger) Genesis() Block {
	return l.blocks[0]
}

// Head returns the latest block in the chain.
func (l *Ledger) Head() Block {
	return l.blocks[len(l.blocks)-1]
}

// Height returns the number of blocks in the chain.
func (l *Ledger) Height() int {
	return len(l.blocks)
}

// Blocks returns a copy of the current chain.
func (l *Ledger) Blocks() []Block {
	blocks := make([]Block, len(l.blocks))
	copy(blocks, l.blocks)

	return blocks
}

// Append adds the candidate block to the chain if it validates against the
// current head. The chain is left untouched on any failure.
func (l *Ledger) Append(b Block) error {
	if err := ValidateNextBlock(b, l.Head()); err != nil {
		return err
	}

	l.blocks = append(l.blocks, b)

	return nil
}

// Replace swaps the whole chain for the candidate when the candidate is
// strictly longer, shares this chain's genesis, and fully validates. Chains
// with a different genesis never merge.
func (l *Ledger) Replace(candidate []Block) error {
	if len(candidate) <= len(l.blocks) {
		return fmt.Errorf("candidate chain is not longer, got %d, have %d", len(candidate), len(l.blocks))
	}

	if candidate[0].Hash != l.blocks[0].Hash {
		return fmt.Errorf("candidate chain has a different genesis, got %s, exp %s", candidate[0].Hash, l.blocks[0].Hash)
	}

	if err := ValidateChain(candidate); err != nil {
		return fmt.Errorf("candidate chain doesn't validate: %w", err)
	}

	blocks := make([]Block, len(candidate))
	copy(blocks, candidate)
	l.blocks = blocks

	return nil
}
