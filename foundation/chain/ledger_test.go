package chain_test

import (
	"testing"

	"github.com/collablog/collablog/foundation/chain"
)

func Test_Genesis(t *testing.T) {
	t.Log("Given the need to start every ledger from the same genesis block.")
	{
		t.Logf("\tTest 0:\tWhen constructing a new ledger.")
		{
			ledger := chain.NewLedger()

			if ledger.Height() != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould start with a height of 1: got %d", failed, ledger.Height())
			}
			t.Logf("\t%s\tTest 0:\tShould start with a height of 1.", success)

			genesis := ledger.Genesis()

			if genesis.Index != 0 {
				t.Fatalf("\t%s\tTest 0:\tShould carry index 0: got %d", failed, genesis.Index)
			}
			t.Logf("\t%s\tTest 0:\tShould carry index 0.", success)

			if genesis.PrevHash != chain.GenesisPrevHash {
				t.Fatalf("\t%s\tTest 0:\tShould carry the sentinel parent hash: got %s", failed, genesis.PrevHash)
			}
			t.Logf("\t%s\tTest 0:\tShould carry the sentinel parent hash.", success)
		}

		t.Logf("\tTest 1:\tWhen two processes construct their own ledgers.")
		{
			a := chain.NewLedger()
			b := chain.NewLedger()

			if a.Genesis().Hash != b.Genesis().Hash {
				t.Fatalf("\t%s\tTest 1:\tShould agree on the genesis hash.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould agree on the genesis hash.", success)
		}
	}
}

func Test_Append(t *testing.T) {
	t.Log("Given the need to append only blocks that extend the head.")
	{
		t.Logf("\tTest 0:\tWhen appending a properly built block.")
		{
			ledger := chain.NewLedger()
			blk := chain.New(ledger.Head(), chain.ChatPayload(chain.ChatMessage{ID: "m1", Author: "a", Content: "hi"}))

			if err := ledger.Append(blk); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to append the block: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to append the block.", success)

			if ledger.Height() != 2 || ledger.Head().Hash != blk.Hash {
				t.Fatalf("\t%s\tTest 0:\tShould have the block as the new head.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould have the block as the new head.", success)
		}

		t.Logf("\tTest 1:\tWhen appending a block built from a stale head.")
		{
			ledger := chain.NewLedger()
			stale := chain.New(ledger.Head(), chain.ChatPayload(chain.ChatMessage{ID: "m1", Author: "a", Content: "one"}))
			fresh := chain.New(ledger.Head(), chain.ChatPayload(chain.ChatMessage{ID: "m2", Author: "a", Content: "two"}))

			if err := ledger.Append(fresh); err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to append the first block: %v", failed, err)
			}

			if err := ledger.Append(stale); err == nil {
				t.Fatalf("\t%s\tTest 1:\tShould reject the second block built from the old head.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould reject the second block built from the old head.", success)

			if ledger.Height() != 2 {
				t.Fatalf("\t%s\tTest 1:\tShould leave the chain untouched on rejection: got height %d", failed, ledger.Height())
			}
			t.Logf("\t%s\tTest 1:\tShould leave the chain untouched on rejection.", success)
		}
	}
}

func Test_Replace(t *testing.T) {
	t.Log("Given the need to resolve forks with the longest valid chain rule.")
	{
		t.Logf("\tTest 0:\tWhen a longer chain from the same genesis is offered.")
		{
			a := chain.NewLedger()
			b := chain.NewLedger()

			// Ledger A moves one block ahead on its own fork.
			a.Append(chain.New(a.Head(), chain.ChatPayload(chain.ChatMessage{ID: "a1", Author: "a", Content: "a one"})))

			// Ledger B moves two blocks ahead on a different fork.
			b.Append(chain.New(b.Head(), chain.ChatPayload(chain.ChatMessage{ID: "b1", Author: "b", Content: "b one"})))
			b.Append(chain.New(b.Head(), chain.ChatPayload(chain.ChatMessage{ID: "b2", Author: "b", Content: "b two"})))

			if err := a.Replace(b.Blocks()); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould adopt the longer chain: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould adopt the longer chain.", success)

			if a.Height() != 3 || a.Head().Hash != b.Head().Hash {
				t.Fatalf("\t%s\tTest 0:\tShould match the offered chain after adoption.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould match the offered chain after adoption.", success)
		}

		t.Logf("\tTest 1:\tWhen an equal or shorter chain is offered.")
		{
			a := chain.NewLedger()
			b := chain.NewLedger()

			a.Append(chain.New(a.Head(), chain.ChatPayload(chain.ChatMessage{ID: "a1", Author: "a", Content: "a one"})))

			if err := a.Replace(b.Blocks()); err == nil {
				t.Fatalf("\t%s\tTest 1:\tShould never shorten the chain.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould never shorten the chain.", success)

			if a.Height() != 2 {
				t.Fatalf("\t%s\tTest 1:\tShould leave the chain untouched: got height %d", failed, a.Height())
			}
			t.Logf("\t%s\tTest 1:\tShould leave the chain untouched.", success)
		}

		t.Logf("\tTest 2:\tWhen a longer chain with a foreign genesis is offered.")
		{
			a := chain.NewLedger()

			// Hand build a chain that doesn't descend from our genesis.
			foreign := chain.Block{
				Index:     0,
				PrevHash:  chain.GenesisPrevHash,
				TimeStamp: 42,
				Payload:   chain.Payload{Kind: chain.KindGenesis},
			}
			foreign.Hash = chain.BlockHash(foreign)

			f1 := chain.New(foreign, chain.ChatPayload(chain.ChatMessage{ID: "f1", Author: "f", Content: "f one"}))

			if err := a.Replace([]chain.Block{foreign, f1}); err == nil {
				t.Fatalf("\t%s\tTest 2:\tShould never merge chains with different origins.", failed)
			}
			t.Logf("\t%s\tTest 2:\tShould never merge chains with different origins.", success)
		}

		t.Logf("\tTest 3:\tWhen a longer chain fails linkage validation.")
		{
			a := chain.NewLedger()
			b := chain.NewLedger()

			b.Append(chain.New(b.Head(), chain.ChatPayload(chain.ChatMessage{ID: "b1", Author: "b", Content: "b one"})))
			b.Append(chain.New(b.Head(), chain.ChatPayload(chain.ChatMessage{ID: "b2", Author: "b", Content: "b two"})))

			blocks := b.Blocks()
			blocks[1].Payload.Message.Content = "tampered"

			if err := a.Replace(blocks); err == nil {
				t.Fatalf("\t%s\tTest 3:\tShould reject a chain that doesn't validate.", failed)
			}
			t.Logf("\t%s\tTest 3:\tShould reject a chain that doesn't validate.", success)

			if a.Height() != 1 {
				t.Fatalf("\t%s\tTest 3:\tShould leave the chain untouched: got height %d", failed, a.Height())
			}
			t.Logf("\t%s\tTest 3:\tShould leave the chain untouched.", success)
		}
	}
}
