package digest_test

import (
	"strings"
	"testing"

	"github.com/collablog/collablog/foundation/chain/digest"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

// =============================================================================

func Test_Hash(t *testing.T) {
	type doc struct {
		Index   uint64 `json:"index"`
		Payload string `json:"payload"`
	}

	t.Log("Given the need to produce stable digests for identical values.")
	{
		t.Logf("\tTest 0:\tWhen hashing the same value twice.")
		{
			h1 := digest.Hash(doc{Index: 1, Payload: "hello"})
			h2 := digest.Hash(doc{Index: 1, Payload: "hello"})

			if h1 != h2 {
				t.Fatalf("\t%s\tTest 0:\tShould get the same digest for the same value: got %s, exp %s", failed, h2, h1)
			}
			t.Logf("\t%s\tTest 0:\tShould get the same digest for the same value.", success)

			if !strings.HasPrefix(h1, "0x") || len(h1) != 66 {
				t.Fatalf("\t%s\tTest 0:\tShould get a hex encoded 256 bit digest: got %s", failed, h1)
			}
			t.Logf("\t%s\tTest 0:\tShould get a hex encoded 256 bit digest.", success)
		}

		t.Logf("\tTest 1:\tWhen hashing two different values.")
		{
			h1 := digest.Hash(doc{Index: 1, Payload: "hello"})
			h2 := digest.Hash(doc{Index: 2, Payload: "hello"})

			if h1 == h2 {
				t.Fatalf("\t%s\tTest 1:\tShould get different digests for different values.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould get different digests for different values.", success)
		}
	}
}
