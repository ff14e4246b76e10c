package chain

import (
	"errors"
	"fmt"
	"time"

	"github.com/collablog/collablog/foundation/chain/digest"
)

// GenesisPrevHash is the sentinel parent hash carried by every genesis block.
const GenesisPrevHash = "0"

// Set of payload kinds a block can carry.
const (
	KindGenesis = "genesis"
	KindChat    = "chat"
	KindNote    = "note"
)

// ChatMessage represents a single chat message in the log.
type ChatMessage struct {
	ID        string `json:"id"`
	Author    string `json:"author"`
	Content   string `json:"content"`
	TimeStamp int64  `json:"timestamp"`
}

// NoteDocument represents a snapshot of a note. Later blocks carrying the
// same note id supersede earlier ones in any derived view, the log itself
// is never rewritten.
type NoteDocument struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	UpdatedAt int64  `json:"updated_at"`
}

// Payload is the tagged variant a block carries. Kind selects which of the
// optional fields is set.
type Payload struct {
	Kind    string        `json:"kind"`
	Message *ChatMessage  `json:"message,omitempty"`
	Note    *NoteDocument `json:"note,omitempty"`
}

// ChatPayload wraps a chat message for inclusion in a block.
func ChatPayload(msg ChatMessage) Payload {
	return Payload{
		Kind:    KindChat,
		Message: &msg,
	}
}

// NotePayload wraps a note snapshot for inclusion in a block.
func NotePayload(note NoteDocument) Payload {
	return Payload{
		Kind: KindNote,
		Note: &note,
	}
}

// =============================================================================

// Block represents one immutable, hash linked entry in the log.
type Block struct {
	Index     uint64  `json:"index"`
	PrevHash  string  `json:"prev_hash"`
	TimeStamp int64   `json:"timestamp"`
	Payload   Payload `json:"payload"`
	Hash      string  `json:"hash"`
}

// New constructs the next block in the chain for the specified payload,
// linking it against the current head. The caller must hold exclusive access
// to the head so two blocks are never built against the same parent.
func New(head Block, payload Payload) Block {
	b := Block{
		Index:     head.Index + 1,
		PrevHash:  head.Hash,
		TimeStamp: time.Now().UTC().UnixMilli(),
		Payload:   payload,
	}
	b.Hash = BlockHash(b)

	return b
}

// BlockHash computes the digest for the block. The stored hash itself is
// excluded from the calculation.
func BlockHash(b Block) string {
	fields := struct {
		Index     uint64  `json:"index"`
		PrevHash  string  `json:"prev_hash"`
		TimeStamp int64   `json:"timestamp"`
		Payload   Payload `json:"payload"`
	}{
		Index:     b.Index,
		PrevHash:  b.PrevHash,
		TimeStamp: b.TimeStamp,
		Payload:   b.Payload,
	}

	return digest.Hash(fields)
}

// =============================================================================

// ValidateNextBlock checks a candidate block can extend the specified parent.
func ValidateNextBlock(b Block, prev Block) error {
	if b.Index != prev.Index+1 {
		return fmt.Errorf("block is not the next index, got %d, exp %d", b.Index, prev.Index+1)
	}

	if b.PrevHash != prev.Hash {
		return fmt.Errorf("parent hash doesn't match our known parent, got %s, exp %s", b.PrevHash, prev.Hash)
	}

	if hash := BlockHash(b); hash != b.Hash {
		return fmt.Errorf("block hash doesn't match its fields, got %s, exp %s", b.Hash, hash)
	}

	return nil
}

// ValidateChain checks every block in the chain links against its
// predecessor. The genesis block is not validated against a parent, its
// validity is established by hash comparison when chains are exchanged.
func ValidateChain(blocks []Block) error {
	if len(blocks) == 0 {
		return errors.New("chain is empty")
	}

	for i := 1; i < len(blocks); i++ {
		if err := ValidateNextBlock(blocks[i], blocks[i-1]); err != nil {
			return fmt.Errorf("block %d: %w", i, err)
		}
	}

	return nil
}
