package replica

import (
	"github.com/collablog/collablog/foundation/chain"
)

// MsgType identifies the variant carried by a wire envelope. The set is
// closed, the protocol handler matches every member and drops anything else.
type MsgType string

// Set of wire message types.
const (
	TypeHello        MsgType = "hello"
	TypeBlock        MsgType = "block"
	TypeChain        MsgType = "chain"
	TypeRequestChain MsgType = "request_chain"
	TypePeers        MsgType = "peers"
	TypeCmd          MsgType = "cmd"
)

// Role identifies what kind of client is on the other end of a connection.
type Role string

// Set of connection roles. A connection starts out unidentified and is
// promoted by its first hello message.
const (
	RoleUnidentified Role = "unidentified"
	RoleObserver     Role = "observer"
	RolePeer         Role = "peer"
)

// Set of actions an observer can request through a cmd message.
const (
	ActionSendMessage = "sendMessage"
	ActionAddNote     = "addNote"
)

// Envelope is the single wire message exchanged over a connection, one JSON
// document per message. Type selects which of the optional fields apply.
type Envelope struct {
	Type MsgType `json:"type"`

	// hello
	Role Role   `json:"role,omitempty"`
	URL  string `json:"url,omitempty"`

	// block / chain
	Block *chain.Block  `json:"block,omitempty"`
	Chain []chain.Block `json:"chain,omitempty"`

	// peers
	Peers []string `json:"peers,omitempty"`

	// cmd
	Action  string `json:"action,omitempty"`
	Author  string `json:"author,omitempty"`
	Content string `json:"content,omitempty"`
	Title   string `json:"title,omitempty"`
	Body    string `json:"body,omitempty"`
}
