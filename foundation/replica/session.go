package replica

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// newID generates an identity for payloads created on this node.
func newID() string {
	return uuid.NewString()
}

// Transport is the minimal behavior required from the underlying duplex
// connection. Production connections are websockets, tests use in-memory
// pipes.
type Transport interface {
	ReadMessage() ([]byte, error)
	WriteMessage(data []byte) error
	Close() error
}

// Socket adapts a gorilla websocket connection to the Transport interface.
type Socket struct {
	Conn *websocket.Conn
}

// ReadMessage reads the next message from the websocket.
func (s Socket) ReadMessage() ([]byte, error) {
	_, data, err := s.Conn.ReadMessage()
	return data, err
}

// WriteMessage writes a message to the websocket as a single text frame.
func (s Socket) WriteMessage(data []byte) error {
	return s.Conn.WriteMessage(websocket.TextMessage, data)
}

// Close closes the websocket.
func (s Socket) Close() error {
	return s.Conn.Close()
}

// =============================================================================

// Sends queued beyond this buffer are dropped rather than blocking the
// run loop on a slow connection.
const sendBuffer = 100

// Session represents one live connection for its lifetime. The role and url
// fields are owned by the replica run goroutine.
type Session struct {
	id     string
	tr     Transport
	role   Role
	url    string
	outbox chan []byte
	closed bool
	once   sync.Once
}

func newSession(tr Transport) *Session {
	return &Session{
		id:     uuid.NewString(),
		tr:     tr,
		role:   RoleUnidentified,
		outbox: make(chan []byte, sendBuffer),
	}
}

// send marshals the envelope and enqueues it for the writer goroutine. It
// never blocks, a full outbox drops the message.
func (s *Session) send(env Envelope, ev EventHandler) {
	if s.closed {
		return
	}

	data, err := json.Marshal(env)
	if err != nil {
		ev("replica: send: conn[%s]: marshal %s: ERROR: %s", s.id, env.Type, err)
		return
	}

	select {
	case s.outbox <- data:
	default:
		ev("replica: send: conn[%s]: outbox full, dropping %s", s.id, env.Type)
	}
}

// writer drains the outbox onto the transport. A write failure closes the
// transport which unblocks the reader and triggers the session teardown.
func (s *Session) writer() {
	for data := range s.outbox {
		if err := s.tr.WriteMessage(data); err != nil {
			s.tr.Close()
			return
		}
	}
}

// close tears the session down. Only the replica run goroutine and the final
// shutdown sequence call this.
func (s *Session) close() {
	s.closed = true
	s.once.Do(func() {
		close(s.outbox)
	})
	s.tr.Close()
}
