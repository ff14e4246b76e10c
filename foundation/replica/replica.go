// Package replica implements the gossip based replication of the
// collaborative event log across a network of peer nodes.
package replica

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/collablog/collablog/foundation/chain"
	"github.com/collablog/collablog/foundation/chain/peer"
	"github.com/gorilla/websocket"
)

// gossipInterval is the default interval for sharing the peer list and
// retrying disconnected peers.
const gossipInterval = 5 * time.Second

// ErrShutdown is returned by calls made against a replica that has been
// shut down.
var ErrShutdown = errors.New("replica is shut down")

// EventHandler defines a function that is called when events occur in the
// processing of the replication protocol.
type EventHandler func(v string, args ...any)

// Dialer opens an outbound transport to a peer's connection endpoint.
type Dialer func(url string) (Transport, error)

// websocketDialer is the production dialer.
func websocketDialer(url string) (Transport, error) {
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, err
	}

	return Socket{Conn: c}, nil
}

// =============================================================================

// Config represents the configuration required to start the replica.
type Config struct {
	SelfURL        string
	Ledger         *chain.Ledger
	GossipInterval time.Duration
	EvHandler      EventHandler
	Dialer         Dialer
}

// Replica owns the ledger, the connection registry, and the peer directory.
// All three are mutated exclusively on the run goroutine, every other
// goroutine interacts with the replica by posting work to it. One event is
// processed to completion before the next begins.
type Replica struct {
	selfURL   string
	ledger    *chain.Ledger
	registry  *Registry
	directory *peer.Directory
	dialing   map[string]struct{}
	inbox     chan func()
	ticker    *time.Ticker
	shut      chan struct{}
	wg        sync.WaitGroup
	evHandler EventHandler
	dialer    Dialer
}

// New constructs a replica for the specified ledger.
func New(cfg Config) *Replica {
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	interval := cfg.GossipInterval
	if interval == 0 {
		interval = gossipInterval
	}

	dialer := cfg.Dialer
	if dialer == nil {
		dialer = websocketDialer
	}

	return &Replica{
		selfURL:   cfg.SelfURL,
		ledger:    cfg.Ledger,
		registry:  newRegistry(),
		directory: peer.NewDirectory(),
		dialing:   make(map[string]struct{}),
		inbox:     make(chan func(), 256),
		ticker:    time.NewTicker(interval),
		shut:      make(chan struct{}),
		evHandler: ev,
		dialer:    dialer,
	}
}

// Run starts the run goroutine. It doesn't return until the goroutine is
// up and processing events.
func (r *Replica) Run() {
	hasStarted := make(chan bool)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		hasStarted <- true
		r.run()
	}()

	<-hasStarted
}

// Shutdown terminates the run goroutine and closes every live connection.
func (r *Replica) Shutdown() {
	r.evHandler("replica: shutdown: started")
	defer r.evHandler("replica: shutdown: completed")

	r.ticker.Stop()
	close(r.shut)
	r.wg.Wait()

	// The run goroutine is down, nothing mutates the registry anymore.
	for s := range r.registry.sessions {
		s.close()
	}
}

// run is the single logical thread of control. Every mutation of the
// ledger, registry, and directory happens here.
func (r *Replica) run() {
	r.evHandler("replica: run: G started")
	defer r.evHandler("replica: run: G completed")

	for {
		select {
		case fn := <-r.inbox:
			fn()

		case <-r.ticker.C:
			if !r.isShutdown() {
				r.gossip()
			}

		case <-r.shut:
			r.evHandler("replica: run: received shut signal")
			return
		}
	}
}

// isShutdown is used to test if a shutdown has been signaled.
func (r *Replica) isShutdown() bool {
	select {
	case <-r.shut:
		return true
	default:
		return false
	}
}

// post hands work to the run goroutine. Events from a single connection are
// posted in arrival order so they are processed in arrival order.
func (r *Replica) post(fn func()) {
	select {
	case r.inbox <- fn:
	case <-r.shut:
	}
}

// call posts work to the run goroutine and waits for it to complete.
func (r *Replica) call(fn func()) error {
	done := make(chan struct{})

	r.post(func() {
		fn()
		close(done)
	})

	select {
	case <-done:
		return nil
	case <-r.shut:
		return ErrShutdown
	}
}

// =============================================================================
// Connection lifecycle

// Attach hands a newly accepted inbound connection to the replica. The
// connection stays unidentified until its hello message arrives.
func (r *Replica) Attach(tr Transport) {
	s := newSession(tr)

	r.post(func() {
		r.registry.add(s)
		go s.writer()
		go r.reader(s)
		r.evHandler("replica: attach: conn[%s]: registered", s.id)
	})
}

// Connect asks the replica to establish an outbound peer connection. Used to
// seed the network from the bootstrap peer list.
func (r *Replica) Connect(url string) {
	r.post(func() {
		r.connect(url)
	})
}

// connect opens an outbound connection unless the url is our own, a live
// peer connection already exists, or a dial is already in flight. Runs on
// the run goroutine, the dial itself runs off it.
func (r *Replica) connect(url string) {
	if url == r.selfURL {
		return
	}

	if r.registry.hasPeer(url) {
		return
	}

	if _, exists := r.dialing[url]; exists {
		return
	}
	r.dialing[url] = struct{}{}

	r.evHandler("replica: connect: dialing peer[%s]", url)

	go func() {
		tr, err := r.dialer(url)

		r.post(func() {
			delete(r.dialing, url)

			if err != nil {
				r.evHandler("replica: connect: peer[%s]: ERROR: %s", url, err)
				return
			}

			// An inbound connection for the same peer may have been
			// identified while we were dialing.
			if r.registry.hasPeer(url) {
				tr.Close()
				return
			}

			s := newSession(tr)
			r.registry.add(s)
			r.registry.identifyPeer(s, url)
			r.directory.Upsert(url)

			go s.writer()
			go r.reader(s)

			// The protocol is symmetric from here on, announce ourselves
			// and pull the peer's chain.
			s.send(Envelope{Type: TypeHello, Role: RolePeer, URL: r.selfURL}, r.evHandler)
			s.send(Envelope{Type: TypeRequestChain}, r.evHandler)

			r.evHandler("replica: connect: peer[%s]: connected", url)
		})
	}()
}

// reader pulls messages off the transport and posts them to the run
// goroutine in arrival order.
func (r *Replica) reader(s *Session) {
	for {
		data, err := s.tr.ReadMessage()
		if err != nil {
			r.post(func() {
				r.closeSession(s, err)
			})
			return
		}

		r.post(func() {
			r.process(s, data)
		})
	}
}

// closeSession removes the session from every index that referenced it.
func (r *Replica) closeSession(s *Session, err error) {
	if !r.registry.has(s) {
		return
	}

	r.registry.remove(s)
	s.close()

	r.evHandler("replica: conn[%s]: closed: role[%s] url[%s]: %v", s.id, s.role, s.url, err)
}

// =============================================================================
// Protocol handling

// process interprets one inbound message. Malformed or unrecognized
// messages are logged and discarded, they never take the connection down.
func (r *Replica) process(s *Session, data []byte) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		r.evHandler("replica: conn[%s]: malformed message dropped: %s", s.id, err)
		return
	}

	switch env.Type {
	case TypeHello:
		r.handleHello(s, env)

	case TypeBlock:
		r.handleBlock(s, env)

	case TypeChain:
		r.handleChain(s, env)

	case TypeRequestChain:
		s.send(r.chainEnvelope(), r.evHandler)

	case TypePeers:
		r.handlePeers(s, env)

	case TypeCmd:
		r.handleCmd(s, env)

	default:
		r.evHandler("replica: conn[%s]: unknown message type[%s] dropped", s.id, env.Type)
	}
}

// handleHello identifies the connection. Observers just get the chain,
// peers are indexed by their advertised url, recorded in the directory, and
// announced to the rest of the network.
func (r *Replica) handleHello(s *Session, env Envelope) {
	switch env.Role {
	case RoleObserver:
		r.registry.identifyObserver(s)
		s.send(r.chainEnvelope(), r.evHandler)
		r.evHandler("replica: conn[%s]: identified as observer", s.id)

	case RolePeer:
		if env.URL == "" {
			r.evHandler("replica: conn[%s]: hello without a peer url dropped", s.id)
			return
		}

		r.registry.identifyPeer(s, env.URL)
		r.directory.Upsert(env.URL)
		s.send(r.chainEnvelope(), r.evHandler)
		r.broadcastPeers()
		r.evHandler("replica: conn[%s]: identified as peer[%s]", s.id, env.URL)

	default:
		r.evHandler("replica: conn[%s]: hello with unknown role[%s] dropped", s.id, env.Role)
	}
}

// handleBlock attempts a single block append. A block that doesn't link
// means the sender is ahead of or diverged from us, so instead of silently
// dropping it we ask for their full chain.
func (r *Replica) handleBlock(s *Session, env Envelope) {
	if env.Block == nil {
		r.evHandler("replica: conn[%s]: block message without a block dropped", s.id)
		return
	}

	if err := r.ledger.Append(*env.Block); err != nil {
		r.evHandler("replica: conn[%s]: block[%d] rejected: %s: requesting full chain", s.id, env.Block.Index, err)
		s.send(Envelope{Type: TypeRequestChain}, r.evHandler)
		return
	}

	r.evHandler("replica: conn[%s]: block[%d] hash[%s] accepted", s.id, env.Block.Index, env.Block.Hash)

	// Flood the block to every other live connection.
	r.broadcast(Envelope{Type: TypeBlock, Block: env.Block}, s)
}

// handleChain evaluates a full chain offer against the longest valid chain
// rule. A losing offer is not an error, just a proposal that lost.
func (r *Replica) handleChain(s *Session, env Envelope) {
	if len(env.Chain) == 0 {
		r.evHandler("replica: conn[%s]: chain message without blocks dropped", s.id)
		return
	}

	if err := r.ledger.Replace(env.Chain); err != nil {
		r.evHandler("replica: conn[%s]: chain offer ignored: %s", s.id, err)
		return
	}

	r.evHandler("replica: conn[%s]: chain adopted: height[%d] head[%s]", s.id, r.ledger.Height(), r.ledger.Head().Hash)

	// Push the adopted chain to all connections so stale peers converge.
	r.broadcast(r.chainEnvelope(), nil)
}

// handlePeers learns new peers from gossip. Our own url and urls with live
// connections are skipped, so the operation is idempotent.
func (r *Replica) handlePeers(s *Session, env Envelope) {
	if s.role != RolePeer {
		r.evHandler("replica: conn[%s]: peers message from role[%s] dropped", s.id, s.role)
		return
	}

	for _, url := range env.Peers {
		if url == "" || url == r.selfURL {
			continue
		}

		if r.directory.Upsert(url) {
			r.evHandler("replica: conn[%s]: learned peer[%s]", s.id, url)
		}

		r.connect(url)
	}
}

// handleCmd services the low-latency submission shortcut for directly
// connected observers.
func (r *Replica) handleCmd(s *Session, env Envelope) {
	var payload chain.Payload

	switch env.Action {
	case ActionSendMessage:
		if env.Content == "" {
			r.evHandler("replica: conn[%s]: cmd sendMessage without content dropped", s.id)
			return
		}
		payload = chain.ChatPayload(chain.ChatMessage{
			ID:        newID(),
			Author:    env.Author,
			Content:   env.Content,
			TimeStamp: time.Now().UTC().UnixMilli(),
		})

	case ActionAddNote:
		if env.Title == "" || env.Body == "" {
			r.evHandler("replica: conn[%s]: cmd addNote without title/body dropped", s.id)
			return
		}
		payload = chain.NotePayload(chain.NoteDocument{
			ID:        newID(),
			Title:     env.Title,
			Body:      env.Body,
			UpdatedAt: time.Now().UTC().UnixMilli(),
		})

	default:
		r.evHandler("replica: conn[%s]: cmd with unknown action[%s] dropped", s.id, env.Action)
		return
	}

	b := chain.New(r.ledger.Head(), payload)
	if err := r.ledger.Append(b); err != nil {
		r.evHandler("replica: conn[%s]: cmd block rejected: %s", s.id, err)
		return
	}

	r.evHandler("replica: conn[%s]: cmd %s: block[%d] accepted", s.id, env.Action, b.Index)

	r.broadcast(Envelope{Type: TypeBlock, Block: &b}, nil)
}

// =============================================================================
// Broadcast support

// broadcast enqueues the envelope on every registered session matching the
// role predicate, skipping except. No roles means every session.
func (r *Replica) broadcast(env Envelope, except *Session, roles ...Role) {
	for _, s := range r.registry.list(except, roles...) {
		s.send(env, r.evHandler)
	}
}

// broadcastPeers shares the directory with every peer connection.
func (r *Replica) broadcastPeers() {
	urls := r.directory.URLs()
	if len(urls) == 0 {
		return
	}

	r.broadcast(Envelope{Type: TypePeers, Peers: urls}, nil, RolePeer)
}

// chainEnvelope snapshots the current chain into a wire message.
func (r *Replica) chainEnvelope() Envelope {
	return Envelope{Type: TypeChain, Chain: r.ledger.Blocks()}
}

// =============================================================================
// Application API

// SubmitMessage appends a chat message to the log and floods the resulting
// block to every live connection.
func (r *Replica) SubmitMessage(msg chain.ChatMessage) (chain.Block, error) {
	return r.submit(chain.ChatPayload(msg))
}

// SubmitNote appends a note snapshot to the log and floods the resulting
// block to every live connection.
func (r *Replica) SubmitNote(note chain.NoteDocument) (chain.Block, error) {
	return r.submit(chain.NotePayload(note))
}

// submit serializes block construction onto the run goroutine so two blocks
// are never built against the same head.
func (r *Replica) submit(payload chain.Payload) (chain.Block, error) {
	var b chain.Block
	var appendErr error

	err := r.call(func() {
		b = chain.New(r.ledger.Head(), payload)
		if appendErr = r.ledger.Append(b); appendErr != nil {
			return
		}

		r.evHandler("replica: submit: %s block[%d] hash[%s] accepted", payload.Kind, b.Index, b.Hash)
		r.broadcast(Envelope{Type: TypeBlock, Block: &b}, nil)
	})
	if err != nil {
		return chain.Block{}, err
	}
	if appendErr != nil {
		return chain.Block{}, appendErr
	}

	return b, nil
}

// Head returns the latest block in the log.
func (r *Replica) Head() chain.Block {
	var b chain.Block
	r.call(func() { b = r.ledger.Head() })
	return b
}

// Height returns the number of blocks in the log.
func (r *Replica) Height() int {
	var height int
	r.call(func() { height = r.ledger.Height() })
	return height
}

// Blocks returns a copy of the current log.
func (r *Replica) Blocks() []chain.Block {
	var blocks []chain.Block
	r.call(func() { blocks = r.ledger.Blocks() })
	return blocks
}

// KnownPeers returns the current peer directory records.
func (r *Replica) KnownPeers() []peer.Record {
	var records []peer.Record
	r.call(func() { records = r.directory.Copy() })
	return records
}

// Connections returns the number of live connections.
func (r *Replica) Connections() int {
	var count int
	r.call(func() { count = r.registry.count() })
	return count
}
