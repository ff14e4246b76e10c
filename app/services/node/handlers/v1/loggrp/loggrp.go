// Package loggrp maintains the group of handlers for access to the
// collaborative event log.
package loggrp

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	v1 "github.com/collablog/collablog/business/web/v1"
	"github.com/collablog/collablog/foundation/chain"
	"github.com/collablog/collablog/foundation/events"
	"github.com/collablog/collablog/foundation/replica"
	"github.com/collablog/collablog/foundation/web"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of log endpoints.
type Handlers struct {
	Log     *zap.SugaredLogger
	Replica *replica.Replica
	WS      websocket.Upgrader
	Evts    *events.Events
}

// SubmitMessage appends a new chat message to the log and floods the block
// to the network.
func (h Handlers) SubmitMessage(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var nm newMessage
	if err := web.Decode(r, &nm); err != nil {
		return err
	}

	h.Log.Infow("submit message", "traceid", v.TraceID, "author", nm.Author)

	msg := chain.ChatMessage{
		ID:        uuid.NewString(),
		Author:    nm.Author,
		Content:   nm.Content,
		TimeStamp: time.Now().UTC().UnixMilli(),
	}

	blk, err := h.Replica.SubmitMessage(msg)
	if err != nil {
		return v1.NewRequestError(fmt.Errorf("message rejected: %w", err), http.StatusBadRequest)
	}

	resp := submitted{
		Status: "message added to log",
		Block:  blk,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// SubmitNote appends a new note snapshot to the log and floods the block
// to the network.
func (h Handlers) SubmitNote(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var nn newNote
	if err := web.Decode(r, &nn); err != nil {
		return err
	}

	// A missing id makes this a brand new note rather than a revision.
	id := nn.ID
	if id == "" {
		id = uuid.NewString()
	}

	h.Log.Infow("submit note", "traceid", v.TraceID, "id", id, "title", nn.Title)

	note := chain.NoteDocument{
		ID:        id,
		Title:     nn.Title,
		Body:      nn.Body,
		UpdatedAt: time.Now().UTC().UnixMilli(),
	}

	blk, err := h.Replica.SubmitNote(note)
	if err != nil {
		return v1.NewRequestError(fmt.Errorf("note rejected: %w", err), http.StatusBadRequest)
	}

	resp := submitted{
		Status: "note added to log",
		Block:  blk,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Health returns the liveness of the node along with the current height and
// head hash.
func (h Handlers) Health(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	head := h.Replica.Head()

	resp := health{
		Status: "ok",
		Height: h.Replica.Height(),
		Head:   head.Hash,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Chain returns the full current chain.
func (h Handlers) Chain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.Replica.Blocks(), http.StatusOK)
}

// Messages returns the chat messages in log order.
func (h Handlers) Messages(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var msgs []chain.ChatMessage
	for _, blk := range h.Replica.Blocks() {
		if blk.Payload.Kind == chain.KindChat && blk.Payload.Message != nil {
			msgs = append(msgs, *blk.Payload.Message)
		}
	}

	return web.Respond(ctx, w, msgs, http.StatusOK)
}

// Notes returns the latest snapshot of each note. The log keeps the full
// history, this view applies the supersession by id.
func (h Handlers) Notes(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	latest := make(map[string]chain.NoteDocument)
	for _, blk := range h.Replica.Blocks() {
		if blk.Payload.Kind == chain.KindNote && blk.Payload.Note != nil {
			latest[blk.Payload.Note.ID] = *blk.Payload.Note
		}
	}

	notes := make([]chain.NoteDocument, 0, len(latest))
	for _, note := range latest {
		notes = append(notes, note)
	}
	sort.Slice(notes, func(i, j int) bool { return notes[i].ID < notes[j].ID })

	return web.Respond(ctx, w, notes, http.StatusOK)
}

// Peers returns the current peer directory.
func (h Handlers) Peers(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.Replica.KnownPeers(), http.StatusOK)
}

// Peer upgrades the request to a websocket and hands the connection to the
// replica. Both peer nodes and observer clients connect here, the first
// hello message on the connection decides which.
func (h Handlers) Peer(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	h.Log.Infow("peer socket", "traceid", v.TraceID, "remoteaddr", r.RemoteAddr)

	// The replica owns the connection from here, its reader goroutine picks
	// up the teardown when the socket closes.
	h.Replica.Attach(replica.Socket{Conn: c})

	return web.SetStatusCode(ctx, http.StatusSwitchingProtocols)
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}
