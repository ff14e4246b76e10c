// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/collablog/collablog/app/services/node/handlers/v1/loggrp"
	"github.com/collablog/collablog/foundation/events"
	"github.com/collablog/collablog/foundation/replica"
	"github.com/collablog/collablog/foundation/web"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log     *zap.SugaredLogger
	Replica *replica.Replica
	Evts    *events.Events
}

// PublicRoutes binds all the version 1 public routes.
func PublicRoutes(app *web.App, cfg Config) {
	lgh := loggrp.Handlers{
		Log:     cfg.Log,
		Replica: cfg.Replica,
		Evts:    cfg.Evts,
	}

	app.Handle(http.MethodPost, version, "/message", lgh.SubmitMessage)
	app.Handle(http.MethodPost, version, "/note", lgh.SubmitNote)
	app.Handle(http.MethodGet, version, "/health", lgh.Health)
	app.Handle(http.MethodGet, version, "/chain/list", lgh.Chain)
	app.Handle(http.MethodGet, version, "/messages/list", lgh.Messages)
	app.Handle(http.MethodGet, version, "/notes/list", lgh.Notes)
	app.Handle(http.MethodGet, version, "/peers/list", lgh.Peers)
	app.Handle(http.MethodGet, version, "/peer", lgh.Peer)
	app.Handle(http.MethodGet, version, "/events", lgh.Events)
}
