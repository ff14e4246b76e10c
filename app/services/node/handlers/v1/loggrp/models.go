package loggrp

import (
	"github.com/collablog/collablog/business/sys/validate"
	"github.com/collablog/collablog/foundation/chain"
)

// newMessage is what a client provides to append a chat message.
type newMessage struct {
	Author  string `json:"author" validate:"required"`
	Content string `json:"content" validate:"required"`
}

// Validate checks the data in the model is considered clean.
func (m newMessage) Validate() error {
	return validate.Check(m)
}

// newNote is what a client provides to append a note snapshot. Providing the
// id of an earlier note supersedes it in the derived note view.
type newNote struct {
	ID    string `json:"id"`
	Title string `json:"title" validate:"required"`
	Body  string `json:"body" validate:"required"`
}

// Validate checks the data in the model is considered clean.
func (n newNote) Validate() error {
	return validate.Check(n)
}

// health is the response for the health endpoint.
type health struct {
	Status string `json:"status"`
	Height int    `json:"height"`
	Head   string `json:"head"`
}

// submitted reports the block accepted for a submission.
type submitted struct {
	Status string      `json:"status"`
	Block  chain.Block `json:"block"`
}
