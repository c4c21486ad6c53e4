package envelopes

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/colsync/internal/comments"
)

var ErrNotFound = errors.New("comment not found")

type Repository interface {
	// Save inserts or replaces an envelope by message id and clears its
	// tombstone.
	Save(ctx context.Context, e *comments.Envelope) error

	// SaveAll saves every envelope atomically.
	SaveAll(ctx context.Context, list []*comments.Envelope) error

	// GetByID returns a live envelope or ErrNotFound.
	GetByID(ctx context.Context, id string) (*comments.Envelope, error)

	// GetAll returns every live envelope ordered by time range.
	GetAll(ctx context.Context) ([]*comments.Envelope, error)

	// GetBySource returns the live envelopes of one transcription.
	GetBySource(ctx context.Context, uriBase string) ([]*comments.Envelope, error)

	// GetPending returns live envelopes that still need saving to the server.
	GetPending(ctx context.Context) ([]*comments.Envelope, error)

	// GetDeleted returns tombstones.
	GetDeleted(ctx context.Context) ([]*comments.Envelope, error)

	// MarkDeleted turns a live envelope into a tombstone.
	MarkDeleted(ctx context.Context, id string) error

	// Purge removes an envelope or tombstone for good.
	Purge(ctx context.Context, id string) error
}
