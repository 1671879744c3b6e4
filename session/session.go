// Package session stores per-visitor state for the image-to-text flow, keyed by a random ID
// carried in a cookie.
package session

import (
	"context"

	"github.com/google/uuid"
	"hermannm.dev/portfolio/ocr"
)

// State is what one visitor has uploaded and extracted so far.
type State struct {
	Image         *ocr.Image `json:"image,omitempty"`
	ExtractedText string     `json:"extractedText,omitempty"`
}

func (state State) HasExtractedText() bool {
	return state.ExtractedText != ""
}

// Store keeps session state. Implementations are safe for concurrent use, and expire sessions
// that have not been saved for a configured time.
type Store interface {
	// Get returns the state for the session, and false if there is none (or it has expired).
	Get(ctx context.Context, id uuid.UUID) (state State, ok bool, err error)
	Save(ctx context.Context, id uuid.UUID, state State) error
	Delete(ctx context.Context, id uuid.UUID) error
}

func NewID() uuid.UUID {
	return uuid.New()
}
