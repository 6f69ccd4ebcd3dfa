package ai

import "context"

// NoteProvider generates short human-readable notes for the dispatch desk,
// e.g. why a match was chosen or how to handle special cargo instructions.
// The engine works identically with a nil provider; notes are decoration.
type NoteProvider interface {
	// MatchNote summarizes a committed assignment for the operator view.
	MatchNote(ctx context.Context, input MatchContext) (string, error)
}
