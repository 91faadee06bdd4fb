package ports

import "context"

// HistoryStore persists entered lines across shell sessions.
type HistoryStore interface {
	// Append records a line at the end of the history.
	Append(ctx context.Context, line string) error

	// List returns all recorded lines, oldest first.
	List(ctx context.Context) ([]string, error)

	// Clear removes all recorded lines.
	Clear(ctx context.Context) error
}
