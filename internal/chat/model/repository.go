package model

import "context"

// SessionRepository is the domain-level view of the key-value store: it
// owns key naming and turn serialization. Callers address tenants by
// client ID and conversations by session key, never by raw store keys.
type SessionRepository interface {
	// SetPrompt overwrites the tenant system prompt unconditionally.
	// Empty text is a legal value, distinct from an absent prompt.
	SetPrompt(ctx context.Context, clientID string, text string) error

	// GetPrompt returns the tenant system prompt; the bool reports
	// whether one has ever been set. Absence is not an error.
	GetPrompt(ctx context.Context, clientID string) (string, bool, error)

	// AppendTurn durably appends one turn to the tail of the session log.
	// Each append is atomic; sequential appends preserve call order.
	AppendTurn(ctx context.Context, sessionKey string, turn Turn) error

	// History returns the full ordered log, oldest first. A session that
	// has never been touched yields an empty slice, not an error.
	History(ctx context.Context, sessionKey string) ([]Turn, error)

	// ClearHistory removes the session log entirely.
	ClearHistory(ctx context.Context, sessionKey string) error

	// HasHistory reports whether the session log has any turns.
	HasHistory(ctx context.Context, sessionKey string) (bool, error)

	// DeletePrompt removes the tenant system prompt.
	DeletePrompt(ctx context.Context, clientID string) error
}
