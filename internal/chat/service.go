package chat

import (
	"context"

	"github.com/chatrelay/server/internal/chat/model"
	"github.com/chatrelay/server/internal/chat/prompt"
	errx "github.com/chatrelay/server/internal/core/error"
	"github.com/chatrelay/server/internal/metrics"
	logx "github.com/chatrelay/server/pkg/logger"
)

// Invoker is the opaque model capability: assembled prompt text in,
// reply text out.
type Invoker interface {
	Invoke(ctx context.Context, prompt string) (string, error)
}

// SessionKey collapses a (user, client) pair into the single string
// identifying one conversation log.
func SessionKey(userID, clientID string) string {
	return userID + ":" + clientID
}

// Service orchestrates one conversation turn at a time. It is stateless
// between calls; all mutable state lives in the session repository.
// Concurrent turns on the same session may interleave their appends —
// each append is atomic but turns are not serialized per session.
type Service struct {
	sessions model.SessionRepository
	invoker  Invoker
}

func NewService(sessions model.SessionRepository, invoker Invoker) *Service {
	return &Service{sessions: sessions, invoker: invoker}
}

// Converse runs one turn: check the tenant prompt, persist the user
// turn, assemble the full prompt, invoke the model, persist the reply.
//
// A client without a registered system prompt is rejected before
// anything is appended. A failed user-turn append fails the whole call.
// A failed assistant-turn append does not: the reply is returned anyway
// and the miss is logged.
func (s *Service) Converse(ctx context.Context, userID, clientID, query string) (string, error) {
	metrics.TurnsStarted.Inc()
	sessionKey := SessionKey(userID, clientID)

	systemPrompt, registered, err := s.sessions.GetPrompt(ctx, clientID)
	if err != nil {
		metrics.StoreErrors.Inc()
		return "", err
	}
	if !registered {
		metrics.TurnsRejected.WithLabelValues("unregistered_client").Inc()
		logx.Warn().Str("clientID", clientID).Msg("chat rejected: no system prompt registered")
		return "", errx.NewUnregisteredClient(clientID)
	}

	if err := s.sessions.AppendTurn(ctx, sessionKey, model.UserTurn(query)); err != nil {
		metrics.StoreErrors.Inc()
		return "", err
	}

	history, err := s.sessions.History(ctx, sessionKey)
	if err != nil {
		metrics.StoreErrors.Inc()
		return "", err
	}

	// The user turn was already appended, so the current query appears in
	// the history lines as well as in the trailing user line.
	assembled := prompt.Assemble(systemPrompt, true, history, query)

	reply, err := s.invoker.Invoke(ctx, assembled)
	if err != nil {
		metrics.ModelFailures.Inc()
		logx.Error().Err(err).Str("sessionKey", sessionKey).Msg("model invocation failed")
		return "", errx.WrapModel(err)
	}

	if err := s.sessions.AppendTurn(ctx, sessionKey, model.AssistantTurn(reply)); err != nil {
		// best effort: the reply is not blocked on persisting it
		metrics.StoreErrors.Inc()
		logx.Warn().Err(err).Str("sessionKey", sessionKey).Msg("failed to persist assistant turn")
	}

	metrics.TurnsCompleted.Inc()
	return reply, nil
}

// SetSystemPrompt registers or overwrites the tenant system prompt.
// Last writer wins; empty text is a legal prompt.
func (s *Service) SetSystemPrompt(ctx context.Context, clientID, text string) error {
	return s.sessions.SetPrompt(ctx, clientID, text)
}

// GetSystemPrompt returns the tenant system prompt and whether one is set.
func (s *Service) GetSystemPrompt(ctx context.Context, clientID string) (string, bool, error) {
	return s.sessions.GetPrompt(ctx, clientID)
}

// ClearSession removes the conversation log for a (user, client) pair.
func (s *Service) ClearSession(ctx context.Context, userID, clientID string) error {
	return s.sessions.ClearHistory(ctx, SessionKey(userID, clientID))
}
