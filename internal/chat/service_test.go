package chat_test

import (
	"context"
	"errors"
	"testing"

	"github.com/chatrelay/server/internal/chat"
	"github.com/chatrelay/server/internal/chat/model"
	errx "github.com/chatrelay/server/internal/core/error"
)

// fakeSessions is an in-memory SessionRepository with scriptable failures.
type fakeSessions struct {
	prompts map[string]string
	logs    map[string][]model.Turn

	appendCalls  int
	failAppendAt int // fail the Nth append (1-based); 0 = never
	promptErr    error
	historyErr   error
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{
		prompts: map[string]string{},
		logs:    map[string][]model.Turn{},
	}
}

func (f *fakeSessions) SetPrompt(_ context.Context, clientID, text string) error {
	f.prompts[clientID] = text
	return nil
}

func (f *fakeSessions) GetPrompt(_ context.Context, clientID string) (string, bool, error) {
	if f.promptErr != nil {
		return "", false, f.promptErr
	}
	text, ok := f.prompts[clientID]
	return text, ok, nil
}

func (f *fakeSessions) AppendTurn(_ context.Context, sessionKey string, turn model.Turn) error {
	f.appendCalls++
	if f.failAppendAt != 0 && f.appendCalls == f.failAppendAt {
		return errx.WrapRedis(errors.New("connection refused"))
	}
	f.logs[sessionKey] = append(f.logs[sessionKey], turn)
	return nil
}

func (f *fakeSessions) History(_ context.Context, sessionKey string) ([]model.Turn, error) {
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	return append([]model.Turn(nil), f.logs[sessionKey]...), nil
}

func (f *fakeSessions) ClearHistory(_ context.Context, sessionKey string) error {
	delete(f.logs, sessionKey)
	return nil
}

func (f *fakeSessions) HasHistory(_ context.Context, sessionKey string) (bool, error) {
	return len(f.logs[sessionKey]) > 0, nil
}

func (f *fakeSessions) DeletePrompt(_ context.Context, clientID string) error {
	delete(f.prompts, clientID)
	return nil
}

var _ model.SessionRepository = (*fakeSessions)(nil)

// fakeInvoker replies with a fixed string or error and records the
// prompt it was handed.
type fakeInvoker struct {
	reply     string
	err       error
	gotPrompt string
}

func (f *fakeInvoker) Invoke(_ context.Context, prompt string) (string, error) {
	f.gotPrompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func totalTurns(f *fakeSessions) int {
	n := 0
	for _, log := range f.logs {
		n += len(log)
	}
	return n
}

func TestConverse_UnregisteredClientRejected(t *testing.T) {
	sessions := newFakeSessions()
	svc := chat.NewService(sessions, &fakeInvoker{reply: "ignored"})

	_, err := svc.Converse(context.Background(), "12", "15", "hi")
	if err == nil {
		t.Fatal("expected rejection for unregistered client")
	}
	if !errors.Is(err, errx.ErrUnregisteredClient) {
		t.Fatalf("expected unregistered-client error, got %v", err)
	}
	if totalTurns(sessions) != 0 {
		t.Fatalf("nothing should be appended on rejection, got %d turns", totalTurns(sessions))
	}
}

func TestConverse_HappyPath(t *testing.T) {
	ctx := context.Background()
	sessions := newFakeSessions()
	invoker := &fakeInvoker{reply: "4"}
	svc := chat.NewService(sessions, invoker)

	if err := svc.SetSystemPrompt(ctx, "15", "You are helpful."); err != nil {
		t.Fatalf("set prompt: %v", err)
	}

	reply, err := svc.Converse(ctx, "12", "15", "What is 2+2?")
	if err != nil {
		t.Fatalf("converse: %v", err)
	}
	if reply != "4" {
		t.Fatalf("got reply %q, want %q", reply, "4")
	}

	log := sessions.logs["12:15"]
	if len(log) != 2 {
		t.Fatalf("expected exactly 2 turns, got %d", len(log))
	}
	if log[0] != (model.Turn{Role: model.RoleUser, Text: "What is 2+2?"}) {
		t.Fatalf("unexpected user turn: %+v", log[0])
	}
	if log[1] != (model.Turn{Role: model.RoleAssistant, Text: "4"}) {
		t.Fatalf("unexpected assistant turn: %+v", log[1])
	}
}

// The user turn is persisted before the prompt is assembled, so the
// model sees the query both in history and in the trailing line. The
// exact wire prompt is pinned here so any change to that behavior is a
// conscious one.
func TestConverse_AssembledPromptShape(t *testing.T) {
	ctx := context.Background()
	sessions := newFakeSessions()
	invoker := &fakeInvoker{reply: "4"}
	svc := chat.NewService(sessions, invoker)

	if err := svc.SetSystemPrompt(ctx, "15", "You are helpful."); err != nil {
		t.Fatalf("set prompt: %v", err)
	}
	if _, err := svc.Converse(ctx, "12", "15", "What is 2+2?"); err != nil {
		t.Fatalf("converse: %v", err)
	}

	want := "system: You are helpful.\nuser: What is 2+2?\nuser: What is 2+2?"
	if invoker.gotPrompt != want {
		t.Fatalf("prompt:\n%q\nwant:\n%q", invoker.gotPrompt, want)
	}
}

func TestConverse_SecondTurnCarriesContext(t *testing.T) {
	ctx := context.Background()
	sessions := newFakeSessions()
	invoker := &fakeInvoker{reply: "4"}
	svc := chat.NewService(sessions, invoker)

	if err := svc.SetSystemPrompt(ctx, "15", "P"); err != nil {
		t.Fatalf("set prompt: %v", err)
	}
	if _, err := svc.Converse(ctx, "12", "15", "What is 2+2?"); err != nil {
		t.Fatalf("first turn: %v", err)
	}

	invoker.reply = "You asked what 2+2 is."
	if _, err := svc.Converse(ctx, "12", "15", "What did I ask you before?"); err != nil {
		t.Fatalf("second turn: %v", err)
	}

	want := "system: P\n" +
		"user: What is 2+2?\n" +
		"assistant: 4\n" +
		"user: What did I ask you before?\n" +
		"user: What did I ask you before?"
	if invoker.gotPrompt != want {
		t.Fatalf("prompt:\n%q\nwant:\n%q", invoker.gotPrompt, want)
	}
}

func TestConverse_UserAppendFailureFailsTheCall(t *testing.T) {
	ctx := context.Background()
	sessions := newFakeSessions()
	sessions.failAppendAt = 1
	svc := chat.NewService(sessions, &fakeInvoker{reply: "ignored"})

	if err := svc.SetSystemPrompt(ctx, "c", "P"); err != nil {
		t.Fatalf("set prompt: %v", err)
	}
	if _, err := svc.Converse(ctx, "u", "c", "hi"); err == nil {
		t.Fatal("expected failure when the user turn cannot be persisted")
	}
	if totalTurns(sessions) != 0 {
		t.Fatalf("no partial state expected, got %d turns", totalTurns(sessions))
	}
}

func TestConverse_ModelFailureKeepsUserTurn(t *testing.T) {
	ctx := context.Background()
	sessions := newFakeSessions()
	invoker := &fakeInvoker{err: errors.New("quota exceeded")}
	svc := chat.NewService(sessions, invoker)

	if err := svc.SetSystemPrompt(ctx, "c", "P"); err != nil {
		t.Fatalf("set prompt: %v", err)
	}

	_, err := svc.Converse(ctx, "u", "c", "hi")
	if err == nil {
		t.Fatal("expected model failure to surface")
	}
	var appErr *errx.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("expected unified error type, got %v", err)
	}
	if appErr.Message == "" {
		t.Fatal("diagnostic message must not be empty")
	}

	log := sessions.logs["u:c"]
	if len(log) != 1 {
		t.Fatalf("expected only the user turn, got %d turns", len(log))
	}
	if log[0].Role != model.RoleUser {
		t.Fatalf("expected user turn, got %+v", log[0])
	}
}

func TestConverse_AssistantAppendIsBestEffort(t *testing.T) {
	ctx := context.Background()
	sessions := newFakeSessions()
	sessions.failAppendAt = 2 // the assistant append
	svc := chat.NewService(sessions, &fakeInvoker{reply: "4"})

	if err := svc.SetSystemPrompt(ctx, "c", "P"); err != nil {
		t.Fatalf("set prompt: %v", err)
	}

	reply, err := svc.Converse(ctx, "u", "c", "hi")
	if err != nil {
		t.Fatalf("reply should not be blocked on persisting it: %v", err)
	}
	if reply != "4" {
		t.Fatalf("got %q", reply)
	}

	log := sessions.logs["u:c"]
	if len(log) != 1 || log[0].Role != model.RoleUser {
		t.Fatalf("expected only the user turn persisted, got %+v", log)
	}
}

func TestSystemPrompt_LastWriteWins(t *testing.T) {
	ctx := context.Background()
	sessions := newFakeSessions()
	svc := chat.NewService(sessions, &fakeInvoker{})

	if err := svc.SetSystemPrompt(ctx, "c", "P"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := svc.SetSystemPrompt(ctx, "c", "Q"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	got, ok, err := svc.GetSystemPrompt(ctx, "c")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got != "Q" {
		t.Fatalf("got %q, want %q", got, "Q")
	}
}

func TestSessionKey(t *testing.T) {
	if got := chat.SessionKey("12", "15"); got != "12:15" {
		t.Fatalf("got %q", got)
	}
}
