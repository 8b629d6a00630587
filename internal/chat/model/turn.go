package model

import (
	"encoding/json"
	"fmt"
)

// Roles a stored turn may carry. The system role is synthesized from the
// tenant prompt at assembly time and never written to the log.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one role-tagged message unit in a conversation log.
// Text may be empty; Role must not be.
type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// UserTurn builds a user turn for the given query text.
func UserTurn(text string) Turn {
	return Turn{Role: RoleUser, Text: text}
}

// AssistantTurn builds an assistant turn for the given reply text.
func AssistantTurn(text string) Turn {
	return Turn{Role: RoleAssistant, Text: text}
}

// Encode serializes the turn as a self-describing JSON record for storage.
func (t Turn) Encode() ([]byte, error) {
	if t.Role == "" {
		return nil, fmt.Errorf("encode turn: empty role")
	}
	b, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("marshal turn: %w", err)
	}
	return b, nil
}

// DecodeTurn parses a stored record back into a Turn. A record that is
// not valid JSON or is missing its role is a decoding failure, never a
// turn to be skipped.
func DecodeTurn(b []byte) (Turn, error) {
	var t Turn
	if err := json.Unmarshal(b, &t); err != nil {
		return Turn{}, fmt.Errorf("unmarshal turn: %w", err)
	}
	if t.Role == "" {
		return Turn{}, fmt.Errorf("decode turn: missing role")
	}
	return t, nil
}
