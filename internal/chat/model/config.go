package model

// ================ Config ================
type ConversationConfig struct {
	// TTL is the lifetime of a conversation log, refreshed on every
	// append. Zero keeps logs forever.
	TTL string `envconfig:"CONVERSATION_TTL" default:"0"`
}

type ChatModelConfig struct {
	Model       string  `envconfig:"CHAT_MODEL" default:"gemini-2.0-flash"`
	MaxTokens   int     `envconfig:"CHAT_MAX_TOKENS" default:"2000"`
	Temperature float32 `envconfig:"CHAT_TEMPERATURE" default:"0.4"`
}
