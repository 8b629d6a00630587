package llm

import (
	"context"
	"fmt"

	"github.com/chatrelay/server/internal/chat/model"
	logx "github.com/chatrelay/server/pkg/logger"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"
)

// GeminiConfig holds everything needed to reach the hosted model.
type GeminiConfig struct {
	APIKey  string
	BaseURL string
	Chat    model.ChatModelConfig
}

// GeminiInvoker sends an assembled prompt to a Gemini chat model and
// returns the reply text. It performs no retries and no streaming.
type GeminiInvoker struct {
	chatModel *gemini.ChatModel
	modelName string
}

// NewGeminiInvoker creates the shared Gemini client and chat model.
func NewGeminiInvoker(ctx context.Context, config GeminiConfig) (*GeminiInvoker, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = config.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	chatModel, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       config.Chat.Model,
		Temperature: &config.Chat.Temperature,
		MaxTokens:   &config.Chat.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating chat model")
		return nil, fmt.Errorf("error creating chat model: %w", err)
	}

	return &GeminiInvoker{chatModel: chatModel, modelName: config.Chat.Model}, nil
}

// Invoke submits the prompt as a single user message and returns the
// reply content. The caller decides what a failure means; nothing is
// retried here.
func (g *GeminiInvoker) Invoke(ctx context.Context, prompt string) (string, error) {
	out, err := g.chatModel.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)})
	if err != nil {
		return "", fmt.Errorf("generate with %s: %w", g.modelName, err)
	}
	return out.Content, nil
}
