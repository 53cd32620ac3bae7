package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/yungbote/magix-backend/internal/domain/chat"
	"github.com/yungbote/magix-backend/internal/platform/logger"
)

const DefaultOpenAIModel = openai.GPT4oMini

type OpenAIConfig struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

type openAIClient struct {
	log    *logger.Logger
	model  string
	client *openai.Client
}

func NewOpenAIClient(log *logger.Logger, cfg OpenAIConfig) (Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("openai: OPENAI_API_KEY is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.HTTPClient != nil {
		oc.HTTPClient = cfg.HTTPClient
	}
	return &openAIClient{
		log:    log.With("client", "OpenAIClient", "model", cfg.Model),
		model:  cfg.Model,
		client: openai.NewClientWithConfig(oc),
	}, nil
}

func (c *openAIClient) ModelName() string { return c.model }

func openAIMessages(history []chat.Message, prompt string) []openai.ChatCompletionMessage {
	msgs := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	for _, m := range history {
		role := openai.ChatMessageRoleAssistant
		if m.Role == chat.RoleUser {
			role = openai.ChatMessageRoleUser
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: m.Message})
	}
	return append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt})
}

func (c *openAIClient) Generate(ctx context.Context, history []chat.Message, prompt string, params Params, stream bool, emit EmitFunc) error {
	return call("openai", c.model, emit, func(emit EmitFunc) error {
		return c.generate(ctx, history, prompt, params, stream, emit)
	})
}

func (c *openAIClient) generate(ctx context.Context, history []chat.Message, prompt string, params Params, stream bool, emit EmitFunc) error {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    openAIMessages(history, prompt),
		Temperature: float32(params.Temperature),
		MaxTokens:   params.MaxTokens,
	}

	if !stream {
		resp, err := c.client.CreateChatCompletion(ctx, req)
		if err != nil {
			c.log.Error("openai completion failed", "error", err)
			return upstreamError("openai", err)
		}
		if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
			return nil
		}
		return emit(Fragment{Role: chat.RoleAssistant, Message: resp.Choices[0].Message.Content})
	}

	req.Stream = true
	st, err := c.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		c.log.Error("openai stream open failed", "error", err)
		return upstreamError("openai", err)
	}
	defer st.Close()
	for {
		chunk, err := st.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return upstreamError("openai", err)
		}
		if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
			continue
		}
		if err := emit(Fragment{Role: chat.RoleAssistant, Message: chunk.Choices[0].Delta.Content}); err != nil {
			return err
		}
	}
}
