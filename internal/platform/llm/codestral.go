package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/oauth2"

	"github.com/yungbote/magix-backend/internal/domain/chat"
	"github.com/yungbote/magix-backend/internal/platform/logger"
)

const (
	DefaultCodestralModel   = "codestral"
	DefaultCodestralVersion = "2405"
)

type CodestralConfig struct {
	Project string
	Region  string
	Model   string
	Version string
	// BaseURL replaces everything before ":streamRawPredict" / ":rawPredict".
	BaseURL     string
	TokenSource oauth2.TokenSource
	HTTPClient  *http.Client
}

type codestralClient struct {
	log  *logger.Logger
	cfg  CodestralConfig
	http *http.Client
}

func NewCodestralClient(log *logger.Logger, cfg CodestralConfig) (Client, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultCodestralModel
	}
	if cfg.Version == "" {
		cfg.Version = DefaultCodestralVersion
	}
	if cfg.TokenSource == nil {
		return nil, fmt.Errorf("codestral: google token source is required")
	}
	if cfg.BaseURL == "" && (cfg.Project == "" || cfg.Region == "") {
		return nil, fmt.Errorf("codestral: GOOGLE_PROJECT_ID and GOOGLE_REGION are required")
	}
	hc := cfg.HTTPClient
	if hc == nil {
		// no timeout: streams run until the upstream closes or the request is cancelled
		hc = &http.Client{}
	}
	return &codestralClient{
		log:  log.With("client", "CodestralClient", "model", cfg.Model+"@"+cfg.Version),
		cfg:  cfg,
		http: hc,
	}, nil
}

func (c *codestralClient) ModelName() string { return c.cfg.Model + "@" + c.cfg.Version }

type codestralMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type codestralRequest struct {
	Model       string             `json:"model"`
	Messages    []codestralMessage `json:"messages"`
	Stream      bool               `json:"stream"`
	Temperature float64            `json:"temperature"`
	MaxTokens   int                `json:"max_tokens"`
}

type codestralChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func codestralRole(role string) string {
	if role == chat.RoleUser {
		return "user"
	}
	return "system"
}

func buildCodestralRequest(model string, history []chat.Message, prompt string, params Params, stream bool) codestralRequest {
	msgs := make([]codestralMessage, 0, len(history)+1)
	for _, m := range history {
		msgs = append(msgs, codestralMessage{Role: codestralRole(m.Role), Content: m.Message})
	}
	msgs = append(msgs, codestralMessage{Role: "user", Content: prompt})
	return codestralRequest{
		Model:       model,
		Messages:    msgs,
		Stream:      stream,
		Temperature: params.Temperature,
		MaxTokens:   params.MaxTokens,
	}
}

func (c *codestralClient) endpoint(stream bool) string {
	method := "rawPredict"
	if stream {
		method = "streamRawPredict"
	}
	if c.cfg.BaseURL != "" {
		return strings.TrimRight(c.cfg.BaseURL, "/") + ":" + method
	}
	return fmt.Sprintf(
		"https://%s-aiplatform.googleapis.com/v1/projects/%s/locations/%s/publishers/mistralai/models/%s@%s:%s",
		c.cfg.Region, c.cfg.Project, c.cfg.Region, c.cfg.Model, c.cfg.Version, method,
	)
}

func (c *codestralClient) Generate(ctx context.Context, history []chat.Message, prompt string, params Params, stream bool, emit EmitFunc) error {
	return call("codestral", c.ModelName(), emit, func(emit EmitFunc) error {
		return c.generate(ctx, history, prompt, params, stream, emit)
	})
}

func (c *codestralClient) generate(ctx context.Context, history []chat.Message, prompt string, params Params, stream bool, emit EmitFunc) error {
	body, err := json.Marshal(buildCodestralRequest(c.cfg.Model, history, prompt, params, stream))
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(stream), bytes.NewReader(body))
	if err != nil {
		return upstreamError("codestral", err)
	}
	auth, err := bearer(c.cfg.TokenSource)
	if err != nil {
		return upstreamError("codestral", err)
	}
	req.Header.Set("Authorization", auth)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error("codestral request failed", "error", err)
		return upstreamError("codestral", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.log.Error("codestral non-2xx", "status", resp.StatusCode, "body", string(raw))
		return upstreamError("codestral", &HTTPError{Provider: "codestral", StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))})
	}

	if !stream {
		var out codestralChunk
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			c.log.Warn("codestral response not decodable", "error", err)
			return nil
		}
		if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
			return nil
		}
		return emit(Fragment{Role: chat.RoleAssistant, Message: out.Choices[0].Message.Content})
	}

	err = streamSSE(resp.Body, func(_ string, data string) error {
		if data == "[DONE]" {
			return errDone
		}
		var chunk codestralChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			c.log.Debug("skipping malformed codestral chunk", "error", err)
			return nil
		}
		if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
			return nil
		}
		return emit(Fragment{Role: chat.RoleAssistant, Message: chunk.Choices[0].Delta.Content})
	})
	if err == errDone {
		return nil
	}
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

var errDone = fmt.Errorf("sse: done")
