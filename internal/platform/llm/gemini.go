package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"

	"github.com/yungbote/magix-backend/internal/domain/chat"
	"github.com/yungbote/magix-backend/internal/platform/logger"
)

const (
	DefaultGeminiModel = "gemini-1.5-pro"
	generativeLangURL  = "https://generativelanguage.googleapis.com/v1beta"
)

type GeminiConfig struct {
	Project string
	Region  string
	Model   string
	// APIKey switches from Vertex AI to the Generative Language API.
	APIKey string
	// BaseURL overrides the endpoint root; the model path is appended to it.
	BaseURL     string
	TokenSource oauth2.TokenSource
	HTTPClient  *http.Client
}

type geminiClient struct {
	log  *logger.Logger
	cfg  GeminiConfig
	http *http.Client
}

func NewGeminiClient(log *logger.Logger, cfg GeminiConfig) (Client, error) {
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = DefaultGeminiModel
	}
	if cfg.APIKey == "" && cfg.TokenSource == nil {
		return nil, fmt.Errorf("gemini: either an api key or a google token source is required")
	}
	if cfg.APIKey == "" && cfg.BaseURL == "" && (cfg.Project == "" || cfg.Region == "") {
		return nil, fmt.Errorf("gemini: GOOGLE_PROJECT_ID and GOOGLE_REGION are required for vertex ai")
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	return &geminiClient{
		log:  log.With("client", "GeminiClient", "model", cfg.Model),
		cfg:  cfg,
		http: hc,
	}, nil
}

func (c *geminiClient) ModelName() string { return c.cfg.Model }

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig struct {
		Temperature     float64 `json:"temperature"`
		MaxOutputTokens int     `json:"maxOutputTokens"`
	} `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (r geminiResponse) text() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var b strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String()
}

// geminiRole maps transcript roles onto the two roles a chat session accepts.
func geminiRole(role string) string {
	if role == chat.RoleUser {
		return "user"
	}
	return "model"
}

func buildGeminiRequest(history []chat.Message, prompt string, params Params) geminiRequest {
	var req geminiRequest
	req.Contents = make([]geminiContent, 0, len(history)+1)
	for _, m := range history {
		req.Contents = append(req.Contents, geminiContent{Role: geminiRole(m.Role), Parts: []geminiPart{{Text: m.Message}}})
	}
	req.Contents = append(req.Contents, geminiContent{Role: "user", Parts: []geminiPart{{Text: prompt}}})
	req.GenerationConfig.Temperature = params.Temperature
	req.GenerationConfig.MaxOutputTokens = params.MaxTokens
	return req
}

func (c *geminiClient) endpoint(stream bool) string {
	method := "generateContent"
	if stream {
		method = "streamGenerateContent"
	}
	var base string
	switch {
	case c.cfg.BaseURL != "":
		base = strings.TrimRight(c.cfg.BaseURL, "/") + "/models/" + url.PathEscape(c.cfg.Model)
	case c.cfg.APIKey != "":
		base = generativeLangURL + "/models/" + url.PathEscape(c.cfg.Model)
	default:
		base = fmt.Sprintf(
			"https://%s-aiplatform.googleapis.com/v1/projects/%s/locations/%s/publishers/google/models/%s",
			c.cfg.Region, url.PathEscape(c.cfg.Project), c.cfg.Region, url.PathEscape(c.cfg.Model),
		)
	}
	u := base + ":" + method
	if stream {
		u += "?alt=sse"
	}
	return u
}

func (c *geminiClient) Generate(ctx context.Context, history []chat.Message, prompt string, params Params, stream bool, emit EmitFunc) error {
	return call("gemini", c.cfg.Model, emit, func(emit EmitFunc) error {
		return c.generate(ctx, history, prompt, params, stream, emit)
	})
}

func (c *geminiClient) generate(ctx context.Context, history []chat.Message, prompt string, params Params, stream bool, emit EmitFunc) error {
	body, err := json.Marshal(buildGeminiRequest(history, prompt, params))
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(stream), bytes.NewReader(body))
	if err != nil {
		return upstreamError("gemini", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("x-goog-api-key", c.cfg.APIKey)
	} else {
		auth, err := bearer(c.cfg.TokenSource)
		if err != nil {
			return upstreamError("gemini", err)
		}
		req.Header.Set("Authorization", auth)
	}
	if stream {
		req.Header.Set("Accept", "text/event-stream")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error("gemini request failed", "error", err)
		return upstreamError("gemini", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.log.Error("gemini non-2xx", "status", resp.StatusCode, "body", string(raw))
		return upstreamError("gemini", &HTTPError{Provider: "gemini", StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))})
	}

	if !stream {
		var out geminiResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			c.log.Warn("gemini response not decodable", "error", err)
			return nil
		}
		if text := out.text(); text != "" {
			return emit(Fragment{Role: chat.RoleSystem, Message: text})
		}
		return nil
	}

	err = streamSSE(resp.Body, func(_ string, data string) error {
		var chunk geminiResponse
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			c.log.Debug("skipping malformed gemini chunk", "error", err)
			return nil
		}
		if chunk.Error != nil {
			return &HTTPError{Provider: "gemini", StatusCode: chunk.Error.Code, Body: chunk.Error.Message}
		}
		text := chunk.text()
		if text == "" {
			return nil
		}
		return emit(Fragment{Role: chat.RoleSystem, Message: text})
	})
	if err != nil {
		if _, ok := err.(*HTTPError); ok {
			return upstreamError("gemini", err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}
