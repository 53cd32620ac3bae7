package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/magix-backend/internal/domain/chat"
	"github.com/yungbote/magix-backend/internal/observability"
	"github.com/yungbote/magix-backend/internal/platform/apierr"
)

const (
	DefaultTemperature = 0.1
	DefaultMaxTokens   = 1000
)

// Fragment is one piece of model output, shaped like a transcript entry.
type Fragment = chat.Message

// EmitFunc receives fragments as they arrive. Returning an error stops generation.
type EmitFunc func(Fragment) error

// ErrStopped can be returned from an EmitFunc to end generation early without failing.
var ErrStopped = errors.New("llm: generation stopped by consumer")

type Client interface {
	ModelName() string
	// Generate produces fragments for prompt given the prior history. When stream
	// is false the provider is called once and its whole reply is a single fragment.
	Generate(ctx context.Context, history []chat.Message, prompt string, params Params, stream bool, emit EmitFunc) error
}

type Params struct {
	Temperature float64
	MaxTokens   int
}

func DefaultParams() Params {
	return Params{Temperature: DefaultTemperature, MaxTokens: DefaultMaxTokens}
}

// ParamsFromMap reads "temp" and "max_tokens" from stored llm_params, keeping defaults for
// anything missing or unparseable.
func ParamsFromMap(m map[string]any) Params {
	p := DefaultParams()
	if v, ok := toFloat(m["temp"]); ok {
		p.Temperature = v
	}
	if v, ok := toFloat(m["max_tokens"]); ok && v > 0 {
		p.MaxTokens = int(math.Round(v))
	}
	return p
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// HTTPError is a non-2xx provider response.
type HTTPError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s http %d: %s", e.Provider, e.StatusCode, e.Body)
}

func upstreamError(provider string, err error) error {
	if err == nil {
		return nil
	}
	var ae *apierr.Error
	if errors.As(err, &ae) {
		return err
	}
	return apierr.Upstream(fmt.Sprintf("%s request failed", provider), err)
}

// call wraps one provider invocation with metrics and consumer-stop handling.
func call(provider, model string, emit EmitFunc, fn func(emit EmitFunc) error) error {
	start := time.Now()
	count := 0
	counted := func(f Fragment) error {
		count++
		return emit(f)
	}
	err := fn(counted)
	if errors.Is(err, ErrStopped) {
		err = nil
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	observability.Current().ObserveLLMRequest(provider, model, status, time.Since(start), count)
	return err
}
