package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/yungbote/magix-backend/internal/data/blob"
	"github.com/yungbote/magix-backend/internal/platform/gcp"
	"github.com/yungbote/magix-backend/internal/platform/llm"
	"github.com/yungbote/magix-backend/internal/platform/logger"
	"github.com/yungbote/magix-backend/internal/platform/redis"
	"github.com/yungbote/magix-backend/internal/services"
)

type Clients struct {
	Bucket         gcp.BucketService
	Blobs          blob.Store
	LLMStatusCache redis.LLMStatusCache
	Providers      *llm.Registry
	TokenVerifier  services.TokenVerifier
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	// Conversation documents
	blobs, bucket, err := resolveBlobStore(log, cfg)
	if err != nil {
		return Clients{}, err
	}

	// Redis (optional)
	var cache redis.LLMStatusCache
	if strings.TrimSpace(cfg.RedisAddr) != "" {
		c, err := redis.NewLLMStatusCache(log, redis.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.LLMStatusTTL,
		})
		if err != nil {
			closeQuietly(bucket)
			return Clients{}, fmt.Errorf("init redis llm status cache: %w", err)
		}
		cache = c
	}

	// LLM providers
	providers := wireProviders(ctx, log, cfg)

	// Google ID tokens (optional)
	var verifier services.TokenVerifier
	if strings.TrimSpace(cfg.ClientID) != "" {
		v, err := services.NewGoogleVerifier(&http.Client{Timeout: 10 * time.Second}, cfg.ClientID, "")
		if err != nil {
			closeQuietly(bucket)
			return Clients{}, fmt.Errorf("init token verifier: %w", err)
		}
		verifier = v
	} else {
		log.Warn("CLIENT_ID not set; /verify/token will reject every token")
	}

	return Clients{
		Bucket:         bucket,
		Blobs:          blobs,
		LLMStatusCache: cache,
		Providers:      providers,
		TokenVerifier:  verifier,
	}, nil
}

// wireProviders registers every provider whose credentials are present. A
// provider that cannot be built is logged and skipped.
func wireProviders(ctx context.Context, log *logger.Logger, cfg Config) *llm.Registry {
	reg := llm.NewRegistry()

	var ts oauth2.TokenSource
	if cfg.GeminiAPIKey == "" || cfg.GoogleProjectID != "" {
		src, err := llm.NewGoogleTokenSource(ctx)
		if err != nil {
			log.Warn("Google credentials unavailable; Vertex AI providers disabled", "error", err)
		} else {
			ts = src
		}
	}

	gemini, err := llm.NewGeminiClient(log, llm.GeminiConfig{
		Project:     cfg.GoogleProjectID,
		Region:      cfg.GoogleRegion,
		Model:       cfg.GeminiModel,
		APIKey:      cfg.GeminiAPIKey,
		TokenSource: ts,
	})
	if err != nil {
		log.Warn("Gemini provider disabled", "error", err)
	} else {
		reg.Register("gemini", gemini)
	}

	codestral, err := llm.NewCodestralClient(log, llm.CodestralConfig{
		Project:     cfg.GoogleProjectID,
		Region:      cfg.GoogleRegion,
		Model:       cfg.CodestralModel,
		Version:     cfg.CodestralVersion,
		TokenSource: ts,
	})
	if err != nil {
		log.Warn("Codestral provider disabled", "error", err)
	} else {
		reg.Register("codestral", codestral)
	}

	if strings.TrimSpace(cfg.OpenAIAPIKey) != "" {
		oa, err := llm.NewOpenAIClient(log, llm.OpenAIConfig{APIKey: cfg.OpenAIAPIKey, Model: cfg.OpenAIModel})
		if err != nil {
			log.Warn("OpenAI provider disabled", "error", err)
		} else {
			reg.Register("openai", oa)
		}
	}

	log.Info("LLM providers registered", "providers", reg.Names())
	return reg
}

func closeQuietly(bucket gcp.BucketService) {
	if bucket != nil {
		_ = bucket.Close()
	}
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.LLMStatusCache != nil {
		_ = c.LLMStatusCache.Close()
	}
	closeQuietly(c.Bucket)
}
