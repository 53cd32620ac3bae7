package redis

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/yungbote/magix-backend/internal/platform/logger"
)

func TestStatusKeyKeepsExactName(t *testing.T) {
	if got := statusKey(defaultKeyPrefix, "Codestral"); got != "magix:llm:active:Codestral" {
		t.Fatalf("statusKey: got=%q", got)
	}
	if statusKey(defaultKeyPrefix, "Gemini") == statusKey(defaultKeyPrefix, "gemini") {
		t.Fatalf("statusKey: names differing in case must not share a key")
	}
}

func TestNewLLMStatusCacheRequiresAddr(t *testing.T) {
	if _, err := NewLLMStatusCache(logger.Nop(), Config{}); err == nil {
		t.Fatalf("expected error for empty addr")
	}
}

func TestLLMStatusCacheIntegration(t *testing.T) {
	addr := strings.TrimSpace(os.Getenv("TEST_REDIS_ADDR"))
	if addr == "" {
		t.Skip("set TEST_REDIS_ADDR to run redis integration tests")
	}
	prefix := fmt.Sprintf("magix:test:%d:", time.Now().UnixNano())
	cache, err := NewLLMStatusCache(logger.Nop(), Config{Addr: addr, TTL: time.Minute, KeyPrefix: prefix})
	if err != nil {
		t.Fatalf("NewLLMStatusCache: %v", err)
	}
	defer cache.Close()
	ctx := context.Background()

	if _, found, err := cache.Get(ctx, "Gemini"); err != nil || found {
		t.Fatalf("Get before Set: found=%v err=%v", found, err)
	}
	if err := cache.Set(ctx, "Gemini", false); err != nil {
		t.Fatalf("Set: %v", err)
	}
	active, found, err := cache.Get(ctx, "Gemini")
	if err != nil || !found || active {
		t.Fatalf("Get after Set: active=%v found=%v err=%v", active, found, err)
	}
	if _, found, _ := cache.Get(ctx, "gemini"); found {
		t.Fatalf("Get other case: expected miss")
	}
	if err := cache.Invalidate(ctx, "Gemini"); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, found, _ := cache.Get(ctx, "Gemini"); found {
		t.Fatalf("Get after Invalidate: expected miss")
	}
}
