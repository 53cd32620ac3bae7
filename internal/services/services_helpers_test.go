package services

import (
	"context"
	"strings"
	"sync"
	"testing"

	"gorm.io/gorm"

	"github.com/yungbote/magix-backend/internal/data/blob"
	"github.com/yungbote/magix-backend/internal/data/repos"
	"github.com/yungbote/magix-backend/internal/data/repos/testutil"
	"github.com/yungbote/magix-backend/internal/domain/chat"
	"github.com/yungbote/magix-backend/internal/platform/llm"
)

// fakeLLM answers title prompts with a fixed template and everything else
// with two fragments (or one joined fragment when not streaming).
type fakeLLM struct {
	mu      sync.Mutex
	title   string
	chunks  []string
	role    string
	prompts []string
	params  []llm.Params
	err     error
}

func (f *fakeLLM) ModelName() string { return "fake-model" }

func (f *fakeLLM) Generate(ctx context.Context, history []chat.Message, prompt string, params llm.Params, stream bool, emit llm.EmitFunc) error {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.params = append(f.params, params)
	f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	role := f.role
	if role == "" {
		role = chat.RoleSystem
	}
	if strings.HasPrefix(prompt, "Generate a conversation title") {
		return emit(llm.Fragment{Role: role, Message: "Title: " + f.title})
	}
	if !stream {
		return emit(llm.Fragment{Role: role, Message: strings.Join(f.chunks, "")})
	}
	for _, c := range f.chunks {
		if err := emit(llm.Fragment{Role: role, Message: c}); err != nil {
			return err
		}
	}
	return nil
}

type serviceFixture struct {
	db            *gorm.DB
	blobs         blob.Store
	llmClient     *fakeLLM
	conversations ConversationService
	llms          LLMService
	messages      MessageService
	convRepo      repos.ConversationRepo
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	gdb := testutil.DB(t)
	log := testutil.Logger(t)
	blobs := blob.NewMemoryStore()
	convRepo := repos.NewConversationRepo(gdb, log)
	conversations := NewConversationService(convRepo, blobs, "", log)
	llms := NewLLMService(repos.NewLLMRepo(gdb, log), nil, log)

	fake := &fakeLLM{title: "Friendly Greeting", chunks: []string{"Hi", " there"}}
	registry := llm.NewRegistry()
	registry.Register("gemini", fake)

	return &serviceFixture{
		db:            gdb,
		blobs:         blobs,
		llmClient:     fake,
		conversations: conversations,
		llms:          llms,
		messages:      NewMessageService(conversations, llms, registry, blobs, log),
		convRepo:      convRepo,
	}
}

func collect(out *[]chat.Message) ChunkSink {
	return func(m chat.Message) error {
		*out = append(*out, m)
		return nil
	}
}
