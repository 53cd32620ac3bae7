package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/magix-backend/internal/platform/logger"
	"github.com/yungbote/magix-backend/internal/services"
)

type Services struct {
	Conversation services.ConversationService
	LLM          services.LLMService
	Message      services.MessageService
	User         services.UserService
}

func wireServices(ctx context.Context, log *logger.Logger, cfg Config, reposet Repos, clients Clients) (Services, error) {
	log.Info("Wiring services...")

	conversations := services.NewConversationService(reposet.Conversation, clients.Blobs, cfg.DefaultUserEmail, log)
	llms := services.NewLLMService(reposet.LLM, clients.LLMStatusCache, log)
	messages := services.NewMessageService(conversations, llms, clients.Providers, clients.Blobs, log)
	users := services.NewUserService(reposet.User, clients.TokenVerifier, cfg.TenantID, log)

	if path := strings.TrimSpace(cfg.LLMSeedFile); path != "" {
		if _, err := llms.SeedFromFile(ctx, path); err != nil {
			return Services{}, fmt.Errorf("seed llm registry: %w", err)
		}
	}

	return Services{
		Conversation: conversations,
		LLM:          llms,
		Message:      messages,
		User:         users,
	}, nil
}
