package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/magix-backend/internal/data/repos"
	"github.com/yungbote/magix-backend/internal/platform/logger"
)

type Repos struct {
	Conversation repos.ConversationRepo
	LLM          repos.LLMRepo
	User         repos.UserRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Conversation: repos.NewConversationRepo(db, log),
		LLM:          repos.NewLLMRepo(db, log),
		User:         repos.NewUserRepo(db, log),
	}
}
