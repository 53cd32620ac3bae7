package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/magix-backend/internal/data/repos/chat"
	"github.com/yungbote/magix-backend/internal/data/repos/llm"
	"github.com/yungbote/magix-backend/internal/data/repos/user"
	"github.com/yungbote/magix-backend/internal/platform/logger"
)

type ConversationRepo = chat.ConversationRepo
type LLMRepo = llm.LLMRepo
type UserRepo = user.UserRepo

func NewConversationRepo(db *gorm.DB, log *logger.Logger) ConversationRepo {
	return chat.NewConversationRepo(db, log)
}

func NewLLMRepo(db *gorm.DB, log *logger.Logger) LLMRepo {
	return llm.NewLLMRepo(db, log)
}

func NewUserRepo(db *gorm.DB, log *logger.Logger) UserRepo {
	return user.NewUserRepo(db, log)
}
