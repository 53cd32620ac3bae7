package domain

import (
	"github.com/yungbote/magix-backend/internal/domain/chat"
	"github.com/yungbote/magix-backend/internal/domain/llm"
	"github.com/yungbote/magix-backend/internal/domain/user"
)

type Conversation = chat.Conversation
type Message = chat.Message
type Transcript = chat.Transcript
type Settings = chat.Settings

type LLM = llm.Registration

type User = user.User

// Models lists every table the service migrates.
func Models() []any {
	return []any{&Conversation{}, &LLM{}, &User{}}
}
