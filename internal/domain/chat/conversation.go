package chat

import (
	"time"

	"gorm.io/datatypes"
)

const (
	DefaultTitle     = "Untitled Chat"
	DefaultLLMName   = "Gemini"
	DefaultUserEmail = "user@example.com"
)

// DefaultLLMParams is a fresh copy of the parameters new conversations start with.
func DefaultLLMParams() map[string]any {
	return map[string]any{"temp": 0.1, "max_tokens": 1000}
}

type Conversation struct {
	ID        string         `gorm:"primaryKey;column:id" json:"id"`
	UserEmail string         `gorm:"index;column:user_email" json:"user_email"`
	Title     string         `gorm:"column:title" json:"title"`
	LLMName   string         `gorm:"column:llm_name" json:"llm_name"`
	LLMParams datatypes.JSON `gorm:"column:llm_params" json:"llm_params"`
	CreatedAt time.Time      `gorm:"index;column:created_at;autoCreateTime" json:"created_at"`
}

func (Conversation) TableName() string { return "conversation" }
