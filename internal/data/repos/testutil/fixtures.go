package testutil

import (
	"context"
	"testing"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/magix-backend/internal/domain"
)

func SeedConversation(tb testing.TB, ctx context.Context, tx *gorm.DB, id, owner string, createdAt time.Time) *types.Conversation {
	tb.Helper()
	c := &types.Conversation{
		ID:        id,
		UserEmail: owner,
		Title:     "Untitled Chat",
		LLMName:   "Gemini",
		LLMParams: datatypes.JSON([]byte(`{"temp":0.1,"max_tokens":1000}`)),
		CreatedAt: createdAt,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed conversation: %v", err)
	}
	return c
}

func SeedLLM(tb testing.TB, ctx context.Context, tx *gorm.DB, name string, active bool) *types.LLM {
	tb.Helper()
	l := &types.LLM{
		Name:        name,
		DisplayName: name,
		Provider:    "google",
		ModelName:   "gemini-1.5-pro",
		Version:     "001",
		Params:      datatypes.JSON([]byte(`{}`)),
		IsActive:    active,
	}
	if err := tx.WithContext(ctx).Create(l).Error; err != nil {
		tb.Fatalf("seed llm: %v", err)
	}
	return l
}

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, username, email string) *types.User {
	tb.Helper()
	u := &types.User{Username: username, Email: email}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}
