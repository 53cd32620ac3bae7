package services

import (
	"context"
	"encoding/json"
	"net/http"
	"reflect"
	"testing"

	"gorm.io/datatypes"

	"github.com/yungbote/magix-backend/internal/data/blob"
	"github.com/yungbote/magix-backend/internal/domain/chat"
	"github.com/yungbote/magix-backend/internal/platform/apierr"
	"github.com/yungbote/magix-backend/internal/platform/ctxutil"
)

func TestPostSettingsDefaults(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	settings, err := f.conversations.PostSettings(ctx, "c1", "", "", "", nil)
	if err != nil {
		t.Fatalf("PostSettings: %v", err)
	}
	if settings.Title() != chat.DefaultTitle || settings.LLMName() != chat.DefaultLLMName || settings.UserEmail() != chat.DefaultUserEmail {
		t.Fatalf("settings: got=%v", settings)
	}

	_, err = f.conversations.PostSettings(ctx, "c1", "", "", "", nil)
	ae := apierr.As(err)
	if ae == nil || ae.Code != apierr.TypePersist || ae.Message != "Conversation already exists" {
		t.Fatalf("duplicate PostSettings: got=%v", err)
	}
}

func TestUpdateSettingsIdempotent(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	if _, err := f.conversations.PostSettings(ctx, "c2", "b@example.com", "Chat", "Gemini", nil); err != nil {
		t.Fatalf("PostSettings: %v", err)
	}

	patch := map[string]any{"llm_name": "Codestral", "llm_params": map[string]any{"temp": 0.5}}
	first, err := f.conversations.UpdateSettings(ctx, "c2", patch, "")
	if err != nil {
		t.Fatalf("UpdateSettings #1: %v", err)
	}
	firstJSON, _ := json.Marshal(first)
	second, err := f.conversations.UpdateSettings(ctx, "c2", patch, "")
	if err != nil {
		t.Fatalf("UpdateSettings #2: %v", err)
	}
	secondJSON, _ := json.Marshal(second)
	if string(firstJSON) != string(secondJSON) {
		t.Fatalf("not idempotent: first=%s second=%s", firstJSON, secondJSON)
	}

	stored, err := f.conversations.GetSettings(ctx, "c2", "")
	if err != nil {
		t.Fatalf("GetSettings: %v", err)
	}
	if stored.LLMName() != "Codestral" || stored.Title() != "Chat" || stored.UserEmail() != "b@example.com" {
		t.Fatalf("stored: got=%v", stored)
	}
	if !reflect.DeepEqual(stored.LLMParams(), map[string]any{"temp": 0.5}) {
		t.Fatalf("llm_params: got=%v", stored.LLMParams())
	}

	row, err := f.conversations.Get(ctx, "c2")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if row.LLMName != "Codestral" {
		t.Fatalf("row llm_name: want=%q got=%q", "Codestral", row.LLMName)
	}
}

func TestUpdateSettingsCreatesMissingConversation(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	settings, err := f.conversations.UpdateSettings(ctx, "fresh", map[string]any{"llm_name": "Codestral"}, "c@example.com")
	if err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
	if settings.LLMName() != "Codestral" || settings.UserEmail() != "c@example.com" || settings.Title() != chat.DefaultTitle {
		t.Fatalf("settings: got=%v", settings)
	}
	if _, err := f.conversations.Get(ctx, "fresh"); err != nil {
		t.Fatalf("Get: %v", err)
	}
}

func TestUpdateSettingsRebuildsLostDocument(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	if _, err := f.conversations.Create(ctx, "orphan", "d@example.com", "Kept", "Gemini", map[string]any{"temp": 0.2}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	settings, err := f.conversations.UpdateSettings(ctx, "orphan", map[string]any{"extra": "x"}, "")
	if err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
	if settings.Title() != "Kept" || settings["extra"] != "x" {
		t.Fatalf("settings: got=%v", settings)
	}
	var raw chat.Settings
	found, err := blob.GetJSON(ctx, f.blobs, "d@example.com", "orphan", chat.DocSettings, &raw)
	if err != nil || !found {
		t.Fatalf("stored document: found=%v err=%v", found, err)
	}
}

func TestUpdateSettingsRebuildsWithUnreadableParams(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	if _, err := f.conversations.Create(ctx, "bad-params", "d@example.com", "Kept", "Gemini", map[string]any{"temp": 0.2}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := f.db.Model(&chat.Conversation{}).Where("id = ?", "bad-params").
		Update("llm_params", datatypes.JSON(`[1,2]`)).Error; err != nil {
		t.Fatalf("corrupt llm_params: %v", err)
	}
	settings, err := f.conversations.UpdateSettings(ctx, "bad-params", map[string]any{"title": "Renamed"}, "")
	if err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
	if settings.Title() != "Renamed" || settings.LLMName() != "Gemini" {
		t.Fatalf("settings: got=%v", settings)
	}
	if p := settings.LLMParams(); len(p) != 0 {
		t.Fatalf("llm_params: want empty got=%v", p)
	}
}

func TestUpdateTitleMissing(t *testing.T) {
	f := newServiceFixture(t)
	err := f.conversations.UpdateTitle(context.Background(), "ghost", "x")
	if ae := apierr.As(err); ae == nil || ae.Status != http.StatusNotFound {
		t.Fatalf("UpdateTitle: want 404 got=%v", err)
	}
}

func TestResolveOwnerOrder(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	if _, err := f.conversations.Create(ctx, "owned", "row@example.com", "t", "Gemini", nil); err != nil {
		t.Fatalf("Create: %v", err)
	}
	authed := ctxutil.WithRequestData(ctx, &ctxutil.RequestData{Email: "caller@example.com"})

	cases := []struct {
		name string
		ctx  context.Context
		id   string
		hint string
		want string
	}{
		{"row wins", authed, "owned", "hint@example.com", "row@example.com"},
		{"hint", authed, "new", "hint@example.com", "hint@example.com"},
		{"caller", authed, "new", "", "caller@example.com"},
		{"default", ctx, "new", "", chat.DefaultUserEmail},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := f.conversations.ResolveOwner(tc.ctx, tc.id, tc.hint)
			if err != nil {
				t.Fatalf("ResolveOwner: %v", err)
			}
			if got != tc.want {
				t.Fatalf("owner: want=%q got=%q", tc.want, got)
			}
		})
	}
}

func TestListConversations(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	for _, id := range []string{"l1", "l2", "l3"} {
		if _, err := f.conversations.Create(ctx, id, "list@example.com", id, "Gemini", nil); err != nil {
			t.Fatalf("Create %s: %v", id, err)
		}
	}
	rows, err := f.conversations.List(ctx, "list@example.com", 0, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("List: want=2 got=%d", len(rows))
	}
	rows, err = f.conversations.List(ctx, "nobody@example.com", 0, 10)
	if err != nil {
		t.Fatalf("List other: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("List other: want=0 got=%d", len(rows))
	}
}
