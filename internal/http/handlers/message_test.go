package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/magix-backend/internal/domain/chat"
	"github.com/yungbote/magix-backend/internal/platform/apierr"
	"github.com/yungbote/magix-backend/internal/platform/logger"
	"github.com/yungbote/magix-backend/internal/services"
)

type scriptedMessages struct {
	chunks []string
	err    error
	got    services.PostMessageInput
}

func (s *scriptedMessages) GetMessages(context.Context, string, string) (chat.Transcript, error) {
	return chat.Transcript{}, nil
}

func (s *scriptedMessages) PostMessage(_ context.Context, in services.PostMessageInput, sink services.ChunkSink) error {
	s.got = in
	for _, c := range s.chunks {
		if err := sink(chat.Message{Role: chat.RoleSystem, Message: c}); err != nil {
			return err
		}
	}
	return s.err
}

func (s *scriptedMessages) GenerateTitle(context.Context, string) string { return chat.DefaultTitle }

func postMessage(t *testing.T, svc services.MessageService, query string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewMessageHandler(logger.Nop(), svc)
	r.POST("/conversations/:id/messages", h.Post)

	req := httptest.NewRequest(http.MethodPost, "/conversations/c1/messages"+query, strings.NewReader(`{"role":"user","message":"hi","userEmail":"f@example.com"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestMessagePostStreamFlag(t *testing.T) {
	cases := []struct {
		query string
		want  bool
	}{
		{"", true},
		{"?stream=true", true},
		{"?stream=false", false},
		{"?stream=FALSE", false},
	}
	for _, tc := range cases {
		t.Run(tc.query, func(t *testing.T) {
			svc := &scriptedMessages{chunks: []string{"a"}}
			postMessage(t, svc, tc.query)
			if svc.got.Stream != tc.want {
				t.Fatalf("stream: want=%v got=%v", tc.want, svc.got.Stream)
			}
			if svc.got.ConversationID != "c1" || svc.got.OwnerHint != "f@example.com" {
				t.Fatalf("input: got=%+v", svc.got)
			}
		})
	}
}

func TestMessagePostFailureBeforeFirstChunk(t *testing.T) {
	svc := &scriptedMessages{err: apierr.Upstream("Upstream provider error", errors.New("429 quota"))}
	rec := postMessage(t, svc, "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status: want=500 got=%d", rec.Code)
	}
	var env struct {
		Message string `json:"message"`
		Data    struct {
			Error struct {
				Type    string `json:"type"`
				Message string `json:"message"`
			} `json:"error"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("envelope: %v", err)
	}
	if env.Data.Error.Type != apierr.TypeUpstream || env.Data.Error.Message != "429 quota" {
		t.Fatalf("envelope: got=%+v", env)
	}
}

func TestMessagePostFailureMidStream(t *testing.T) {
	svc := &scriptedMessages{chunks: []string{"partial"}, err: apierr.Persistence("Storage error occurred", errors.New("bucket gone"))}
	rec := postMessage(t, svc, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: want=200 got=%d", rec.Code)
	}
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines: want=2 got=%d (%q)", len(lines), rec.Body.String())
	}
	if lines[0] != `{"role":"system","message":"partial"}` {
		t.Fatalf("first line: got=%s", lines[0])
	}
	if !strings.Contains(lines[1], `"type":"PersistenceError"`) {
		t.Fatalf("trailer: got=%s", lines[1])
	}
}

func TestMessagePostRequiresKeysNotContent(t *testing.T) {
	cases := []struct {
		name       string
		body       string
		wantStatus int
		wantCalled bool
	}{
		{"empty message", `{"role":"user","message":""}`, http.StatusOK, true},
		{"blank role", `{"role":" ","message":"hi"}`, http.StatusOK, true},
		{"missing message", `{"role":"user"}`, http.StatusBadRequest, false},
		{"missing role", `{"message":"hi"}`, http.StatusBadRequest, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gin.SetMode(gin.TestMode)
			svc := &scriptedMessages{chunks: []string{"a"}}
			r := gin.New()
			r.POST("/conversations/:id/messages", NewMessageHandler(logger.Nop(), svc).Post)
			req := httptest.NewRequest(http.MethodPost, "/conversations/c1/messages", strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			if rec.Code != tc.wantStatus {
				t.Fatalf("status: want=%d got=%d body=%s", tc.wantStatus, rec.Code, rec.Body.String())
			}
			if called := svc.got.ConversationID != ""; called != tc.wantCalled {
				t.Fatalf("service called: want=%v got=%v", tc.wantCalled, called)
			}
		})
	}
}
