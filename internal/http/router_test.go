package http

import (
	"bufio"
	"context"
	"encoding/json"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/magix-backend/internal/data/blob"
	"github.com/yungbote/magix-backend/internal/data/repos"
	"github.com/yungbote/magix-backend/internal/data/repos/testutil"
	"github.com/yungbote/magix-backend/internal/domain/chat"
	httpH "github.com/yungbote/magix-backend/internal/http/handlers"
	"github.com/yungbote/magix-backend/internal/platform/llm"
	"github.com/yungbote/magix-backend/internal/services"
)

type echoLLM struct{}

func (echoLLM) ModelName() string { return "echo" }

func (echoLLM) Generate(_ context.Context, _ []chat.Message, prompt string, _ llm.Params, stream bool, emit llm.EmitFunc) error {
	if strings.HasPrefix(prompt, "Generate a conversation title") {
		return emit(llm.Fragment{Role: chat.RoleSystem, Message: "Title: Echo Chat"})
	}
	if !stream {
		return emit(llm.Fragment{Role: chat.RoleSystem, Message: "echo: " + prompt})
	}
	for _, part := range []string{"echo", ": ", prompt} {
		if err := emit(llm.Fragment{Role: chat.RoleSystem, Message: part}); err != nil {
			return err
		}
	}
	return nil
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	gdb := testutil.DB(t)
	log := testutil.Logger(t)
	blobs := blob.NewMemoryStore()

	registry := llm.NewRegistry()
	registry.Register("gemini", echoLLM{})

	conversations := services.NewConversationService(repos.NewConversationRepo(gdb, log), blobs, "", log)
	llms := services.NewLLMService(repos.NewLLMRepo(gdb, log), nil, log)
	users := services.NewUserService(repos.NewUserRepo(gdb, log), nil, "", log)
	messages := services.NewMessageService(conversations, llms, registry, blobs, log)

	return NewRouter(RouterConfig{
		Log:                 log,
		ConversationHandler: httpH.NewConversationHandler(log, conversations),
		MessageHandler:      httpH.NewMessageHandler(log, messages),
		LLMHandler:          httpH.NewLLMHandler(log, llms),
		UserHandler:         httpH.NewUserHandler(log, users),
		HealthHandler:       httpH.NewHealthHandler(nil),
	})
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *nethttp.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHealthRoutes(t *testing.T) {
	r := newTestRouter(t)
	for path, want := range map[string]string{"/ping": "pong", "/healthcheck": "ok"} {
		rec := do(r, nethttp.MethodGet, path, "")
		if rec.Code != nethttp.StatusOK || rec.Body.String() != want {
			t.Fatalf("%s: want=%q got=%d %q", path, want, rec.Code, rec.Body.String())
		}
	}
	if rec := do(r, nethttp.MethodGet, "/metrics", ""); rec.Code != nethttp.StatusNotFound {
		t.Fatalf("/metrics without metrics: want=404 got=%d", rec.Code)
	}
}

func TestConversationsRequiresUserEmail(t *testing.T) {
	r := newTestRouter(t)
	rec := do(r, nethttp.MethodGet, "/conversations", "")
	if rec.Code != nethttp.StatusBadRequest {
		t.Fatalf("status: want=400 got=%d", rec.Code)
	}
	var body map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if body["message"] != "User email is required" {
		t.Fatalf("message: got=%v", body["message"])
	}
}

func TestMissingArgument(t *testing.T) {
	r := newTestRouter(t)
	cases := []struct {
		method string
		path   string
		body   string
	}{
		{nethttp.MethodPost, "/conversations/x/settings", `{"llm_name":"Gemini"}`},
		{nethttp.MethodPatch, "/conversations/x/settings", `{}`},
		{nethttp.MethodPost, "/conversations/x/messages", `{"role":"user"}`},
		{nethttp.MethodPatch, "/llms", `{"name":"Gemini"}`},
		{nethttp.MethodDelete, "/llms", `{}`},
		{nethttp.MethodPost, "/llms", `{"name":"X"}`},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			rec := do(r, tc.method, tc.path, tc.body)
			if rec.Code != nethttp.StatusBadRequest {
				t.Fatalf("status: want=400 got=%d body=%s", rec.Code, rec.Body.String())
			}
			if strings.TrimSpace(rec.Body.String()) != `{"message":"Missing argument"}` {
				t.Fatalf("body: got=%s", rec.Body.String())
			}
		})
	}
}

func TestConversationFlow(t *testing.T) {
	r := newTestRouter(t)

	rec := do(r, nethttp.MethodPost, "/conversations", "")
	id := rec.Body.String()
	if rec.Code != nethttp.StatusOK || len(id) != 36 {
		t.Fatalf("new id: got=%d %q", rec.Code, id)
	}

	rec = do(r, nethttp.MethodPost, "/conversations/"+id+"/settings", `{"llm_name":"Gemini","llm_params":{"temp":0.3},"userEmail":"eve@example.com"}`)
	if rec.Code != nethttp.StatusOK {
		t.Fatalf("post settings: got=%d %s", rec.Code, rec.Body.String())
	}

	rec = do(r, nethttp.MethodPost, "/conversations/"+id+"/messages", `{"role":"user","message":"Hello"}`)
	if rec.Code != nethttp.StatusOK {
		t.Fatalf("post message: got=%d %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/x-ndjson" {
		t.Fatalf("content type: got=%q", ct)
	}
	var joined strings.Builder
	sc := bufio.NewScanner(strings.NewReader(rec.Body.String()))
	lines := 0
	for sc.Scan() {
		var m chat.Message
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			t.Fatalf("ndjson line %q: %v", sc.Text(), err)
		}
		joined.WriteString(m.Message)
		lines++
	}
	if lines != 3 || joined.String() != "echo: Hello" {
		t.Fatalf("stream: lines=%d text=%q", lines, joined.String())
	}

	rec = do(r, nethttp.MethodGet, "/conversations/"+id+"/messages", "")
	var transcript chat.Transcript
	if err := json.Unmarshal(rec.Body.Bytes(), &transcript); err != nil {
		t.Fatalf("transcript: %v", err)
	}
	if len(transcript) != 2 || transcript[1].Message != "echo: Hello" {
		t.Fatalf("transcript: got=%+v", transcript)
	}

	rec = do(r, nethttp.MethodGet, "/conversations?userEmail=eve@example.com", "")
	var rows []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &rows); err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 || rows[0]["id"] != id || rows[0]["title"] != "Echo Chat" {
		t.Fatalf("list: got=%v", rows)
	}

	rec = do(r, nethttp.MethodPatch, "/conversations/"+id+"/settings", `{"title":"Renamed"}`)
	if rec.Code != nethttp.StatusOK {
		t.Fatalf("patch: got=%d %s", rec.Code, rec.Body.String())
	}
	rec = do(r, nethttp.MethodGet, "/conversations/"+id+"/settings", "")
	var settings map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &settings)
	if settings["title"] != "Renamed" || settings["user_email"] != "eve@example.com" {
		t.Fatalf("settings: got=%v", settings)
	}
}

func TestLLMRoutes(t *testing.T) {
	r := newTestRouter(t)

	rec := do(r, nethttp.MethodPost, "/llms", `{"name":"Gemini","display_name":"Gemini","provider":"google","model_name":"gemini-1.5-pro","version":"001","params":{}}`)
	if rec.Code != nethttp.StatusCreated {
		t.Fatalf("create: got=%d %s", rec.Code, rec.Body.String())
	}

	rec = do(r, nethttp.MethodPatch, "/llms", `{"name":"Gemini","is_active":false}`)
	if rec.Code != nethttp.StatusOK || !strings.Contains(rec.Body.String(), "LLM updated successfully") {
		t.Fatalf("patch: got=%d %s", rec.Code, rec.Body.String())
	}

	rec = do(r, nethttp.MethodPost, "/conversations/off/messages?stream=false", `{"role":"user","message":"Hi"}`)
	if strings.TrimSpace(rec.Body.String()) != `{"role":"system","message":"`+chat.DisabledLLMMessage+`"}` {
		t.Fatalf("disabled chunk: got=%s", rec.Body.String())
	}

	rec = do(r, nethttp.MethodDelete, "/llms", `{"name":"nonexistent"}`)
	if rec.Code != nethttp.StatusNotFound {
		t.Fatalf("delete missing: want=404 got=%d", rec.Code)
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
	if env.Message != "Error" || env.Data.Error.Type != "NoRowsUpdated" || env.Data.Error.Message != "No LLM record found with the given name." {
		t.Fatalf("envelope: got=%+v", env)
	}

	rec = do(r, nethttp.MethodDelete, "/llms", `{"name":"Gemini"}`)
	if rec.Code != nethttp.StatusOK || !strings.Contains(rec.Body.String(), "LLM deleted successfully") {
		t.Fatalf("delete: got=%d %s", rec.Code, rec.Body.String())
	}
}

func TestUserRoutes(t *testing.T) {
	r := newTestRouter(t)
	rec := do(r, nethttp.MethodGet, "/users?username=ghost", "")
	if rec.Code != nethttp.StatusNotFound {
		t.Fatalf("missing user: want=404 got=%d", rec.Code)
	}
	rec = do(r, nethttp.MethodGet, "/users", "")
	if rec.Code != nethttp.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("list: got=%d %s", rec.Code, rec.Body.String())
	}
	rec = do(r, nethttp.MethodGet, "/verify/token?token=abc", "")
	if rec.Code != nethttp.StatusInternalServerError {
		t.Fatalf("verify without CLIENT_ID: want=500 got=%d", rec.Code)
	}
}
