package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/magix-backend/internal/http/response"
	"github.com/yungbote/magix-backend/internal/platform/logger"
	"github.com/yungbote/magix-backend/internal/services"
)

type ConversationHandler struct {
	log           *logger.Logger
	conversations services.ConversationService
}

func NewConversationHandler(log *logger.Logger, conversations services.ConversationService) *ConversationHandler {
	return &ConversationHandler{log: log.With("handler", "ConversationHandler"), conversations: conversations}
}

func queryInt(c *gin.Context, key string, def int) int {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

// GET /conversations?userEmail=&id=&offset=&limit=
func (h *ConversationHandler) List(c *gin.Context) {
	owner := strings.TrimSpace(c.Query("userEmail"))
	if owner == "" {
		response.RespondBadRequest(c, "User email is required")
		return
	}
	if id := strings.TrimSpace(c.Query("id")); id != "" {
		conv, err := h.conversations.Get(c.Request.Context(), id)
		if err != nil {
			response.RespondError(c, err)
			return
		}
		response.RespondOK(c, conv)
		return
	}
	rows, err := h.conversations.List(c.Request.Context(), owner, queryInt(c, "offset", 0), queryInt(c, "limit", 0))
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, rows)
}

// POST /conversations
func (h *ConversationHandler) NewID(c *gin.Context) {
	c.String(http.StatusOK, h.conversations.NewID())
}

// GET /conversations/:id/settings
func (h *ConversationHandler) GetSettings(c *gin.Context) {
	settings, err := h.conversations.GetSettings(c.Request.Context(), c.Param("id"), c.Query("userEmail"))
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, settings)
}

// POST /conversations/:id/settings
// body: { "llm_name": "...", "llm_params": {...}, "userEmail": "..." }
func (h *ConversationHandler) PostSettings(c *gin.Context) {
	var req struct {
		LLMName   *string        `json:"llm_name"`
		LLMParams map[string]any `json:"llm_params"`
		UserEmail *string        `json:"userEmail"`
		Title     string         `json:"title"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.LLMName == nil || req.LLMParams == nil || req.UserEmail == nil {
		response.RespondBadRequest(c, "Missing argument")
		return
	}
	settings, err := h.conversations.PostSettings(c.Request.Context(), c.Param("id"), *req.UserEmail, req.Title, *req.LLMName, req.LLMParams)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, settings)
}

// PATCH /conversations/:id/settings
// body: any non-empty JSON object, shallow-merged into the settings document.
func (h *ConversationHandler) PatchSettings(c *gin.Context) {
	var patch map[string]any
	if err := c.ShouldBindJSON(&patch); err != nil || len(patch) == 0 {
		response.RespondBadRequest(c, "Missing argument")
		return
	}
	ownerHint, _ := patch["userEmail"].(string)
	if ownerHint == "" {
		ownerHint = c.Query("userEmail")
	}
	settings, err := h.conversations.UpdateSettings(c.Request.Context(), c.Param("id"), patch, ownerHint)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, settings)
}
