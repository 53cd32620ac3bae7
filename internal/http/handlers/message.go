package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/magix-backend/internal/domain/chat"
	"github.com/yungbote/magix-backend/internal/http/response"
	"github.com/yungbote/magix-backend/internal/platform/logger"
	"github.com/yungbote/magix-backend/internal/services"
)

const ndjsonContentType = "application/x-ndjson"

type MessageHandler struct {
	log      *logger.Logger
	messages services.MessageService
}

func NewMessageHandler(log *logger.Logger, messages services.MessageService) *MessageHandler {
	return &MessageHandler{log: log.With("handler", "MessageHandler"), messages: messages}
}

// GET /conversations/:id/messages
func (h *MessageHandler) List(c *gin.Context) {
	transcript, err := h.messages.GetMessages(c.Request.Context(), c.Param("id"), c.Query("userEmail"))
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, transcript)
}

// POST /conversations/:id/messages[?stream=false]
// body: { "role": "user", "message": "...", "userEmail": "..." }
func (h *MessageHandler) Post(c *gin.Context) {
	var req struct {
		Role      *string `json:"role"`
		Message   *string `json:"message"`
		UserEmail string  `json:"userEmail"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Role == nil || req.Message == nil {
		response.RespondBadRequest(c, "Missing argument")
		return
	}
	ownerHint := req.UserEmail
	if ownerHint == "" {
		ownerHint = c.Query("userEmail")
	}
	stream := !strings.EqualFold(strings.TrimSpace(c.Query("stream")), "false")

	enc := json.NewEncoder(c.Writer)
	wrote := false
	sink := func(m chat.Message) error {
		if !wrote {
			c.Header("Content-Type", ndjsonContentType)
			c.Header("Cache-Control", "no-cache")
			c.Header("X-Accel-Buffering", "no")
			c.Status(http.StatusOK)
			wrote = true
		}
		if err := enc.Encode(m); err != nil {
			return err
		}
		c.Writer.Flush()
		return nil
	}

	err := h.messages.PostMessage(c.Request.Context(), services.PostMessageInput{
		ConversationID: c.Param("id"),
		OwnerHint:      ownerHint,
		Role:           *req.Role,
		Message:        *req.Message,
		Stream:         stream,
	}, sink)
	if err == nil {
		return
	}
	if !wrote {
		response.RespondError(c, err)
		return
	}
	// headers are gone; report the failure as a final line
	_, body := response.ErrorBody(err)
	if encErr := enc.Encode(body); encErr != nil {
		h.log.Warn("write stream error trailer failed", "error", encErr)
	}
	c.Writer.Flush()
}
