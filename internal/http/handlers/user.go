package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/magix-backend/internal/http/response"
	"github.com/yungbote/magix-backend/internal/platform/logger"
	"github.com/yungbote/magix-backend/internal/services"
)

type UserHandler struct {
	log   *logger.Logger
	users services.UserService
}

func NewUserHandler(log *logger.Logger, users services.UserService) *UserHandler {
	return &UserHandler{log: log.With("handler", "UserHandler"), users: users}
}

// GET /users[?username=]
func (h *UserHandler) List(c *gin.Context) {
	if username := strings.TrimSpace(c.Query("username")); username != "" {
		u, err := h.users.GetByUsername(c.Request.Context(), username)
		if err != nil {
			response.RespondError(c, err)
			return
		}
		response.RespondOK(c, u)
		return
	}
	rows, err := h.users.List(c.Request.Context())
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, rows)
}

// GET /verify/token?token=
func (h *UserHandler) VerifyToken(c *gin.Context) {
	u, err := h.users.ValidateToken(c.Request.Context(), c.Query("token"))
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, u)
}
