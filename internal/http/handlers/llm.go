package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/magix-backend/internal/http/response"
	"github.com/yungbote/magix-backend/internal/platform/logger"
	"github.com/yungbote/magix-backend/internal/services"
)

type LLMHandler struct {
	log  *logger.Logger
	llms services.LLMService
}

func NewLLMHandler(log *logger.Logger, llms services.LLMService) *LLMHandler {
	return &LLMHandler{log: log.With("handler", "LLMHandler"), llms: llms}
}

// GET /llms
func (h *LLMHandler) List(c *gin.Context) {
	rows, err := h.llms.List(c.Request.Context())
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, rows)
}

// POST /llms
func (h *LLMHandler) Create(c *gin.Context) {
	var req struct {
		Name        *string        `json:"name"`
		DisplayName *string        `json:"display_name"`
		Provider    *string        `json:"provider"`
		ModelName   *string        `json:"model_name"`
		Version     *string        `json:"version"`
		Params      map[string]any `json:"params"`
		IsActive    *bool          `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil ||
		req.Name == nil || req.DisplayName == nil || req.Provider == nil ||
		req.ModelName == nil || req.Version == nil || req.Params == nil {
		response.RespondBadRequest(c, "Missing argument")
		return
	}
	row, err := h.llms.Create(c.Request.Context(), services.CreateLLMInput{
		Name:        *req.Name,
		DisplayName: *req.DisplayName,
		Provider:    *req.Provider,
		ModelName:   *req.ModelName,
		Version:     *req.Version,
		Params:      req.Params,
		IsActive:    req.IsActive,
	})
	if err != nil {
		response.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, row)
}

// PATCH /llms
// body: { "name": "...", "is_active": bool }
func (h *LLMHandler) UpdateActive(c *gin.Context) {
	var req struct {
		Name     *string `json:"name"`
		IsActive *bool   `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == nil || req.IsActive == nil {
		response.RespondBadRequest(c, "Missing argument")
		return
	}
	if err := h.llms.UpdateActive(c.Request.Context(), *req.Name, *req.IsActive); err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondMessage(c, http.StatusOK, "LLM updated successfully")
}

// DELETE /llms
// body: { "name": "..." }
func (h *LLMHandler) Delete(c *gin.Context) {
	var req struct {
		Name *string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == nil {
		response.RespondBadRequest(c, "Missing argument")
		return
	}
	if err := h.llms.Delete(c.Request.Context(), *req.Name); err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondMessage(c, http.StatusOK, "LLM deleted successfully")
}
