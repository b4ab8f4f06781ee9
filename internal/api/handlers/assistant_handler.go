package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hirelane/aicore/internal/orchestrator"
	"github.com/hirelane/aicore/internal/utils"
)

type AssistantHandler struct {
	coordinator *orchestrator.Coordinator
}

func NewAssistantHandler(coordinator *orchestrator.Coordinator) *AssistantHandler {
	return &AssistantHandler{coordinator: coordinator}
}

type QueryRequest struct {
	Query   string            `json:"query" binding:"required"`
	Context map[string]string `json:"context"`
}

func (h *AssistantHandler) Query(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "AssistantHandler.Query", "query is required", err))
		return
	}

	res, err := h.coordinator.Handle(c.Request.Context(), req.Query, userID, req.Context)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type HandoffRequest struct {
	FromHandler string            `json:"from_handler" binding:"required"`
	ToHandler   string            `json:"to_handler" binding:"required"`
	Context     map[string]string `json:"context"`
}

func (h *AssistantHandler) Handoff(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	var req HandoffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "AssistantHandler.Handoff", "from_handler and to_handler are required", err))
		return
	}

	if err := h.coordinator.Handoff(c.Request.Context(), req.FromHandler, req.ToHandler, req.Context); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "transferred"})
}
