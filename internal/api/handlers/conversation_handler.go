package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hirelane/aicore/internal/memory"
	"github.com/hirelane/aicore/internal/models"
	"github.com/hirelane/aicore/internal/utils"
)

type ConversationHandler struct {
	memory *memory.Manager
}

func NewConversationHandler(m *memory.Manager) *ConversationHandler {
	return &ConversationHandler{memory: m}
}

type CreateConversationRequest struct {
	Metadata map[string]string `json:"metadata"`
}

func (h *ConversationHandler) Create(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		writeError(c, utils.E(utils.CodeInvalidArgument, "ConversationHandler.Create", "malformed request body", err))
		return
	}

	conv, err := h.memory.CreateConversation(c.Request.Context(), userID, req.Metadata)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, conv)
}

func (h *ConversationHandler) Get(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	conv, err := h.memory.GetConversation(c.Request.Context(), c.Param("conversation_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

type AddMessageRequest struct {
	Role     string            `json:"role" binding:"required"`
	Content  string            `json:"content" binding:"required"`
	Metadata map[string]string `json:"metadata"`
}

func (h *ConversationHandler) AddMessage(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	var req AddMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "ConversationHandler.AddMessage", "role and content are required", err))
		return
	}

	err := h.memory.AddMessage(c.Request.Context(), c.Param("conversation_id"), models.Message{
		Role:     req.Role,
		Content:  req.Content,
		Metadata: req.Metadata,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "appended"})
}

func (h *ConversationHandler) List(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	limit := queryInt(c, "limit", 20, 200)
	convs, err := h.memory.GetUserConversations(c.Request.Context(), userID, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": convs})
}

func (h *ConversationHandler) Search(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	term := c.Query("q")
	limit := queryInt(c, "limit", 20, 200)
	convs, err := h.memory.SearchMessages(c.Request.Context(), userID, term, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": convs})
}

func (h *ConversationHandler) Delete(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	if err := h.memory.DeleteConversation(c.Request.Context(), c.Param("conversation_id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (h *ConversationHandler) Patterns(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	patterns, err := h.memory.ExtractPatterns(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"patterns": patterns})
}
