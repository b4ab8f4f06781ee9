package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/hirelane/aicore/internal/api/handlers"
)

type Deps struct {
	Assistant    *handlers.AssistantHandler
	Conversation *handlers.ConversationHandler
	Document     *handlers.DocumentHandler
	Cost         *handlers.CostHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := r.Group("/v1")

	v1.POST("/assistant/query", d.Assistant.Query)
	v1.POST("/assistant/handoff", d.Assistant.Handoff)

	v1.POST("/conversations", d.Conversation.Create)
	v1.GET("/conversations", d.Conversation.List)
	v1.GET("/conversations/search", d.Conversation.Search)
	v1.GET("/conversations/patterns", d.Conversation.Patterns)
	v1.GET("/conversations/:conversation_id", d.Conversation.Get)
	v1.POST("/conversations/:conversation_id/messages", d.Conversation.AddMessage)
	v1.DELETE("/conversations/:conversation_id", d.Conversation.Delete)

	v1.POST("/documents", d.Document.Index)
	v1.POST("/documents/:document_id/reindex", d.Document.Reindex)
	v1.DELETE("/documents/:document_id", d.Document.Delete)
	v1.GET("/documents/search", d.Document.Search)

	v1.GET("/costs/summary", d.Cost.Summary)
	v1.GET("/costs/budget", d.Cost.Budget)
	v1.GET("/costs/dashboard", d.Cost.Dashboard)
}
