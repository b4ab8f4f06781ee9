package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/hirelane/aicore/internal/models"
	"github.com/hirelane/aicore/internal/rag"
	"github.com/hirelane/aicore/internal/utils"
	"github.com/hirelane/aicore/internal/workers"
)

type DocumentHandler struct {
	retriever *rag.Retriever
	redis     *redis.Client
}

func NewDocumentHandler(retriever *rag.Retriever, rdb *redis.Client) *DocumentHandler {
	return &DocumentHandler{retriever: retriever, redis: rdb}
}

type IndexDocumentRequest struct {
	DocumentID string            `json:"document_id"`
	Content    string            `json:"content" binding:"required"`
	Source     string            `json:"source"`
	Metadata   map[string]string `json:"metadata"`
}

// Index accepts a document for the corpus. Default is asynchronous via the
// indexing stream; ?sync=true indexes inline and reports chunk counts.
func (h *DocumentHandler) Index(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	var req IndexDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "DocumentHandler.Index", "content is required", err))
		return
	}
	if req.DocumentID == "" {
		req.DocumentID = uuid.NewString()
	}

	if c.Query("sync") == "true" {
		result, err := h.retriever.Index(c.Request.Context(), []models.Document{{
			ID:       req.DocumentID,
			Content:  req.Content,
			Metadata: withSource(req.Metadata, req.Source),
		}})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"document_id": req.DocumentID, "result": result})
		return
	}

	msgID, err := workers.EnqueueIndexJob(c.Request.Context(), h.redis, workers.IndexJob{
		DocumentID: req.DocumentID,
		Content:    req.Content,
		Source:     req.Source,
		Metadata:   req.Metadata,
	})
	if err != nil {
		writeError(c, utils.E(utils.CodeUnavailable, "DocumentHandler.Index", "failed to enqueue indexing job", err))
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"document_id": req.DocumentID, "job_id": msgID})
}

func (h *DocumentHandler) Reindex(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	var req IndexDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "DocumentHandler.Reindex", "content is required", err))
		return
	}

	documentID := c.Param("document_id")
	msgID, err := workers.EnqueueIndexJob(c.Request.Context(), h.redis, workers.IndexJob{
		DocumentID: documentID,
		Content:    req.Content,
		Source:     req.Source,
		Metadata:   req.Metadata,
		Reindex:    true,
	})
	if err != nil {
		writeError(c, utils.E(utils.CodeUnavailable, "DocumentHandler.Reindex", "failed to enqueue indexing job", err))
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"document_id": documentID, "job_id": msgID})
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	deleted, err := h.retriever.DeleteDocument(c.Request.Context(), c.Param("document_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted_chunks": deleted})
}

func (h *DocumentHandler) Search(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	query := c.Query("q")
	opts := rag.SearchOptions{TopK: queryInt(c, "top_k", 0, 100)}
	if s := c.Query("min_similarity"); s != "" {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || f < 0 || f > 1 {
			writeError(c, utils.E(utils.CodeInvalidArgument, "DocumentHandler.Search", "min_similarity must be in [0,1]", err))
			return
		}
		opts.MinSimilarity = &f
	}

	results, err := h.retriever.Search(c.Request.Context(), query, opts)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

func withSource(metadata map[string]string, source string) map[string]string {
	if source == "" {
		return metadata
	}
	if metadata == nil {
		metadata = map[string]string{}
	}
	metadata["source"] = source
	return metadata
}
