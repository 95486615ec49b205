package rest

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/parchment-labs/docq-cli/internal/core/domain"
)

// queryRequest is the body of POST /query.
type queryRequest struct {
	Question string `json:"question" binding:"required"`
}

// searchRequest is the body of POST /search.
type searchRequest struct {
	Query string `json:"query" binding:"required"`
	TopN  int    `json:"top_n"`
}

func (s *Server) handleHealth(c *gin.Context) {
	stats, err := s.ingest.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "documents": stats.Documents})
}

func (s *Server) handleStats(c *gin.Context) {
	stats, err := s.ingest.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) handleQuery(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question is required"})
		return
	}

	answer, err := s.answerer.Answer(c.Request.Context(), req.Question)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, domain.ErrRetrievalUnavailable), errors.Is(err, domain.ErrLLMUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, answer)
}

func (s *Server) handleSearch(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}

	result, err := s.retriever.Retrieve(c.Request.Context(), req.Query, domain.RetrievalOptions{
		TopN: req.TopN,
	})
	if err != nil {
		if errors.Is(err, domain.ErrRetrievalUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"passages": result.Passages,
		"warnings": result.Warnings,
	})
}

func (s *Server) handleListDocuments(c *gin.Context) {
	docs, err := s.ingest.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	out := make([]gin.H, 0, len(docs))
	for _, doc := range docs {
		out = append(out, gin.H{
			"id":          doc.ID,
			"name":        doc.Name,
			"chunk_count": doc.ChunkCount,
			"created_at":  doc.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"documents": out})
}

func (s *Server) handleUpload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field 'file' is required"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := s.ingest.IngestBytes(c.Request.Context(), fileHeader.Filename, content)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUnsupportedFormat):
			c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": err.Error()})
		case errors.Is(err, domain.ErrEmptyDocument), errors.Is(err, domain.ErrCorruptFile):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusCreated, report)
}

func (s *Server) handleDelete(c *gin.Context) {
	name := c.Param("name")
	if err := s.ingest.RemoveByName(c.Request.Context(), name); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no document named " + name})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}
