// Package httpapi exposes the document and query services over a JSON
// HTTP API with gin.
package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nuri-labs/docrag/internal/core/domain"
	"github.com/nuri-labs/docrag/internal/core/ports/driving"
	"github.com/nuri-labs/docrag/internal/logger"
)

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server routes HTTP requests to the core services.
type Server struct {
	ingest  driving.IngestService
	query   driving.QueryService
	catalog driving.CatalogService

	// Health probes, keyed by service name. Nil entries are skipped.
	probes map[string]Pinger
}

// Config bundles the server dependencies.
type Config struct {
	Ingest  driving.IngestService
	Query   driving.QueryService
	Catalog driving.CatalogService
	Probes  map[string]Pinger
}

// NewServer creates an HTTP server over the given services.
func NewServer(cfg Config) *Server {
	return &Server{
		ingest:  cfg.Ingest,
		query:   cfg.Query,
		catalog: cfg.Catalog,
		probes:  cfg.Probes,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	api := r.Group("/api")
	api.POST("/upload", s.handleUpload)
	api.POST("/query", s.handleQuery)
	api.GET("/files", s.handleListFiles)
	api.GET("/files/:id", s.handleDownload)
	api.DELETE("/files/:id", s.handleDelete)
	api.POST("/files/:id/reindex", s.handleReindex)
	api.POST("/doctype/correct", s.handleCorrectDocType)
	api.GET("/reconcile", s.handleReconcile)
	api.GET("/health", s.handleHealth)

	return r
}

// Run starts the server on addr, blocking until it stops.
func (s *Server) Run(addr string) error {
	return s.Router().Run(addr)
}

func (s *Server) handleUpload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file field"})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file"})
		return
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file"})
		return
	}

	result, err := s.ingest.Upload(c.Request.Context(), fileHeader.Filename, content)
	if err != nil {
		var dup *domain.DuplicateError
		if errors.As(err, &dup) {
			c.JSON(http.StatusConflict, gin.H{
				"error":            "file already indexed",
				"is_duplicate":     true,
				"existing_file_id": dup.ExistingID,
			})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":          result.DocumentID,
		"filename":    result.Filename,
		"chunk_count": result.ChunkCount,
	})
}

// queryRequest is the /api/query request body.
type queryRequest struct {
	Query string `json:"query" binding:"required"`
}

func (s *Server) handleQuery(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query field is required"})
		return
	}

	answer, err := s.query.Ask(c.Request.Context(), req.Query)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, answer)
}

func (s *Server) handleListFiles(c *gin.Context) {
	files, stats, err := s.ingest.List(c.Request.Context(), c.Query("doc_type"), c.Query("date"))
	if err != nil {
		respondError(c, err)
		return
	}

	if files == nil {
		files = []driving.FileInfo{}
	}
	c.JSON(http.StatusOK, gin.H{
		"files":      files,
		"statistics": stats,
	})
}

func (s *Server) handleDownload(c *gin.Context) {
	files, _, err := s.ingest.List(c.Request.Context(), "", "")
	if err != nil {
		respondError(c, err)
		return
	}

	id := c.Param("id")
	for i := range files {
		if files[i].ID == id {
			c.FileAttachment(files[i].StoredPath, files[i].Filename)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
}

func (s *Server) handleDelete(c *gin.Context) {
	removed, err := s.ingest.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true, "removed_records": removed})
}

func (s *Server) handleReindex(c *gin.Context) {
	result, err := s.ingest.Reindex(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":          result.DocumentID,
		"filename":    result.Filename,
		"chunk_count": result.ChunkCount,
	})
}

// correctRequest is the /api/doctype/correct request body.
type correctRequest struct {
	Old       string `json:"old" binding:"required"`
	Corrected string `json:"corrected" binding:"required"`
}

func (s *Server) handleCorrectDocType(c *gin.Context) {
	var req correctRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "old and corrected fields are required"})
		return
	}

	changed, err := s.ingest.CorrectDocType(c.Request.Context(), req.Old, req.Corrected)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"changed": changed})
}

func (s *Server) handleReconcile(c *gin.Context) {
	report, err := s.catalog.Check(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	missing := report.MissingRecords
	if missing == nil {
		missing = []string{}
	}
	orphans := report.OrphanRecords
	if orphans == nil {
		orphans = []string{}
	}
	c.JSON(http.StatusOK, gin.H{
		"consistent":      len(missing) == 0 && len(orphans) == 0,
		"missing_records": missing,
		"orphan_records":  orphans,
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	services := make(map[string]string, len(s.probes))
	healthy := true

	for name, probe := range s.probes {
		if probe == nil {
			continue
		}
		if err := probe.Ping(c.Request.Context()); err != nil {
			logger.Warn("health probe %s failed: %v", name, err)
			services[name] = "unavailable"
			healthy = false
		} else {
			services[name] = "ok"
		}
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"healthy": healthy, "services": services})
}

// respondError maps domain errors to HTTP status codes.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrUnsupportedType),
		errors.Is(err, domain.ErrEmptyDocument),
		errors.Is(err, domain.ErrNoExtraction):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrVectorStoreUnavailable),
		errors.Is(err, domain.ErrEmbeddingUnavailable),
		errors.Is(err, domain.ErrLLMUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		logger.Warn("request failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
