// Package server hosts the persistence bridge behind a small HTTP API:
// board attach (load path), document replacement, and save triggers
// (write path). The replication transport between browser clients stays
// outside this process; these endpoints are the hooks the surrounding
// system drives.
package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kimsanghoon1/eventstorming-sub001/internal/bridge"
	"github.com/kimsanghoon1/eventstorming-sub001/internal/document"
	"github.com/kimsanghoon1/eventstorming-sub001/pkg/logger"
)

// Server wires the bridge components behind HTTP handlers.
type Server struct {
	registry     *Registry
	binder       *bridge.Binder
	synchronizer *bridge.Synchronizer
	bindGroup    singleflight.Group
	logger       *zap.Logger
}

// New creates a server hosting the given bridge components.
func New(binder *bridge.Binder, synchronizer *bridge.Synchronizer) *Server {
	return &Server{
		registry:     NewRegistry(),
		binder:       binder,
		synchronizer: synchronizer,
		logger:       logger.Get(),
	}
}

// Router builds the gin engine with all routes and middleware.
func (s *Server) Router(production bool) *gin.Engine {
	if production {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(requestLogger(s.logger))
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		api.POST("/boards/:id/attach", s.handleAttach)
		api.GET("/boards/:id/snapshot", s.handleSnapshot)
		api.PUT("/boards/:id/document", s.handleReplaceDocument)
		api.POST("/boards/:id/save", s.handleSave)
	}

	return router
}

// handleAttach activates a board for a connecting client. Concurrent
// first attaches collapse into one binder invocation; later attaches hit
// the binder's populated-document guard and get the current snapshot.
func (s *Server) handleAttach(c *gin.Context) {
	boardID := c.Param("id")
	ctx := c.Request.Context()

	entry := s.registry.Activate(boardID)

	// Bind failures are logged by the binder and dropped here: attach is
	// best-effort and the client works with whatever the document holds.
	_, _, _ = s.bindGroup.Do(boardID, func() (any, error) {
		_ = s.binder.Bind(ctx, boardID, entry.doc)
		return nil, nil
	})

	c.JSON(http.StatusOK, gin.H{
		"session_id": uuid.NewString(),
		"board_id":   boardID,
		"snapshot":   entry.doc.Snapshot(),
	})
}

func (s *Server) handleSnapshot(c *gin.Context) {
	boardID := c.Param("id")

	entry, ok := s.registry.Lookup(boardID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "board not activated"})
		return
	}

	c.JSON(http.StatusOK, entry.doc.Snapshot())
}

// handleReplaceDocument swaps the document contents for the client's
// replicated state in one atomic batch.
func (s *Server) handleReplaceDocument(c *gin.Context) {
	boardID := c.Param("id")

	var req struct {
		BoardType   string           `json:"boardType"`
		Items       []map[string]any `json:"items"`
		Connections []map[string]any `json:"connections"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry := s.registry.Activate(boardID)
	err := entry.doc.Transact(func(tx document.Tx) error {
		tx.ClearItems()
		tx.ClearConnections()
		tx.SetBoardType(req.BoardType)
		for _, item := range req.Items {
			tx.AppendItem(document.FromRecord(item))
		}
		for _, conn := range req.Connections {
			tx.AppendConnection(document.FromRecord(conn))
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Document replace failed",
			zap.String("board_id", boardID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to apply document"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "applied"})
}

// handleSave runs one synchronizer cycle on the board's current
// snapshot. Save is fire-and-forget: the response is 202 regardless,
// failures are observable in the logs, and the next document change
// re-triggers a save.
func (s *Server) handleSave(c *gin.Context) {
	boardID := c.Param("id")
	ctx := c.Request.Context()

	entry, ok := s.registry.Lookup(boardID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "board not activated"})
		return
	}

	entry.saveMu.Lock()
	defer entry.saveMu.Unlock()

	snap := entry.doc.Snapshot()
	_ = s.synchronizer.Sync(ctx, boardID, snap)

	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

// requestLogger logs one line per request.
func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		if raw != "" {
			path = path + "?" + raw
		}

		log.Info("HTTP Request",
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
		)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
