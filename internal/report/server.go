package report

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dispatchsim/internal/ids"
	"dispatchsim/internal/report/middleware"
)

// Server exposes persisted run reports over HTTP.
type Server struct {
	store *Store
}

// NewServer wraps store behind a gin engine.
func NewServer(store *Store) *Server {
	return &Server{store: store}
}

// Routes builds the gin engine with recovery and logging middleware
// attached ahead of the report endpoints.
func (s *Server) Routes() http.Handler {
	r := gin.New()
	r.Use(middleware.Recovery(), middleware.Logging())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/runs/:id", s.getRun)
	return r
}

func (s *Server) getRun(c *gin.Context) {
	id := c.Param("id")
	if !isValidRunID(id) {
		writeError(c, http.StatusBadRequest, "invalid run id")
		return
	}
	run, err := s.store.Get(c.Request.Context(), ids.RunID(id))
	if err != nil {
		writeError(c, http.StatusNotFound, "run not found")
		return
	}
	c.JSON(http.StatusOK, run)
}

func isValidRunID(v string) bool {
	if len(v) == 0 || len(v) > 64 {
		return false
	}
	for _, r := range v {
		if (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '-' {
			continue
		}
		return false
	}
	return true
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(c *gin.Context, status int, msg string) {
	c.JSON(status, errorResponse{Error: msg})
}
