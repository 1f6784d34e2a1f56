// Package historyserver exposes a Store over a loopback, bearer-token
// authenticated HTTP API, grounded on spec.md §4.F and generalized from
// the original betterhist/listsrv.py's per-session Flask-style listener.
// The gin-based routing and logrus request logging are grounded on
// nabbar-golib's prometheus_gin_test.go (SetMode/httptest style) and its
// logrus-based logging conventions, since the teacher repo has no HTTP
// server of its own to draw from.
package historyserver

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"betterhist/internal/auth"
	"betterhist/internal/snapshot"
)

// Server serves one named history store over HTTP.
type Server struct {
	Name               string
	Store              *snapshot.Store
	Checker            *auth.Checker
	DefaultSearchLimit int
	Log                *logrus.Logger

	engine     *gin.Engine
	httpServer *http.Server
	listener   net.Listener
}

// New builds a Server for the given history name, store, and auth
// checker. defaultSearchLimit is used when a search request omits
// "limit".
func New(name string, store *snapshot.Store, checker *auth.Checker, defaultSearchLimit int, log *logrus.Logger) *Server {
	if log == nil {
		log = logrus.New()
	}
	s := &Server{
		Name:               name,
		Store:              store,
		Checker:            checker,
		DefaultSearchLimit: defaultSearchLimit,
		Log:                log,
	}
	s.engine = s.buildEngine()
	return s
}

func (s *Server) buildEngine() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger(), s.authMiddleware())

	group := r.Group("/:name")
	group.POST("/items/", s.handleAppend)
	group.GET("/items/:index", s.handleGet)
	group.GET("/search/", s.handleSearch)

	return r
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.Log.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		}).Debug("betterhist history request")
	}
}

func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		presented := c.GetHeader(auth.Header)
		if !s.Checker.Valid(presented) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or missing auth token"})
			return
		}
		c.Next()
	}
}

func (s *Server) checkName(c *gin.Context) bool {
	if c.Param("name") != s.Name {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "unknown history"})
		return false
	}
	return true
}

func (s *Server) handleAppend(c *gin.Context) {
	if !s.checkName(c) {
		return
	}
	var snap snapshot.Snapshot
	if err := c.ShouldBindJSON(&snap); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	length, err := s.Store.Append(snap)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":     "snapshot appended",
		"list_length": length,
	})
}

func (s *Server) handleGet(c *gin.Context) {
	if !s.checkName(c) {
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "index must be an integer"})
		return
	}
	snap, err := s.Store.Get(index)
	if err != nil {
		if _, ok := err.(*snapshot.OutOfRangeError); ok {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"snapshot":  snap,
		"index":     index,
		"list_name": s.Name,
	})
}

func (s *Server) handleSearch(c *gin.Context) {
	if !s.checkName(c) {
		return
	}
	pattern := c.Query("pattern")
	if pattern == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pattern is required"})
		return
	}

	field := snapshot.SearchBoth
	switch c.Query("search_in") {
	case "", "both":
		field = snapshot.SearchBoth
	case "user_view":
		field = snapshot.SearchUser
	case "command_view":
		field = snapshot.SearchCommand
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "search_in must be one of: user_view, command_view, both"})
		return
	}

	limit := s.DefaultSearchLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	results, err := s.Store.Search(pattern, field, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":   fmt.Sprintf("%d result(s)", len(results)),
		"results":   results,
		"list_name": s.Name,
	})
}

// Start binds a loopback listener on an OS-assigned port and begins
// serving. The listener is bound synchronously so the caller learns the
// real port before any client can possibly connect to it, matching
// spec.md §4.F's readiness-handshake requirement.
func (s *Server) Start() (port int, err error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, fmt.Errorf("bind history server: %w", err)
	}
	s.listener = ln
	s.httpServer = &http.Server{Handler: s.engine}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.Log.WithError(err).Error("betterhist history server exited")
		}
	}()

	return ln.Addr().(*net.TCPAddr).Port, nil
}

// Shutdown cooperatively stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
