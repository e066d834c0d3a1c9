// Package tableserver serves in-memory tables over the REST table protocol the
// remote records client speaks: one collection per table under /rest/v1,
// filtered with eq/neq/in/is query operators. It keeps no constraints beyond
// generating missing ids, which makes it a faithful stand-in for the hosted
// backend during development and tests.
package tableserver

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// DefaultTables lists the tables a fresh server exposes.
var DefaultTables = []string{
	"customers",
	"sites",
	"contacts",
	"projects",
	"work_orders",
	"purchase_orders",
	"project_tasks",
	"project_status_history",
	"onsite_reports",
}

// Row is one stored record keyed by column name.
type Row = map[string]any

// Server holds the tables and the gin engine serving them.
type Server struct {
	mu     sync.RWMutex
	tables map[string][]Row
	apiKey string
	logger *zap.Logger
	newID  func() string
	engine *gin.Engine

	registry *prometheus.Registry
	requests *prometheus.CounterVec
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithAPIKey requires every request to carry key in the apikey header or as a
// bearer token.
func WithAPIKey(key string) Option {
	return func(s *Server) { s.apiKey = strings.TrimSpace(key) }
}

// WithTables replaces the served table set.
func WithTables(names ...string) Option {
	return func(s *Server) {
		s.tables = make(map[string][]Row, len(names))
		for _, name := range names {
			s.tables[name] = nil
		}
	}
}

// WithIDGenerator sets the id source for rows inserted without one.
func WithIDGenerator(fn func() string) Option {
	return func(s *Server) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithMetrics counts requests by table, method and status on reg and serves
// the registry at GET /metrics.
func WithMetrics(reg *prometheus.Registry) Option {
	return func(s *Server) { s.registry = reg }
}

// New builds a server with empty tables.
func New(opts ...Option) *Server {
	s := &Server{
		logger: zap.NewNop(),
		newID:  func() string { return uuid.NewString() },
	}
	WithTables(DefaultTables...)(s)
	for _, opt := range opts {
		opt(s)
	}
	if s.registry != nil {
		s.requests = registerRequests(s.registry, s.logger)
	}
	s.engine = s.routes()
	return s
}

func registerRequests(reg prometheus.Registerer, logger *zap.Logger) *prometheus.CounterVec {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fieldbook",
		Subsystem: "tableserver",
		Name:      "requests_total",
		Help:      "Table requests by table, method and status code.",
	}, []string{"table", "method", "status"})
	if err := reg.Register(requests); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing
			}
		}
		logger.Warn("table server metrics disabled", zap.Error(err))
		return nil
	}
	return requests
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

// Rows returns a copy of the rows stored in table.
func (s *Server) Rows(table string) []Row {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Row, 0, len(s.tables[table]))
	for _, row := range s.tables[table] {
		out = append(out, cloneRow(row))
	}
	return out
}

// Tables returns the served table names in sorted order.
func (s *Server) Tables() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.tables))
	for name := range s.tables {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("table server listening", zap.String("addr", addr), zap.Strings("tables", s.Tables()))
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

func (s *Server) routes() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery(), s.requestLogger())
	if s.registry != nil {
		engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))
	}
	api := engine.Group("/rest/v1")
	if s.apiKey != "" {
		api.Use(s.requireAPIKey())
	}
	api.GET("/:table", s.list)
	api.POST("/:table", s.insert)
	api.PATCH("/:table", s.update)
	api.DELETE("/:table", s.remove)
	return engine
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if q := c.Request.URL.RawQuery; q != "" {
			fields = append(fields, zap.String("query", q))
		}
		if s.requests != nil && c.Param("table") != "" {
			s.requests.WithLabelValues(c.Param("table"), c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			s.logger.Error("table request", fields...)
			return
		}
		s.logger.Debug("table request", fields...)
	}
}

func (s *Server) requireAPIKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("apikey")
		if key == "" {
			key = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		}
		if key != s.apiKey {
			abort(c, http.StatusUnauthorized, "invalid_api_key", "Invalid API key")
			return
		}
		c.Next()
	}
}

func abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{"code": code, "message": message})
}

func cloneRow(row Row) Row {
	out := make(Row, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out
}
