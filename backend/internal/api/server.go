// Package api serves one object graph session over HTTP.
package api

import (
	"context"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"objectgraph/backend/internal/loader"
	"objectgraph/backend/internal/objectgraph"
)

// Hydrator fills a fresh store, e.g. *loader.Loader
type Hydrator interface {
	Load(ctx context.Context, store *objectgraph.Store) (loader.Stats, error)
}

// Persister writes a snapshot to durable storage, e.g. *graph.Repository
type Persister interface {
	SaveSnapshot(ctx context.Context, snap objectgraph.Snapshot) error
}

// Server holds the session store and the optional graph database hooks
type Server struct {
	// guards the store pointer; the store locks itself
	mu    sync.RWMutex
	store *objectgraph.Store

	hydrator  Hydrator
	persister Persister

	validate *validator.Validate
	registry *prometheus.Registry
	metrics  *metrics
	logger   *zap.Logger
}

// Option defines a functional configuration override.
type Option func(*Server)

// WithHydrator enables POST /api/graph/reload
func WithHydrator(h Hydrator) Option {
	return func(s *Server) { s.hydrator = h }
}

// WithPersister enables POST /api/graph/persist
func WithPersister(p Persister) Option {
	return func(s *Server) { s.persister = p }
}

// WithLogger overrides the server logger
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// NewServer creates a server over store. Metrics go to a registry owned by
// the server so several servers can coexist in one process.
func NewServer(store *objectgraph.Store, opts ...Option) *Server {
	s := &Server{
		store:    store,
		validate: newValidator(),
		registry: prometheus.NewRegistry(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.metrics = newMetrics(s.registry, s.current)
	return s
}

// newValidator reports field names by their json tag
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// current returns the session store
func (s *Server) current() *objectgraph.Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store
}

func (s *Server) replace(store *objectgraph.Store) {
	s.mu.Lock()
	s.store = store
	s.mu.Unlock()
}

// Router builds the gin engine with every route registered
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(ginLogger(s.logger))
	router.Use(s.metrics.middleware())
	router.Use(gin.Recovery())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	api := router.Group("/api")
	{
		api.GET("/graph", s.getGraph)
		api.GET("/graph/counts", s.getCounts)
		api.POST("/graph/reload", s.reloadGraph)
		api.POST("/graph/persist", s.persistGraph)

		api.POST("/concepts", s.createConcept)
		api.POST("/objects", s.createObject)
		api.POST("/instances", s.createInstance)
		api.PATCH("/instances/:id", s.editInstance)
		api.POST("/spacetimes", s.createSpacetime)

		api.POST("/edges/concept-instance", s.linkConceptInstance)
		api.POST("/edges/object-instance", s.linkObjectInstance)
		api.POST("/edges/spacetime-instance", s.linkSpacetimeInstance)
		api.POST("/edges/instance-spacetime", s.linkInstanceSpacetime)
		api.POST("/edges/instance-instance", s.linkInstanceInstance)

		api.POST("/catalog", s.createCatalogEntry)
	}

	return router
}
