package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"objectgraph/backend/internal/api"
	"objectgraph/backend/internal/graph"
	"objectgraph/backend/internal/loader"
	"objectgraph/backend/internal/objectgraph"
	"objectgraph/backend/pkg/config"
	"objectgraph/backend/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}

	// Initialize logger
	if err := logger.Init(cfg.Env); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting object graph API server...", zap.String("env", cfg.Env))

	// Initialize Neo4j driver
	connectCtx, cancel := context.WithTimeout(context.Background(), cfg.Neo4jTimeout)
	driver, err := graph.Connect(connectCtx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword)
	cancel()
	if err != nil {
		log.Fatal("Failed to connect to Neo4j", zap.Error(err))
	}

	repo := graph.NewRepository(driver, cfg.Neo4jDatabase)
	defer repo.Close()

	schemaCtx, cancel := context.WithTimeout(context.Background(), cfg.Neo4jTimeout)
	err = repo.EnsureSchema(schemaCtx)
	cancel()
	if err != nil {
		// the session store works without constraints; saves lose id uniqueness checks
		log.Warn("Failed to ensure graph schema", zap.Error(err))
	}

	// Session store, optionally hydrated from Neo4j
	graphLoader := loader.New(repo, logger.Named("loader"))
	loadCtx, cancel := context.WithTimeout(context.Background(), cfg.Neo4jTimeout)
	store, err := sessionStore(loadCtx, cfg.HydrateOnStart, graphLoader)
	cancel()
	if err != nil {
		log.Fatal("Failed to hydrate graph", zap.Error(err))
	}

	// Setup Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	server := api.NewServer(store,
		api.WithHydrator(graphLoader),
		api.WithPersister(repo),
		api.WithLogger(logger.Named("api")),
	)

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: server.Router(),
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started", zap.String("port", cfg.Port))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}

// sessionStore creates the store served by the API, filled by h when
// hydrate is set
func sessionStore(ctx context.Context, hydrate bool, h api.Hydrator) (*objectgraph.Store, error) {
	store := objectgraph.New()
	if !hydrate {
		return store, nil
	}
	if _, err := h.Load(ctx, store); err != nil {
		return nil, err
	}
	return store, nil
}
