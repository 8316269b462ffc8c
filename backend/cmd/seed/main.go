package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"objectgraph/backend/internal/graph"
	"objectgraph/backend/internal/loader"
	"objectgraph/backend/internal/objectgraph"
	"objectgraph/backend/pkg/config"
	"objectgraph/backend/pkg/logger"
)

func main() {
	reset := flag.Bool("reset", false, "Delete all data before seeding")
	skipConfirm := flag.Bool("y", false, "Skip confirmation prompt")
	dump := flag.String("dump", "", "Load the graph and write it to this file (.json, .yaml or .yml); skips seeding unless -reset is set")
	flag.Parse()

	// Initialize logger
	if err := logger.Init("development"); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()

	var format dumpFormat
	if *dump != "" {
		f, err := formatFor(*dump)
		if err != nil {
			log.Fatal("Invalid dump file", zap.Error(err))
		}
		format = f
	}

	// Warning prompt
	if *reset && !*skipConfirm {
		log.Warn("WARNING: This will DELETE ALL DATA from Neo4j!")
		log.Warn("This action cannot be undone.")
		// Use fmt.Print for user input prompt (needs to go to stdout)
		fmt.Print("Are you sure you want to continue? (yes/no): ")
		var response string
		fmt.Scanln(&response)
		if response != "yes" && response != "y" {
			log.Info("Aborted.")
			os.Exit(0)
		}
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx := context.Background()
	driver, err := graph.Connect(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword)
	if err != nil {
		log.Fatal("Failed to connect to Neo4j", zap.Error(err))
	}
	repo := graph.NewRepository(driver, cfg.Neo4jDatabase)
	defer repo.Close()

	if *reset {
		log.Info("Step 1: Deleting all data from Neo4j...")
		if err := repo.DeleteAll(ctx); err != nil {
			log.Fatal("Failed to delete all data", zap.Error(err))
		}
	}

	if *reset || *dump == "" {
		log.Info("Step 2: Creating constraints and indexes...")
		if err := repo.EnsureSchema(ctx); err != nil {
			log.Fatal("Failed to create schema", zap.Error(err))
		}

		log.Info("Step 3: Seeding sample catalog...")
		if err := repo.SeedCatalog(ctx); err != nil {
			log.Fatal("Failed to seed catalog (rerun with -reset if it was seeded before)", zap.Error(err))
		}
	}

	if *dump != "" {
		log.Info("Loading graph for dump...", zap.String("file", *dump))
		store := objectgraph.New()
		if _, err := loader.New(repo, logger.Named("loader")).Load(ctx, store); err != nil {
			log.Fatal("Failed to load graph", zap.Error(err))
		}
		if err := writeSnapshotFile(*dump, format, store.Snapshot()); err != nil {
			log.Fatal("Failed to write dump", zap.Error(err))
		}
		log.Info("Graph dumped", zap.String("file", *dump), zap.String("format", string(format)))
	}

	log.Info("Done!")
}
