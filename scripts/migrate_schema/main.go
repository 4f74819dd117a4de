// Standalone schema bootstrap. The server runs the same bootstrap at
// startup; this exists for provisioning a store before first deploy.
//
// Usage: go run ./scripts/migrate_schema
package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kimsanghoon1/eventstorming-sub001/internal/schema"
	"github.com/kimsanghoon1/eventstorming-sub001/internal/store"
	"github.com/kimsanghoon1/eventstorming-sub001/pkg/config"
	"github.com/kimsanghoon1/eventstorming-sub001/pkg/logger"
)

func main() {
	if err := logger.Init("development"); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting graph schema migration...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	client, err := store.Open(cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword)
	if err != nil {
		log.Fatal("Failed to create Neo4j driver", zap.Error(err))
	}
	defer client.Close(context.Background())

	ctx := context.Background()
	if err := client.VerifyConnectivity(ctx); err != nil {
		log.Fatal("Failed to verify Neo4j connectivity", zap.Error(err))
	}

	if err := schema.NewManager(client).Ensure(ctx); err != nil {
		log.Fatal("Migration failed", zap.Error(err))
	}

	log.Info("Migration completed successfully!")
}
