package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kimsanghoon1/eventstorming-sub001/internal/bridge"
	"github.com/kimsanghoon1/eventstorming-sub001/internal/schema"
	"github.com/kimsanghoon1/eventstorming-sub001/internal/server"
	"github.com/kimsanghoon1/eventstorming-sub001/internal/store"
	"github.com/kimsanghoon1/eventstorming-sub001/pkg/config"
	"github.com/kimsanghoon1/eventstorming-sub001/pkg/logger"
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
	log.Info("Starting board persistence server...")

	// Open the graph store
	client, err := store.Open(cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword)
	if err != nil {
		log.Fatal("Failed to create Neo4j driver", zap.Error(err))
	}
	defer client.Close(context.Background())

	ctx := context.Background()
	if err := client.VerifyConnectivity(ctx); err != nil {
		log.Fatal("Failed to verify Neo4j connectivity", zap.Error(err))
	}

	// Schema bootstrap is the one place store failure is fatal: the
	// process must not serve against an unverified store.
	if err := schema.NewManager(client).Ensure(ctx); err != nil {
		log.Fatal("Failed to ensure graph schema", zap.Error(err))
	}

	// Wire the bridge
	binder := bridge.NewBinder(client, cfg.DefaultBoardType)
	synchronizer := bridge.NewSynchronizer(client)
	srv := server.New(binder, synchronizer)

	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: srv.Router(cfg.IsProduction()),
	}

	// Graceful shutdown
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started", zap.String("port", cfg.Port))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}
