// Seeds a small demo Eventstorming board through the synchronizer, for
// local development against a fresh store.
//
// Usage: go run ./scripts/seed_board [-board-id demo-board]
package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kimsanghoon1/eventstorming-sub001/internal/board"
	"github.com/kimsanghoon1/eventstorming-sub001/internal/bridge"
	"github.com/kimsanghoon1/eventstorming-sub001/internal/schema"
	"github.com/kimsanghoon1/eventstorming-sub001/internal/store"
	"github.com/kimsanghoon1/eventstorming-sub001/pkg/config"
	"github.com/kimsanghoon1/eventstorming-sub001/pkg/logger"
)

func main() {
	boardID := flag.String("board-id", "demo-board", "Board ID to seed")
	flag.Parse()

	if err := logger.Init("development"); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Seeding demo board...", zap.String("board_id", *boardID))

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
		log.Fatal("Failed to ensure graph schema", zap.Error(err))
	}

	placeOrderID := uuid.NewString()
	orderPlacedID := uuid.NewString()
	orderID := uuid.NewString()
	notifyID := uuid.NewString()

	snap := board.Snapshot{
		BoardType: string(board.TypeEventstorming),
		Items: []map[string]any{
			{
				"id":              placeOrderID,
				"type":            "Command",
				"name":            "Place Order",
				"description":     "Customer submits an order",
				"position":        map[string]any{"x": 120.0, "y": 80.0},
				"producesEventId": orderPlacedID,
			},
			{
				"id":          orderPlacedID,
				"type":        "Event",
				"name":        "Order Placed",
				"description": "An order was accepted",
				"position":    map[string]any{"x": 320.0, "y": 80.0},
			},
			{
				"id":       orderID,
				"type":     "Aggregate",
				"name":     "Order",
				"position": map[string]any{"x": 220.0, "y": 220.0},
			},
			{
				"id":       notifyID,
				"type":     "Policy",
				"name":     "Notify Inventory",
				"parent":   orderID,
				"position": map[string]any{"x": 520.0, "y": 80.0},
			},
		},
		Connections: []map[string]any{
			{
				"id":   uuid.NewString(),
				"type": "triggers event",
				"from": orderPlacedID,
				"to":   notifyID,
			},
		},
	}

	if err := bridge.NewSynchronizer(client).Sync(ctx, *boardID, snap); err != nil {
		log.Fatal("Seeding failed", zap.Error(err))
	}

	log.Info("Demo board seeded",
		zap.String("board_id", *boardID),
		zap.Int("items", len(snap.Items)),
		zap.Int("connections", len(snap.Connections)),
	)
}
