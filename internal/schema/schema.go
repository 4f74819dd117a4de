// Package schema declares the identity constraints and lookup indexes the
// bridge relies on. Ensure must run once against a fresh store before the
// binder or synchronizer touch it; every declaration is guarded with
// IF NOT EXISTS so re-running against an already-declared store is a
// no-op.
package schema

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kimsanghoon1/eventstorming-sub001/internal/board"
	"github.com/kimsanghoon1/eventstorming-sub001/internal/store"
	"github.com/kimsanghoon1/eventstorming-sub001/pkg/logger"
)

// Manager ensures the graph schema exists.
type Manager struct {
	source store.SessionSource
	logger *zap.Logger
}

// NewManager creates a schema manager using the given store handle.
func NewManager(source store.SessionSource) *Manager {
	return &Manager{
		source: source,
		logger: logger.Get(),
	}
}

// indexedFields extend the default name/boardId index pair for labels
// with extra lookup properties.
var indexedFields = map[string][]string{
	board.LabelBoard: {"path", "type"},
	"Class":          {"instanceName"},
	"Aggregate":      {"instanceName"},
}

// Ensure idempotently declares one id-uniqueness constraint per known
// node label plus the lookup indexes. A failure here means the store is
// unusable; callers treat it as fatal during startup.
func (m *Manager) Ensure(ctx context.Context) error {
	session := m.source.WriteSession(ctx)
	defer session.Close(ctx)

	labels := append([]string{board.LabelBoard, board.LabelUnknown}, board.ItemLabels...)

	for _, label := range labels {
		statement := fmt.Sprintf(
			"CREATE CONSTRAINT %s_id_unique IF NOT EXISTS FOR (n:%s) REQUIRE n.id IS UNIQUE",
			strings.ToLower(label), label,
		)
		if _, err := session.Run(ctx, statement, nil); err != nil {
			return fmt.Errorf("failed to ensure id constraint for %s: %w", label, err)
		}
	}

	for _, label := range labels {
		fields := []string{"name", "boardId"}
		fields = append(fields, indexedFields[label]...)
		for _, field := range fields {
			statement := fmt.Sprintf(
				"CREATE INDEX %s_%s_idx IF NOT EXISTS FOR (n:%s) ON (n.%s)",
				strings.ToLower(label), strings.ToLower(field), label, field,
			)
			if _, err := session.Run(ctx, statement, nil); err != nil {
				return fmt.Errorf("failed to ensure %s index for %s: %w", field, label, err)
			}
		}
	}

	m.logger.Info("Graph schema ensured",
		zap.Int("labels", len(labels)),
	)
	return nil
}
