// Package bridge implements the persistence bridge between the replicated
// board document and the graph store: the session binder (load path) and
// the graph synchronizer (write path).
package bridge

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kimsanghoon1/eventstorming-sub001/internal/board"
	"github.com/kimsanghoon1/eventstorming-sub001/internal/document"
	"github.com/kimsanghoon1/eventstorming-sub001/internal/sanitize"
	"github.com/kimsanghoon1/eventstorming-sub001/internal/store"
	apperrors "github.com/kimsanghoon1/eventstorming-sub001/pkg/errors"
	"github.com/kimsanghoon1/eventstorming-sub001/pkg/logger"
)

// Binder populates an empty replicated document from the graph store when
// the first client attaches to a board.
type Binder struct {
	source           store.SessionSource
	defaultBoardType string
	logger           *zap.Logger
}

// NewBinder creates a binder using the given store handle.
func NewBinder(source store.SessionSource, defaultBoardType string) *Binder {
	if defaultBoardType == "" {
		defaultBoardType = string(board.TypeEventstorming)
	}
	return &Binder{
		source:           source,
		defaultBoardType: defaultBoardType,
		logger:           logger.Get(),
	}
}

// Bind loads the board's graph state into doc. A board unknown to the
// graph is created with the default type and the document is left empty.
// A document that already holds replicated state is never overwritten:
// a second client attaching after the first has edits must not destroy
// them, and that path reports ErrDocumentPopulated. Errors are logged
// here and returned for the caller to drop; a failed load leaves the
// document exactly as found.
func (b *Binder) Bind(ctx context.Context, boardID string, doc document.Doc) error {
	write := b.source.WriteSession(ctx)
	meta, created, err := b.ensureBoard(ctx, write, boardID)
	write.Close(ctx)
	if err != nil {
		b.logger.Error("Board lookup failed",
			zap.String("board_id", boardID),
			zap.Error(err),
		)
		return err
	}
	if created {
		// A new board starts empty; nothing to load.
		b.logger.Info("Board created",
			zap.String("board_id", boardID),
			zap.String("type", meta.Type),
		)
		return nil
	}

	session := b.source.ReadSession(ctx)
	defer session.Close(ctx)

	items, err := b.loadItems(ctx, session, boardID)
	if err != nil {
		b.logger.Error("Board item load failed",
			zap.String("board_id", boardID),
			zap.Error(err),
		)
		return err
	}

	connections, err := b.loadConnections(ctx, session, boardID)
	if err != nil {
		b.logger.Error("Board connection load failed",
			zap.String("board_id", boardID),
			zap.Error(err),
		)
		return err
	}

	if doc.State() != document.StateUninitialized || doc.ItemLen() > 0 || doc.ConnectionLen() > 0 {
		b.logger.Debug("Document already populated, skipping bind",
			zap.String("board_id", boardID),
			zap.String("state", doc.State().String()),
		)
		return apperrors.NewDocumentPopulated(boardID)
	}

	err = doc.Transact(func(tx document.Tx) error {
		tx.SetBoardType(meta.Type)
		for _, item := range items {
			tx.AppendItem(document.FromRecord(item))
		}
		for _, conn := range connections {
			tx.AppendConnection(document.FromRecord(conn))
		}
		return nil
	})
	if err != nil {
		b.logger.Error("Document populate failed",
			zap.String("board_id", boardID),
			zap.Error(err),
		)
		return fmt.Errorf("failed to populate document: %w", err)
	}

	b.logger.Info("Board bound",
		zap.String("board_id", boardID),
		zap.String("type", meta.Type),
		zap.Int("items", len(items)),
		zap.Int("connections", len(connections)),
	)
	return nil
}

// ensureBoard looks the board up and creates it with the default type
// when absent. Returns the board metadata and whether it was just
// created.
func (b *Binder) ensureBoard(ctx context.Context, session store.Session, boardID string) (board.Board, bool, error) {
	records, err := session.Run(ctx, queryBoardLookup, map[string]any{"id": boardID})
	if err != nil {
		return board.Board{}, false, fmt.Errorf("failed to look up board: %w", err)
	}

	if len(records) > 0 {
		meta := boardFromRecord(records[0])
		if meta.Type == "" {
			meta.Type = b.defaultBoardType
		}
		return meta, false, nil
	}

	records, err = session.Run(ctx, queryBoardCreate, map[string]any{
		"id":   boardID,
		"type": b.defaultBoardType,
	})
	if err != nil {
		return board.Board{}, false, fmt.Errorf("failed to create board: %w", err)
	}
	if len(records) > 0 {
		return boardFromRecord(records[0]), true, nil
	}
	return board.Board{ID: boardID, Name: boardID, Path: boardID, Type: b.defaultBoardType}, true, nil
}

// loadItems reads every node contained by the board and reconstructs the
// item records. The node label (other than Board) becomes the item type;
// flattened properties are restored.
func (b *Binder) loadItems(ctx context.Context, session store.Session, boardID string) ([]map[string]any, error) {
	records, err := session.Run(ctx, queryBoardItems, map[string]any{"id": boardID})
	if err != nil {
		return nil, fmt.Errorf("failed to load board items: %w", err)
	}

	items := make([]map[string]any, 0, len(records))
	for _, record := range records {
		item := sanitize.Restore(getMapFromRecord(record, "props"))
		item["type"] = itemLabel(getStringSliceFromRecord(record, "labels"))
		items = append(items, item)
	}
	return items, nil
}

// loadConnections reads every non-structural relationship between two
// board-contained nodes. The stored type property wins over the derived
// label so free-text types round-trip with their original casing.
func (b *Binder) loadConnections(ctx context.Context, session store.Session, boardID string) ([]map[string]any, error) {
	records, err := session.Run(ctx, queryBoardConnections, map[string]any{
		"id":       boardID,
		"reserved": board.ReservedRelationships,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load board connections: %w", err)
	}

	connections := make([]map[string]any, 0, len(records))
	for _, record := range records {
		conn := sanitize.Restore(getMapFromRecord(record, "props"))
		conn["from"] = getStringFromRecord(record, "from")
		conn["to"] = getStringFromRecord(record, "to")
		if _, ok := conn["type"].(string); !ok {
			conn["type"] = getStringFromRecord(record, "label")
		}
		connections = append(connections, conn)
	}
	return connections, nil
}

// itemLabel picks the first non-Board label; nodes without one come back
// as Unknown.
func itemLabel(labels []string) string {
	for _, label := range labels {
		if label != board.LabelBoard {
			return label
		}
	}
	return board.LabelUnknown
}
