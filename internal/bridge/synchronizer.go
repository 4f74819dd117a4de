package bridge

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kimsanghoon1/eventstorming-sub001/internal/board"
	"github.com/kimsanghoon1/eventstorming-sub001/internal/sanitize"
	"github.com/kimsanghoon1/eventstorming-sub001/internal/store"
	apperrors "github.com/kimsanghoon1/eventstorming-sub001/pkg/errors"
	"github.com/kimsanghoon1/eventstorming-sub001/pkg/logger"
)

// structuralKeys are item fields projected into edges (or deliberately
// dropped), never stored as node properties. children, connectedPolicies
// and linkedDiagram are currently not persisted as edges.
var structuralKeys = []string{"parent", "children", "connectedPolicies", "producesEventId", "linkedDiagram"}

// Synchronizer reconciles the graph store toward the current document
// snapshot on every save trigger.
type Synchronizer struct {
	source store.SessionSource
	logger *zap.Logger
}

// NewSynchronizer creates a synchronizer using the given store handle.
func NewSynchronizer(source store.SessionSource) *Synchronizer {
	return &Synchronizer{
		source: source,
		logger: logger.Get(),
	}
}

// Sync makes the graph state for boardID match the snapshot: board type
// upsert, item diff + detach-delete, item merges, structural edge pass,
// relationship diff + delete, connection merges. The whole cycle runs in
// one managed write transaction, so a failure rolls everything back. Two
// consecutive calls with an unchanged snapshot produce zero net change.
//
// Callers must not run two cycles for the same board concurrently; the
// id diffs observe a moving target and can race.
func (s *Synchronizer) Sync(ctx context.Context, boardID string, snap board.Snapshot) error {
	session := s.source.WriteSession(ctx)
	defer session.Close(ctx)

	items := dedupeItems(snap.Items)

	err := session.WriteTx(ctx, func(q store.Querier) error {
		if err := s.upsertBoard(ctx, q, boardID, snap.BoardType); err != nil {
			return err
		}
		if err := s.deleteStaleItems(ctx, q, boardID, snap); err != nil {
			return err
		}
		for _, item := range items {
			if err := s.mergeItem(ctx, q, boardID, item); err != nil {
				return err
			}
		}
		// Structural edges go in a second pass, after every node exists,
		// so parent and producesEventId references to items later in the
		// snapshot resolve within the same cycle.
		for _, item := range items {
			if err := s.linkStructuralEdges(ctx, q, item); err != nil {
				return err
			}
		}
		if err := s.deleteStaleConnections(ctx, q, boardID, snap); err != nil {
			return err
		}
		for _, conn := range snap.Connections {
			if err := s.mergeConnection(ctx, q, conn); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if apperrors.IsConnectivity(err) {
			s.logger.Warn("Store unreachable, board sync skipped",
				zap.String("board_id", boardID),
				zap.Error(err),
			)
		} else {
			s.logger.Error("Board sync failed",
				zap.String("board_id", boardID),
				zap.Error(err),
			)
		}
		return err
	}

	s.logger.Info("Board synced",
		zap.String("board_id", boardID),
		zap.Int("items", len(snap.Items)),
		zap.Int("connections", len(snap.Connections)),
	)
	return nil
}

func (s *Synchronizer) upsertBoard(ctx context.Context, q store.Querier, boardID, boardType string) error {
	if boardType == "" {
		boardType = string(board.TypeEventstorming)
	}

	if _, err := q.Run(ctx, queryBoardUpsert, map[string]any{
		"id":   boardID,
		"type": boardType,
	}); err != nil {
		return fmt.Errorf("failed to upsert board: %w", err)
	}
	return nil
}

// deleteStaleItems detach-deletes every item node the board contains in
// the graph but the snapshot no longer holds, including nodes whose label
// no longer matches the snapshot item's type: the merge key is
// (label, id), so a type change must remove the old-labeled node before
// the merge recreates the item under the new label. Detach-delete
// cascades the node's relationships.
func (s *Synchronizer) deleteStaleItems(ctx context.Context, q store.Querier, boardID string, snap board.Snapshot) error {
	records, err := q.Run(ctx, queryContainedItemIDs, map[string]any{"id": boardID})
	if err != nil {
		return fmt.Errorf("failed to read contained item ids: %w", err)
	}

	keep := make(map[string]string, len(snap.Items))
	for _, item := range snap.Items {
		id, _ := item["id"].(string)
		if id == "" {
			continue
		}
		itemType, _ := item["type"].(string)
		keep[id] = board.LabelForType(itemType)
	}

	var stale []string
	for _, record := range records {
		id := getStringFromRecord(record, "id")
		if id == "" {
			continue
		}
		label, ok := keep[id]
		if !ok || itemLabel(getStringSliceFromRecord(record, "labels")) != label {
			stale = append(stale, id)
		}
	}
	if len(stale) == 0 {
		return nil
	}

	if _, err := q.Run(ctx, queryDeleteItems, map[string]any{
		"id":    boardID,
		"stale": stale,
	}); err != nil {
		return fmt.Errorf("failed to delete stale items: %w", err)
	}

	s.logger.Debug("Stale items deleted",
		zap.String("board_id", boardID),
		zap.Strings("ids", stale),
	)
	return nil
}

// mergeItem upserts one item node keyed by (label, id) and its board
// containment edge. A changed item type changes the merge key: the
// old-labeled node is removed by the preceding diff and the item
// reappears under the new label, keeping only the edges the cycle
// re-derives.
func (s *Synchronizer) mergeItem(ctx context.Context, q store.Querier, boardID string, item map[string]any) error {
	id, _ := item["id"].(string)
	if id == "" {
		return nil
	}
	itemType, _ := item["type"].(string)
	label := board.LabelForType(itemType)

	props := make(map[string]any, len(item))
	for k, v := range item {
		props[k] = v
	}
	for _, k := range structuralKeys {
		delete(props, k)
	}
	flat := sanitize.Flatten(props)

	// Label text comes from the allow-list, never from client input.
	merge := fmt.Sprintf(queryMergeItemTmpl, label)

	if _, err := q.Run(ctx, merge, map[string]any{
		"boardId": boardID,
		"id":      id,
		"props":   flat,
	}); err != nil {
		return fmt.Errorf("failed to merge item %s: %w", id, err)
	}
	return nil
}

// linkStructuralEdges emits the edges derived from an item's structural
// fields. Runs after every item node of the cycle has been merged.
func (s *Synchronizer) linkStructuralEdges(ctx context.Context, q store.Querier, item map[string]any) error {
	id, _ := item["id"].(string)
	if id == "" {
		return nil
	}

	if parentID, ok := item["parent"].(string); ok && parentID != "" {
		if _, err := q.Run(ctx, queryLinkParent, map[string]any{
			"parentId": parentID,
			"id":       id,
		}); err != nil {
			return fmt.Errorf("failed to link item %s to parent: %w", id, err)
		}
	}

	if eventID, ok := item["producesEventId"].(string); ok && eventID != "" {
		if _, err := q.Run(ctx, queryLinkTrigger, map[string]any{
			"id":      id,
			"eventId": eventID,
		}); err != nil {
			return fmt.Errorf("failed to link item %s to produced event: %w", id, err)
		}
	}

	return nil
}

// dedupeItems keeps one record per item id, the last one winning, so a
// snapshot carrying the same id twice yields exactly one node.
func dedupeItems(items []map[string]any) []map[string]any {
	index := make(map[string]int, len(items))
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		id, _ := item["id"].(string)
		if id == "" {
			out = append(out, item)
			continue
		}
		if i, ok := index[id]; ok {
			out[i] = item
			continue
		}
		index[id] = len(out)
		out = append(out, item)
	}
	return out
}

// deleteStaleConnections removes every identified non-structural
// relationship between board-contained nodes whose id left the snapshot.
// Relationships without an id property (structural edges like TRIGGERS)
// are never candidates.
func (s *Synchronizer) deleteStaleConnections(ctx context.Context, q store.Querier, boardID string, snap board.Snapshot) error {
	records, err := q.Run(ctx, queryConnectionIDs, map[string]any{
		"id":       boardID,
		"reserved": board.ReservedRelationships,
	})
	if err != nil {
		return fmt.Errorf("failed to read connection ids: %w", err)
	}

	keep := make(map[string]struct{}, len(snap.Connections))
	for _, id := range snap.ConnectionIDs() {
		keep[id] = struct{}{}
	}

	var stale []string
	for _, record := range records {
		id := getStringFromRecord(record, "id")
		if id == "" {
			continue
		}
		if _, ok := keep[id]; !ok {
			stale = append(stale, id)
		}
	}
	if len(stale) == 0 {
		return nil
	}

	if _, err := q.Run(ctx, queryDeleteConnections, map[string]any{
		"id":       boardID,
		"reserved": board.ReservedRelationships,
		"stale":    stale,
	}); err != nil {
		return fmt.Errorf("failed to delete stale connections: %w", err)
	}

	s.logger.Debug("Stale connections deleted",
		zap.String("board_id", boardID),
		zap.Strings("ids", stale),
	)
	return nil
}

// mergeConnection upserts one relationship keyed by endpoint pair and
// derived label. Endpoints are matched purely by id: any node with that
// id anywhere in the store qualifies. The connection id is stored as a
// relationship property for the deletion diff.
func (s *Synchronizer) mergeConnection(ctx context.Context, q store.Querier, conn map[string]any) error {
	id, _ := conn["id"].(string)
	from, _ := conn["from"].(string)
	to, _ := conn["to"].(string)
	if id == "" || from == "" || to == "" {
		return nil
	}
	connType, _ := conn["type"].(string)
	label := board.RelationshipLabel(connType)

	props := make(map[string]any, len(conn))
	for k, v := range conn {
		props[k] = v
	}
	delete(props, "from")
	delete(props, "to")
	flat := sanitize.Flatten(props)

	// Label text comes from RelationshipLabel's validated derivation.
	merge := fmt.Sprintf(queryMergeConnectionTmpl, label)

	if _, err := q.Run(ctx, merge, map[string]any{
		"from":  from,
		"to":    to,
		"id":    id,
		"props": flat,
	}); err != nil {
		return fmt.Errorf("failed to merge connection %s: %w", id, err)
	}
	return nil
}
