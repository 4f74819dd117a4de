// Package board holds the domain model shared by the persistence bridge:
// boards, items, connections, and the label vocabulary used to project
// them into the graph store.
package board

// BoardType is the kind of modeling board
type BoardType string

const (
	TypeEventstorming BoardType = "Eventstorming"
	TypeUML           BoardType = "UML"
)

// Board represents a modeling board. The id doubles as display name and
// path in the browsing hierarchy.
type Board struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
	Path string `json:"path"`
}

// Snapshot is the materialized state of a replicated board document: the
// single source of truth a write cycle reconciles the graph toward.
// Items and connections stay open property maps end to end; their only
// fixed fields are id, type and the connection endpoints. Structural
// references (parent, producesEventId, ...) live inside the item maps
// and are projected into edges by the synchronizer, never stored as node
// properties.
type Snapshot struct {
	BoardType   string           `json:"boardType"`
	Items       []map[string]any `json:"items"`
	Connections []map[string]any `json:"connections"`
}

// ConnectionIDs returns the ids of all connections in the snapshot,
// skipping records without one.
func (s Snapshot) ConnectionIDs() []string {
	ids := make([]string, 0, len(s.Connections))
	for _, c := range s.Connections {
		if id, ok := c["id"].(string); ok && id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
