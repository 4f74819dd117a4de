package server

import (
	"sync"

	"github.com/kimsanghoon1/eventstorming-sub001/internal/document"
)

// boardEntry is the per-board state the host keeps: the in-memory
// replicated document and a mutex serializing save cycles, since the
// synchronizer's diff queries race if two cycles for one board overlap.
type boardEntry struct {
	doc    document.Doc
	saveMu sync.Mutex
}

// Registry holds one document per activated board. Boards are isolated
// namespaces; no cross-board locking happens here.
type Registry struct {
	mu     sync.Mutex
	boards map[string]*boardEntry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{boards: make(map[string]*boardEntry)}
}

// Activate returns the entry for boardID, creating it with an empty
// document on first use.
func (r *Registry) Activate(boardID string) *boardEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.boards[boardID]
	if !ok {
		entry = &boardEntry{doc: document.New()}
		r.boards[boardID] = entry
	}
	return entry
}

// Lookup returns the entry for boardID if it was activated.
func (r *Registry) Lookup(boardID string) (*boardEntry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.boards[boardID]
	return entry, ok
}
