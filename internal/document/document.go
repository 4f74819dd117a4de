package document

import (
	"fmt"
	"sync"

	"github.com/kimsanghoon1/eventstorming-sub001/internal/board"
)

// State is the document readiness lifecycle. A document starts
// Uninitialized, becomes Loaded when the binder populates it, and
// Diverged once any later mutation lands. The binder only ever
// populates an Uninitialized document.
type State int

const (
	StateUninitialized State = iota
	StateLoaded
	StateDiverged
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoaded:
		return "loaded"
	case StateDiverged:
		return "diverged"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Tx is the mutation surface available inside a Transact call.
type Tx interface {
	SetBoardType(boardType string)
	AppendItem(item *Map)
	AppendConnection(conn *Map)
	ClearItems()
	ClearConnections()
}

// Doc is the replicated board document handle consumed by the bridge:
// an ordered item sequence, an ordered connection sequence, and a board
// type text. Mutations go through Transact so partial states are never
// visible to concurrent readers.
type Doc interface {
	Snapshot() board.Snapshot
	State() State
	ItemLen() int
	ConnectionLen() int
	Transact(fn func(tx Tx) error) error
}

// memDoc is the in-memory Doc used by the host process and the tests.
type memDoc struct {
	mu          sync.RWMutex
	state       State
	boardType   string
	items       *Array
	connections *Array
}

// New creates an empty in-memory document.
func New() Doc {
	return &memDoc{
		items:       NewArray(),
		connections: NewArray(),
	}
}

func (d *memDoc) Snapshot() board.Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()

	snap := board.Snapshot{
		BoardType:   d.boardType,
		Items:       make([]map[string]any, 0, d.items.Len()),
		Connections: make([]map[string]any, 0, d.connections.Len()),
	}
	for i := 0; i < d.items.Len(); i++ {
		if m, ok := d.items.At(i).(*Map); ok {
			snap.Items = append(snap.Items, m.ToValue())
		}
	}
	for i := 0; i < d.connections.Len(); i++ {
		if m, ok := d.connections.At(i).(*Map); ok {
			snap.Connections = append(snap.Connections, m.ToValue())
		}
	}
	return snap
}

func (d *memDoc) State() State {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state
}

func (d *memDoc) ItemLen() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.items.Len()
}

func (d *memDoc) ConnectionLen() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connections.Len()
}

// Transact applies fn atomically: mutations are staged against a copy
// and committed only when fn returns nil, so a failed batch leaves the
// document exactly as found.
func (d *memDoc) Transact(fn func(tx Tx) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	stage := &memTx{
		boardType:   d.boardType,
		items:       cloneArray(d.items),
		connections: cloneArray(d.connections),
	}
	if err := fn(stage); err != nil {
		return err
	}

	d.boardType = stage.boardType
	d.items = stage.items
	d.connections = stage.connections
	if d.state == StateUninitialized {
		d.state = StateLoaded
	} else {
		d.state = StateDiverged
	}
	return nil
}

type memTx struct {
	boardType   string
	items       *Array
	connections *Array
}

func (t *memTx) SetBoardType(boardType string) { t.boardType = boardType }
func (t *memTx) AppendItem(item *Map)          { t.items.Append(item) }
func (t *memTx) AppendConnection(conn *Map)    { t.connections.Append(conn) }
func (t *memTx) ClearItems()                   { t.items = NewArray() }
func (t *memTx) ClearConnections()             { t.connections = NewArray() }

func cloneArray(a *Array) *Array {
	out := NewArray()
	for i := 0; i < a.Len(); i++ {
		out.Append(a.At(i))
	}
	return out
}
