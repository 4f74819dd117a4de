package bridge

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/kimsanghoon1/eventstorming-sub001/internal/board"
	"github.com/kimsanghoon1/eventstorming-sub001/internal/store"
)

// fakeGraph simulates the store for the fixed statement set the bridge
// issues, so binder/synchronizer behavior is testable without a live
// Neo4j. Node identity follows the real store: merge key is (label, id),
// endpoint matching is by id alone.
type fakeGraph struct {
	mu     sync.Mutex
	nodes  []*fakeNode
	rels   []*fakeRel
	failOn string // substring of a statement to fail on
}

type fakeNode struct {
	label string
	props map[string]any
}

type fakeRel struct {
	fromID string
	toID   string
	label  string
	props  map[string]any
}

var (
	mergeItemPattern = regexp.MustCompile(`MERGE \(n:(\w+) \{id: \$id\}\)`)
	mergeConnPattern = regexp.MustCompile(`MERGE \(f\)-\[r:(\w+)\]->\(t\)`)
)

func (g *fakeGraph) run(cypher string, params map[string]any) ([]*neo4j.Record, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.failOn != "" && strings.Contains(cypher, g.failOn) {
		return nil, fmt.Errorf("injected failure for %q", g.failOn)
	}

	switch cypher {
	case queryBoardLookup:
		if b := g.findNode(board.LabelBoard, str(params, "id")); b != nil {
			return boardRecords(b), nil
		}
		return nil, nil

	case queryBoardCreate:
		id := str(params, "id")
		if g.findNode(board.LabelBoard, id) == nil {
			g.nodes = append(g.nodes, &fakeNode{
				label: board.LabelBoard,
				props: map[string]any{"id": id, "name": id, "path": id, "type": params["type"]},
			})
		}
		return boardRecords(g.findNode(board.LabelBoard, id)), nil

	case queryBoardUpsert:
		id := str(params, "id")
		b := g.findNode(board.LabelBoard, id)
		if b == nil {
			b = &fakeNode{label: board.LabelBoard, props: map[string]any{"id": id, "name": id, "path": id}}
			g.nodes = append(g.nodes, b)
		}
		b.props["type"] = params["type"]
		return nil, nil

	case queryBoardItems:
		var out []*neo4j.Record
		for _, id := range g.containedIDs(str(params, "id")) {
			n := g.findNodeByID(id)
			if n == nil {
				continue
			}
			out = append(out, record(
				[]string{"labels", "props"},
				[]any{[]any{n.label}, copyMap(n.props)},
			))
		}
		return out, nil

	case queryBoardConnections:
		contained := toSet(g.containedIDs(str(params, "id")))
		reserved := toSet(strList(params, "reserved"))
		var out []*neo4j.Record
		for _, r := range g.rels {
			if _, ok := reserved[r.label]; ok {
				continue
			}
			if _, ok := contained[r.fromID]; !ok {
				continue
			}
			if _, ok := contained[r.toID]; !ok {
				continue
			}
			out = append(out, record(
				[]string{"from", "to", "label", "props"},
				[]any{r.fromID, r.toID, r.label, copyMap(r.props)},
			))
		}
		return out, nil

	case queryContainedItemIDs:
		contained := toSet(g.containedIDs(str(params, "id")))
		var out []*neo4j.Record
		for _, n := range g.nodes {
			id, _ := n.props["id"].(string)
			if _, ok := contained[id]; !ok {
				continue
			}
			out = append(out, record(
				[]string{"id", "labels"},
				[]any{id, []any{n.label}},
			))
		}
		return out, nil

	case queryDeleteItems:
		stale := toSet(strList(params, "stale"))
		g.nodes = filterNodes(g.nodes, func(n *fakeNode) bool {
			id, _ := n.props["id"].(string)
			_, gone := stale[id]
			return !gone
		})
		g.rels = filterRels(g.rels, func(r *fakeRel) bool {
			_, fromGone := stale[r.fromID]
			_, toGone := stale[r.toID]
			return !fromGone && !toGone
		})
		return nil, nil

	case queryLinkParent:
		if g.findNodeByID(str(params, "parentId")) == nil || g.findNodeByID(str(params, "id")) == nil {
			return nil, nil
		}
		g.mergeRel(str(params, "parentId"), str(params, "id"), board.RelContains, nil)
		return nil, nil

	case queryLinkTrigger:
		if g.findNodeByID(str(params, "id")) == nil || g.findNodeByID(str(params, "eventId")) == nil {
			return nil, nil
		}
		g.mergeRel(str(params, "id"), str(params, "eventId"), board.RelTriggers, nil)
		return nil, nil

	case queryConnectionIDs:
		contained := toSet(g.containedIDs(str(params, "id")))
		reserved := toSet(strList(params, "reserved"))
		var out []*neo4j.Record
		for _, r := range g.rels {
			if _, ok := reserved[r.label]; ok {
				continue
			}
			if _, ok := contained[r.fromID]; !ok {
				continue
			}
			if _, ok := contained[r.toID]; !ok {
				continue
			}
			if r.props["id"] == nil {
				continue
			}
			out = append(out, records("id", r.props["id"])...)
		}
		return out, nil

	case queryDeleteConnections:
		stale := toSet(strList(params, "stale"))
		reserved := toSet(strList(params, "reserved"))
		g.rels = filterRels(g.rels, func(r *fakeRel) bool {
			if _, ok := reserved[r.label]; ok {
				return true
			}
			id, _ := r.props["id"].(string)
			_, gone := stale[id]
			return !gone
		})
		return nil, nil
	}

	if m := mergeItemPattern.FindStringSubmatch(cypher); m != nil {
		label := m[1]
		boardID := str(params, "boardId")
		id := str(params, "id")

		if g.findNode(board.LabelBoard, boardID) == nil {
			g.nodes = append(g.nodes, &fakeNode{
				label: board.LabelBoard,
				props: map[string]any{"id": boardID, "name": boardID, "path": boardID},
			})
		}

		props := copyMap(mapParam(params, "props"))
		props["id"] = id
		props["boardId"] = boardID

		if n := g.findNode(label, id); n != nil {
			n.props = props
		} else {
			g.nodes = append(g.nodes, &fakeNode{label: label, props: props})
		}
		g.mergeRel(boardID, id, board.RelContains, nil)
		return nil, nil
	}

	if m := mergeConnPattern.FindStringSubmatch(cypher); m != nil {
		label := m[1]
		from := str(params, "from")
		to := str(params, "to")

		// MATCH semantics: missing endpoints mean no merge happens.
		if g.findNodeByID(from) == nil || g.findNodeByID(to) == nil {
			return nil, nil
		}

		props := copyMap(mapParam(params, "props"))
		props["id"] = str(params, "id")
		g.mergeRel(from, to, label, props)
		return nil, nil
	}

	return nil, fmt.Errorf("fake store: unrecognized statement:\n%s", cypher)
}

func (g *fakeGraph) findNode(label, id string) *fakeNode {
	for _, n := range g.nodes {
		if n.label == label && n.props["id"] == id {
			return n
		}
	}
	return nil
}

func (g *fakeGraph) findNodeByID(id string) *fakeNode {
	for _, n := range g.nodes {
		if n.props["id"] == id {
			return n
		}
	}
	return nil
}

func (g *fakeGraph) containedIDs(boardID string) []string {
	var out []string
	for _, r := range g.rels {
		if r.label == board.RelContains && r.fromID == boardID {
			out = append(out, r.toID)
		}
	}
	return out
}

// mergeRel updates the matching (from, to, label) relationship or adds
// it. A nil props argument leaves existing properties alone.
func (g *fakeGraph) mergeRel(from, to, label string, props map[string]any) {
	for _, r := range g.rels {
		if r.fromID == from && r.toID == to && r.label == label {
			if props != nil {
				r.props = props
			}
			return
		}
	}
	if props == nil {
		props = map[string]any{}
	}
	g.rels = append(g.rels, &fakeRel{fromID: from, toID: to, label: label, props: props})
}

// snapshot deep-copies the graph state for before/after comparisons.
func (g *fakeGraph) snapshot() ([]fakeNode, []fakeRel) {
	g.mu.Lock()
	defer g.mu.Unlock()

	nodes := make([]fakeNode, 0, len(g.nodes))
	for _, n := range g.nodes {
		nodes = append(nodes, fakeNode{label: n.label, props: copyMap(n.props)})
	}
	rels := make([]fakeRel, 0, len(g.rels))
	for _, r := range g.rels {
		rels = append(rels, fakeRel{fromID: r.fromID, toID: r.toID, label: r.label, props: copyMap(r.props)})
	}
	return nodes, rels
}

// store.SessionSource backed by the fake graph.

type fakeSource struct {
	g    *fakeGraph
	last *fakeSession
}

func (s *fakeSource) ReadSession(ctx context.Context) store.Session {
	s.last = &fakeSession{g: s.g}
	return s.last
}

func (s *fakeSource) WriteSession(ctx context.Context) store.Session {
	s.last = &fakeSession{g: s.g}
	return s.last
}

type fakeSession struct {
	g      *fakeGraph
	closed bool
}

func (s *fakeSession) Run(ctx context.Context, cypher string, params map[string]any) ([]*neo4j.Record, error) {
	return s.g.run(cypher, params)
}

func (s *fakeSession) WriteTx(ctx context.Context, fn func(q store.Querier) error) error {
	return fn(s)
}

func (s *fakeSession) Close(ctx context.Context) error {
	s.closed = true
	return nil
}

// helpers

func record(keys []string, values []any) *neo4j.Record {
	return &neo4j.Record{Keys: keys, Values: values}
}

func records(key string, value any) []*neo4j.Record {
	return []*neo4j.Record{record([]string{key}, []any{value})}
}

func boardRecords(b *fakeNode) []*neo4j.Record {
	return []*neo4j.Record{record(
		[]string{"id", "name", "path", "type"},
		[]any{b.props["id"], b.props["name"], b.props["path"], b.props["type"]},
	)}
}

func str(params map[string]any, key string) string {
	s, _ := params[key].(string)
	return s
}

func strList(params map[string]any, key string) []string {
	switch v := params[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func mapParam(params map[string]any, key string) map[string]any {
	m, _ := params[key].(map[string]any)
	return m
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func toSet(list []string) map[string]struct{} {
	set := make(map[string]struct{}, len(list))
	for _, s := range list {
		set[s] = struct{}{}
	}
	return set
}

func filterNodes(nodes []*fakeNode, keep func(*fakeNode) bool) []*fakeNode {
	out := nodes[:0]
	for _, n := range nodes {
		if keep(n) {
			out = append(out, n)
		}
	}
	return out
}

func filterRels(rels []*fakeRel, keep func(*fakeRel) bool) []*fakeRel {
	out := rels[:0]
	for _, r := range rels {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}
