package schema

import (
	"context"
	"strings"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/kimsanghoon1/eventstorming-sub001/internal/store"
)

// recordingSource captures every statement Ensure issues.
type recordingSource struct {
	statements []string
}

func (s *recordingSource) ReadSession(ctx context.Context) store.Session  { return &recordingSession{src: s} }
func (s *recordingSource) WriteSession(ctx context.Context) store.Session { return &recordingSession{src: s} }

type recordingSession struct {
	src *recordingSource
}

func (s *recordingSession) Run(ctx context.Context, cypher string, params map[string]any) ([]*neo4j.Record, error) {
	s.src.statements = append(s.src.statements, cypher)
	return nil, nil
}

func (s *recordingSession) WriteTx(ctx context.Context, fn func(q store.Querier) error) error {
	return fn(s)
}

func (s *recordingSession) Close(ctx context.Context) error { return nil }

func TestEnsure_DeclaresConstraintsAndIndexes(t *testing.T) {
	src := &recordingSource{}
	if err := NewManager(src).Ensure(context.Background()); err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}

	want := []string{
		"CREATE CONSTRAINT board_id_unique IF NOT EXISTS FOR (n:Board) REQUIRE n.id IS UNIQUE",
		"CREATE CONSTRAINT command_id_unique IF NOT EXISTS FOR (n:Command) REQUIRE n.id IS UNIQUE",
		"CREATE CONSTRAINT unknown_id_unique IF NOT EXISTS FOR (n:Unknown) REQUIRE n.id IS UNIQUE",
		"CREATE INDEX board_path_idx IF NOT EXISTS FOR (n:Board) ON (n.path)",
		"CREATE INDEX board_type_idx IF NOT EXISTS FOR (n:Board) ON (n.type)",
		"CREATE INDEX event_name_idx IF NOT EXISTS FOR (n:Event) ON (n.name)",
		"CREATE INDEX event_boardid_idx IF NOT EXISTS FOR (n:Event) ON (n.boardId)",
	}
	for _, stmt := range want {
		assertIssued(t, src.statements, stmt)
	}

	// Labels with extra lookup fields keep the default indexes too.
	assertIssued(t, src.statements, "CREATE INDEX class_name_idx IF NOT EXISTS FOR (n:Class) ON (n.name)")
	assertIssued(t, src.statements, "CREATE INDEX class_boardid_idx IF NOT EXISTS FOR (n:Class) ON (n.boardId)")
	assertIssued(t, src.statements, "CREATE INDEX class_instancename_idx IF NOT EXISTS FOR (n:Class) ON (n.instanceName)")
	assertIssued(t, src.statements, "CREATE INDEX aggregate_boardid_idx IF NOT EXISTS FOR (n:Aggregate) ON (n.boardId)")
	assertIssued(t, src.statements, "CREATE INDEX aggregate_instancename_idx IF NOT EXISTS FOR (n:Aggregate) ON (n.instanceName)")
}

func TestEnsure_NoDuplicateDeclarations(t *testing.T) {
	src := &recordingSource{}
	if err := NewManager(src).Ensure(context.Background()); err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}

	seen := map[string]bool{}
	for _, stmt := range src.statements {
		if seen[stmt] {
			t.Errorf("Statement issued twice: %s", stmt)
		}
		seen[stmt] = true
	}
}

func assertIssued(t *testing.T, statements []string, want string) {
	t.Helper()
	for _, stmt := range statements {
		if strings.Contains(stmt, want) || stmt == want {
			return
		}
	}
	t.Errorf("Expected statement not issued: %s", want)
}
