package bridge

import (
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/kimsanghoon1/eventstorming-sub001/internal/board"
)

func boardFromRecord(record *neo4j.Record) board.Board {
	return board.Board{
		ID:   getStringFromRecord(record, "id"),
		Name: getStringFromRecord(record, "name"),
		Path: getStringFromRecord(record, "path"),
		Type: getStringFromRecord(record, "type"),
	}
}

func getStringFromRecord(record *neo4j.Record, key string) string {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return ""
	}
	if str, ok := val.(string); ok {
		return str
	}
	return ""
}

func getMapFromRecord(record *neo4j.Record, key string) map[string]any {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return map[string]any{}
	}
	if m, ok := val.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

func getStringSliceFromRecord(record *neo4j.Record, key string) []string {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return []string{}
	}
	switch slice := val.(type) {
	case []string:
		return slice
	case []any:
		result := make([]string, 0, len(slice))
		for _, v := range slice {
			if str, ok := v.(string); ok {
				result = append(result, str)
			}
		}
		return result
	}
	return []string{}
}
