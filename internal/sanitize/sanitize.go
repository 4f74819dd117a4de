// Package sanitize converts in-memory item/connection records into
// store-safe property maps and back. Neo4j properties hold scalars and
// homogeneous scalar lists only, so nested structures are flattened to
// JSON strings on write and restored on read.
package sanitize

import (
	"encoding/json"
	"reflect"
	"sort"
	"strings"
)

// EncodedKey is the reserved property listing which keys were JSON
// flattened, so the read side can restore them without guessing.
const EncodedKey = "_encoded"

// Flatten converts a record into a map safe to store as graph
// properties. Per key: nil is dropped, homogeneous string/number slices
// pass through, any other composite is JSON-marshaled to a string (and
// recorded under EncodedKey), scalars pass through.
func Flatten(props map[string]any) map[string]any {
	out := make(map[string]any, len(props))
	var encoded []string

	for key, value := range props {
		if key == EncodedKey || value == nil {
			continue
		}
		switch v := value.(type) {
		case string, bool, int, int64, float64:
			out[key] = v
		case []string, []int, []int64, []float64:
			out[key] = v
		case []any:
			if isScalarList(v) {
				out[key] = v
				continue
			}
			s, err := marshal(v)
			if err != nil {
				continue
			}
			out[key] = s
			encoded = append(encoded, key)
		default:
			if !isComposite(v) {
				// Uncommon scalar widths (int32, float32, ...) store fine.
				out[key] = v
				continue
			}
			s, err := marshal(v)
			if err != nil {
				continue
			}
			out[key] = s
			encoded = append(encoded, key)
		}
	}

	if len(encoded) > 0 {
		// Deterministic ordering keeps repeated writes property-identical.
		sort.Strings(encoded)
		out[EncodedKey] = encoded
	}
	return out
}

// Restore is the read-side inverse of Flatten. Keys listed under
// EncodedKey are JSON-parsed back into structures and the marker is
// stripped. Records written before keys were tagged fall back to a
// heuristic: any string delimited by {...} or [...] is tentatively
// parsed, keeping the raw string when parsing fails. The heuristic can
// mis-decode a plain string that happens to be brace-delimited; that
// risk is accepted for legacy records rather than papered over.
func Restore(props map[string]any) map[string]any {
	out := make(map[string]any, len(props))

	tagged := encodedKeys(props)
	for key, value := range props {
		if key == EncodedKey {
			continue
		}
		s, isString := value.(string)
		if !isString {
			out[key] = value
			continue
		}
		if tagged != nil {
			if _, ok := tagged[key]; ok {
				var parsed any
				if err := json.Unmarshal([]byte(s), &parsed); err == nil {
					out[key] = parsed
					continue
				}
			}
			out[key] = s
			continue
		}
		if looksLikeJSON(s) {
			var parsed any
			if err := json.Unmarshal([]byte(s), &parsed); err == nil {
				out[key] = parsed
				continue
			}
		}
		out[key] = s
	}
	return out
}

func encodedKeys(props map[string]any) map[string]struct{} {
	raw, ok := props[EncodedKey]
	if !ok {
		return nil
	}
	set := make(map[string]struct{})
	switch list := raw.(type) {
	case []any:
		for _, k := range list {
			if s, ok := k.(string); ok {
				set[s] = struct{}{}
			}
		}
	case []string:
		for _, s := range list {
			set[s] = struct{}{}
		}
	}
	return set
}

func isScalarList(list []any) bool {
	for _, v := range list {
		switch v.(type) {
		case string, int, int64, float64:
		default:
			return false
		}
	}
	return true
}

func isComposite(v any) bool {
	switch reflect.ValueOf(v).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct, reflect.Ptr:
		return true
	}
	return false
}

func looksLikeJSON(s string) bool {
	trimmed := strings.TrimSpace(s)
	if len(trimmed) < 2 {
		return false
	}
	return (strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}")) ||
		(strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]"))
}

func marshal(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
