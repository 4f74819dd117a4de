package board

import (
	"regexp"
	"strings"
)

// LabelBoard is the node label for board nodes.
const LabelBoard = "Board"

// LabelUnknown is the node label for items whose type is missing or not
// in the allow-list.
const LabelUnknown = "Unknown"

const (
	// RelContains links a board to its items and a parent item to its
	// children. Structural, never treated as a user connection.
	RelContains = "CONTAINS"
	// RelHasDetail links an item to its detail-view diagram. Structural.
	RelHasDetail = "HAS_DETAIL"
	// RelTriggers links an item to the domain event it produces.
	RelTriggers = "TRIGGERS"
	// RelDefault is the relationship label for connections without a type.
	RelDefault = "RELATED_TO"
)

// ReservedRelationships are relationship labels that encode board
// structure rather than user-drawn connections, excluded from the
// connection scan and the connection deletion diff.
var ReservedRelationships = []string{RelContains, RelHasDetail}

// ItemLabels is the allow-list of node labels for item types. Labels are
// interpolated into statement text (Cypher cannot parameterize labels),
// so anything outside this list maps to Unknown rather than reaching the
// query string.
var ItemLabels = []string{
	// Eventstorming vocabulary
	"Command",
	"Event",
	"Aggregate",
	"Policy",
	"ReadModel",
	"Actor",
	"ExternalSystem",
	"BoundedContext",
	"Issue",
	// UML vocabulary
	"Class",
	"Interface",
	"Enumeration",
	"Package",
	"Relation",
}

var itemLabelSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(ItemLabels))
	for _, l := range ItemLabels {
		set[l] = struct{}{}
	}
	return set
}()

// LabelForType maps an item's type field to its node label. Unknown or
// empty types get the Unknown label.
func LabelForType(itemType string) string {
	if _, ok := itemLabelSet[itemType]; ok {
		return itemType
	}
	return LabelUnknown
}

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	validRelLabel = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)
)

// RelationshipLabel derives the graph relationship label from a
// connection's free-text type: upper-cased, whitespace runs replaced
// with underscores ("triggers event" -> TRIGGERS_EVENT). A missing type,
// or one that does not survive as a plain label identifier, falls back
// to RELATED_TO so no client-supplied text ever reaches statement
// structure.
func RelationshipLabel(connType string) string {
	trimmed := strings.TrimSpace(connType)
	if trimmed == "" {
		return RelDefault
	}
	label := whitespaceRun.ReplaceAllString(strings.ToUpper(trimmed), "_")
	if !validRelLabel.MatchString(label) {
		return RelDefault
	}
	return label
}
