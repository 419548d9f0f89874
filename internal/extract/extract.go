// Package extract flattens arbitrary JSON-decoded records into searchable
// strings for the content indexer.
package extract

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// DefaultMaxDepth bounds recursion into nested records.
const DefaultMaxDepth = 3

// privatePrefix marks record keys excluded from extraction.
const privatePrefix = "_"

// Text flattens a JSON-decoded value (string, float64, bool, nil, []any,
// map[string]any) into a space-joined searchable string. Recursion stops
// beyond maxDepth; keys with a leading underscore are private and skipped.
// Record keys are visited in sorted order so output is deterministic.
func Text(v any, maxDepth int) string {
	return text(v, maxDepth, 0)
}

func text(v any, maxDepth, depth int) string {
	if depth > maxDepth {
		return ""
	}

	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case json.Number:
		return x.String()
	case []any:
		parts := make([]string, 0, len(x))
		for _, elem := range x {
			if s := text(elem, maxDepth, depth+1); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, " ")
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			if strings.HasPrefix(k, privatePrefix) {
				continue
			}
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			if s := text(x[k], maxDepth, depth+1); s != "" {
				parts = append(parts, k+" "+s)
			} else {
				parts = append(parts, k)
			}
		}
		return strings.Join(parts, " ")
	default:
		return ""
	}
}
