// Package tool defines the catalog record for a registered tool.
package tool

// Record describes one tool in the catalog. Records are immutable and
// supplied by the hosting application's registry.
type Record struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Category    string   `json:"category,omitempty" yaml:"category,omitempty"`
	Keywords    []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`
}

// Valid reports whether the record carries the minimum fields the ranker
// needs. Malformed records are skipped, not scored.
func (r Record) Valid() bool {
	return r.ID != "" && r.Name != ""
}
