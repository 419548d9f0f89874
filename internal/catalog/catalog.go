// Package catalog exposes the read-only registry of tools the ranker
// searches over.
package catalog

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/gdziedzic/toolsearch/internal/domain/tool"
)

// Catalog lists registered tools.
type Catalog interface {
	All() []tool.Record
}

// Static is a fixed in-memory catalog.
type Static struct {
	tools []tool.Record
}

// NewStatic creates a catalog over the given records.
func NewStatic(tools []tool.Record) *Static {
	return &Static{tools: tools}
}

// All returns the registered tools. Callers must not mutate the slice.
func (c *Static) All() []tool.Record { return c.tools }

// catalogFile is the YAML shape of a catalog file.
type catalogFile struct {
	Tools []tool.Record `yaml:"tools"`
}

// LoadFile reads a YAML catalog file. Malformed records are dropped with
// no error; an unreadable or unparseable file is.
func LoadFile(path string) (*Static, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}

	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", path, err)
	}

	tools := make([]tool.Record, 0, len(f.Tools))
	for _, t := range f.Tools {
		if t.Valid() {
			tools = append(tools, t)
		}
	}
	return NewStatic(tools), nil
}
