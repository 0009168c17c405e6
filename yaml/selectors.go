// Package yaml loads selector tables from YAML documents.
package yaml

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"github.com/fwojciec/mapscrape"
	yamlv3 "gopkg.in/yaml.v3"
)

//go:embed selectors.yaml
var defaultTable []byte

// DefaultSelectorTable returns the built-in selector table.
func DefaultSelectorTable() *mapscrape.SelectorTable {
	t, err := ParseSelectorTable(defaultTable)
	if err != nil {
		panic(fmt.Sprintf("embedded selector table: %v", err))
	}
	return t
}

// ParseSelectorTable decodes and validates a selector table. Unknown keys
// are rejected so typos do not silently drop selectors. A missing review
// limit defaults to mapscrape.MaxReviews.
func ParseSelectorTable(data []byte) (*mapscrape.SelectorTable, error) {
	dec := yamlv3.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var t mapscrape.SelectorTable
	if err := dec.Decode(&t); err != nil {
		return nil, mapscrape.Errorf(mapscrape.EINVALID, "decoding selector table: %v", err)
	}
	if t.Reviews.Limit == 0 {
		t.Reviews.Limit = mapscrape.MaxReviews
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// LoadSelectorTable reads a selector table from path. An empty path returns
// the built-in table.
func LoadSelectorTable(path string) (*mapscrape.SelectorTable, error) {
	if path == "" {
		return DefaultSelectorTable(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading selector table: %w", err)
	}
	return ParseSelectorTable(data)
}
