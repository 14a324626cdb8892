// Package catalog holds the list of content identifiers fetched by the
// harness. A Catalog is built once at startup and shared read-only by all
// workers.
package catalog

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"regexp"

	"github.com/m-lab/fetchbench/pkg/fetchbench/model"
)

// ErrEmptyCatalog is returned when a catalog contains no identifiers.
var ErrEmptyCatalog = errors.New("catalog is empty")

var lineSep = regexp.MustCompile(`\r?\n`)

// Catalog is an immutable list of content identifiers.
type Catalog struct {
	ids []model.ContentID
}

// New returns a Catalog containing ids, in order.
func New(ids ...model.ContentID) (*Catalog, error) {
	if len(ids) == 0 {
		return nil, ErrEmptyCatalog
	}
	c := &Catalog{ids: make([]model.ContentID, len(ids))}
	copy(c.ids, ids)
	return c, nil
}

// Parse builds a Catalog from newline-separated text. Empty lines are
// skipped.
func Parse(data []byte) (*Catalog, error) {
	var ids []model.ContentID
	for _, line := range lineSep.Split(string(data), -1) {
		if line == "" {
			continue
		}
		ids = append(ids, model.ContentID(line))
	}
	return New(ids...)
}

// Load reads a Catalog from the file at path.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Len returns the number of identifiers.
func (c *Catalog) Len() int {
	return len(c.ids)
}

// Get returns the i-th identifier.
func (c *Catalog) Get(i int) model.ContentID {
	return c.ids[i]
}

// Random returns an identifier drawn uniformly at random using rnd.
func (c *Catalog) Random(rnd *rand.Rand) model.ContentID {
	return c.Get(rnd.Intn(c.Len()))
}
