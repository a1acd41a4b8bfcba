// Package catalog holds the immutable table of selectable styles.
package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"headshot/internal/domain"
)

// Catalog is safe for concurrent reads; it is never mutated after New.
type Catalog struct {
	styles []domain.StyleDefinition
	byID   map[string]int
}

// New validates defs and builds a catalog preserving their order.
func New(defs []domain.StyleDefinition) (*Catalog, error) {
	if len(defs) == 0 {
		return nil, errors.New("catalog: no styles defined")
	}
	title := cases.Title(language.English)
	c := &Catalog{
		styles: make([]domain.StyleDefinition, 0, len(defs)),
		byID:   make(map[string]int, len(defs)),
	}
	for i, def := range defs {
		def.ID = strings.TrimSpace(def.ID)
		def.PromptText = strings.TrimSpace(def.PromptText)
		if def.ID == "" {
			return nil, fmt.Errorf("catalog: style %d has no id", i)
		}
		if def.PromptText == "" {
			return nil, fmt.Errorf("catalog: style %q has no prompt", def.ID)
		}
		if _, dup := c.byID[def.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate style %q", def.ID)
		}
		if strings.TrimSpace(def.DisplayName) == "" {
			def.DisplayName = title.String(strings.NewReplacer("-", " ", "_", " ").Replace(def.ID))
		}
		c.byID[def.ID] = len(c.styles)
		c.styles = append(c.styles, def)
	}
	return c, nil
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := New(builtin)
	if err != nil {
		panic(err)
	}
	return c
}

// Load reads a catalog file (YAML, JSON or TOML) with a top-level "styles"
// list. An empty path yields the built-in catalog.
func Load(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	var defs []domain.StyleDefinition
	if err := v.UnmarshalKey("styles", &defs); err != nil {
		return nil, fmt.Errorf("catalog: decode %s: %w", path, err)
	}
	return New(defs)
}

// Lookup implements domain.StyleLookup.
func (c *Catalog) Lookup(id string) (*domain.StyleDefinition, bool) {
	idx, ok := c.byID[id]
	if !ok {
		return nil, false
	}
	def := c.styles[idx]
	return &def, true
}

// All returns a copy of the styles in catalog order.
func (c *Catalog) All() []domain.StyleDefinition {
	out := make([]domain.StyleDefinition, len(c.styles))
	copy(out, c.styles)
	return out
}

func (c *Catalog) Len() int { return len(c.styles) }
