// Package feature holds the project feature switches that gate which pin
// roles a board must provide.
package feature

import (
	"fmt"
	"sort"
	"strings"
)

// Kind distinguishes the three kinds of feature switch.
type Kind int

const (
	// Bool is a plain on/off switch.
	Bool Kind = iota
	// Enum selects one of a fixed set of values (e.g. a codec pinout variant).
	Enum
	// Selector enables one board. Exactly one selector is active at a time.
	Selector
)

func (k Kind) String() string {
	switch k {
	case Bool:
		return "bool"
	case Enum:
		return "enum"
	case Selector:
		return "board"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// SelectorPrefix prefixes board selector feature names.
const SelectorPrefix = "board-"

// SelectorName returns the selector feature name for a board.
func SelectorName(board string) string { return SelectorPrefix + board }

// Declaration describes one feature.
type Declaration struct {
	Name    string
	Kind    Kind
	Values  []string // Enum only
	Default string   // "true"/"false" for Bool, a member of Values for Enum
	Board   string   // Selector only
	Doc     string
}

// Catalog is an immutable set of feature declarations.
type Catalog struct {
	decls map[string]Declaration
	order []string
}

// NewCatalog validates and indexes declarations.
func NewCatalog(decls ...Declaration) (*Catalog, error) {
	c := &Catalog{decls: make(map[string]Declaration, len(decls))}
	if err := c.add(decls); err != nil {
		return nil, err
	}
	return c, nil
}

// With returns a new catalog holding the receiver's declarations plus decls.
func (c *Catalog) With(decls ...Declaration) (*Catalog, error) {
	out := &Catalog{
		decls: make(map[string]Declaration, len(c.decls)+len(decls)),
		order: append([]string(nil), c.order...),
	}
	for k, v := range c.decls {
		out.decls[k] = v
	}
	if err := out.add(decls); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Catalog) add(decls []Declaration) error {
	for _, d := range decls {
		d.Name = strings.TrimSpace(d.Name)
		if d.Name == "" {
			return fmt.Errorf("feature: empty feature name")
		}
		if _, dup := c.decls[d.Name]; dup {
			return fmt.Errorf("feature: %s declared twice", d.Name)
		}
		switch d.Kind {
		case Bool:
			if d.Default == "" {
				d.Default = "false"
			}
			if _, err := parseBool(d.Default); err != nil {
				return fmt.Errorf("feature: %s: %w", d.Name, err)
			}
		case Enum:
			if len(d.Values) == 0 {
				return fmt.Errorf("feature: enum %s has no values", d.Name)
			}
			d.Values = append([]string(nil), d.Values...)
			if d.Default == "" {
				d.Default = d.Values[0]
			}
			if !contains(d.Values, d.Default) {
				return fmt.Errorf("feature: %s: default %q not among %v", d.Name, d.Default, d.Values)
			}
		case Selector:
			if d.Board == "" {
				d.Board = strings.TrimPrefix(d.Name, SelectorPrefix)
			}
			d.Default = "false"
		default:
			return fmt.Errorf("feature: %s: unknown kind %v", d.Name, d.Kind)
		}
		c.decls[d.Name] = d
		c.order = append(c.order, d.Name)
	}
	return nil
}

// Lookup returns the declaration for name.
func (c *Catalog) Lookup(name string) (Declaration, bool) {
	d, ok := c.decls[name]
	return d, ok
}

// Names returns all feature names sorted.
func (c *Catalog) Names() []string {
	names := append([]string(nil), c.order...)
	sort.Strings(names)
	return names
}

// Declarations returns the declarations in declaration order.
func (c *Catalog) Declarations() []Declaration {
	out := make([]Declaration, 0, len(c.order))
	for _, n := range c.order {
		out = append(out, c.decls[n])
	}
	return out
}

// Selectors returns the board selector declarations sorted by name.
func (c *Catalog) Selectors() []Declaration {
	var out []Declaration
	for _, n := range c.Names() {
		if d := c.decls[n]; d.Kind == Selector {
			out = append(out, d)
		}
	}
	return out
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "t", "true", "on", "yes", "y", "enabled":
		return true, nil
	case "0", "f", "false", "off", "no", "n", "disabled", "":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", s)
}
