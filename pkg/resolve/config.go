package resolve

import (
	"sort"

	"github.com/OpenTraceLab/pinmap/pkg/board"
	"github.com/OpenTraceLab/pinmap/pkg/resource"
)

// Binding is one resolved role.
type Binding struct {
	Role     board.Role
	Ref      resource.Ref // reference as written by the board or override
	Resource resource.Resource
	Origin   board.Origin
}

// Config is a validated role to pin map. It is immutable and safe for
// concurrent use.
type Config struct {
	board    string
	device   string
	traits   []string
	bindings []Binding
	byRole   map[string]int
}

func newConfig(d *board.Descriptor, device string, claims []claim) *Config {
	c := &Config{
		board:    d.Name(),
		device:   device,
		traits:   d.Traits(),
		bindings: make([]Binding, len(claims)),
		byRole:   make(map[string]int, len(claims)),
	}
	for i, cl := range claims {
		c.bindings[i] = Binding{
			Role:     cl.binding.Role,
			Ref:      cl.binding.Resource,
			Resource: cl.res,
			Origin:   cl.binding.Origin,
		}
		c.byRole[cl.binding.Role.Name] = i
	}
	return c
}

// Board returns the name of the resolved board.
func (c *Config) Board() string { return c.board }

// Device returns the device the pins belong to.
func (c *Config) Device() string { return c.device }

// Traits returns the traits of the resolved board.
func (c *Config) Traits() []string { return append([]string(nil), c.traits...) }

// HasTrait reports whether the resolved board provides trait.
func (c *Config) HasTrait(trait string) bool {
	for _, t := range c.traits {
		if t == trait {
			return true
		}
	}
	return false
}

// ResourceFor returns the pin bound to role.
func (c *Config) ResourceFor(role string) (resource.Resource, error) {
	b, err := c.binding(role)
	if err != nil {
		return resource.Resource{}, err
	}
	return copyResource(b.Resource), nil
}

// Origin reports whether role was bound by the board, by a project
// override or by the project layer itself.
func (c *Config) Origin(role string) (board.Origin, error) {
	b, err := c.binding(role)
	if err != nil {
		return 0, err
	}
	return b.Origin, nil
}

// Roles returns the bound role names sorted.
func (c *Config) Roles() []string {
	out := make([]string, 0, len(c.bindings))
	for _, b := range c.bindings {
		out = append(out, b.Role.Name)
	}
	sort.Strings(out)
	return out
}

// Bindings returns the resolved bindings in resolution order: board
// bindings in declaration order, then roles added by overrides.
func (c *Config) Bindings() []Binding {
	out := make([]Binding, len(c.bindings))
	for i, b := range c.bindings {
		b.Resource = copyResource(b.Resource)
		out[i] = b
	}
	return out
}

func (c *Config) binding(role string) (*Binding, error) {
	i, ok := c.byRole[role]
	if !ok {
		return nil, &RoleNotBoundError{Board: c.board, Role: role}
	}
	return &c.bindings[i], nil
}

func copyResource(r resource.Resource) resource.Resource {
	r.Caps = append(resource.Caps(nil), r.Caps...)
	r.Aliases = append([]string(nil), r.Aliases...)
	return r
}
