// Package board describes circuit boards as data: an ordered table of
// role-to-pin bindings, gated by project features, plus the pin sharing the
// board declares as intentional.
package board

import (
	"fmt"
	"sort"
	"strings"

	"github.com/OpenTraceLab/pinmap/pkg/errcode"
	"github.com/OpenTraceLab/pinmap/pkg/feature"
)

// DuplicateRoleInBoardError reports a role declared twice by one board
// outside of mutually exclusive variant blocks.
type DuplicateRoleInBoardError struct {
	Board string
	Role  string
}

func (e *DuplicateRoleInBoardError) Error() string {
	return fmt.Sprintf("board: %s declares role %q more than once", e.Board, e.Role)
}

func (e *DuplicateRoleInBoardError) Code() errcode.Code { return errcode.DuplicateRoleInBoard }

// Spec is the input to New.
type Spec struct {
	Name     string
	Device   string // resource registry the pins refer to, e.g. "esp32"
	Doc      string
	Traits   []string
	Bindings []Binding
	Shared   []SharedGroup
	Defaults map[string]string // feature values the board turns on by default
}

// Descriptor is an immutable board description.
type Descriptor struct {
	name     string
	device   string
	doc      string
	traits   []string
	bindings []Binding
	shared   []SharedGroup
	defaults map[string]string
}

// New validates a board spec. Roles named without a capability are filled
// in from the role catalogue. A role may only be declared twice when the two
// declarations sit in variant blocks that can never be active together.
func New(spec Spec) (*Descriptor, error) {
	if strings.TrimSpace(spec.Name) == "" {
		return nil, fmt.Errorf("board: descriptor without a name")
	}
	if spec.Device == "" {
		return nil, fmt.Errorf("board: %s: no device", spec.Name)
	}
	d := &Descriptor{
		name:   spec.Name,
		device: spec.Device,
		doc:    spec.Doc,
		traits: append([]string(nil), spec.Traits...),
	}
	sort.Strings(d.traits)

	d.defaults = make(map[string]string, len(spec.Defaults))
	for name, v := range spec.Defaults {
		if name == "" || strings.HasPrefix(name, feature.SelectorPrefix) {
			return nil, fmt.Errorf("board: %s: invalid default for feature %q", spec.Name, name)
		}
		d.defaults[name] = v
	}

	seen := make(map[string][]int)
	groupMembers := make(map[string][]string)
	for _, b := range spec.Bindings {
		role, err := CompleteRole(b.Role)
		if err != nil {
			return nil, fmt.Errorf("board: %s: %w", spec.Name, err)
		}
		b.Role = role
		b.Origin = OriginBoard
		if b.Resource == "" {
			return nil, fmt.Errorf("board: %s: role %s has no pin", spec.Name, role.Name)
		}
		for _, prev := range seen[role.Name] {
			if !exclusive(d.bindings[prev].When, b.When) {
				return nil, &DuplicateRoleInBoardError{Board: spec.Name, Role: role.Name}
			}
		}
		seen[role.Name] = append(seen[role.Name], len(d.bindings))
		if b.Shared != "" {
			groupMembers[b.Shared] = appendUnique(groupMembers[b.Shared], role.Name)
		}
		d.bindings = append(d.bindings, b)
	}

	declared := make(map[string]bool)
	for _, g := range spec.Shared {
		g.Roles = append([]string(nil), g.Roles...)
		if g.Name != "" {
			if declared[g.Name] {
				return nil, fmt.Errorf("board: %s: shared group %s declared twice", spec.Name, g.Name)
			}
			declared[g.Name] = true
			for _, r := range groupMembers[g.Name] {
				g.Roles = appendUnique(g.Roles, r)
			}
		}
		if len(g.Roles) < 2 {
			return nil, fmt.Errorf("board: %s: shared group %q needs at least two roles", spec.Name, g.Name)
		}
		d.shared = append(d.shared, g)
	}
	tags := make([]string, 0, len(groupMembers))
	for name := range groupMembers {
		tags = append(tags, name)
	}
	sort.Strings(tags)
	for _, name := range tags {
		if declared[name] {
			continue
		}
		if len(groupMembers[name]) < 2 {
			return nil, fmt.Errorf("board: %s: shared group %q needs at least two roles", spec.Name, name)
		}
		d.shared = append(d.shared, SharedGroup{Name: name, Roles: groupMembers[name]})
	}
	return d, nil
}

// MustNew is like New but panics on error.
func MustNew(spec Spec) *Descriptor {
	d, err := New(spec)
	if err != nil {
		panic(err)
	}
	return d
}

// Name returns the board name.
func (d *Descriptor) Name() string { return d.name }

// Device returns the name of the device the pins refer to.
func (d *Descriptor) Device() string { return d.device }

// Doc returns the board description.
func (d *Descriptor) Doc() string { return d.doc }

// Traits returns the facts the board provides, sorted.
func (d *Descriptor) Traits() []string { return append([]string(nil), d.traits...) }

// HasTrait reports whether the board provides a trait.
func (d *Descriptor) HasTrait(trait string) bool {
	i := sort.SearchStrings(d.traits, trait)
	return i < len(d.traits) && d.traits[i] == trait
}

// Defaults returns the feature values the board sets unless a project
// overrides them.
func (d *Descriptor) Defaults() map[string]string {
	out := make(map[string]string, len(d.defaults))
	for k, v := range d.defaults {
		out[k] = v
	}
	return out
}

// Bindings returns every declared binding in declaration order, regardless
// of conditions.
func (d *Descriptor) Bindings() []Binding { return append([]Binding(nil), d.bindings...) }

// Shared returns the declared shared groups.
func (d *Descriptor) Shared() []SharedGroup {
	out := make([]SharedGroup, len(d.shared))
	for i, g := range d.shared {
		g.Roles = append([]string(nil), g.Roles...)
		out[i] = g
	}
	return out
}

// BindingsFor returns the bindings active under t, in declaration order.
// A binding is active when its condition holds and its role's feature
// dependency, if any, is enabled.
func (d *Descriptor) BindingsFor(t *feature.ToggleSet) ([]Binding, error) {
	var out []Binding
	for _, b := range d.bindings {
		ok, err := Active(b, t)
		if err != nil {
			return nil, fmt.Errorf("board: %s: role %s: %w", d.name, b.Role.Name, err)
		}
		if ok {
			out = append(out, b)
		}
	}
	return out, nil
}

// Active reports whether a binding survives the feature state. Every
// feature the binding names must be declared, whichever of them decides the
// outcome.
func Active(b Binding, t *feature.ToggleSet) (bool, error) {
	names := Features(b.When)
	if b.Role.Feature != "" {
		names = append(names, b.Role.Feature)
	}
	for _, name := range names {
		if _, ok := t.Catalog().Lookup(name); !ok {
			return false, &feature.UnknownFeatureError{Name: name}
		}
	}
	if b.Role.Feature != "" {
		on, err := t.IsEnabled(b.Role.Feature)
		if err != nil || !on {
			return false, err
		}
	}
	return Holds(b.When, t)
}

func appendUnique(list []string, v string) []string {
	for _, s := range list {
		if s == v {
			return list
		}
	}
	return append(list, v)
}
