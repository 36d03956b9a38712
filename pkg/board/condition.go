package board

import (
	"strings"

	"github.com/OpenTraceLab/pinmap/pkg/feature"
)

// Condition gates a binding on the feature state. A nil Condition always
// holds.
type Condition interface {
	Eval(t *feature.ToggleSet) (bool, error)
	String() string
	literals(positive bool) []literal
	features() []string
}

type literal struct {
	feature  string
	value    string // empty for Enabled
	eq       bool
	positive bool
}

// Enabled holds when the named feature is enabled.
func Enabled(name string) Condition { return enabled{name} }

// Equals holds when the named feature has the given value.
func Equals(name, value string) Condition { return equals{name, value} }

// Not negates a condition.
func Not(c Condition) Condition { return not{c} }

// All holds when every condition holds. Nil members are skipped.
func All(cs ...Condition) Condition {
	var out all
	for _, c := range cs {
		if c == nil {
			continue
		}
		if nested, ok := c.(all); ok {
			out = append(out, nested...)
			continue
		}
		out = append(out, c)
	}
	switch len(out) {
	case 0:
		return nil
	case 1:
		return out[0]
	}
	return out
}

// Features lists every feature a possibly nil condition names, in order of
// appearance.
func Features(c Condition) []string {
	if c == nil {
		return nil
	}
	return c.features()
}

// Holds evaluates a possibly nil condition.
func Holds(c Condition, t *feature.ToggleSet) (bool, error) {
	if c == nil {
		return true, nil
	}
	return c.Eval(t)
}

type enabled struct{ name string }

func (c enabled) Eval(t *feature.ToggleSet) (bool, error) { return t.IsEnabled(c.name) }
func (c enabled) String() string                          { return c.name }
func (c enabled) literals(pos bool) []literal {
	return []literal{{feature: c.name, positive: pos}}
}
func (c enabled) features() []string { return []string{c.name} }

type equals struct{ name, value string }

func (c equals) Eval(t *feature.ToggleSet) (bool, error) {
	v, err := t.ValueOf(c.name)
	if err != nil {
		return false, err
	}
	return v == c.value, nil
}
func (c equals) String() string { return c.name + " = " + c.value }
func (c equals) literals(pos bool) []literal {
	return []literal{{feature: c.name, value: c.value, eq: true, positive: pos}}
}
func (c equals) features() []string { return []string{c.name} }

type not struct{ c Condition }

func (c not) Eval(t *feature.ToggleSet) (bool, error) {
	ok, err := c.c.Eval(t)
	return !ok, err
}
func (c not) String() string { return "not " + c.c.String() }
func (c not) literals(pos bool) []literal {
	if _, isAll := c.c.(all); isAll {
		// A negated conjunction says nothing about individual features.
		return nil
	}
	return c.c.literals(!pos)
}
func (c not) features() []string { return c.c.features() }

type all []Condition

func (c all) Eval(t *feature.ToggleSet) (bool, error) {
	for _, m := range c {
		ok, err := m.Eval(t)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func (c all) String() string {
	parts := make([]string, len(c))
	for i, m := range c {
		parts[i] = m.String()
	}
	return strings.Join(parts, " and ")
}

func (c all) features() []string {
	var out []string
	for _, m := range c {
		out = append(out, m.features()...)
	}
	return out
}

func (c all) literals(pos bool) []literal {
	if !pos {
		return nil
	}
	var out []literal
	for _, m := range c {
		out = append(out, m.literals(true)...)
	}
	return out
}

// exclusive reports whether two conditions can never hold together: one
// requires feature=v while the other requires feature=w (w != v) or rules
// out feature=v, or one negates a conjunction the other implies.
func exclusive(a, b Condition) bool {
	if a == nil || b == nil {
		return false
	}
	ca, cb := conjuncts(a), conjuncts(b)
	if negates(ca, cb) || negates(cb, ca) {
		return true
	}
	la, lb := a.literals(true), b.literals(true)
	for _, x := range la {
		for _, y := range lb {
			if x.feature != y.feature || x.eq != y.eq {
				continue
			}
			switch {
			case x.eq && x.positive && y.positive && x.value != y.value:
				return true
			case x.positive != y.positive && x.value == y.value:
				return true
			}
		}
	}
	return false
}

func conjuncts(c Condition) []Condition {
	if a, ok := c.(all); ok {
		return a
	}
	return []Condition{c}
}

// negates reports whether some member of b is "not c" for a c whose every
// conjunct is also a member of a.
func negates(a, b []Condition) bool {
	have := make(map[string]bool, len(a))
	for _, m := range a {
		have[m.String()] = true
	}
	for _, m := range b {
		n, ok := m.(not)
		if !ok {
			continue
		}
		implied := true
		for _, x := range conjuncts(n.c) {
			if !have[x.String()] {
				implied = false
				break
			}
		}
		if implied {
			return true
		}
	}
	return false
}
