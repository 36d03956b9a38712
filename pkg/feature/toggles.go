package feature

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/OpenTraceLab/pinmap/pkg/errcode"
)

// UnknownFeatureError reports a feature name that was never declared, or a
// value an enum feature does not accept.
type UnknownFeatureError struct {
	Name  string
	Value string // set when the name is known but the value is not
}

func (e *UnknownFeatureError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("feature: %s does not accept value %q", e.Name, e.Value)
	}
	return fmt.Sprintf("feature: unknown feature %q", e.Name)
}

func (e *UnknownFeatureError) Code() errcode.Code { return errcode.UnknownFeature }

// AmbiguousBoardSelectionError reports zero or several active board
// selectors.
type AmbiguousBoardSelectionError struct {
	Selected []string
}

func (e *AmbiguousBoardSelectionError) Error() string {
	if len(e.Selected) == 0 {
		return "feature: no board selected"
	}
	return fmt.Sprintf("feature: %d boards selected (%s), exactly one is required",
		len(e.Selected), strings.Join(e.Selected, ", "))
}

func (e *AmbiguousBoardSelectionError) Code() errcode.Code {
	return errcode.AmbiguousBoardSelection
}

// ToggleSet is the resolved state of every declared feature.
type ToggleSet struct {
	catalog *Catalog
	state   map[string]string
	board   string
}

// NewToggleSet applies settings on top of the catalog defaults. Bool and
// selector values accept the usual spellings (true/false, on/off, 1/0);
// enum values must be one of the declared values.
func NewToggleSet(c *Catalog, settings map[string]string) (*ToggleSet, error) {
	if c == nil {
		return nil, fmt.Errorf("feature: nil catalog")
	}
	t := &ToggleSet{catalog: c, state: make(map[string]string, len(c.decls))}
	for name, d := range c.decls {
		t.state[name] = d.Default
	}

	names := make([]string, 0, len(settings))
	for name := range settings {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := t.set(name, settings[name]); err != nil {
			return nil, err
		}
	}

	var selected []string
	for _, d := range c.Selectors() {
		if t.state[d.Name] == "true" {
			selected = append(selected, d.Name)
		}
	}
	if len(selected) != 1 {
		return nil, &AmbiguousBoardSelectionError{Selected: selected}
	}
	t.board = c.decls[selected[0]].Board
	return t, nil
}

func (t *ToggleSet) set(name, value string) error {
	d, ok := t.catalog.decls[name]
	if !ok {
		return &UnknownFeatureError{Name: name}
	}
	switch d.Kind {
	case Bool, Selector:
		on, err := parseBool(value)
		if err != nil {
			return &UnknownFeatureError{Name: name, Value: value}
		}
		t.state[name] = strconv.FormatBool(on)
	case Enum:
		value = strings.TrimSpace(value)
		if !contains(d.Values, value) {
			return &UnknownFeatureError{Name: name, Value: value}
		}
		t.state[name] = value
	}
	return nil
}

// With returns a copy of the set with the given settings applied.
func (t *ToggleSet) With(settings map[string]string) (*ToggleSet, error) {
	merged := make(map[string]string, len(t.state)+len(settings))
	for k, v := range t.state {
		merged[k] = v
	}
	for k, v := range settings {
		merged[k] = v
	}
	return NewToggleSet(t.catalog, merged)
}

// IsEnabled reports whether a feature is on. Enum features count as enabled
// unless their value is "none" or "off".
func (t *ToggleSet) IsEnabled(name string) (bool, error) {
	d, ok := t.catalog.decls[name]
	if !ok {
		return false, &UnknownFeatureError{Name: name}
	}
	v := t.state[name]
	if d.Kind == Enum {
		return v != "none" && v != "off", nil
	}
	return v == "true", nil
}

// ValueOf returns the current value of a feature. Bool features report
// "true" or "false".
func (t *ToggleSet) ValueOf(name string) (string, error) {
	if _, ok := t.catalog.decls[name]; !ok {
		return "", &UnknownFeatureError{Name: name}
	}
	return t.state[name], nil
}

// Board returns the name of the selected board.
func (t *ToggleSet) Board() string { return t.board }

// Catalog returns the catalog the set was built from.
func (t *ToggleSet) Catalog() *Catalog { return t.catalog }

// Enabled returns the names of all enabled bool and selector features,
// sorted.
func (t *ToggleSet) Enabled() []string {
	var out []string
	for name, v := range t.state {
		if t.catalog.decls[name].Kind != Enum && v == "true" {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Values returns a copy of the full feature state.
func (t *ToggleSet) Values() map[string]string {
	out := make(map[string]string, len(t.state))
	for k, v := range t.state {
		out[k] = v
	}
	return out
}
