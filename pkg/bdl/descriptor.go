package bdl

import (
	"fmt"

	"github.com/alecthomas/participle/v2/lexer"
	"periph.io/x/conn/v3/pin"

	"github.com/OpenTraceLab/pinmap/pkg/board"
	"github.com/OpenTraceLab/pinmap/pkg/resource"
)

// Descriptors converts every board of the file into a validated descriptor.
func (f *File) Descriptors() ([]*board.Descriptor, error) {
	if f == nil {
		return nil, nil
	}
	out := make([]*board.Descriptor, 0, len(f.Boards))
	seen := make(map[string]lexer.Position)
	for _, b := range f.Boards {
		if prev, dup := seen[b.Name]; dup {
			return nil, fmt.Errorf("bdl: %s: board %s already declared at %s", b.Pos, b.Name, prev)
		}
		seen[b.Name] = b.Pos
		d, err := b.Descriptor()
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// Spec flattens the board declaration: bindings inside when blocks carry
// the conjunction of every enclosing condition.
func (b *Board) Spec() (board.Spec, error) {
	spec := board.Spec{Name: b.Name, Device: b.Device, Doc: b.Doc}
	if err := collect(&spec, b.Body, nil, true); err != nil {
		return board.Spec{}, fmt.Errorf("bdl: board %s: %w", b.Name, err)
	}
	return spec, nil
}

// Descriptor builds the validated board descriptor.
func (b *Board) Descriptor() (*board.Descriptor, error) {
	spec, err := b.Spec()
	if err != nil {
		return nil, err
	}
	d, err := board.New(spec)
	if err != nil {
		return nil, fmt.Errorf("bdl: %s: %w", b.Pos, err)
	}
	return d, nil
}

func collect(spec *board.Spec, body []*Statement, when board.Condition, top bool) error {
	for _, st := range body {
		switch {
		case st.Provides != nil:
			if !top {
				return fmt.Errorf("%s: provides is only allowed at board level", st.Provides.Pos)
			}
			spec.Traits = append(spec.Traits, st.Provides.Traits...)
		case st.Bind != nil:
			bind, err := st.Bind.binding(when)
			if err != nil {
				return err
			}
			spec.Bindings = append(spec.Bindings, bind)
		case st.When != nil:
			cond := st.When.Cond.condition()
			if err := collect(spec, st.When.Body, board.All(when, cond), false); err != nil {
				return err
			}
			if len(st.When.Else) > 0 {
				if err := collect(spec, st.When.Else, board.All(when, board.Not(cond)), false); err != nil {
					return err
				}
			}
		case st.Default != nil:
			if !top {
				return fmt.Errorf("%s: default is only allowed at board level", st.Default.Pos)
			}
			if _, dup := spec.Defaults[st.Default.Feature]; dup {
				return fmt.Errorf("%s: default for %s set twice", st.Default.Pos, st.Default.Feature)
			}
			if spec.Defaults == nil {
				spec.Defaults = make(map[string]string)
			}
			value := "true"
			if st.Default.Value != nil {
				value = *st.Default.Value
			}
			spec.Defaults[st.Default.Feature] = value
		case st.Shared != nil:
			spec.Shared = append(spec.Shared, board.SharedGroup{
				Roles:    append([]string(nil), st.Shared.Roles...),
				Resource: resource.Ref(st.Shared.At),
			})
		}
	}
	return nil
}

func (b *Bind) binding(when board.Condition) (board.Binding, error) {
	role := board.Role{Name: b.Role, Feature: b.Feature}
	if b.As != "" {
		fn, err := resource.ParseFunc(b.As)
		if err != nil {
			return board.Binding{}, fmt.Errorf("%s: %w", b.Pos, err)
		}
		role.Requires = fn
	}
	if role.Requires == pin.FuncNone {
		if _, ok := board.StandardRole(role.Name); !ok {
			return board.Binding{}, fmt.Errorf("%s: role %s is not catalogued; add 'as <capability>'", b.Pos, b.Role)
		}
	}
	return board.Binding{
		Role:     role,
		Resource: resource.Ref(b.Pin),
		Origin:   board.OriginBoard,
		Shared:   b.Shared,
		When:     when,
	}, nil
}

func (c *Cond) condition() board.Condition {
	terms := make([]board.Condition, 0, len(c.Terms))
	for _, t := range c.Terms {
		var cond board.Condition
		if t.Value != nil {
			cond = board.Equals(t.Feature, *t.Value)
		} else {
			cond = board.Enabled(t.Feature)
		}
		if t.Not {
			cond = board.Not(cond)
		}
		terms = append(terms, cond)
	}
	return board.All(terms...)
}
