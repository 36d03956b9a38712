package board

import (
	"fmt"

	"github.com/OpenTraceLab/pinmap/pkg/resource"
)

// Origin records where a binding came from.
type Origin int

const (
	// OriginBoard marks a binding declared by the board descriptor.
	OriginBoard Origin = iota
	// OriginOverride marks a binding set by the project file.
	OriginOverride
	// OriginProject marks a binding the project layer derives on its own,
	// such as the second MIDI port fallback.
	OriginProject
)

func (o Origin) String() string {
	switch o {
	case OriginBoard:
		return "board"
	case OriginOverride:
		return "override"
	case OriginProject:
		return "project"
	default:
		return fmt.Sprintf("Origin(%d)", int(o))
	}
}

// Binding assigns a role to a physical pin.
type Binding struct {
	Role     Role
	Resource resource.Ref
	Origin   Origin
	Shared   string    // optional shared group this binding belongs to
	When     Condition // nil means unconditional
}

// Bind returns a board binding for a catalogued role.
func Bind(role string, ref resource.Ref) Binding {
	return Binding{Role: Role{Name: role}, Resource: ref, Origin: OriginBoard}
}

// Override returns a project-level binding for a role.
func Override(role string, ref resource.Ref) Binding {
	return Binding{Role: Role{Name: role}, Resource: ref, Origin: OriginOverride}
}

func (b Binding) String() string {
	s := fmt.Sprintf("%s -> %s (%s)", b.Role.Name, b.Resource, b.Origin)
	if b.When != nil {
		s += " when " + b.When.String()
	}
	return s
}

// SharedGroup declares roles that may resolve to the same pin. When
// Resource is set the exception only covers that pin.
type SharedGroup struct {
	Name     string
	Roles    []string
	Resource resource.Ref
}

// Covers reports whether every role in roles belongs to the group.
func (g SharedGroup) Covers(roles []string) bool {
	for _, r := range roles {
		found := false
		for _, m := range g.Roles {
			if m == r {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
