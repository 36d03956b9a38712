package resolve

import (
	"fmt"
	"strings"

	"periph.io/x/conn/v3/pin"

	"github.com/OpenTraceLab/pinmap/pkg/errcode"
	"github.com/OpenTraceLab/pinmap/pkg/resource"
)

// PinConflictError reports a pin claimed by several roles that no shared
// group covers. Roles are sorted by name.
type PinConflictError struct {
	Resource resource.ID
	Roles    []string
}

func (e *PinConflictError) Error() string {
	return fmt.Sprintf("pin conflict on GPIO%d: %s", e.Resource, strings.Join(e.Roles, ", "))
}

func (e *PinConflictError) Code() errcode.Code { return errcode.PinConflict }

// CapabilityMismatchError reports a role bound to a pin that lacks the
// capability the role requires.
type CapabilityMismatchError struct {
	Role     string
	Resource resource.ID
	Required pin.Func
	Has      resource.Caps
}

func (e *CapabilityMismatchError) Error() string {
	return fmt.Sprintf("capability mismatch: %s needs %s but GPIO%d has %s", e.Role, e.Required, e.Resource, e.Has)
}

func (e *CapabilityMismatchError) Code() errcode.Code { return errcode.CapabilityMismatch }

// RoleNotBoundError reports a query for a role outside the resolved set.
type RoleNotBoundError struct {
	Board string
	Role  string
}

func (e *RoleNotBoundError) Error() string {
	return fmt.Sprintf("role %s is not bound on board %s with the selected features", e.Role, e.Board)
}

func (e *RoleNotBoundError) Code() errcode.Code { return errcode.RoleNotBound }

// Diagnostic collects every problem found while resolving one board. It
// unwraps to the individual typed errors, so errors.As finds each of them.
type Diagnostic struct {
	Board    string
	Problems []error
}

func (d *Diagnostic) Error() string {
	if len(d.Problems) == 1 {
		return fmt.Sprintf("resolve %s: %v", d.Board, d.Problems[0])
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "resolve %s: %d problems:", d.Board, len(d.Problems))
	for _, p := range d.Problems {
		sb.WriteString("\n  - ")
		sb.WriteString(p.Error())
	}
	return sb.String()
}

func (d *Diagnostic) Unwrap() []error { return d.Problems }

// Code returns the code of the first problem.
func (d *Diagnostic) Code() errcode.Code {
	if len(d.Problems) == 0 {
		return errcode.OK
	}
	return errcode.Of(d.Problems[0])
}
