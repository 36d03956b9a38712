package resolve

import (
	"fmt"

	"periph.io/x/conn/v3/pin"

	"github.com/OpenTraceLab/pinmap/pkg/resource"
)

// Pin is a read-only handle on a resolved pin, usable wherever periph
// expects a pin.Pin. Its function is the one the role requires and cannot
// be changed.
type Pin struct {
	role string
	res  resource.Resource
	fn   pin.Func
}

var (
	_ pin.Pin     = (*Pin)(nil)
	_ pin.PinFunc = (*Pin)(nil)
)

// Pin returns the handle of the pin bound to role.
func (c *Config) Pin(role string) (*Pin, error) {
	b, err := c.binding(role)
	if err != nil {
		return nil, err
	}
	return &Pin{role: role, res: copyResource(b.Resource), fn: b.Role.Requires}, nil
}

// Role returns the role the pin was resolved for.
func (p *Pin) Role() string { return p.role }

func (p *Pin) String() string { return fmt.Sprintf("%s(%s)", p.res.Name, p.role) }

// Halt implements conn.Resource. Nothing runs on a resolved pin.
func (p *Pin) Halt() error { return nil }

// Name implements pin.Pin.
func (p *Pin) Name() string { return p.res.Name }

// Number implements pin.Pin.
func (p *Pin) Number() int { return int(p.res.ID) }

// Function implements pin.Pin.
func (p *Pin) Function() string { return string(p.fn) }

// Func implements pin.PinFunc.
func (p *Pin) Func() pin.Func { return p.fn }

// SupportedFuncs implements pin.PinFunc.
func (p *Pin) SupportedFuncs() []pin.Func { return append([]pin.Func(nil), p.res.Caps...) }

// SetFunc implements pin.PinFunc. Only the resolved function is accepted.
func (p *Pin) SetFunc(f pin.Func) error {
	if f == p.fn {
		return nil
	}
	return fmt.Errorf("resolve: %s is assigned to %s as %s and cannot become %s", p.res.Name, p.role, p.fn, f)
}
