package board

import (
	"fmt"
	"sort"

	"periph.io/x/conn/v3/pin"

	"github.com/OpenTraceLab/pinmap/pkg/errcode"
	"github.com/OpenTraceLab/pinmap/pkg/feature"
	"github.com/OpenTraceLab/pinmap/pkg/resource"
)

// Role is a named hardware function the firmware needs.
type Role struct {
	Name     string
	Requires pin.Func // capability the assigned pin must carry
	Feature  string   // if set, the role only exists while this feature is enabled
}

func (r Role) String() string {
	if r.Feature != "" {
		return fmt.Sprintf("%s[%s if %s]", r.Name, r.Requires, r.Feature)
	}
	return fmt.Sprintf("%s[%s]", r.Name, r.Requires)
}

var standardRoles = []Role{
	{Name: "midi-rx", Requires: resource.UARTRX},
	{Name: "midi-tx", Requires: resource.UARTTX, Feature: feature.MIDIOut},
	{Name: "midi2-rx", Requires: resource.UARTRX, Feature: feature.MIDIPort2},
	{Name: "midi2-tx", Requires: resource.UARTTX, Feature: feature.MIDIPort2},

	{Name: "status-led", Requires: resource.Out},
	{Name: "led-strip-data", Requires: resource.Out},
	{Name: "pa-enable", Requires: resource.Out},

	{Name: "i2s-mclk", Requires: resource.I2SMCLK},
	{Name: "i2s-bclk", Requires: resource.I2SSCK},
	{Name: "i2s-wclk", Requires: resource.I2SWS},
	{Name: "i2s-dout", Requires: resource.I2SDOUT},
	{Name: "i2s-din", Requires: resource.I2SDIN},

	{Name: "codec-sda", Requires: resource.I2CSDA},
	{Name: "codec-scl", Requires: resource.I2CSCL},
	{Name: "i2c-sda", Requires: resource.I2CSDA},
	{Name: "i2c-scl", Requires: resource.I2CSCL},
	{Name: "header-sda", Requires: resource.I2CSDA},
	{Name: "header-scl", Requires: resource.I2CSCL},

	{Name: "spi-cs", Requires: resource.SPICS},
	{Name: "spi-mosi", Requires: resource.SPIMOSI},
	{Name: "spi-miso", Requires: resource.SPIMISO},
	{Name: "spi-sck", Requires: resource.SPICLK},
	{Name: "tft-cs", Requires: resource.SPICS},
	{Name: "tft-dc", Requires: resource.Out},
	{Name: "tft-rst", Requires: resource.Out},

	{Name: "adc-mux-s0", Requires: resource.Out, Feature: feature.ADCToMIDI},
	{Name: "adc-mux-s1", Requires: resource.Out, Feature: feature.ADCToMIDI},
	{Name: "adc-mux-s2", Requires: resource.Out, Feature: feature.ADCToMIDI},
	{Name: "adc-mux-s3", Requires: resource.Out, Feature: feature.ADCToMIDI},
	{Name: "adc-mux-sig", Requires: resource.ADC, Feature: feature.ADCToMIDI},
	{Name: "key-analog", Requires: resource.ADC},
}

var standardByName = func() map[string]Role {
	m := make(map[string]Role, len(standardRoles))
	for _, r := range standardRoles {
		m[r.Name] = r
	}
	return m
}()

// StandardRole returns the catalogued definition of a role.
func StandardRole(name string) (Role, bool) {
	r, ok := standardByName[name]
	return r, ok
}

// StandardRoles returns the role catalogue sorted by name.
func StandardRoles() []Role {
	out := append([]Role(nil), standardRoles...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// CompleteRole fills the capability and feature dependency of a role that
// only carries a name from the catalogue. A role with an explicit capability
// is returned unchanged.
func CompleteRole(r Role) (Role, error) {
	if r.Name == "" {
		return r, &errcode.E{C: errcode.Invalid, Op: "board", Msg: "role without a name"}
	}
	if r.Requires != pin.FuncNone {
		return r, nil
	}
	std, ok := StandardRole(r.Name)
	if !ok {
		return r, &errcode.E{C: errcode.Invalid, Op: "board",
			Msg: fmt.Sprintf("role %q is not catalogued and states no capability", r.Name)}
	}
	if r.Feature == "" {
		r.Feature = std.Feature
	}
	r.Requires = std.Requires
	return r, nil
}
