package resource

import (
	"fmt"
	"sort"
	"strings"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/pin"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/uart"
)

// Capability tags a pin can carry. The digital, bus and UART tags reuse the
// periph well-known functions so resolved pins can be handed to periph
// drivers unchanged.
const (
	In  = gpio.IN
	Out = gpio.OUT

	UARTRX = uart.RX
	UARTTX = uart.TX

	I2CSDA = i2c.SDA
	I2CSCL = i2c.SCL

	SPICLK  = spi.CLK
	SPIMOSI = spi.MOSI
	SPIMISO = spi.MISO
	SPICS   = spi.CS

	ADC pin.Func = "ADC"
	DAC pin.Func = "DAC"

	I2SMCLK pin.Func = "I2S_MCLK"
	I2SSCK  pin.Func = "I2S_SCK"
	I2SWS   pin.Func = "I2S_WS"
	I2SDIN  pin.Func = "I2S_DIN"
	I2SDOUT pin.Func = "I2S_DOUT"
)

// KnownFuncs lists every capability tag understood by ParseFunc.
var KnownFuncs = []pin.Func{
	In, Out,
	UARTRX, UARTTX,
	I2CSDA, I2CSCL,
	SPICLK, SPIMOSI, SPIMISO, SPICS,
	ADC, DAC,
	I2SMCLK, I2SSCK, I2SWS, I2SDIN, I2SDOUT,
}

// ParseFunc maps a textual capability tag to its canonical form. Matching is
// case-insensitive and bus-specific forms ("I2C1_SDA") are generalized.
func ParseFunc(s string) (pin.Func, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return pin.FuncNone, fmt.Errorf("resource: empty capability")
	}
	candidates := []pin.Func{pin.Func(s), pin.Func(strings.ToUpper(s)).Generalize()}
	for _, c := range candidates {
		for _, k := range KnownFuncs {
			if strings.EqualFold(string(c), string(k)) {
				return k, nil
			}
		}
	}
	return pin.FuncNone, fmt.Errorf("resource: unknown capability %q", s)
}

// Caps is a sorted set of capability tags.
type Caps []pin.Func

// NewCaps builds a normalized set from the given tags.
func NewCaps(funcs ...pin.Func) Caps {
	seen := make(map[pin.Func]bool, len(funcs))
	out := make(Caps, 0, len(funcs))
	for _, f := range funcs {
		if f == pin.FuncNone || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Has reports whether f is in the set.
func (c Caps) Has(f pin.Func) bool {
	i := sort.Search(len(c), func(i int) bool { return c[i] >= f })
	return i < len(c) && c[i] == f
}

func (c Caps) String() string {
	parts := make([]string, len(c))
	for i, f := range c {
		parts[i] = string(f)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
