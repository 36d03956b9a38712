package resource

import (
	_ "embed"
	"sync"
)

// esp32Spec describes the ESP32 (ESP32-D0WD as fitted on the WROVER/A1S
// modules). GPIO20, 24 and 28-31 are not bonded out. GPIO34-39 are input
// only and GPIO6-11 belong to the SPI flash, so they carry no capability.
// Peripheral functions go through the GPIO matrix, hence any bidirectional
// pin can host UART, I2C, SPI or I2S signals. I2S_MCLK is only routable to
// the CLK_OUT pins 0, 1 and 3.
//
//go:embed esp32.sexp
var esp32Spec string

var (
	esp32Once sync.Once
	esp32Reg  *Registry
)

// ESP32 returns the built-in ESP32 registry. It is built once on first use.
func ESP32() *Registry {
	esp32Once.Do(func() {
		reg, err := ParseDeviceString(esp32Spec)
		if err != nil {
			panic("resource: embedded esp32 description: " + err.Error())
		}
		esp32Reg = reg
	})
	return esp32Reg
}

// Builtin returns the compiled-in registry for a device name.
func Builtin(device string) (*Registry, bool) {
	switch device {
	case "esp32":
		return ESP32(), true
	}
	return nil, false
}
