package feature

// Feature names used by the built-in boards and roles.
const (
	ADCToMIDI          = "adc-to-midi"
	MIDIViaUSB         = "midi-via-usb"
	MIDIRecvFromSerial = "midi-recv-from-serial"
	MIDIOut            = "midi-out"
	MIDIPort2          = "midi-port2"
	OLEDOscDisplay     = "oled-osc-display"
	AudioPassThrough   = "audio-pass-through"
	ArpModule          = "arp-module"
	MIDISyncMaster     = "midi-sync-master"
	MIDICtrl           = "midi-ctrl"
	MIDIStreamPlayer   = "midi-stream-player"
	MIDIConstVelocity  = "midi-use-const-velocity"
	NoteOnAfterSetup   = "note-on-after-setup"
	OutputSawTest      = "output-saw-test"

	ES8388I2C = "es8388-i2c"
	ES8388I2S = "es8388-i2s"
)

var standard = []Declaration{
	{Name: ADCToMIDI, Kind: Bool, Doc: "analog inputs through the multiplexer send MIDI controls"},
	{Name: MIDIViaUSB, Kind: Bool, Doc: "receive MIDI from a USB host shield"},
	{Name: MIDIRecvFromSerial, Kind: Bool, Default: "true", Doc: "receive MIDI over the serial/USB bridge"},
	{Name: MIDIOut, Kind: Bool, Doc: "drive the DIN MIDI output"},
	{Name: MIDIPort2, Kind: Bool, Doc: "second DIN MIDI port on UART2"},
	{Name: OLEDOscDisplay, Kind: Bool, Doc: "scope view on the OLED display"},
	{Name: AudioPassThrough, Kind: Bool, Doc: "route line in through the audio processing"},
	{Name: ArpModule, Kind: Bool, Default: "true", Doc: "arpeggiator"},
	{Name: MIDISyncMaster, Kind: Bool, Default: "true", Doc: "generate MIDI clock instead of following it"},
	{Name: MIDICtrl, Kind: Bool, Default: "true", Doc: "virtual split point control"},
	{Name: MIDIStreamPlayer, Kind: Bool, Doc: "MIDI stream playback module"},
	{Name: MIDIConstVelocity, Kind: Bool, Default: "true", Doc: "ignore note velocity"},
	{Name: NoteOnAfterSetup, Kind: Bool, Doc: "play a test tone after boot"},
	{Name: OutputSawTest, Kind: Bool, Doc: "output a saw wave to test the codec"},
	{
		Name:    ES8388I2C,
		Kind:    Enum,
		Values:  []string{"1", "2", "3"},
		Default: "1",
		Doc:     "ES8388 control bus pinout variant",
	},
	{
		Name:    ES8388I2S,
		Kind:    Enum,
		Values:  []string{"1", "2", "3", "4"},
		Default: "4",
		Doc:     "ES8388 audio bus pinout variant",
	},
}

// Standard returns the project features of the synthesizer firmware. Board
// selectors are not included; the board set adds them.
func Standard() *Catalog {
	c, err := NewCatalog(standard...)
	if err != nil {
		panic(err)
	}
	return c
}
