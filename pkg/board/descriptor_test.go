package board

import (
	"errors"
	"testing"

	"github.com/OpenTraceLab/pinmap/pkg/errcode"
	"github.com/OpenTraceLab/pinmap/pkg/feature"
	"github.com/OpenTraceLab/pinmap/pkg/resource"
)

func toggles(t *testing.T, settings map[string]string) *feature.ToggleSet {
	t.Helper()
	c, err := feature.Standard().With(feature.Declaration{Name: "board-test", Kind: feature.Selector})
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	all := map[string]string{"board-test": "on"}
	for k, v := range settings {
		all[k] = v
	}
	ts, err := feature.NewToggleSet(c, all)
	if err != nil {
		t.Fatalf("toggles: %v", err)
	}
	return ts
}

func roleNames(bs []Binding) []string {
	out := make([]string, len(bs))
	for i, b := range bs {
		out[i] = b.Role.Name
	}
	return out
}

func TestNewFillsCatalogueRoles(t *testing.T) {
	d, err := New(Spec{
		Name:   "test",
		Device: "esp32",
		Bindings: []Binding{
			Bind("midi-rx", "22"),
			{Role: Role{Name: "fx-switch", Requires: resource.In}, Resource: "4"},
		},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	bs := d.Bindings()
	if bs[0].Role.Requires != resource.UARTRX {
		t.Errorf("midi-rx requires %q, want UART_RX", bs[0].Role.Requires)
	}
	if bs[1].Role.Requires != resource.In {
		t.Errorf("explicit capability lost")
	}
}

func TestNewRejectsUncataloguedRoleWithoutCapability(t *testing.T) {
	_, err := New(Spec{Name: "test", Device: "esp32", Bindings: []Binding{Bind("mystery", "4")}})
	if errcode.Of(err) != errcode.Invalid {
		t.Fatalf("expected invalid, got %v", err)
	}
}

func TestDuplicateRoleInBoard(t *testing.T) {
	_, err := New(Spec{
		Name:     "copy-paste",
		Device:   "esp32",
		Bindings: []Binding{Bind("midi-rx", "22"), Bind("status-led", "19"), Bind("midi-rx", "21")},
	})
	var dup *DuplicateRoleInBoardError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateRoleInBoardError, got %v", err)
	}
	if dup.Role != "midi-rx" || dup.Board != "copy-paste" {
		t.Errorf("got %+v", dup)
	}
	if errcode.Of(err) != errcode.DuplicateRoleInBoard {
		t.Errorf("code = %q", errcode.Of(err))
	}
}

func TestVariantBlocksMayRepeatRoles(t *testing.T) {
	v1 := Equals(feature.ES8388I2C, "1")
	v2 := Equals(feature.ES8388I2C, "2")
	d, err := New(Spec{
		Name:   "variants",
		Device: "esp32",
		Bindings: []Binding{
			{Role: Role{Name: "codec-sda"}, Resource: "18", When: v1},
			{Role: Role{Name: "codec-sda"}, Resource: "33", When: v2},
		},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	bs, err := d.BindingsFor(toggles(t, map[string]string{feature.ES8388I2C: "2"}))
	if err != nil {
		t.Fatalf("BindingsFor: %v", err)
	}
	if len(bs) != 1 || bs[0].Resource != "33" {
		t.Fatalf("expected variant 2 binding, got %v", bs)
	}

	// Overlapping conditions are still duplicates.
	_, err = New(Spec{
		Name:   "overlap",
		Device: "esp32",
		Bindings: []Binding{
			{Role: Role{Name: "codec-sda"}, Resource: "18", When: Enabled(feature.ADCToMIDI)},
			{Role: Role{Name: "codec-sda"}, Resource: "33", When: v2},
		},
	})
	if errcode.Of(err) != errcode.DuplicateRoleInBoard {
		t.Fatalf("expected duplicate role, got %v", err)
	}

	// A feature and its negation never hold together.
	_, err = New(Spec{
		Name:   "negated",
		Device: "esp32",
		Bindings: []Binding{
			{Role: Role{Name: "status-led"}, Resource: "19", When: Enabled(feature.MIDIPort2)},
			{Role: Role{Name: "status-led"}, Resource: "2", When: Not(Enabled(feature.MIDIPort2))},
		},
	})
	if err != nil {
		t.Fatalf("negated variants should be accepted: %v", err)
	}
}

func TestBindingsForDropsFeatureDependentRoles(t *testing.T) {
	d := MustNew(Spec{
		Name:   "adc",
		Device: "esp32",
		Bindings: []Binding{
			Bind("midi-rx", "22"),
			Bind("adc-mux-s0", "23"),
			Bind("status-led", "19"),
			{Role: Role{Name: "adc-mux-sig"}, Resource: "12"},
			{Role: Role{Name: "pa-enable"}, Resource: "21", When: Enabled(feature.AudioPassThrough)},
		},
	})

	off, err := d.BindingsFor(toggles(t, nil))
	if err != nil {
		t.Fatalf("BindingsFor: %v", err)
	}
	if got := roleNames(off); len(got) != 2 || got[0] != "midi-rx" || got[1] != "status-led" {
		t.Errorf("without adc-to-midi got %v", got)
	}

	on, err := d.BindingsFor(toggles(t, map[string]string{feature.ADCToMIDI: "on"}))
	if err != nil {
		t.Fatalf("BindingsFor: %v", err)
	}
	want := []string{"midi-rx", "adc-mux-s0", "status-led", "adc-mux-sig"}
	got := roleNames(on)
	if len(got) != len(want) {
		t.Fatalf("with adc-to-midi got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("order: got %v, want %v", got, want)
			break
		}
	}
}

func TestBindingsForUnknownFeature(t *testing.T) {
	d := MustNew(Spec{
		Name:     "bad-cond",
		Device:   "esp32",
		Bindings: []Binding{{Role: Role{Name: "status-led"}, Resource: "2", When: Enabled("reverb")}},
	})
	_, err := d.BindingsFor(toggles(t, nil))
	if errcode.Of(err) != errcode.UnknownFeature {
		t.Fatalf("expected UnknownFeature, got %v", err)
	}
}

func TestUnknownFeatureNotMaskedByOtherTerms(t *testing.T) {
	tests := map[string]Binding{
		"later conjunct": {
			Role:     Role{Name: "pa-enable"},
			Resource: "21",
			When:     All(Enabled(feature.MIDIOut), Enabled("reverb")),
		},
		"role feature off": {
			Role:     Role{Name: "midi-tx", Feature: feature.MIDIOut},
			Resource: "17",
			When:     Equals("reverb", "hall"),
		},
		"negated": {
			Role:     Role{Name: "status-led"},
			Resource: "2",
			When:     Not(All(Enabled(feature.ADCToMIDI), Enabled("reverb"))),
		},
	}
	for name, b := range tests {
		t.Run(name, func(t *testing.T) {
			d := MustNew(Spec{Name: "masked", Device: "esp32", Bindings: []Binding{b}})
			for _, midiOut := range []string{"false", "true"} {
				_, err := d.BindingsFor(toggles(t, map[string]string{feature.MIDIOut: midiOut}))
				if errcode.Of(err) != errcode.UnknownFeature {
					t.Errorf("midi-out=%s: expected UnknownFeature, got %v", midiOut, err)
				}
			}
		})
	}
}

func TestElseOfConjunctionMayRepeatRoles(t *testing.T) {
	cond := All(Enabled(feature.ADCToMIDI), Enabled(feature.MIDIOut))
	outer := Enabled(feature.AudioPassThrough)
	d, err := New(Spec{
		Name:   "split",
		Device: "esp32",
		Bindings: []Binding{
			{Role: Role{Name: "status-led"}, Resource: "19", When: All(outer, cond)},
			{Role: Role{Name: "status-led"}, Resource: "2", When: All(outer, Not(cond))},
		},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	bs, err := d.BindingsFor(toggles(t, map[string]string{
		feature.AudioPassThrough: "true",
		feature.ADCToMIDI:        "true",
	}))
	if err != nil {
		t.Fatalf("BindingsFor: %v", err)
	}
	if len(bs) != 1 || bs[0].Resource != "2" {
		t.Errorf("expected the else binding, got %v", bs)
	}

	// Negating only part of the conjunction leaves both able to hold.
	_, err = New(Spec{
		Name:   "partial",
		Device: "esp32",
		Bindings: []Binding{
			{Role: Role{Name: "status-led"}, Resource: "19", When: Enabled(feature.ADCToMIDI)},
			{Role: Role{Name: "status-led"}, Resource: "2", When: Not(cond)},
		},
	})
	if errcode.Of(err) != errcode.DuplicateRoleInBoard {
		t.Fatalf("expected duplicate role, got %v", err)
	}
}

func TestDefaults(t *testing.T) {
	d, err := New(Spec{Name: "doit", Device: "esp32", Defaults: map[string]string{feature.MIDIPort2: "true"}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got := d.Defaults()
	got[feature.MIDIPort2] = "false"
	if d.Defaults()[feature.MIDIPort2] != "true" {
		t.Error("Defaults must return a copy")
	}

	_, err = New(Spec{Name: "bad", Device: "esp32", Defaults: map[string]string{feature.SelectorName("other"): "true"}})
	if err == nil {
		t.Error("a board must not default another board's selector")
	}
}

func TestSharedGroupsFromTags(t *testing.T) {
	d, err := New(Spec{
		Name:   "i2c",
		Device: "esp32",
		Bindings: []Binding{
			{Role: Role{Name: "codec-sda"}, Resource: "18", Shared: "i2c0-sda"},
			{Role: Role{Name: "header-sda"}, Resource: "18", Shared: "i2c0-sda"},
		},
		Shared: []SharedGroup{{Roles: []string{"spi-cs", "tft-cs"}, Resource: "5"}},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	groups := d.Shared()
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %v", groups)
	}
	if !groups[1].Covers([]string{"header-sda", "codec-sda"}) {
		t.Errorf("tagged group = %+v", groups[1])
	}
	if groups[0].Covers([]string{"spi-cs", "midi-rx"}) {
		t.Errorf("group must not cover foreign roles")
	}

	_, err = New(Spec{
		Name:     "lonely",
		Device:   "esp32",
		Bindings: []Binding{{Role: Role{Name: "codec-sda"}, Resource: "18", Shared: "solo"}},
	})
	if err == nil {
		t.Fatalf("single-member shared group must be rejected")
	}
}

func TestTraits(t *testing.T) {
	d := MustNew(Spec{Name: "kit", Device: "esp32", Traits: []string{"es8388", "esp32-audio-kit"}})
	if !d.HasTrait("esp32-audio-kit") || d.HasTrait("ac101") {
		t.Errorf("traits = %v", d.Traits())
	}
}
