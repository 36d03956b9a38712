package project

import (
	"log/slog"
	"sort"

	"github.com/pkg/errors"

	"github.com/OpenTraceLab/pinmap/pkg/board"
	"github.com/OpenTraceLab/pinmap/pkg/boards"
	"github.com/OpenTraceLab/pinmap/pkg/feature"
	"github.com/OpenTraceLab/pinmap/pkg/resolve"
	"github.com/OpenTraceLab/pinmap/pkg/resource"
)

// Firmware defaults.
const (
	DefaultSerialBaudRate   = 115200
	DefaultSampleBufferSize = 48
	AudioKitSampleRate      = 44100
	DefaultSampleRate       = 48000
)

// TraitAudioKit marks boards running the codec at the audio kit rate.
const TraitAudioKit = "esp32-audio-kit"

// Port-2 MIDI pins used when a board does not route UART2 itself.
const (
	FallbackMIDI2RX resource.Ref = "16"
	FallbackMIDI2TX resource.Ref = "17"
)

// Project is a project file bound to a board repository: every input the
// resolver needs.
type Project struct {
	File      *File
	Board     *board.Descriptor
	Toggles   *feature.ToggleSet
	Overrides []board.Binding
	Shared    []board.SharedGroup
	Settings  Settings
}

// Build selects the board, applies the feature settings and converts the
// overrides and shared groups.
func (f *File) Build(repo *boards.Repository) (*Project, error) {
	catalog, err := repo.Catalog(feature.Standard())
	if err != nil {
		return nil, errors.Wrap(err, "project")
	}
	settings := make(map[string]string, len(f.Features)+1)
	for name, v := range f.Features {
		settings[name] = string(v)
	}
	if f.Board != "" {
		if _, err := repo.Lookup(f.Board); err != nil {
			return nil, errors.Wrap(err, "project")
		}
		settings[feature.SelectorName(f.Board)] = "true"
	}
	toggles, err := feature.NewToggleSet(catalog, settings)
	if err != nil {
		return nil, errors.Wrap(err, "project")
	}
	d, err := repo.Lookup(toggles.Board())
	if err != nil {
		return nil, errors.Wrap(err, "project")
	}
	if defaults := boardDefaults(d, f.Features); len(defaults) > 0 {
		toggles, err = toggles.With(defaults)
		if err != nil {
			return nil, errors.Wrapf(err, "project: board %s defaults", d.Name())
		}
	}

	p := &Project{File: f, Board: d, Toggles: toggles}
	for _, o := range f.Overrides {
		role := board.Role{Name: o.Role}
		if o.Requires != "" {
			fn, err := resource.ParseFunc(o.Requires)
			if err != nil {
				return nil, errors.Wrapf(err, "project: override %s", o.Role)
			}
			role.Requires = fn
		}
		p.Overrides = append(p.Overrides, board.Binding{Role: role, Resource: resource.Ref(o.Pin), Origin: board.OriginOverride})
	}
	p.Overrides = append(p.Overrides, p.port2Fallback()...)

	for _, s := range f.Shared {
		p.Shared = append(p.Shared, board.SharedGroup{
			Name:     s.Name,
			Roles:    append([]string(nil), s.Roles...),
			Resource: resource.Ref(s.Pin),
		})
	}

	p.Settings = f.Settings
	if p.Settings.SerialBaudRate == 0 {
		p.Settings.SerialBaudRate = DefaultSerialBaudRate
	}
	if p.Settings.SampleBufferSize == 0 {
		p.Settings.SampleBufferSize = DefaultSampleBufferSize
	}
	if p.Settings.SampleRate == 0 {
		p.Settings.SampleRate = DefaultSampleRate
		if d.HasTrait(TraitAudioKit) {
			p.Settings.SampleRate = AudioKitSampleRate
		}
	}
	return p, nil
}

// boardDefaults returns the board's feature defaults the project leaves
// unset.
func boardDefaults(d *board.Descriptor, set map[string]Value) map[string]string {
	out := d.Defaults()
	for name := range out {
		if _, ok := set[name]; ok {
			delete(out, name)
		}
	}
	return out
}

// port2Fallback binds the second MIDI port to UART2's default pins when the
// feature is on and neither the board nor the project places it.
func (p *Project) port2Fallback() []board.Binding {
	if on, err := p.Toggles.IsEnabled(feature.MIDIPort2); err != nil || !on {
		return nil
	}
	placed := make(map[string]bool)
	for _, b := range p.Board.Bindings() {
		placed[b.Role.Name] = true
	}
	for _, o := range p.Overrides {
		placed[o.Role.Name] = true
	}
	var out []board.Binding
	if !placed["midi2-rx"] {
		out = append(out, fallback("midi2-rx", FallbackMIDI2RX))
	}
	if !placed["midi2-tx"] {
		out = append(out, fallback("midi2-tx", FallbackMIDI2TX))
	}
	return out
}

func fallback(role string, ref resource.Ref) board.Binding {
	b := board.Override(role, ref)
	b.Origin = board.OriginProject
	return b
}

// Resolve resolves the project against reg. The board's device must match
// the registry.
func (p *Project) Resolve(reg *resource.Registry, log *slog.Logger) (*resolve.Config, error) {
	r := resolve.New(reg, resolve.WithLogger(log), resolve.WithShared(p.Shared...))
	return r.Resolve(p.Board, p.Toggles, p.Overrides)
}

// Features returns the project's feature state sorted by name, the way the
// firmware build would see it.
func (p *Project) Features() []FeatureState {
	values := p.Toggles.Values()
	fromBoard := p.Board.Defaults()
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]FeatureState, 0, len(names))
	for _, name := range names {
		d, _ := p.Toggles.Catalog().Lookup(name)
		def := d.Default
		if v, ok := fromBoard[name]; ok {
			def = v
		}
		out = append(out, FeatureState{Name: name, Kind: d.Kind, Value: values[name], Default: def})
	}
	return out
}

// FeatureState is one feature with its effective value.
type FeatureState struct {
	Name    string
	Kind    feature.Kind
	Value   string
	Default string
}

// Changed reports whether the value differs from the default, which is the
// board's when it sets one.
func (s FeatureState) Changed() bool { return s.Value != s.Default }
