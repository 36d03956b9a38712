package resolve

import (
	"bytes"
	"errors"
	"log/slog"
	"reflect"
	"sort"
	"strings"
	"testing"

	"github.com/OpenTraceLab/pinmap/pkg/board"
	"github.com/OpenTraceLab/pinmap/pkg/errcode"
	"github.com/OpenTraceLab/pinmap/pkg/feature"
	"github.com/OpenTraceLab/pinmap/pkg/resource"
)

func setup(t *testing.T, spec board.Spec, settings map[string]string) (*board.Descriptor, *feature.ToggleSet) {
	t.Helper()
	if spec.Device == "" {
		spec.Device = "esp32"
	}
	d, err := board.New(spec)
	if err != nil {
		t.Fatalf("board.New: %v", err)
	}
	c, err := feature.Standard().With(feature.Declaration{Name: feature.SelectorName(spec.Name), Kind: feature.Selector})
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	all := map[string]string{feature.SelectorName(spec.Name): "true"}
	for k, v := range settings {
		all[k] = v
	}
	ts, err := feature.NewToggleSet(c, all)
	if err != nil {
		t.Fatalf("toggles: %v", err)
	}
	return d, ts
}

func mustResolve(t *testing.T, r *Resolver, d *board.Descriptor, ts *feature.ToggleSet, overrides ...board.Binding) *Config {
	t.Helper()
	cfg, err := r.Resolve(d, ts, overrides)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	return cfg
}

func pinOf(t *testing.T, cfg *Config, role string) resource.ID {
	t.Helper()
	res, err := cfg.ResourceFor(role)
	if err != nil {
		t.Fatalf("ResourceFor(%s): %v", role, err)
	}
	return res.ID
}

func TestUndeclaredSharingIsConflict(t *testing.T) {
	d, ts := setup(t, board.Spec{
		Name:     "clash",
		Bindings: []board.Binding{board.Bind("midi-rx", "19"), board.Bind("status-led", "19")},
	}, nil)

	_, err := New(resource.ESP32()).Resolve(d, ts, nil)
	var pc *PinConflictError
	if !errors.As(err, &pc) {
		t.Fatalf("expected PinConflictError, got %v", err)
	}
	if pc.Resource != 19 || !reflect.DeepEqual(pc.Roles, []string{"midi-rx", "status-led"}) {
		t.Errorf("conflict = %+v", pc)
	}
	if errcode.Of(err) != errcode.PinConflict {
		t.Errorf("code = %s", errcode.Of(err))
	}
}

func TestDeclaredSharedGroup(t *testing.T) {
	d, ts := setup(t, board.Spec{
		Name: "i2c",
		Bindings: []board.Binding{
			board.Bind("i2c-sda", "18"),
			board.Bind("i2c-scl", "23"),
			board.Bind("header-sda", "18"),
		},
		Shared: []board.SharedGroup{{Roles: []string{"i2c-sda", "header-sda"}}},
	}, nil)

	cfg := mustResolve(t, New(resource.ESP32()), d, ts)
	if a, b := pinOf(t, cfg, "i2c-sda"), pinOf(t, cfg, "header-sda"); a != 18 || b != 18 {
		t.Errorf("i2c-sda=%d header-sda=%d, want 18", a, b)
	}
}

func TestSharedGroupBoundToPin(t *testing.T) {
	spec := board.Spec{
		Name:     "pinned",
		Bindings: []board.Binding{board.Bind("spi-cs", "5"), board.Bind("tft-cs", "5")},
		Shared:   []board.SharedGroup{{Roles: []string{"spi-cs", "tft-cs"}, Resource: "5"}},
	}
	d, ts := setup(t, spec, nil)
	mustResolve(t, New(resource.ESP32()), d, ts)

	// moving both roles elsewhere leaves the exception behind
	_, err := New(resource.ESP32()).Resolve(d, ts, []board.Binding{
		board.Override("spi-cs", "15"),
		board.Override("tft-cs", "15"),
	})
	if errcode.Of(err) != errcode.PinConflict {
		t.Fatalf("expected conflict on 15, got %v", err)
	}
}

func TestProjectSharedGroups(t *testing.T) {
	d, ts := setup(t, board.Spec{
		Name:     "kit",
		Bindings: []board.Binding{board.Bind("midi-rx", "23"), board.Bind("codec-scl", "23")},
	}, nil)

	if _, err := New(resource.ESP32()).Resolve(d, ts, nil); errcode.Of(err) != errcode.PinConflict {
		t.Fatalf("expected conflict without project group, got %v", err)
	}
	r := New(resource.ESP32(), WithShared(board.SharedGroup{Name: "scl-midi", Roles: []string{"midi-rx", "codec-scl"}, Resource: "23"}))
	mustResolve(t, r, d, ts)

	r = New(resource.ESP32(), WithShared(board.SharedGroup{Roles: []string{"midi-rx", "codec-scl"}, Resource: "GPIO99"}))
	if _, err := r.Resolve(d, ts, nil); !errcode.Is(err, errcode.UnknownResource) {
		t.Fatalf("expected unknown resource for the group pin, got %v", err)
	}
}

func TestOverrideTakesPrecedence(t *testing.T) {
	d, ts := setup(t, board.Spec{
		Name:     "lyrat-like",
		Bindings: []board.Binding{board.Bind("midi-rx", "22"), board.Bind("status-led", "19")},
	}, nil)

	cfg := mustResolve(t, New(resource.ESP32()), d, ts, board.Override("midi-rx", "21"))
	if got := pinOf(t, cfg, "midi-rx"); got != 21 {
		t.Errorf("midi-rx = %d, want 21", got)
	}
	if o, _ := cfg.Origin("midi-rx"); o != board.OriginOverride {
		t.Errorf("midi-rx origin = %s", o)
	}
	if o, _ := cfg.Origin("status-led"); o != board.OriginBoard {
		t.Errorf("status-led origin = %s", o)
	}
	bs := cfg.Bindings()
	if bs[0].Role.Name != "midi-rx" || bs[0].Ref != "21" {
		t.Errorf("override must keep the board's position, got %+v", bs[0])
	}
}

func TestOverrideAppendsNewRoles(t *testing.T) {
	d, ts := setup(t, board.Spec{Name: "plain", Bindings: []board.Binding{board.Bind("status-led", "2")}}, nil)

	cfg := mustResolve(t, New(resource.ESP32()), d, ts,
		board.Override("midi-rx", "RXD2"),
		board.Binding{Role: board.Role{Name: "fx-switch", Requires: resource.In}, Resource: "4"},
	)
	want := []string{"status-led", "midi-rx", "fx-switch"}
	var got []string
	for _, b := range cfg.Bindings() {
		got = append(got, b.Role.Name)
		if b.Role.Name != "status-led" && b.Origin != board.OriginOverride {
			t.Errorf("%s origin = %s", b.Role.Name, b.Origin)
		}
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("bindings = %v, want %v", got, want)
	}
	if pinOf(t, cfg, "midi-rx") != 16 {
		t.Errorf("RXD2 alias not resolved")
	}
}

func TestOverrideErrors(t *testing.T) {
	d, ts := setup(t, board.Spec{Name: "plain", Bindings: []board.Binding{board.Bind("status-led", "2")}}, nil)
	r := New(resource.ESP32())

	_, err := r.Resolve(d, ts, []board.Binding{board.Override("mystery", "4")})
	if errcode.Of(err) != errcode.Invalid {
		t.Errorf("uncatalogued override: got %v", err)
	}
	_, err = r.Resolve(d, ts, []board.Binding{board.Override("midi-rx", "4"), board.Override("midi-rx", "5")})
	if errcode.Of(err) != errcode.Invalid {
		t.Errorf("repeated override: got %v", err)
	}
}

func TestOverrideFollowsRoleFeature(t *testing.T) {
	d, ts := setup(t, board.Spec{Name: "plain", Bindings: []board.Binding{board.Bind("status-led", "2")}}, nil)

	cfg := mustResolve(t, New(resource.ESP32()), d, ts, board.Override("midi-tx", "17"))
	if _, err := cfg.ResourceFor("midi-tx"); errcode.Of(err) != errcode.RoleNotBound {
		t.Errorf("midi-tx must be dropped while midi-out is off, got %v", err)
	}

	ts, err := ts.With(map[string]string{feature.MIDIOut: "on"})
	if err != nil {
		t.Fatal(err)
	}
	cfg = mustResolve(t, New(resource.ESP32()), d, ts, board.Override("midi-tx", "17"))
	if pinOf(t, cfg, "midi-tx") != 17 {
		t.Errorf("midi-tx not bound with midi-out on")
	}
}

func TestFeatureDropRemovesOnlyDependentRoles(t *testing.T) {
	spec := board.Spec{
		Name: "adc",
		Bindings: []board.Binding{
			board.Bind("midi-rx", "21"),
			board.Bind("status-led", "19"),
			board.Bind("adc-mux-s0", "23"),
			board.Bind("adc-mux-s1", "18"),
			board.Bind("adc-mux-sig", "36"),
			board.Bind("key-analog", "39"),
		},
	}
	d, on := setup(t, spec, map[string]string{feature.ADCToMIDI: "true"})
	off, err := on.With(map[string]string{feature.ADCToMIDI: "false"})
	if err != nil {
		t.Fatal(err)
	}

	r := New(resource.ESP32())
	with := mustResolve(t, r, d, on).Roles()
	without := mustResolve(t, r, d, off).Roles()

	var removed []string
	kept := make(map[string]bool)
	for _, name := range without {
		kept[name] = true
	}
	for _, name := range with {
		if !kept[name] {
			removed = append(removed, name)
		}
	}
	sort.Strings(removed)
	if want := []string{"adc-mux-s0", "adc-mux-s1", "adc-mux-sig"}; !reflect.DeepEqual(removed, want) {
		t.Errorf("removed %v, want %v", removed, want)
	}
	if len(without) != 3 {
		t.Errorf("without adc-to-midi: %v", without)
	}
}

func TestCapabilityMismatch(t *testing.T) {
	d, ts := setup(t, board.Spec{
		Name:     "ml",
		Bindings: []board.Binding{board.Bind("midi-rx", "35"), board.Bind("midi-tx", "34")},
	}, map[string]string{feature.MIDIOut: "true"})

	_, err := New(resource.ESP32()).Resolve(d, ts, nil)
	var cm *CapabilityMismatchError
	if !errors.As(err, &cm) {
		t.Fatalf("expected CapabilityMismatchError, got %v", err)
	}
	if cm.Role != "midi-tx" || cm.Resource != 34 || cm.Required != resource.UARTTX {
		t.Errorf("mismatch = %+v", cm)
	}
}

func TestUnknownResource(t *testing.T) {
	d, ts := setup(t, board.Spec{
		Name:     "typo",
		Bindings: []board.Binding{board.Bind("codec-sda", "27"), board.Bind("codec-scl", "28")},
	}, nil)

	_, err := New(resource.ESP32()).Resolve(d, ts, nil)
	var ur *resource.UnknownResourceError
	if !errors.As(err, &ur) || ur.Ref != "28" {
		t.Fatalf("expected unknown resource 28, got %v", err)
	}
	if errcode.Of(err) != errcode.UnknownResource {
		t.Errorf("code = %s", errcode.Of(err))
	}
}

func TestDiagnosticOrder(t *testing.T) {
	d, ts := setup(t, board.Spec{
		Name: "mess",
		Bindings: []board.Binding{
			board.Bind("i2s-mclk", "5"),
			board.Bind("status-led", "22"),
			board.Bind("midi-rx", "22"),
			board.Bind("codec-sda", "40"),
			board.Bind("pa-enable", "12"),
			board.Bind("led-strip-data", "12"),
			board.Bind("i2s-dout", "34"),
		},
	}, nil)

	_, err := New(resource.ESP32()).Resolve(d, ts, nil)
	var diag *Diagnostic
	if !errors.As(err, &diag) {
		t.Fatalf("expected diagnostic, got %v", err)
	}
	var codes []errcode.Code
	for _, p := range diag.Problems {
		codes = append(codes, errcode.Of(p))
	}
	want := []errcode.Code{
		errcode.UnknownResource,
		errcode.PinConflict, // 12
		errcode.PinConflict, // 22
		errcode.CapabilityMismatch,
		errcode.CapabilityMismatch,
	}
	if !reflect.DeepEqual(codes, want) {
		t.Fatalf("codes = %v, want %v", codes, want)
	}
	if pc := diag.Problems[1].(*PinConflictError); pc.Resource != 12 {
		t.Errorf("conflicts must be ordered by pin, first is %d", pc.Resource)
	}
	if cm := diag.Problems[3].(*CapabilityMismatchError); cm.Role != "i2s-mclk" {
		t.Errorf("mismatches must follow binding order, first is %s", cm.Role)
	}
	if !strings.Contains(err.Error(), "5 problems") {
		t.Errorf("message = %q", err)
	}
}

func TestDeterministic(t *testing.T) {
	spec := board.Spec{
		Name: "det",
		Bindings: []board.Binding{
			board.Bind("i2s-bclk", "5"),
			board.Bind("i2s-wclk", "25"),
			board.Bind("i2s-dout", "26"),
			board.Bind("codec-sda", "18"),
			board.Bind("i2c-sda", "18"),
		},
		Shared: []board.SharedGroup{{Roles: []string{"codec-sda", "i2c-sda"}}},
	}
	d, ts := setup(t, spec, nil)
	r := New(resource.ESP32())
	first := mustResolve(t, r, d, ts, board.Override("midi-rx", "21"))
	for i := 0; i < 20; i++ {
		again := mustResolve(t, r, d, ts, board.Override("midi-rx", "21"))
		if !reflect.DeepEqual(first.Bindings(), again.Bindings()) {
			t.Fatalf("run %d differs", i)
		}
	}

	bad, ts2 := setup(t, board.Spec{
		Name: "det",
		Bindings: []board.Binding{
			board.Bind("status-led", "4"), board.Bind("midi-rx", "4"),
			board.Bind("pa-enable", "2"), board.Bind("led-strip-data", "2"),
		},
	}, nil)
	_, err := r.Resolve(bad, ts2, nil)
	for i := 0; i < 20; i++ {
		_, again := r.Resolve(bad, ts2, nil)
		if again.Error() != err.Error() {
			t.Fatalf("diagnostic differs:\n%v\n%v", err, again)
		}
	}
}

func TestRoleNotBound(t *testing.T) {
	d, ts := setup(t, board.Spec{Name: "min", Bindings: []board.Binding{board.Bind("status-led", "2")}}, nil)
	cfg := mustResolve(t, New(resource.ESP32()), d, ts)

	_, err := cfg.ResourceFor("midi-rx")
	var nb *RoleNotBoundError
	if !errors.As(err, &nb) || nb.Role != "midi-rx" || nb.Board != "min" {
		t.Fatalf("expected RoleNotBoundError, got %v", err)
	}
	if _, err := cfg.Pin("midi-rx"); errcode.Of(err) != errcode.RoleNotBound {
		t.Errorf("Pin: %v", err)
	}
}

func TestResolveRejectsMismatchedInputs(t *testing.T) {
	d, ts := setup(t, board.Spec{Name: "one", Bindings: []board.Binding{board.Bind("status-led", "2")}}, nil)
	other, _ := setup(t, board.Spec{Name: "two", Bindings: []board.Binding{board.Bind("status-led", "2")}}, nil)

	if _, err := New(resource.ESP32()).Resolve(other, ts, nil); errcode.Of(err) != errcode.Invalid {
		t.Errorf("board not selected by toggles: %v", err)
	}

	reg, err := resource.NewRegistry("tiny", []resource.Resource{{ID: 2, Caps: resource.NewCaps(resource.Out)}})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := New(reg).Resolve(d, ts, nil); errcode.Of(err) != errcode.Invalid {
		t.Errorf("device mismatch: %v", err)
	}
}

func TestNoBoardSelected(t *testing.T) {
	c, err := feature.Standard().With(feature.Declaration{Name: feature.SelectorName("only"), Kind: feature.Selector})
	if err != nil {
		t.Fatal(err)
	}
	_, err = feature.NewToggleSet(c, nil)
	if errcode.Of(err) != errcode.AmbiguousBoardSelection {
		t.Fatalf("expected AmbiguousBoardSelection, got %v", err)
	}
}

func TestConfigIsReadOnly(t *testing.T) {
	d, ts := setup(t, board.Spec{Name: "ro", Bindings: []board.Binding{board.Bind("midi-rx", "RXD2")}}, nil)
	cfg := mustResolve(t, New(resource.ESP32()), d, ts)

	res, _ := cfg.ResourceFor("midi-rx")
	res.Caps[0] = "broken"
	res.Aliases[0] = "broken"
	bs := cfg.Bindings()
	bs[0].Resource.Caps[0] = "broken"

	again, _ := cfg.ResourceFor("midi-rx")
	if again.Caps[0] == "broken" || again.Aliases[0] == "broken" {
		t.Error("configuration was mutated through a returned value")
	}
}

func TestPinHandle(t *testing.T) {
	d, ts := setup(t, board.Spec{Name: "pins", Bindings: []board.Binding{board.Bind("midi-rx", "21")}}, nil)
	cfg := mustResolve(t, New(resource.ESP32()), d, ts)

	p, err := cfg.Pin("midi-rx")
	if err != nil {
		t.Fatalf("Pin: %v", err)
	}
	if p.Number() != 21 || p.Name() != "GPIO21" || p.Func() != resource.UARTRX {
		t.Errorf("pin = %s number %d func %s", p, p.Number(), p.Func())
	}
	if p.String() != "GPIO21(midi-rx)" {
		t.Errorf("String = %q", p.String())
	}
	if err := p.SetFunc(resource.UARTRX); err != nil {
		t.Errorf("SetFunc same function: %v", err)
	}
	if err := p.SetFunc(resource.Out); err == nil {
		t.Error("SetFunc must refuse a different function")
	}
	if len(p.SupportedFuncs()) == 0 {
		t.Error("SupportedFuncs empty")
	}
}

func TestLoggerReceivesTrace(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	d, ts := setup(t, board.Spec{Name: "traced", Bindings: []board.Binding{board.Bind("midi-rx", "22")}}, nil)

	mustResolve(t, New(resource.ESP32(), WithLogger(log)), d, ts, board.Override("midi-rx", "21"))
	if !strings.Contains(buf.String(), "board=traced") || !strings.Contains(buf.String(), "override") {
		t.Errorf("log output: %s", buf.String())
	}
}
