// Package resolve composes a board descriptor, the project features and the
// project overrides into one conflict-free pin map.
//
// Resolution runs in a fixed order:
//
//  1. evaluate the board against the features, dropping inactive roles;
//  2. apply overrides, replacing matching board bindings and appending
//     new roles;
//  3. resolve every pin reference against the device registry;
//  4. reject pins claimed by several roles unless a shared group covers
//     them;
//  5. check each pin carries the capability its role requires.
//
// Every problem found in steps 3 to 5 is reported together in a
// *Diagnostic. Resolution never returns a partial configuration.
package resolve

import (
	"fmt"
	"io"
	"log/slog"
	"sort"

	"periph.io/x/conn/v3/pin"

	"github.com/OpenTraceLab/pinmap/pkg/board"
	"github.com/OpenTraceLab/pinmap/pkg/errcode"
	"github.com/OpenTraceLab/pinmap/pkg/feature"
	"github.com/OpenTraceLab/pinmap/pkg/resource"
)

// Resolver resolves boards against one device registry.
type Resolver struct {
	reg    *resource.Registry
	log    *slog.Logger
	shared []board.SharedGroup
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger used for debug traces.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.log = l
		}
	}
}

// WithShared adds project-level shared groups on top of those the board
// declares.
func WithShared(groups ...board.SharedGroup) Option {
	return func(r *Resolver) {
		for _, g := range groups {
			g.Roles = append([]string(nil), g.Roles...)
			r.shared = append(r.shared, g)
		}
	}
}

// New returns a resolver for the pins of reg.
func New(reg *resource.Registry, opts ...Option) *Resolver {
	r := &Resolver{
		reg: reg,
		log: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type claim struct {
	binding board.Binding
	res     resource.Resource
	ok      bool
}

// Resolve produces the configuration of d under t with overrides applied.
// Overrides take precedence over board bindings for the same role. An
// override carries no condition of its own but is still dropped when its
// role depends on a disabled feature.
func (r *Resolver) Resolve(d *board.Descriptor, t *feature.ToggleSet, overrides []board.Binding) (*Config, error) {
	if d == nil || t == nil {
		return nil, &errcode.E{C: errcode.Invalid, Op: "resolve", Msg: "board and features are required"}
	}
	if d.Device() != r.reg.Device() {
		return nil, &errcode.E{C: errcode.Invalid, Op: "resolve",
			Msg: fmt.Sprintf("board %s is for %s, registry describes %s", d.Name(), d.Device(), r.reg.Device())}
	}
	if t.Board() != d.Name() {
		return nil, &errcode.E{C: errcode.Invalid, Op: "resolve",
			Msg: fmt.Sprintf("features select board %s, not %s", t.Board(), d.Name())}
	}
	log := r.log.With("board", d.Name())

	active, err := d.BindingsFor(t)
	if err != nil {
		return nil, fmt.Errorf("resolve: %w", err)
	}
	log.Debug("board bindings", "declared", len(d.Bindings()), "active", len(active))

	bindings, err := r.applyOverrides(log, d, active, overrides, t)
	if err != nil {
		return nil, err
	}

	var problems []error
	claims := make([]claim, len(bindings))
	for i, b := range bindings {
		res, err := r.reg.Lookup(b.Resource)
		if err != nil {
			problems = append(problems, fmt.Errorf("role %s: %w", b.Role.Name, err))
			claims[i] = claim{binding: b}
			continue
		}
		claims[i] = claim{binding: b, res: res, ok: true}
	}

	groups, unknown := r.groups(d)
	problems = append(problems, unknown...)
	problems = append(problems, r.conflicts(log, claims, groups)...)

	for _, c := range claims {
		if !c.ok {
			continue
		}
		need := c.binding.Role.Requires
		if !c.res.Caps.Has(need) {
			problems = append(problems, &CapabilityMismatchError{
				Role:     c.binding.Role.Name,
				Resource: c.res.ID,
				Required: need,
				Has:      c.res.Caps,
			})
		}
	}

	if len(problems) > 0 {
		log.Debug("resolution failed", "problems", len(problems))
		return nil, &Diagnostic{Board: d.Name(), Problems: problems}
	}
	cfg := newConfig(d, r.reg.Device(), claims)
	log.Debug("resolved", "roles", len(cfg.bindings))
	return cfg, nil
}

func (r *Resolver) applyOverrides(log *slog.Logger, d *board.Descriptor, active, overrides []board.Binding, t *feature.ToggleSet) ([]board.Binding, error) {
	out := append([]board.Binding(nil), active...)
	index := make(map[string]int, len(out))
	for i, b := range out {
		index[b.Role.Name] = i
	}
	declared := make(map[string]board.Role)
	for _, b := range d.Bindings() {
		declared[b.Role.Name] = b.Role
	}

	seen := make(map[string]bool, len(overrides))
	for _, o := range overrides {
		name := o.Role.Name
		if seen[name] {
			return nil, &errcode.E{C: errcode.Invalid, Op: "resolve", Msg: fmt.Sprintf("role %s overridden twice", name)}
		}
		seen[name] = true

		role := o.Role
		base, known := declared[name]
		if i, ok := index[name]; ok {
			base, known = out[i].Role, true
		}
		if known {
			if role.Requires == pin.FuncNone {
				role.Requires = base.Requires
			}
			if role.Feature == "" {
				role.Feature = base.Feature
			}
		}
		role, err := board.CompleteRole(role)
		if err != nil {
			return nil, fmt.Errorf("resolve: override: %w", err)
		}
		origin := o.Origin
		if origin == board.OriginBoard {
			origin = board.OriginOverride
		}
		b := board.Binding{Role: role, Resource: o.Resource, Origin: origin}
		on, err := board.Active(b, t)
		if err != nil {
			return nil, fmt.Errorf("resolve: override %s: %w", name, err)
		}
		if !on {
			log.Debug("override dropped", "role", name, "feature", role.Feature)
			continue
		}
		if i, ok := index[name]; ok {
			log.Debug("override", "role", name, "from", out[i].Resource, "to", b.Resource)
			out[i] = b
			continue
		}
		log.Debug("override adds role", "role", name, "pin", b.Resource)
		index[name] = len(out)
		out = append(out, b)
	}
	return out, nil
}

func (r *Resolver) groups(d *board.Descriptor) ([]sharedAt, []error) {
	all := append(d.Shared(), r.shared...)
	out := make([]sharedAt, 0, len(all))
	var unknown []error
	for _, g := range all {
		s := sharedAt{group: g, id: -1}
		if g.Resource != "" {
			res, err := r.reg.Lookup(g.Resource)
			if err != nil {
				unknown = append(unknown, fmt.Errorf("shared group %s: %w", groupName(g), err))
				continue
			}
			s.id = res.ID
		}
		out = append(out, s)
	}
	return out, unknown
}

type sharedAt struct {
	group board.SharedGroup
	id    resource.ID // -1 when the group is not tied to one pin
}

func (s sharedAt) allows(id resource.ID, roles []string) bool {
	return (s.id < 0 || s.id == id) && s.group.Covers(roles)
}

func (r *Resolver) conflicts(log *slog.Logger, claims []claim, groups []sharedAt) []error {
	byPin := make(map[resource.ID][]string)
	for _, c := range claims {
		if c.ok {
			byPin[c.res.ID] = append(byPin[c.res.ID], c.binding.Role.Name)
		}
	}
	ids := make([]resource.ID, 0, len(byPin))
	for id, roles := range byPin {
		if len(roles) > 1 {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var problems []error
	for _, id := range ids {
		roles := append([]string(nil), byPin[id]...)
		sort.Strings(roles)
		shared := false
		for _, g := range groups {
			if g.allows(id, roles) {
				log.Debug("shared pin", "pin", id, "roles", roles, "group", groupName(g.group))
				shared = true
				break
			}
		}
		if !shared {
			problems = append(problems, &PinConflictError{Resource: id, Roles: roles})
		}
	}
	return problems
}

func groupName(g board.SharedGroup) string {
	if g.Name != "" {
		return g.Name
	}
	return fmt.Sprint(g.Roles)
}
