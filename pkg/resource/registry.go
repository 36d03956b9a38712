// Package resource enumerates the physical pins of a target device and the
// capability tags each one carries.
package resource

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/OpenTraceLab/pinmap/pkg/errcode"
)

// ID is the physical identifier of a pin (the GPIO number on ESP32).
type ID int

// Ref is an unresolved reference to a pin as written in a descriptor: either
// a decimal number ("21") or a symbolic alias ("RXD2", "ADC1_CH0").
type Ref string

// Num returns the numeric reference for id.
func Num(id ID) Ref { return Ref(strconv.Itoa(int(id))) }

// Resource is one addressable hardware line.
type Resource struct {
	ID      ID
	Name    string // canonical name, e.g. "GPIO21"
	Caps    Caps
	Aliases []string
}

// Registry is the immutable set of pins of one device.
type Registry struct {
	device string
	byID   map[ID]*Resource
	byName map[string]ID
	ids    []ID
}

// UnknownResourceError reports a pin reference outside the device.
type UnknownResourceError struct {
	Device string
	Ref    Ref
}

func (e *UnknownResourceError) Error() string {
	return fmt.Sprintf("resource: unknown resource %q on device %s", string(e.Ref), e.Device)
}

func (e *UnknownResourceError) Code() errcode.Code { return errcode.UnknownResource }

// NewRegistry builds a registry from a list of resources. IDs and names
// (canonical and aliases) must be unique.
func NewRegistry(device string, resources []Resource) (*Registry, error) {
	if device == "" {
		return nil, fmt.Errorf("resource: device name is empty")
	}
	r := &Registry{
		device: device,
		byID:   make(map[ID]*Resource, len(resources)),
		byName: make(map[string]ID),
	}
	for i := range resources {
		res := resources[i]
		if res.ID < 0 {
			return nil, fmt.Errorf("resource: %s: negative pin id %d", device, res.ID)
		}
		if _, dup := r.byID[res.ID]; dup {
			return nil, fmt.Errorf("resource: %s: pin %d declared twice", device, res.ID)
		}
		if res.Name == "" {
			res.Name = "GPIO" + strconv.Itoa(int(res.ID))
		}
		res.Caps = NewCaps(res.Caps...)
		res.Aliases = append([]string(nil), res.Aliases...)
		for _, name := range append([]string{res.Name}, res.Aliases...) {
			key := strings.ToUpper(name)
			if other, dup := r.byName[key]; dup && other != res.ID {
				return nil, fmt.Errorf("resource: %s: name %q used by pins %d and %d", device, name, other, res.ID)
			}
			r.byName[key] = res.ID
		}
		r.byID[res.ID] = &res
		r.ids = append(r.ids, res.ID)
	}
	sort.Slice(r.ids, func(i, j int) bool { return r.ids[i] < r.ids[j] })
	return r, nil
}

// Device returns the device name.
func (r *Registry) Device() string { return r.device }

// IDs returns every valid pin id in ascending order.
func (r *Registry) IDs() []ID {
	return append([]ID(nil), r.ids...)
}

// Len returns the number of pins.
func (r *Registry) Len() int { return len(r.ids) }

// Resource returns the pin with the given id.
func (r *Registry) Resource(id ID) (Resource, error) {
	res, ok := r.byID[id]
	if !ok {
		return Resource{}, &UnknownResourceError{Device: r.device, Ref: Num(id)}
	}
	return copyResource(res), nil
}

// CapabilitiesOf returns the capability tags of a pin.
func (r *Registry) CapabilitiesOf(id ID) (Caps, error) {
	res, ok := r.byID[id]
	if !ok {
		return nil, &UnknownResourceError{Device: r.device, Ref: Num(id)}
	}
	return append(Caps(nil), res.Caps...), nil
}

// Lookup resolves a numeric or symbolic reference.
func (r *Registry) Lookup(ref Ref) (Resource, error) {
	s := strings.TrimSpace(string(ref))
	if n, err := strconv.Atoi(s); err == nil {
		return r.Resource(ID(n))
	}
	if id, ok := r.byName[strings.ToUpper(s)]; ok {
		return copyResource(r.byID[id]), nil
	}
	return Resource{}, &UnknownResourceError{Device: r.device, Ref: ref}
}

func copyResource(res *Resource) Resource {
	out := *res
	out.Caps = append(Caps(nil), res.Caps...)
	out.Aliases = append([]string(nil), res.Aliases...)
	return out
}
