package resource

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/chewxy/sexp"
	"periph.io/x/conn/v3/pin"
)

// Device description files are s-expressions:
//
//	(device esp32
//	  (class io In Out UART_RX UART_TX)
//	  (pin 21 io (alias GPIO21))
//	  (pin 36 In ADC (alias ADC1_CH0 SENSOR_VP)))
//
// A class names a reusable capability list; a pin entry lists classes and
// capability tags, plus an optional alias list. A ';' starts a comment that
// runs to the end of the line.

// ParseDevice reads one device description.
func ParseDevice(r io.Reader) (*Registry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("resource: read error: %w", err)
	}
	return ParseDeviceString(string(data))
}

// ParseDeviceString parses a device description held in a string.
func ParseDeviceString(input string) (*Registry, error) {
	exprs, err := sexp.ParseString(stripComments(input))
	if err != nil {
		return nil, fmt.Errorf("resource: parse error: %w", err)
	}
	return buildDevice(exprs)
}

// stripComments blanks ';' comments; the sexp lexer has no comment syntax.
func stripComments(input string) string {
	lines := strings.Split(input, "\n")
	for i, line := range lines {
		if j := strings.IndexByte(line, ';'); j >= 0 {
			lines[i] = line[:j]
		}
	}
	return strings.Join(lines, "\n")
}

// ParseDeviceFile parses a device description file.
func ParseDeviceFile(filename string) (*Registry, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return ParseDevice(file)
}

func buildDevice(exprs []sexp.Sexp) (*Registry, error) {
	var root sexp.Sexp
	for _, e := range exprs {
		// Whitespace ahead of the first list comes back as an empty symbol.
		if sym, ok := e.(sexp.Symbol); e == nil || ok && strings.TrimSpace(string(sym)) == "" {
			continue
		}
		if _, ok := e.(sexp.List); !ok {
			return nil, fmt.Errorf("resource: unexpected atom %q outside the device list", fmt.Sprint(e))
		}
		if root != nil {
			return nil, fmt.Errorf("resource: more than one top-level expression")
		}
		root = e
	}
	if root == nil {
		return nil, fmt.Errorf("resource: empty device description")
	}

	items := elements(root)
	if len(items) < 2 || keyword(items[0]) != "device" {
		return nil, fmt.Errorf("resource: expected (device <name> ...)")
	}
	name, ok := atom(items[1])
	if !ok || name == "" {
		return nil, fmt.Errorf("resource: device name must be a symbol")
	}

	classes := make(map[string][]pin.Func)
	var resources []Resource
	for _, item := range items[2:] {
		fields := elements(item)
		if len(fields) == 0 {
			return nil, fmt.Errorf("resource: %s: unexpected atom %q in device body", name, fmt.Sprint(item))
		}
		switch kw := keyword(fields[0]); kw {
		case "class":
			if len(fields) < 2 {
				return nil, fmt.Errorf("resource: %s: class without a name", name)
			}
			className, _ := atom(fields[1])
			var funcs []pin.Func
			for _, f := range fields[2:] {
				s, ok := atom(f)
				if !ok {
					return nil, fmt.Errorf("resource: %s: class %s: nested list not allowed", name, className)
				}
				fn, err := ParseFunc(s)
				if err != nil {
					return nil, fmt.Errorf("resource: %s: class %s: %w", name, className, err)
				}
				funcs = append(funcs, fn)
			}
			classes[className] = funcs
		case "pin":
			res, err := buildPin(name, fields[1:], classes)
			if err != nil {
				return nil, err
			}
			resources = append(resources, res)
		default:
			return nil, fmt.Errorf("resource: %s: unknown entry %q", name, kw)
		}
	}
	return NewRegistry(name, resources)
}

func buildPin(device string, fields []sexp.Sexp, classes map[string][]pin.Func) (Resource, error) {
	if len(fields) == 0 {
		return Resource{}, fmt.Errorf("resource: %s: pin without a number", device)
	}
	num, ok := atom(fields[0])
	if !ok {
		return Resource{}, fmt.Errorf("resource: %s: pin number must be an atom", device)
	}
	id, err := strconv.Atoi(num)
	if err != nil {
		return Resource{}, fmt.Errorf("resource: %s: invalid pin number %q", device, num)
	}
	res := Resource{ID: ID(id)}
	for _, f := range fields[1:] {
		if s, ok := atom(f); ok {
			if funcs, isClass := classes[s]; isClass {
				res.Caps = append(res.Caps, funcs...)
				continue
			}
			fn, err := ParseFunc(s)
			if err != nil {
				return Resource{}, fmt.Errorf("resource: %s: pin %d: %w", device, id, err)
			}
			res.Caps = append(res.Caps, fn)
			continue
		}
		sub := elements(f)
		if len(sub) == 0 {
			return Resource{}, fmt.Errorf("resource: %s: pin %d: empty attribute", device, id)
		}
		switch keyword(sub[0]) {
		case "alias":
			for _, a := range sub[1:] {
				s, ok := atom(a)
				if !ok {
					return Resource{}, fmt.Errorf("resource: %s: pin %d: alias must be a symbol", device, id)
				}
				res.Aliases = append(res.Aliases, s)
			}
		case "name":
			if len(sub) != 2 {
				return Resource{}, fmt.Errorf("resource: %s: pin %d: (name <symbol>) expected", device, id)
			}
			res.Name, _ = atom(sub[1])
		default:
			return Resource{}, fmt.Errorf("resource: %s: pin %d: unknown attribute %s", device, id, fmt.Sprint(f))
		}
	}
	return res, nil
}

// elements returns the members of a list node. Atoms yield nil.
func elements(s sexp.Sexp) []sexp.Sexp {
	if l, ok := s.(sexp.List); ok {
		return l
	}
	return nil
}

// atom returns the text of a symbol node, without surrounding quotes.
func atom(s sexp.Sexp) (string, bool) {
	sym, ok := s.(sexp.Symbol)
	if !ok {
		return "", false
	}
	return strings.Trim(string(sym), `"`), true
}

func keyword(s sexp.Sexp) string {
	v, _ := atom(s)
	return strings.ToLower(v)
}
