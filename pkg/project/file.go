// Package project loads the project file: the selected board, the feature
// switches, pin overrides, extra shared pins and the firmware settings that
// depend on the board.
package project

import (
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Value is a feature setting. YAML booleans, numbers and strings are all
// accepted and kept in their textual form.
type Value string

// UnmarshalYAML accepts any scalar.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	if node == nil {
		return errors.New("feature value node is nil")
	}
	if node.Kind != yaml.ScalarNode {
		return errors.Errorf("line %d: feature value must be a scalar", node.Line)
	}
	*v = Value(strings.TrimSpace(node.Value))
	return nil
}

// Override rebinds a role to another pin. Requires names the capability
// for roles outside the standard catalogue.
type Override struct {
	Role     string `yaml:"role"`
	Pin      string `yaml:"pin"`
	Requires string `yaml:"requires,omitempty"`
}

// Shared allows several roles to use one pin. Without Pin the exception
// holds wherever the roles meet.
type Shared struct {
	Name  string   `yaml:"name,omitempty"`
	Roles []string `yaml:"roles"`
	Pin   string   `yaml:"pin,omitempty"`
}

// Settings are firmware constants that depend on the board. Zero values are
// replaced by the board defaults.
type Settings struct {
	SerialBaudRate   int `yaml:"serial-baud-rate,omitempty"`
	SampleBufferSize int `yaml:"sample-buffer-size,omitempty"`
	SampleRate       int `yaml:"sample-rate,omitempty"`
}

// File is the decoded project file.
type File struct {
	Board     string           `yaml:"board,omitempty"`
	Features  map[string]Value `yaml:"features,omitempty"`
	Overrides []Override       `yaml:"overrides,omitempty"`
	Shared    []Shared         `yaml:"shared,omitempty"`
	Settings  Settings         `yaml:"settings,omitempty"`

	path string
}

// Path returns the file the project was loaded from, if any.
func (f *File) Path() string { return f.path }

// Load reads a project file from disk.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "project: read")
	}
	f, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(err, "project: %s", path)
	}
	f.path = path
	return f, nil
}

// Parse decodes a project file. Unknown keys are rejected.
func Parse(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty project file")
		}
		return nil, errors.Wrap(err, "decode")
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *File) validate() error {
	for i, o := range f.Overrides {
		if o.Role == "" || o.Pin == "" {
			return errors.Errorf("overrides[%d]: role and pin are required", i)
		}
	}
	for i, s := range f.Shared {
		if len(s.Roles) < 2 {
			return errors.Errorf("shared[%d]: at least two roles are required", i)
		}
	}
	if f.Settings.SerialBaudRate < 0 || f.Settings.SampleBufferSize < 0 || f.Settings.SampleRate < 0 {
		return errors.New("settings must not be negative")
	}
	return nil
}

// Marshal renders the project file as YAML.
func (f *File) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return nil, errors.Wrap(err, "project: encode")
	}
	if err := enc.Close(); err != nil {
		return nil, errors.Wrap(err, "project: encode")
	}
	return buf.Bytes(), nil
}
