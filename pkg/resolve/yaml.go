package resolve

type yamlPin struct {
	Role     string `yaml:"role"`
	Pin      int    `yaml:"pin"`
	Name     string `yaml:"name"`
	Requires string `yaml:"requires"`
	Origin   string `yaml:"origin"`
	Feature  string `yaml:"feature,omitempty"`
}

type yamlConfig struct {
	Board  string    `yaml:"board"`
	Device string    `yaml:"device"`
	Traits []string  `yaml:"traits,omitempty"`
	Pins   []yamlPin `yaml:"pins"`
}

// MarshalYAML renders the configuration as a flat pin table.
func (c *Config) MarshalYAML() (interface{}, error) {
	out := yamlConfig{Board: c.board, Device: c.device, Traits: c.Traits()}
	for _, b := range c.bindings {
		out.Pins = append(out.Pins, yamlPin{
			Role:     b.Role.Name,
			Pin:      int(b.Resource.ID),
			Name:     b.Resource.Name,
			Requires: string(b.Role.Requires),
			Origin:   b.Origin.String(),
			Feature:  b.Role.Feature,
		})
	}
	return out, nil
}
