package scenarios

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/onboardkit/harness/test/fault"
)

// File is the on-disk format of a scenario file
type File struct {
	Scenarios []FilePreset `yaml:"scenarios"`
}

// FilePreset is a preset as written in YAML, with delays as duration strings ("250ms")
type FilePreset struct {
	Name          string      `yaml:"name"`
	Description   string      `yaml:"description"`
	Auth          FaultConfig `yaml:"auth"`
	Storage       FaultConfig `yaml:"storage"`
	PDF           FaultConfig `yaml:"pdf"`
	Network       string      `yaml:"network"`
	EnableNetwork bool        `yaml:"enable_network"`
}

// FaultConfig is fault.Config with a string delay
type FaultConfig struct {
	ShouldSimulateErrors bool    `yaml:"should_simulate_errors"`
	NetworkDelay         string  `yaml:"network_delay"`
	ErrorRate            float64 `yaml:"error_rate"`
}

func (c FaultConfig) toConfig() (fault.Config, error) {
	cfg := fault.Config{ShouldSimulateErrors: c.ShouldSimulateErrors, ErrorRate: c.ErrorRate}
	if c.NetworkDelay != "" {
		d, err := time.ParseDuration(c.NetworkDelay)
		if err != nil {
			return fault.Config{}, fmt.Errorf("invalid network delay %q: %w", c.NetworkDelay, err)
		}
		cfg.NetworkDelay = d
	}
	return cfg, nil
}

// ToPreset converts the file form to a Preset. An empty network defaults to wifi.
func (fp FilePreset) ToPreset() (Preset, error) {
	p := Preset{
		Name:          fp.Name,
		Description:   fp.Description,
		Network:       fp.Network,
		EnableNetwork: fp.EnableNetwork,
	}
	if p.Network == "" {
		p.Network = "wifi"
	}
	var err error
	if p.Auth, err = fp.Auth.toConfig(); err != nil {
		return Preset{}, fmt.Errorf("scenario %s: auth: %w", fp.Name, err)
	}
	if p.Storage, err = fp.Storage.toConfig(); err != nil {
		return Preset{}, fmt.Errorf("scenario %s: storage: %w", fp.Name, err)
	}
	if p.PDF, err = fp.PDF.toConfig(); err != nil {
		return Preset{}, fmt.Errorf("scenario %s: pdf: %w", fp.Name, err)
	}
	return p, nil
}

// Parse decodes YAML scenario definitions and validates each preset
func Parse(data []byte) ([]Preset, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse scenario file: %w", err)
	}
	presets := make([]Preset, 0, len(f.Scenarios))
	for _, fp := range f.Scenarios {
		p, err := fp.ToPreset()
		if err != nil {
			return nil, err
		}
		if err := p.Validate(); err != nil {
			return nil, err
		}
		presets = append(presets, p)
	}
	return presets, nil
}

// LoadFile registers every preset of a YAML file. Nothing is registered when
// any preset is invalid.
func (r *Registry) LoadFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	presets, err := Parse(data)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(presets))
	for _, p := range presets {
		if err := r.Register(p); err != nil {
			return nil, err
		}
		names = append(names, p.Name)
	}
	return names, nil
}
