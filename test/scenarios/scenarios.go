// Package scenarios maps named test conditions to fault configurations for every
// mock service and a network condition for the simulator
package scenarios

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/onboardkit/harness/test/fault"
	"github.com/onboardkit/harness/test/network"
)

// Built-in scenario names
const (
	Success    = "success"
	Errors     = "errors"
	Slow       = "slow"
	Unreliable = "unreliable"
	Offline    = "offline"
)

// Preset is one named scenario
type Preset struct {
	Name        string       `json:"name" yaml:"name"`
	Description string       `json:"description" yaml:"description"`
	Auth        fault.Config `json:"auth" yaml:"auth"`
	Storage     fault.Config `json:"storage" yaml:"storage"`
	PDF         fault.Config `json:"pdf" yaml:"pdf"`
	// Network is the simulator profile applied with this scenario
	Network string `json:"network" yaml:"network"`
	// EnableNetwork turns the simulator on; when false it is disabled
	EnableNetwork bool `json:"enable_network" yaml:"enable_network"`
}

// Validate checks every fault config and the network profile name
func (p Preset) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("scenario name is required")
	}
	if err := p.Auth.Validate(); err != nil {
		return fmt.Errorf("scenario %s: auth: %w", p.Name, err)
	}
	if err := p.Storage.Validate(); err != nil {
		return fmt.Errorf("scenario %s: storage: %w", p.Name, err)
	}
	if err := p.PDF.Validate(); err != nil {
		return fmt.Errorf("scenario %s: pdf: %w", p.Name, err)
	}
	if _, ok := network.Lookup(p.Network); !ok {
		return fmt.Errorf("scenario %s: unknown network condition %q", p.Name, p.Network)
	}
	return nil
}

func uniform(simulate bool, delay time.Duration, rate float64) fault.Config {
	return fault.Config{ShouldSimulateErrors: simulate, NetworkDelay: delay, ErrorRate: rate}
}

// Builtin returns the built-in presets
func Builtin() []Preset {
	return []Preset{
		{
			Name:        Success,
			Description: "every operation succeeds immediately",
			Network:     network.WiFi,
		},
		{
			Name:          Errors,
			Description:   "trigger inputs fail with service-specific errors",
			Auth:          uniform(true, 100*time.Millisecond, 0),
			Storage:       uniform(true, 100*time.Millisecond, 0),
			PDF:           uniform(true, 100*time.Millisecond, 0),
			Network:       network.WiFi,
			EnableNetwork: true,
		},
		{
			Name:          Slow,
			Description:   "slow services over a slow 3G connection",
			Auth:          uniform(false, 1500*time.Millisecond, 0),
			Storage:       uniform(false, 2000*time.Millisecond, 0),
			PDF:           uniform(false, 1000*time.Millisecond, 0),
			Network:       network.Slow3G,
			EnableNetwork: true,
		},
		{
			Name:          Unreliable,
			Description:   "random failures on an unstable connection",
			Auth:          uniform(true, 300*time.Millisecond, 0.3),
			Storage:       uniform(true, 500*time.Millisecond, 0.3),
			PDF:           uniform(true, 500*time.Millisecond, 0.3),
			Network:       network.Unstable,
			EnableNetwork: true,
		},
		{
			Name:          Offline,
			Description:   "no connectivity, every operation fails",
			Auth:          uniform(false, 0, 1),
			Storage:       uniform(false, 0, 1),
			PDF:           uniform(false, 0, 1),
			Network:       network.Offline,
			EnableNetwork: true,
		},
	}
}

// Registry holds the available presets
type Registry struct {
	mu      sync.RWMutex
	presets map[string]Preset
}

// NewRegistry creates a registry holding the built-in presets
func NewRegistry() *Registry {
	r := &Registry{presets: make(map[string]Preset)}
	for _, p := range Builtin() {
		r.presets[p.Name] = p
	}
	return r
}

// Get returns a preset by name
func (r *Registry) Get(name string) (Preset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.presets[name]
	if !ok {
		return Preset{}, fmt.Errorf("unknown scenario: %s", name)
	}
	return p, nil
}

// Names returns the sorted preset names
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.presets))
	for name := range r.presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Register adds or replaces a preset after validating it
func (r *Registry) Register(p Preset) error {
	if err := p.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.presets[p.Name] = p
	return nil
}
