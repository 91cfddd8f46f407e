package glm

import (
	"fmt"
	"sync"
)

// Monitor is one discovered SAM monitor. Immutable snapshot; replaced
// wholesale on the next discovery cycle.
type Monitor struct {
	Address int    `json:"address"`
	Name    string `json:"name"`
	Serial  string `json:"serial,omitempty"`
}

// Registry holds the monitors discovered on the GLM bus, keyed by address,
// in discovery order. Contents are swapped atomically on each successful
// discovery and never patched incrementally.
//
// Thread-safe: the session goroutine replaces, status queries snapshot.
type Registry struct {
	mu       sync.Mutex
	monitors []Monitor
	byAddr   map[int]int // address -> index into monitors
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byAddr: make(map[int]int)}
}

// ReplaceAll swaps the registry contents with the given discovery result.
// The USB adapter (address 1) is excluded; peers without a hardware name get
// a generic one.
func (r *Registry) ReplaceAll(peers []PeerInfo) {
	monitors := make([]Monitor, 0, len(peers))
	byAddr := make(map[int]int, len(peers))

	for _, p := range peers {
		if p.Address == AdapterAddress {
			continue
		}
		name := p.HardwareName
		if name == "" {
			name = fmt.Sprintf("Monitor %d", p.Address)
		}
		byAddr[p.Address] = len(monitors)
		monitors = append(monitors, Monitor{
			Address: p.Address,
			Name:    name,
			Serial:  p.Serial,
		})
	}

	r.mu.Lock()
	r.monitors = monitors
	r.byAddr = byAddr
	r.mu.Unlock()
}

// Clear empties the registry.
func (r *Registry) Clear() {
	r.mu.Lock()
	r.monitors = nil
	r.byAddr = make(map[int]int)
	r.mu.Unlock()
}

// List returns a snapshot of the monitors in discovery order.
func (r *Registry) List() []Monitor {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Monitor, len(r.monitors))
	copy(out, r.monitors)
	return out
}

// Get looks up a monitor by bus address.
func (r *Registry) Get(address int) (Monitor, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.byAddr[address]
	if !ok {
		return Monitor{}, false
	}
	return r.monitors[i], true
}

// Len reports the number of known monitors.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.monitors)
}
