package npc

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// PersonaRegistry holds all NPC persona definitions.
type PersonaRegistry struct {
	mu       sync.RWMutex
	personas map[string]*Persona
	order    []string // 载入顺序，补位取名时保证稳定
}

// NewRegistry 建一个已装好内置阵容的注册表。
func NewRegistry() *PersonaRegistry {
	r := &PersonaRegistry{personas: make(map[string]*Persona)}
	for _, p := range builtinPersonas {
		r.personas[p.ID] = p
		r.order = append(r.order, p.ID)
	}
	return r
}

// LoadFromFile loads personas from a JSON file, replacing the builtins
// that share an ID and appending the rest.
func (r *PersonaRegistry) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read personas file: %w", err)
	}
	return r.LoadFromJSON(data)
}

// LoadFromJSON loads personas from raw JSON bytes.
func (r *PersonaRegistry) LoadFromJSON(data []byte) error {
	var list []*Persona
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("parse personas JSON: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range list {
		if p.ID == "" {
			continue
		}
		if _, exists := r.personas[p.ID]; !exists {
			r.order = append(r.order, p.ID)
		}
		r.personas[p.ID] = p
	}
	return nil
}

// Get returns a persona by ID, or nil.
func (r *PersonaRegistry) Get(id string) *Persona {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.personas[id]
}

// All returns every persona in load order.
func (r *PersonaRegistry) All() []*Persona {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Persona, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.personas[id])
	}
	return out
}

// Count returns the total number of registered personas.
func (r *PersonaRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.personas)
}
