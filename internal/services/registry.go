package services

import (
	"sort"
	"sync"
)

// registry tracks the service process currently owned by each name.
type registry struct {
	mu       sync.RWMutex
	services map[string]*ServiceProcess
}

func newRegistry() *registry {
	return &registry{
		services: make(map[string]*ServiceProcess),
	}
}

// put stores sp under its name and returns the previous entry, if any.
func (r *registry) put(sp *ServiceProcess) *ServiceProcess {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev := r.services[sp.GetName()]
	r.services[sp.GetName()] = sp
	return prev
}

// get returns a service by name
func (r *registry) get(name string) (*ServiceProcess, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sp, exists := r.services[name]
	return sp, exists
}

// remove deletes name if it still maps to sp.
func (r *registry) remove(name string, sp *ServiceProcess) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.services[name] == sp {
		delete(r.services, name)
	}
}

// all returns all entries sorted by name.
func (r *registry) all() []*ServiceProcess {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*ServiceProcess, 0, len(r.services))
	for _, sp := range r.services {
		out = append(out, sp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GetName() < out[j].GetName() })
	return out
}
