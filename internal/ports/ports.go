// Package ports assigns TCP ports to services.
package ports

import (
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"commoners/pkg/logging"
)

// Allocator hands out ports. A service keeps the port it was first given
// for the whole invocation, so restarts stay reachable at the same URL.
// Ephemeral ports are never handed to a second service.
type Allocator struct {
	mu        sync.Mutex
	used      map[int]string
	byService map[string]int
}

// NewAllocator returns an empty allocator.
func NewAllocator() *Allocator {
	return &Allocator{used: make(map[int]string), byService: make(map[string]int)}
}

// Assign returns the port for a service. A non-zero explicit port is always
// honoured (a warning is logged when something already listens on it).
// Otherwise the port the service already owns is returned, or a free
// ephemeral port is picked.
func (a *Allocator) Assign(service string, explicit int) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if explicit > 0 {
		if !Available(explicit) {
			logging.Warn("Ports", "Port %d for service %s is already in use", explicit, service)
		}
		a.used[explicit] = service
		a.byService[service] = explicit
		return explicit, nil
	}

	if port, ok := a.byService[service]; ok {
		return port, nil
	}

	for attempt := 0; attempt < 10; attempt++ {
		port, err := ephemeral()
		if err != nil {
			return 0, fmt.Errorf("assigning port for %s: %w", service, err)
		}
		if _, taken := a.used[port]; taken {
			continue
		}
		a.used[port] = service
		a.byService[service] = port
		return port, nil
	}
	return 0, fmt.Errorf("assigning port for %s: no free port found", service)
}

// Port returns the port owned by a service.
func (a *Allocator) Port(service string) (int, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	p, ok := a.byService[service]
	return p, ok
}

// Owner returns the service a port was assigned to.
func (a *Allocator) Owner(port int) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	s, ok := a.used[port]
	return s, ok
}

func ephemeral() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

// Available reports whether nothing accepts connections on the port.
func Available(port int) bool {
	conn, err := net.DialTimeout("tcp", net.JoinHostPort("localhost", strconv.Itoa(port)), time.Second)
	if err != nil {
		return true
	}
	_ = conn.Close()
	return false
}
