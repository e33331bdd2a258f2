package services

// ServiceState is the lifecycle state of a named service.
type ServiceState string

const (
	StateStopped  ServiceState = "Stopped"
	StateStarting ServiceState = "Starting"
	StateRunning  ServiceState = "Running"
	StateStopping ServiceState = "Stopping"
	StateFailed   ServiceState = "Failed"
)

// IsActive reports whether a process may exist in this state.
func (s ServiceState) IsActive() bool {
	return s == StateStarting || s == StateRunning || s == StateStopping
}

// StateChangeCallback is called when a service's state changes.
type StateChangeCallback func(name string, oldState, newState ServiceState, err error)
