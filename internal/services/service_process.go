package services

import (
	"time"

	"commoners/internal/config"
	"commoners/internal/process"
	"commoners/internal/runtimecfg"
)

// ServiceProcess is one running instance of a service.
type ServiceProcess struct {
	*BaseService

	Service *config.ResolvedService
	Port    int
	Command string

	proc *process.Process
}

// Pid returns the OS process id, or 0 before the process started.
func (s *ServiceProcess) Pid() int {
	if s.proc == nil {
		return 0
	}
	return s.proc.Pid()
}

// URL returns the loopback URL of the service.
func (s *ServiceProcess) URL() string {
	return runtimecfg.URL(s.Port)
}

// Output returns the retained tail of the service's output.
func (s *ServiceProcess) Output() string {
	if s.proc == nil {
		return ""
	}
	return s.proc.Output()
}

// Alive reports whether the OS process still exists.
func (s *ServiceProcess) Alive() bool {
	return s.proc != nil && s.proc.Alive()
}

// Uptime returns how long the process has been running.
func (s *ServiceProcess) Uptime() time.Duration {
	if s.proc == nil || s.proc.Exited() {
		return 0
	}
	return time.Since(s.proc.Started())
}

// Done is closed when the process exits.
func (s *ServiceProcess) Done() <-chan struct{} {
	if s.proc == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return s.proc.Done()
}
