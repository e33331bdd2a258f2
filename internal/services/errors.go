package services

import (
	"errors"
	"fmt"
)

// ErrNoLaunchCommand is returned for services that have neither a src nor a
// command for the current platform.
var ErrNoLaunchCommand = errors.New("no launch command for this platform")

// ServiceSpawnError reports a service that failed to start. It only affects
// that service.
type ServiceSpawnError struct {
	Service string
	Err     error
}

func (e *ServiceSpawnError) Error() string {
	return fmt.Sprintf("service %s failed to start: %v", e.Service, e.Err)
}

func (e *ServiceSpawnError) Unwrap() error {
	return e.Err
}

// BuildError reports a failed service build command.
type BuildError struct {
	Service  string
	Platform string
	Command  string
	Err      error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("building service %s for %s (%s): %v", e.Service, e.Platform, e.Command, e.Err)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}
