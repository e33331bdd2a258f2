package plugins

import (
	"errors"
	"fmt"

	"commoners/internal/project"
)

// ErrHandlerNotFound is returned when isSupported names an unknown handler.
var ErrHandlerNotFound = errors.New("support handler not registered")

// EvaluationError reports a plugin hook that failed. It is always recovered:
// the plugin is treated as unsupported for the target.
type EvaluationError struct {
	Plugin  string
	Target  project.Target
	Handler string
	Err     error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("plugin %s: evaluating %q for %s: %v", e.Plugin, e.Handler, e.Target, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	return e.Err
}
