package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	pkgstrings "commoners/pkg/strings"

	gopsprocess "github.com/shirou/gopsutil/v3/process"
)

// DefaultStopTimeout is how long Stop waits after the polite signal before
// killing the process group.
const DefaultStopTimeout = 5 * time.Second

// Spawner starts commands. Exec is the real implementation; tests substitute
// their own.
type Spawner interface {
	Start(ctx context.Context, c Command) (*Process, error)
	Run(ctx context.Context, c Command) error
}

// Exec spawns commands with os/exec.
type Exec struct {
	// OutputLimit bounds retained output per process.
	OutputLimit int
	// StopTimeout overrides DefaultStopTimeout.
	StopTimeout time.Duration
}

// Process is a started command.
type Process struct {
	label       string
	cmd         *exec.Cmd
	output      *RingBuffer
	stopTimeout time.Duration

	started time.Time
	done    chan struct{}

	mu       sync.Mutex
	waitErr  error
	stopping bool
}

// ExitError is returned when a command finishes unsuccessfully.
type ExitError struct {
	Label    string
	ExitCode int
	Output   string
	Err      error
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s exited with code %d", e.Label, e.ExitCode)
	if tail := pkgstrings.Tail(e.Output, 5); tail != "" {
		msg += ":\n" + tail
	}
	return msg
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// Start launches c and returns once the OS reports the process started.
func (e Exec) Start(ctx context.Context, c Command) (*Process, error) {
	argv, err := c.Argv()
	if err != nil {
		return nil, err
	}

	output := NewRingBuffer(e.OutputLimit)
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = c.Dir
	cmd.Env = c.Environ()
	cmd.Stdout = tee(output, c.Stdout)
	cmd.Stderr = tee(output, c.Stderr)
	configureProcAttr(cmd)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting %s: %w", c, err)
	}

	timeout := e.StopTimeout
	if timeout <= 0 {
		timeout = DefaultStopTimeout
	}
	p := &Process{
		label:       c.String(),
		cmd:         cmd,
		output:      output,
		stopTimeout: timeout,
		started:     time.Now(),
		done:        make(chan struct{}),
	}
	go p.wait()

	if ctx != nil && ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				_ = p.Stop()
			case <-p.done:
			}
		}()
	}
	return p, nil
}

// Run starts c and waits for it to finish.
func (e Exec) Run(ctx context.Context, c Command) error {
	p, err := e.Start(ctx, c)
	if err != nil {
		return err
	}
	if err := p.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s: %w", c, ctxErr)
		}
		return err
	}
	return nil
}

func tee(buf io.Writer, w io.Writer) io.Writer {
	if w == nil {
		return buf
	}
	return io.MultiWriter(buf, w)
}

func (p *Process) wait() {
	err := p.cmd.Wait()

	p.mu.Lock()
	if err != nil {
		exitErr := &ExitError{Label: p.label, ExitCode: -1, Output: p.output.String(), Err: err}
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			exitErr.ExitCode = ee.ExitCode()
		}
		p.waitErr = exitErr
	}
	p.mu.Unlock()
	close(p.done)
}

// Pid returns the OS process id.
func (p *Process) Pid() int {
	return p.cmd.Process.Pid
}

// Started returns when the process was started.
func (p *Process) Started() time.Time {
	return p.started
}

// Done is closed when the process has exited.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the process exits and returns an *ExitError on failure.
func (p *Process) Wait() error {
	<-p.done
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.waitErr
}

// Exited reports whether the process has finished.
func (p *Process) Exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Stopping reports whether Stop has been called.
func (p *Process) Stopping() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopping
}

// Output returns the retained tail of the combined output.
func (p *Process) Output() string {
	return p.output.String()
}

// Alive asks the OS whether the process still exists.
func (p *Process) Alive() bool {
	if p.Exited() {
		return false
	}
	return PidAlive(p.Pid())
}

// Stop terminates the process group, politely first. It is safe to call
// more than once and on processes that already exited.
func (p *Process) Stop() error {
	p.mu.Lock()
	p.stopping = true
	p.mu.Unlock()

	if p.Exited() {
		return nil
	}
	if err := terminate(p.Pid()); err != nil && !p.Exited() {
		return fmt.Errorf("stopping %s: %w", p.label, err)
	}

	select {
	case <-p.done:
		return nil
	case <-time.After(p.stopTimeout):
	}

	if err := kill(p.Pid()); err != nil && !p.Exited() {
		return fmt.Errorf("killing %s: %w", p.label, err)
	}
	<-p.done
	return nil
}

// PidAlive reports whether a process with the given pid exists.
func PidAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	ok, err := gopsprocess.PidExists(int32(pid))
	return err == nil && ok
}
