package process

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"

	"github.com/mattn/go-shellwords"
)

// Command describes one invocation.
type Command struct {
	// Label names the command in logs and errors, e.g. "service api".
	Label string
	// Line is split into words; when it uses shell operators it is run
	// through the platform shell instead.
	Line string
	// Args, when set, is used as is and Line is ignored.
	Args   []string
	Dir    string
	Env    map[string]string
	Stdout io.Writer
	Stderr io.Writer
}

// Argv returns the program and arguments to execute.
func (c Command) Argv() ([]string, error) {
	if len(c.Args) > 0 {
		return c.Args, nil
	}
	return Split(c.Line)
}

// Environ merges Env into the current process environment.
func (c Command) Environ() []string {
	env := os.Environ()
	keys := make([]string, 0, len(c.Env))
	for k := range c.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, k+"="+c.Env[k])
	}
	return env
}

func (c Command) String() string {
	if c.Label != "" {
		return c.Label
	}
	if len(c.Args) > 0 {
		return fmt.Sprint(c.Args)
	}
	return c.Line
}

// Split turns a command line into argv. Lines using shell operators such as
// && or pipes are wrapped in the platform shell.
func Split(line string) ([]string, error) {
	p := shellwords.NewParser()
	p.ParseBacktick = false
	p.ParseEnv = false

	args, err := p.Parse(line)
	if err != nil {
		return nil, fmt.Errorf("parsing command %q: %w", line, err)
	}
	if p.Position >= 0 {
		return shellArgv(line), nil
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("empty command")
	}
	return args, nil
}

func shellArgv(line string) []string {
	if runtime.GOOS == "windows" {
		return []string{"cmd", "/C", line}
	}
	return []string{"sh", "-c", line}
}
