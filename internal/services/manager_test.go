package services

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"commoners/internal/config"
	"commoners/internal/process"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("service tests use sh and sleep")
	}
}

// recordingSpawner records commands. Start delegates to a real spawner
// unless the line is listed in failStart.
type recordingSpawner struct {
	mu        sync.Mutex
	started   []process.Command
	ran       []process.Command
	failStart map[string]bool
	failRun   map[string]bool
	real      process.Exec
}

func (r *recordingSpawner) Start(ctx context.Context, c process.Command) (*process.Process, error) {
	r.mu.Lock()
	r.started = append(r.started, c)
	fail := r.failStart[c.Line]
	r.mu.Unlock()
	if fail {
		return nil, errors.New("exec: not found")
	}
	return r.real.Start(ctx, c)
}

func (r *recordingSpawner) Run(_ context.Context, c process.Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ran = append(r.ran, c)
	if r.failRun[c.Line] {
		return errors.New("exit status 1")
	}
	return nil
}

func discardOutput(string) (io.Writer, io.Writer) {
	return io.Discard, io.Discard
}

func newTestManager(t *testing.T, spawner process.Spawner) *Manager {
	t.Helper()
	m := NewManager(Options{
		Root:    t.TempDir(),
		Spawner: spawner,
		Output:  discardOutput,
	})
	t.Cleanup(func() { _ = m.StopAll(StopOptions{Services: true, Frontend: true}) })
	return m
}

func sleeper(name string) *config.ResolvedService {
	return &config.ResolvedService{Name: name, Launch: "sleep 30"}
}

func TestManager_StartTwiceLeavesOneProcess(t *testing.T) {
	skipOnWindows(t)
	m := newTestManager(t, process.Exec{StopTimeout: time.Second})
	ctx := context.Background()

	first, err := m.Start(ctx, sleeper("api"))
	require.NoError(t, err)
	firstPid := first.Pid()

	second, err := m.Start(ctx, sleeper("api"))
	require.NoError(t, err)

	assert.NotEqual(t, firstPid, second.Pid())
	assert.Equal(t, StateStopped, first.GetState())
	assert.False(t, first.Alive())
	assert.True(t, second.Alive())
	assert.Equal(t, StateRunning, second.GetState())

	require.Len(t, m.List(), 1)
	current, ok := m.Get("api")
	require.True(t, ok)
	assert.Same(t, second, current)
}

func TestManager_RestartKeepsPort(t *testing.T) {
	skipOnWindows(t)
	m := newTestManager(t, process.Exec{StopTimeout: time.Second})
	ctx := context.Background()

	first, err := m.Start(ctx, sleeper("api"))
	require.NoError(t, err)
	require.Greater(t, first.Port, 0)

	restarted, err := m.Start(ctx, sleeper("api"))
	require.NoError(t, err)
	assert.Equal(t, first.Port, restarted.Port, "a restarted service must stay at the URL the frontend was given")
	assert.Equal(t, first.Port, m.Ports()["api"])
}

func TestManager_StopUnknownIsNoop(t *testing.T) {
	m := newTestManager(t, &recordingSpawner{})
	assert.NoError(t, m.Stop("never-started"))
	assert.NoError(t, m.StopAll(StopOptions{Services: true, Frontend: true}))
	assert.NoError(t, m.StopAll(StopOptions{Services: true, Frontend: true}))
}

func TestManager_StopIsIdempotent(t *testing.T) {
	skipOnWindows(t)
	m := newTestManager(t, process.Exec{StopTimeout: time.Second})

	sp, err := m.Start(context.Background(), sleeper("api"))
	require.NoError(t, err)

	require.NoError(t, m.Stop("api"))
	require.NoError(t, m.Stop("api"))
	assert.Equal(t, StateStopped, sp.GetState())
	assert.Empty(t, m.List())
}

func TestManager_StartAllIsolatesFailures(t *testing.T) {
	skipOnWindows(t)
	spawner := &recordingSpawner{
		failStart: map[string]bool{"missing-binary": true},
		real:      process.Exec{StopTimeout: time.Second},
	}
	m := newTestManager(t, spawner)

	var transitions sync.Map
	m.opts.OnStateChange = func(name string, _, newState ServiceState, _ error) {
		transitions.Store(name+":"+string(newState), true)
	}

	report := m.StartAll(context.Background(), []*config.ResolvedService{
		sleeper("a"),
		{Name: "broken", Launch: "missing-binary"},
		sleeper("b"),
		{Name: "nolaunch"},
	})

	assert.False(t, report.OK())
	assert.Equal(t, []string{"broken", "nolaunch"}, report.FailedNames())
	assert.Len(t, report.Started, 2)

	var spawnErr *ServiceSpawnError
	require.True(t, errors.As(report.Failed["broken"], &spawnErr))
	assert.Equal(t, "broken", spawnErr.Service)
	assert.ErrorIs(t, report.Failed["nolaunch"], ErrNoLaunchCommand)

	broken, ok := m.Get("broken")
	require.True(t, ok)
	assert.Equal(t, StateFailed, broken.GetState())
	_, seen := transitions.Load("broken:" + string(StateFailed))
	assert.True(t, seen)

	for _, name := range []string{"a", "b"} {
		sp, _ := m.Get(name)
		assert.Equal(t, StateRunning, sp.GetState(), name)
		assert.True(t, sp.Alive(), name)
	}
	assert.Len(t, m.Ports(), 2)
}

func TestManager_PortAndTemplate(t *testing.T) {
	skipOnWindows(t)
	m := newTestManager(t, process.Exec{StopTimeout: time.Second})
	marker := filepath.Join(m.opts.Root, "port.txt")

	sp, err := m.Start(context.Background(), &config.ResolvedService{
		Name:   "api",
		Port:   45123,
		Launch: `sh -c 'echo {{ .Port }} $PORT > ` + marker + `; sleep 30'`,
	})
	require.NoError(t, err)
	assert.Equal(t, 45123, sp.Port)
	assert.Equal(t, "http://localhost:45123", sp.URL())

	require.Eventually(t, func() bool {
		data, err := os.ReadFile(marker)
		return err == nil && strings.TrimSpace(string(data)) == "45123 45123"
	}, 5*time.Second, 50*time.Millisecond)
}

func TestManager_UnexpectedExitMarksFailed(t *testing.T) {
	skipOnWindows(t)
	m := newTestManager(t, process.Exec{StopTimeout: time.Second})

	sp, err := m.Start(context.Background(), &config.ResolvedService{Name: "crash", Launch: `sh -c 'exit 7'`})
	require.NoError(t, err)

	<-sp.Done()
	require.Eventually(t, func() bool { return sp.GetState() == StateFailed }, 5*time.Second, 20*time.Millisecond)

	var exitErr *process.ExitError
	require.True(t, errors.As(sp.GetLastError(), &exitErr))
	assert.Equal(t, 7, exitErr.ExitCode)

	assert.NoError(t, m.Stop("crash"))
	assert.Equal(t, StateStopped, sp.GetState())
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func TestManager_StopAllFrontend(t *testing.T) {
	m := newTestManager(t, &recordingSpawner{})
	closed := 0
	m.AttachFrontend(closerFunc(func() error { closed++; return nil }))

	require.NoError(t, m.StopAll(StopOptions{Services: true}))
	assert.Equal(t, 0, closed)

	require.NoError(t, m.StopAll(StopOptions{Frontend: true}))
	require.NoError(t, m.StopAll(StopOptions{Frontend: true}))
	assert.Equal(t, 1, closed)
}

func TestManager_BuildSelectsPlatformCommand(t *testing.T) {
	spawner := &recordingSpawner{}
	m := newTestManager(t, spawner)

	svcs := []*config.ResolvedService{
		{Name: "api", Build: config.CommandSpec{Shared: "make api", PerPlatform: map[string]string{"mac": "make api-mac", "windows": "make api.exe"}}},
		{Name: "worker", Build: config.CommandSpec{PerPlatform: map[string]string{"mac": "build-worker-mac", "linux": "build-worker-linux"}}},
		{Name: "static"},
	}

	require.NoError(t, m.BuildAll(context.Background(), svcs, "mac"))

	var lines []string
	for _, c := range spawner.ran {
		lines = append(lines, c.Line)
	}
	assert.Equal(t, []string{"make api-mac", "build-worker-mac"}, lines)

	spawner.ran = nil
	require.NoError(t, m.BuildAll(context.Background(), svcs, "linux"))
	lines = nil
	for _, c := range spawner.ran {
		lines = append(lines, c.Line)
	}
	sort.Strings(lines)
	assert.Equal(t, []string{"build-worker-linux", "make api"}, lines)
}

func TestManager_BuildAllStopsAtFirstFailure(t *testing.T) {
	spawner := &recordingSpawner{failRun: map[string]bool{"make a": true}}
	m := newTestManager(t, spawner)

	err := m.BuildAll(context.Background(), []*config.ResolvedService{
		{Name: "b", Build: config.CommandSpec{Shared: "make b"}},
		{Name: "a", Build: config.CommandSpec{Shared: "make a"}},
	}, "linux")

	var buildErr *BuildError
	require.True(t, errors.As(err, &buildErr))
	assert.Equal(t, "a", buildErr.Service)
	assert.Len(t, spawner.ran, 1, "b must not run after a failed")
}
