package app

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"commoners/internal/config"
	"commoners/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRestarter struct {
	mu    sync.Mutex
	count map[string]int
}

func (c *countingRestarter) Start(ctx context.Context, svc *config.ResolvedService) (*services.ServiceProcess, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count[svc.Name]++
	return nil, nil
}

func (c *countingRestarter) restarts(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count[name]
}

func TestServiceWatcher_RestartsOnceAfterBurst(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("filesystem event timing differs on windows")
	}
	root := t.TempDir()
	src := filepath.Join(root, "api.py")
	require.NoError(t, os.WriteFile(src, []byte("print(1)"), 0o644))

	cfg := &config.ResolvedConfig{
		Root: root,
		Services: map[string]*config.ResolvedService{
			"api":    {Name: "api", Src: "api.py"},
			"remote": {Name: "remote"},
		},
	}
	r := &countingRestarter{count: map[string]int{}}
	w := NewServiceWatcher(r, cfg, 100*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(src, []byte("print(2)"), 0o644))
	}

	require.Eventually(t, func() bool { return r.restarts("api") == 1 }, 3*time.Second, 20*time.Millisecond)
	time.Sleep(250 * time.Millisecond)
	assert.Equal(t, 1, r.restarts("api"))
	assert.Zero(t, r.restarts("remote"))
}

func TestServiceWatcher_IgnoresOtherFiles(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("filesystem event timing differs on windows")
	}
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "api.py"), nil, 0o644))

	cfg := &config.ResolvedConfig{
		Root:     root,
		Services: map[string]*config.ResolvedService{"api": {Name: "api", Src: filepath.Join(root, "api.py")}},
	}
	r := &countingRestarter{count: map[string]int{}}
	w := NewServiceWatcher(r, cfg, 50*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))

	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o644))
	time.Sleep(300 * time.Millisecond)
	assert.Zero(t, r.restarts("api"))

	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())
}
