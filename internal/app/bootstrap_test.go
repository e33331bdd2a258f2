package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"commoners/internal/config"
	"commoners/internal/process"
	"commoners/internal/project"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSpawner records every command instead of running it.
type recordingSpawner struct {
	mu     sync.Mutex
	runs   []process.Command
	starts int
}

func (r *recordingSpawner) Start(ctx context.Context, c process.Command) (*process.Process, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.starts++
	return nil, errors.New("spawning disabled in tests")
}

func (r *recordingSpawner) Run(ctx context.Context, c process.Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, c)
	return nil
}

func (r *recordingSpawner) argv() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][]string, 0, len(r.runs))
	for _, c := range r.runs {
		argv, _ := c.Argv()
		out = append(out, argv)
	}
	return out
}

const projectYAML = `name: Demo App
services:
  api:
    src: api.py
    port: 4100
    build: pyinstaller api.py
  worker:
    src: worker.js
`

func writeProject(t *testing.T, content string) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "commoners.config.yaml"), []byte(content), 0o644))
	return root
}

func testAppConfig(root string, spawner process.Spawner) *Config {
	cfg := NewConfig(root, false)
	cfg.Silent = true
	cfg.Platform = "linux"
	cfg.Spawner = spawner
	return cfg
}

func TestNewApplication(t *testing.T) {
	root := writeProject(t, projectYAML)
	cfg := testAppConfig(root, &recordingSpawner{})
	cfg.Target = "desktop"

	a, err := NewApplication(cfg, project.ModeBuild)
	require.NoError(t, err)
	defer a.Close(context.Background())

	resolved := a.Resolved()
	assert.Equal(t, "Demo App", resolved.Name)
	assert.Equal(t, "DemoApp", resolved.RawName)
	assert.Equal(t, []string{"api", "worker"}, resolved.ServiceNames())
	assert.Equal(t, project.TargetDesktop, a.Project().Target)
	assert.Equal(t, filepath.Join(a.Project().Root, project.DefaultOutDir), resolved.OutDir)
}

func TestNewApplication_MalformedConfigSpawnsNothing(t *testing.T) {
	root := writeProject(t, `name: Broken
services:
  api: [not, a, service]
plugins:
  - isSupported: true
`)
	spawner := &recordingSpawner{}

	_, err := NewApplication(testAppConfig(root, spawner), project.ModeDev)
	require.Error(t, err)

	var collection *config.ConfigurationErrorCollection
	require.ErrorAs(t, err, &collection)
	assert.Equal(t, 2, collection.Count())
	assert.Zero(t, spawner.starts)
	assert.Empty(t, spawner.runs)
}

func TestNewApplication_UnknownTarget(t *testing.T) {
	root := writeProject(t, projectYAML)
	cfg := testAppConfig(root, nil)
	cfg.Target = "watch"

	_, err := NewApplication(cfg, project.ModeBuild)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown target")
}

func TestNewApplication_OutDirOverride(t *testing.T) {
	root := writeProject(t, projectYAML+"build:\n  outDir: out\n")
	cfg := testAppConfig(root, nil)

	a, err := NewApplication(cfg, project.ModeBuild)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(a.Project().Root, "out"), a.Resolved().OutDir)

	cfg.OutDir = "elsewhere"
	a, err = NewApplication(cfg, project.ModeBuild)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(a.Project().Root, "elsewhere"), a.Resolved().OutDir)
}
