package output

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"commoners/internal/config"
	"commoners/internal/project"
	"commoners/internal/runtimecfg"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.ResolvedConfig {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "assets"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "assets", "icon.png"), []byte("png"), 0o644))
	return &config.ResolvedConfig{
		Name:    "My App",
		RawName: "MyApp",
		AppID:   "com.myapp.app",
		Version: "1.0.0",
		Root:    root,
		OutDir:  filepath.Join(root, project.DefaultOutDir),
		Icon:    config.IconSpec{Default: filepath.Join(root, "assets", "icon.png"), ByOS: map[string]string{"mac": filepath.Join(root, "missing.icns")}},
		Package: config.PackageManifest{Description: "demo"},
	}
}

func TestPopulate_PreservesExistingContent(t *testing.T) {
	cfg := testConfig(t)
	d := New(cfg.OutDir)

	bundle := filepath.Join(cfg.OutDir, "index.html")
	require.NoError(t, os.MkdirAll(cfg.OutDir, 0o755))
	require.NoError(t, os.WriteFile(bundle, []byte("<html>old build</html>"), 0o644))

	payload := runtimecfg.New(cfg, "web", "linux", nil, nil)
	written, err := d.Populate(cfg, project.TargetWeb, payload)
	require.NoError(t, err)

	data, err := os.ReadFile(bundle)
	require.NoError(t, err)
	assert.Equal(t, "<html>old build</html>", string(data))

	assert.Contains(t, written, filepath.Join(cfg.OutDir, RuntimeConfigFile))
	assert.Contains(t, written, filepath.Join(cfg.OutDir, "assets", "assets", "icon.png"))
	assert.NoFileExists(t, filepath.Join(cfg.OutDir, WebManifestFile))

	var pkg map[string]any
	raw, err := os.ReadFile(filepath.Join(cfg.OutDir, PackageFile))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &pkg))
	assert.Equal(t, "myapp", pkg["name"])
	assert.Equal(t, "demo", pkg["description"])
	assert.NotContains(t, pkg, "main")
}

func TestPopulate_PWA(t *testing.T) {
	cfg := testConfig(t)
	cfg.PWA.ThemeColor = "#000000"
	d := New(cfg.OutDir)

	_, err := d.Populate(cfg, project.TargetPWA, runtimecfg.New(cfg, "pwa", "linux", nil, nil))
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(cfg.OutDir, WebManifestFile))
	require.NoError(t, err)
	var manifest map[string]any
	require.NoError(t, json.Unmarshal(raw, &manifest))
	assert.Equal(t, "My App", manifest["name"])
	assert.Equal(t, "#000000", manifest["theme_color"])
	assert.Equal(t, "standalone", manifest["display"])
	icons := manifest["icons"].([]any)
	assert.Equal(t, "assets/assets/icon.png", icons[0].(map[string]any)["src"])

	assert.FileExists(t, filepath.Join(cfg.OutDir, ServiceWorkerFile))
}

func TestPopulate_DesktopManifestHasMain(t *testing.T) {
	cfg := testConfig(t)
	_, err := New(cfg.OutDir).Populate(cfg, project.TargetDesktop, runtimecfg.New(cfg, "desktop", "linux", nil, nil))
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(cfg.OutDir, PackageFile))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"main": "main.js"`)
}

func TestClear(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nested", "stale.js"), nil, 0o644))

	d := New(dir)
	require.NoError(t, d.Clear())
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	assert.Error(t, New("").Clear())
}

func TestAssetPath_OutsideRoot(t *testing.T) {
	cfg := testConfig(t)
	assert.Equal(t, filepath.Join(cfg.OutDir, AssetsDir, "logo.png"), AssetPath(cfg, "/elsewhere/logo.png"))
}
