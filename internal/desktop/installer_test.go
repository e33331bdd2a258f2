package desktop

import (
	"path/filepath"
	"testing"

	"commoners/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sigs.k8s.io/yaml"
)

func resolvedConfig() *config.ResolvedConfig {
	return &config.ResolvedConfig{
		Name:    "My App",
		RawName: "MyApp",
		AppID:   "com.${name}.desktop",
		Version: "1.0.0",
		Root:    "/project",
		OutDir:  "/project/.commoners/dist",
		Icon:    config.IconSpec{Default: "/project/icon.png", ByOS: map[string]string{"mac": "/project/icon.icns"}},
		Services: map[string]*config.ResolvedService{
			"b": {Name: "b", ExtraResources: []string{"dist/b"}},
			"a": {Name: "a", ExtraResources: []string{"dist/a", "models/"}},
			"c": {Name: "c"},
		},
		Package: config.PackageManifest{DevDependencies: map[string]string{"electron": "^28.1.0"}},
	}
}

func TestDerive(t *testing.T) {
	ic := Derive(resolvedConfig(), Options{})

	assert.Equal(t, "com.MyApp.desktop", ic.AppID)
	assert.Equal(t, "My App", ic.ProductName)
	assert.Equal(t, "MyApp", ic.Win.ExecutableName)
	assert.Equal(t, "28.1.0", ic.ElectronVersion)
	assert.Empty(t, ic.Publish)

	want := []Resource{
		{From: "/project/.commoners/dist", To: "/project/.commoners/dist"},
		{From: "dist/a"},
		{From: "models/"},
		{From: "dist/b"},
	}
	assert.Equal(t, want, ic.Mac.ExtraResources)
	assert.Equal(t, want, ic.Linux.ExtraResources)

	assert.Equal(t, filepath.Join("/project/.commoners/dist", "assets", "icon.icns"), ic.Mac.Icon)
	assert.Equal(t, filepath.Join("/project/.commoners/dist", "assets", "icon.png"), ic.Win.Icon)
}

func TestDerive_Overrides(t *testing.T) {
	cfg := resolvedConfig()
	cfg.Electron = config.ElectronConfig{AppID: "org.example.${name}", ExecutableName: "${name}-app-${arch}"}

	ic := Derive(cfg, Options{})
	assert.Equal(t, "org.example.MyApp", ic.AppID)
	assert.Equal(t, "MyApp-app-${arch}", ic.Win.ExecutableName)
}

func TestDerive_TemplateDefaultIcons(t *testing.T) {
	cfg := resolvedConfig()
	cfg.Icon = config.IconSpec{}
	cfg.AppID = ""

	ic := Derive(cfg, Options{})
	assert.Equal(t, "com.MyApp.app", ic.AppID)
	assert.Equal(t, filepath.Join("/project", "build", "icon.icns"), ic.Mac.Icon)
	assert.Equal(t, filepath.Join("/project", "build", "icon.ico"), ic.Win.Icon)
	assert.Equal(t, filepath.Join("/project", "build", "icon.png"), ic.Linux.Icon)
}

func TestInstallerConfig_YAML(t *testing.T) {
	data, err := Derive(resolvedConfig(), Options{}).YAML()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	assert.Equal(t, "com.MyApp.desktop", decoded["appId"])
	assert.Equal(t, true, decoded["includeSubNodeModules"])
}

func TestDerive_Publish(t *testing.T) {
	ic := Derive(resolvedConfig(), Options{Publish: PublishMode("", true)})
	assert.Equal(t, "always", ic.Publish)

	data, err := ic.YAML()
	require.NoError(t, err)
	assert.NotContains(t, string(data), "always")
}

func TestPublishMode(t *testing.T) {
	assert.Equal(t, "", PublishMode("", false))
	assert.Equal(t, "always", PublishMode("", true))
	assert.Equal(t, "always", PublishMode("true", true))
	assert.Equal(t, "onTag", PublishMode("onTag", true))
}
