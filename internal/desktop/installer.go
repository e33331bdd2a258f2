// Package desktop derives the installer configuration handed to the desktop
// shell packager.
package desktop

import (
	"path/filepath"
	"strings"

	"commoners/internal/config"
	"commoners/internal/output"
	"commoners/internal/template"

	"sigs.k8s.io/yaml"
)

// Defaults used when the project does not override them. ${name} is
// replaced with the project's raw name; other macros are left to the
// packager.
const (
	DefaultAppIDTemplate          = "com.${name}.app"
	DefaultExecutableNameTemplate = "${name}"
	DefaultBuildResources         = "build"
	DefaultReleaseDir             = "release"
)

// Template default icons, relative to the build resources directory.
var defaultIcons = map[string]string{
	"mac":     "icon.icns",
	"windows": "icon.ico",
	"linux":   "icon.png",
}

// Resource is an entry of extraResources: a bare path or a from/to pair.
type Resource struct {
	From string `json:"from"`
	To   string `json:"to,omitempty"`
}

// PlatformConfig holds per OS packager settings.
type PlatformConfig struct {
	Icon           string     `json:"icon,omitempty"`
	ExecutableName string     `json:"executableName,omitempty"`
	ExtraResources []Resource `json:"extraResources,omitempty"`
}

// Directories configures where the packager reads and writes.
type Directories struct {
	App            string `json:"app,omitempty"`
	Output         string `json:"output,omitempty"`
	BuildResources string `json:"buildResources,omitempty"`
}

// InstallerConfig is the packager configuration.
type InstallerConfig struct {
	AppID                 string         `json:"appId"`
	ProductName           string         `json:"productName"`
	Directories           Directories    `json:"directories"`
	Files                 []string       `json:"files,omitempty"`
	Mac                   PlatformConfig `json:"mac"`
	Win                   PlatformConfig `json:"win"`
	Linux                 PlatformConfig `json:"linux"`
	ElectronVersion       string         `json:"electronVersion,omitempty"`
	IncludeSubNodeModules bool           `json:"includeSubNodeModules"`

	// Publish is passed to the packager on the command line, not in the file.
	Publish string `json:"-"`
}

// Options carries invocation settings that are not part of the project
// configuration.
type Options struct {
	Publish string
}

// Derive builds the installer configuration for a resolved project.
func Derive(cfg *config.ResolvedConfig, opts Options) InstallerConfig {
	engine := template.New()
	vars := map[string]string{"name": cfg.RawName}

	appIDTemplate := firstNonEmpty(cfg.Electron.AppID, cfg.AppID, DefaultAppIDTemplate)
	exeTemplate := firstNonEmpty(cfg.Electron.ExecutableName, DefaultExecutableNameTemplate)

	buildResources := filepath.Join(cfg.Root, DefaultBuildResources)

	resources := []Resource{{From: cfg.OutDir, To: cfg.OutDir}}
	for _, name := range cfg.ServiceNames() {
		for _, r := range cfg.Services[name].ExtraResources {
			resources = append(resources, Resource{From: r})
		}
	}

	ic := InstallerConfig{
		AppID:       engine.Expand(appIDTemplate, vars),
		ProductName: cfg.Name,
		Directories: Directories{
			App:            cfg.OutDir,
			Output:         filepath.Join(cfg.Root, DefaultReleaseDir),
			BuildResources: buildResources,
		},
		Files: []string{"**/*"},
		Mac: PlatformConfig{
			Icon:           icon(cfg, "mac", buildResources),
			ExtraResources: resources,
		},
		Win: PlatformConfig{
			Icon:           icon(cfg, "windows", buildResources),
			ExecutableName: engine.Expand(exeTemplate, vars),
			ExtraResources: resources,
		},
		Linux: PlatformConfig{
			Icon:           icon(cfg, "linux", buildResources),
			ExtraResources: resources,
		},
		ElectronVersion:       electronVersion(cfg.Package),
		IncludeSubNodeModules: true,
		Publish:               opts.Publish,
	}
	return ic
}

// icon returns the copied project icon for a platform, or the template
// default in the build resources directory.
func icon(cfg *config.ResolvedConfig, platform, buildResources string) string {
	if p := cfg.Icon.For(platform); p != "" {
		return output.AssetPath(cfg, p)
	}
	return filepath.Join(buildResources, defaultIcons[platform])
}

func electronVersion(pkg config.PackageManifest) string {
	v := pkg.DevDependencies["electron"]
	if v == "" {
		v = pkg.Dependencies["electron"]
	}
	return strings.TrimLeft(v, "^~")
}

// YAML renders the configuration in the packager's file format.
func (ic InstallerConfig) YAML() ([]byte, error) {
	return yaml.Marshal(ic)
}

// PublishMode normalizes the --publish flag: a bare flag means "always".
func PublishMode(flag string, set bool) string {
	if !set {
		return ""
	}
	if flag == "" || flag == "true" {
		return "always"
	}
	return flag
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
