package mobile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"commoners/internal/config"
	"commoners/internal/lifecycle"
	"commoners/internal/project"
	"commoners/pkg/logging"
)

// BridgeConfigFile is the file generated in the project root.
const BridgeConfigFile = "capacitor.config.json"

// UserConfigFiles are the names under which a user supplied bridge config
// is recognized. Any of them suppresses generation.
var UserConfigFiles = []string{
	"capacitor.config.json",
	"capacitor.config.js",
	"capacitor.config.ts",
}

// Packages the bridge toolchain itself needs.
const (
	CLIPackage  = "@capacitor/cli"
	CorePackage = "@capacitor/core"
)

// BridgeConfig is the generated bridge configuration.
type BridgeConfig struct {
	AppID   string                    `json:"appId"`
	AppName string                    `json:"appName"`
	WebDir  string                    `json:"webDir"`
	Plugins map[string]map[string]any `json:"plugins"`
}

// UserConfig returns the path of a user supplied bridge config, if any.
func UserConfig(root string) (string, bool) {
	for _, name := range UserConfigFiles {
		p := filepath.Join(root, name)
		if _, err := os.Stat(p); err == nil {
			return p, true
		}
	}
	return "", false
}

// NewBridgeConfig collects the bridge entries of every plugin active on
// mobile whose bridge package is a declared dependency.
func NewBridgeConfig(cfg *config.ResolvedConfig) BridgeConfig {
	webDir := cfg.OutDir
	if rel, err := filepath.Rel(cfg.Root, cfg.OutDir); err == nil {
		webDir = filepath.ToSlash(rel)
	}

	bc := BridgeConfig{
		AppID:   cfg.AppID,
		AppName: cfg.Name,
		WebDir:  webDir,
		Plugins: map[string]map[string]any{},
	}
	for _, p := range cfg.Plugins {
		b := p.Bridge()
		if b == nil || !p.SupportedOn(string(project.TargetMobile)) {
			continue
		}
		if !cfg.Package.HasDependency(b.Plugin) {
			continue
		}
		opts := map[string]any{}
		for k, v := range b.Options {
			opts[k] = v
		}
		bc.Plugins[b.Name] = opts
	}
	return bc
}

// WriteBridgeConfig writes the generated bridge config unless the user has
// their own. The written file is removed when hooks run. It returns the
// path of the config in effect and whether it was generated.
func WriteBridgeConfig(cfg *config.ResolvedConfig, hooks *lifecycle.Hooks) (string, bool, error) {
	if p, ok := UserConfig(cfg.Root); ok {
		logging.Info("Mobile", "Using existing bridge config %s", p)
		return p, false, nil
	}

	data, err := json.MarshalIndent(NewBridgeConfig(cfg), "", "  ")
	if err != nil {
		return "", false, fmt.Errorf("encoding bridge config: %w", err)
	}

	p := filepath.Join(cfg.Root, BridgeConfigFile)
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return "", false, fmt.Errorf("writing bridge config: %w", err)
	}
	logging.Debug("Mobile", "Wrote bridge config %s", p)

	if hooks != nil {
		hooks.Add("remove bridge config", func(context.Context) error {
			if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
			return nil
		})
	}
	return p, true, nil
}

// RequiredPackages lists the packages needed to build for a mobile platform.
func RequiredPackages(platform project.Platform) []string {
	return []string{CLIPackage, CorePackage, "@capacitor/" + string(platform)}
}

// MissingPackages returns the required packages that are not declared
// dependencies of the project.
func MissingPackages(cfg *config.ResolvedConfig, platform project.Platform) []string {
	var missing []string
	for _, pkg := range RequiredPackages(platform) {
		if !cfg.Package.HasDependency(pkg) {
			missing = append(missing, pkg)
		}
	}
	return missing
}

// NativeProjectDir is where the bridge keeps the native project for a
// platform.
func NativeProjectDir(root string, platform project.Platform) string {
	return filepath.Join(root, string(platform))
}

// HasNativeProject reports whether the native project has been created.
func HasNativeProject(root string, platform project.Platform) bool {
	info, err := os.Stat(NativeProjectDir(root, platform))
	return err == nil && info.IsDir()
}
