package config

import "sort"

// ResolvedConfig is a RawConfig with defaults applied, services expanded for
// one platform and plugin support computed for every target. It does not
// depend on the target: per target stripping happens when the runtime
// payload is serialized.
type ResolvedConfig struct {
	Name string `json:"name"`
	// RawName is Name without whitespace, substituted for ${name} in
	// installer templates.
	RawName  string                      `json:"rawName"`
	AppID    string                      `json:"appId"`
	Version  string                      `json:"version"`
	Root     string                      `json:"root"`
	OutDir   string                      `json:"outDir"`
	Platform string                      `json:"platform"`
	Icon     IconSpec                    `json:"icon,omitempty"`
	Services map[string]*ResolvedService `json:"services"`
	Plugins  []*ResolvedPlugin           `json:"plugins"`
	PWA      PWAConfig                   `json:"pwa,omitempty"`
	Electron ElectronConfig              `json:"electron,omitempty"`
	Package  PackageManifest             `json:"-"`
}

// ResolvedService is a service with its commands selected for the platform.
type ResolvedService struct {
	Name string `json:"name"`
	// Src is absolute, or empty when the service only has a command.
	Src string `json:"src,omitempty"`
	// Launch is the command run in dev mode and by launch.
	Launch string `json:"launch,omitempty"`
	// BuildCommand is the build command for the resolved platform.
	BuildCommand string `json:"buildCommand,omitempty"`
	// Build keeps every variant so other platforms can be built later.
	Build          CommandSpec       `json:"build,omitempty"`
	ExtraResources []string          `json:"extraResources,omitempty"`
	Port           int               `json:"port,omitempty"`
	Env            map[string]string `json:"env,omitempty"`
}

// ResolvedPlugin carries a plugin and its computed per target support.
type ResolvedPlugin struct {
	PluginDescriptor
	Support map[string]bool `json:"support"`
}

// SupportedOn returns the computed verdict for a target. Unknown targets are
// unsupported.
func (p *ResolvedPlugin) SupportedOn(target string) bool {
	return p != nil && p.Support[target]
}

// ServiceNames returns the service names in sorted order.
func (c *ResolvedConfig) ServiceNames() []string {
	names := make([]string, 0, len(c.Services))
	for name := range c.Services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Plugin returns the plugin with the given name, or nil.
func (c *ResolvedConfig) Plugin(name string) *ResolvedPlugin {
	for _, p := range c.Plugins {
		if p.Name == name {
			return p
		}
	}
	return nil
}
