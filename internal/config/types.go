package config

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// SharedKey is the command variant used when no platform specific one exists.
const SharedKey = "default"

// RawConfig is the user authored project configuration. It is never mutated
// after Load returns.
type RawConfig struct {
	Name     string                        `yaml:"name,omitempty" json:"name,omitempty"`
	AppID    string                        `yaml:"appId,omitempty" json:"appId,omitempty"`
	Version  string                        `yaml:"version,omitempty" json:"version,omitempty"`
	Icon     IconSpec                      `yaml:"icon,omitempty" json:"icon,omitempty"`
	Services map[string]*ServiceDescriptor `yaml:"services,omitempty" json:"services,omitempty"`
	Plugins  []*PluginDescriptor           `yaml:"plugins,omitempty" json:"plugins,omitempty"`
	Build    BuildConfig                   `yaml:"build,omitempty" json:"build,omitempty"`
	PWA      PWAConfig                     `yaml:"pwa,omitempty" json:"pwa,omitempty"`
	Electron ElectronConfig                `yaml:"electron,omitempty" json:"electron,omitempty"`

	// Populated from package.json, not from the config file.
	Package PackageManifest `yaml:"-" json:"-"`
	// Path of the file the configuration was read from, empty for defaults.
	Path string `yaml:"-" json:"-"`
}

// BuildConfig holds build output options.
type BuildConfig struct {
	OutDir string `yaml:"outDir,omitempty" json:"outDir,omitempty"`
}

// PWAConfig overrides fields of the generated web manifest.
type PWAConfig struct {
	Name            string `yaml:"name,omitempty" json:"name,omitempty"`
	ShortName       string `yaml:"short_name,omitempty" json:"short_name,omitempty"`
	ThemeColor      string `yaml:"theme_color,omitempty" json:"theme_color,omitempty"`
	BackgroundColor string `yaml:"background_color,omitempty" json:"background_color,omitempty"`
	Display         string `yaml:"display,omitempty" json:"display,omitempty"`
	StartURL        string `yaml:"start_url,omitempty" json:"start_url,omitempty"`
}

// ElectronConfig overrides the derived installer configuration.
type ElectronConfig struct {
	AppID          string `yaml:"appId,omitempty" json:"appId,omitempty"`
	ExecutableName string `yaml:"executableName,omitempty" json:"executableName,omitempty"`
	Publish        string `yaml:"publish,omitempty" json:"publish,omitempty"`
}

// IconSpec is either a single path or per platform paths.
type IconSpec struct {
	Default string            `yaml:"default,omitempty" json:"default,omitempty"`
	ByOS    map[string]string `yaml:",inline" json:"platforms,omitempty"`
}

// UnmarshalYAML accepts `icon: path` as well as `icon: {default: a, mac: b}`.
func (i *IconSpec) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		i.Default = node.Value
		return nil
	}
	var m map[string]string
	if err := node.Decode(&m); err != nil {
		return fmt.Errorf("icon must be a path or a mapping of platform to path: %w", err)
	}
	i.Default = m[SharedKey]
	delete(m, SharedKey)
	if len(m) > 0 {
		i.ByOS = m
	}
	return nil
}

// IsZero reports whether no icon was configured.
func (i IconSpec) IsZero() bool {
	return i.Default == "" && len(i.ByOS) == 0
}

// For returns the icon for a platform, falling back to the default one.
func (i IconSpec) For(platform string) string {
	if p, ok := i.ByOS[platform]; ok && p != "" {
		return p
	}
	return i.Default
}

// CommandSpec is a command line that may vary by platform.
type CommandSpec struct {
	Shared      string            `json:"default,omitempty"`
	PerPlatform map[string]string `json:"platforms,omitempty"`

	invalid string
}

// UnmarshalYAML accepts a string or a mapping of platform name to string.
// Other shapes are recorded and reported by Validate.
func (c *CommandSpec) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		c.Shared = node.Value
		return nil
	case yaml.MappingNode:
		var m map[string]string
		if err := node.Decode(&m); err != nil {
			c.invalid = fmt.Sprintf("line %d: platform commands must be strings", node.Line)
			return nil
		}
		c.Shared = m[SharedKey]
		delete(m, SharedKey)
		if len(m) > 0 {
			c.PerPlatform = m
		}
		return nil
	default:
		c.invalid = fmt.Sprintf("line %d: expected a command string or a mapping of platform to command", node.Line)
		return nil
	}
}

// IsZero reports whether neither a shared nor a platform command is set.
func (c CommandSpec) IsZero() bool {
	return c.Shared == "" && len(c.PerPlatform) == 0
}

// Select returns the command for platform, falling back to the shared one.
func (c CommandSpec) Select(platform string) string {
	if cmd, ok := c.PerPlatform[platform]; ok {
		return cmd
	}
	return c.Shared
}

// Platforms returns the platform names with a dedicated command, sorted.
func (c CommandSpec) Platforms() []string {
	names := make([]string, 0, len(c.PerPlatform))
	for name := range c.PerPlatform {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ServiceDescriptor describes one auxiliary backend process.
type ServiceDescriptor struct {
	Src            string            `yaml:"src,omitempty" json:"src,omitempty"`
	Command        CommandSpec       `yaml:"command,omitempty" json:"command,omitempty"`
	Build          CommandSpec       `yaml:"build,omitempty" json:"build,omitempty"`
	ExtraResources []string          `yaml:"extraResources,omitempty" json:"extraResources,omitempty"`
	Port           int               `yaml:"port,omitempty" json:"port,omitempty"`
	Env            map[string]string `yaml:"env,omitempty" json:"env,omitempty"`

	invalid string
}

// UnmarshalYAML accepts the shorthand `name: path/to/src` and the full
// mapping form. Any other shape is recorded for Validate instead of failing
// the whole decode.
func (s *ServiceDescriptor) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			s.invalid = fmt.Sprintf("line %d: service is empty", node.Line)
			return nil
		}
		s.Src = node.Value
		return nil
	case yaml.MappingNode:
		type plain ServiceDescriptor
		var p plain
		if err := node.Decode(&p); err != nil {
			s.invalid = fmt.Sprintf("line %d: %v", node.Line, err)
			return nil
		}
		*s = ServiceDescriptor(p)
		return nil
	default:
		s.invalid = fmt.Sprintf("line %d: expected a mapping or a source path", node.Line)
		return nil
	}
}

// Invalid returns why the descriptor is malformed, or "" when it is usable.
func (s *ServiceDescriptor) Invalid() string {
	if s == nil {
		return "service is empty"
	}
	if s.invalid != "" {
		return s.invalid
	}
	if s.Command.invalid != "" {
		return "command: " + s.Command.invalid
	}
	if s.Build.invalid != "" {
		return "build: " + s.Build.invalid
	}
	if s.Port < 0 || s.Port > 65535 {
		return fmt.Sprintf("port %d is out of range", s.Port)
	}
	return ""
}

// BridgeBinding ties a plugin to a native mobile bridge plugin.
type BridgeBinding struct {
	// Name is the key under which options are written to the bridge config.
	Name string `yaml:"name" json:"name"`
	// Plugin is the package that must be a declared dependency.
	Plugin  string         `yaml:"plugin" json:"plugin"`
	Options map[string]any `yaml:"options,omitempty" json:"options,omitempty"`
}

// PluginDescriptor is one entry of the plugins list.
type PluginDescriptor struct {
	Name string `yaml:"name" json:"name"`
	// Code fragments are references to handlers or scripts, never evaluated
	// strings. Main stays in the build process.
	Main         string         `yaml:"main,omitempty" json:"main,omitempty"`
	Preload      string         `yaml:"preload,omitempty" json:"preload,omitempty"`
	Render       string         `yaml:"render,omitempty" json:"render,omitempty"`
	ElectronOnly *bool          `yaml:"electronOnly,omitempty" json:"electronOnly,omitempty"`
	IsSupported  SupportSpec    `yaml:"isSupported,omitempty" json:"isSupported,omitempty"`
	Capacitor    *BridgeBinding `yaml:"capacitor,omitempty" json:"capacitor,omitempty"`
	Options      map[string]any `yaml:"options,omitempty" json:"options,omitempty"`

	invalid string
}

// UnmarshalYAML records non-mapping entries for Validate.
func (p *PluginDescriptor) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		p.invalid = fmt.Sprintf("line %d: expected a mapping", node.Line)
		return nil
	}
	type plain PluginDescriptor
	var v plain
	if err := node.Decode(&v); err != nil {
		p.invalid = fmt.Sprintf("line %d: %v", node.Line, err)
		return nil
	}
	*p = PluginDescriptor(v)
	if p.Capacitor == nil {
		p.Capacitor = p.IsSupported.bridge
	}
	return nil
}

// Invalid returns why the descriptor is malformed, or "" when it is usable.
func (p *PluginDescriptor) Invalid() string {
	switch {
	case p == nil:
		return "plugin is empty"
	case p.invalid != "":
		return p.invalid
	case p.IsSupported.invalid != "":
		return "isSupported: " + p.IsSupported.invalid
	case p.Name == "":
		return "plugin has no name"
	case p.Capacitor != nil && (p.Capacitor.Name == "" || p.Capacitor.Plugin == ""):
		return "capacitor binding needs both name and plugin"
	}
	return ""
}

// Bridge returns the mobile bridge binding, if any.
func (p *PluginDescriptor) Bridge() *BridgeBinding {
	if p == nil {
		return nil
	}
	return p.Capacitor
}

// SupportValue is the verdict source for one target.
type SupportValue struct {
	// Bool is set for literal true/false.
	Bool *bool `json:"bool,omitempty"`
	// Handler names a registered support-check handler.
	Handler string `json:"handler,omitempty"`
	// Object is set for mapping values, which count as supported.
	Object map[string]any `json:"object,omitempty"`
}

// IsSet reports whether any verdict source is present.
func (v SupportValue) IsSet() bool {
	return v.Bool != nil || v.Handler != "" || v.Object != nil
}

// SupportSpec is the isSupported field: a global verdict, a handler name, or a
// per target map of either.
type SupportSpec struct {
	Global    SupportValue            `json:"global,omitempty"`
	PerTarget map[string]SupportValue `json:"targets,omitempty"`

	bridge  *BridgeBinding
	invalid string
}

// For returns the verdict source for a target. ok is false when nothing was
// configured for it, which callers treat as supported.
func (s SupportSpec) For(target string) (SupportValue, bool) {
	if s.Global.IsSet() {
		return s.Global, true
	}
	v, ok := s.PerTarget[target]
	if !ok || !v.IsSet() {
		return SupportValue{}, false
	}
	return v, true
}

// UnmarshalYAML accepts true/false, a handler name, or a mapping of target
// to either of those or to an object.
func (s *SupportSpec) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		v, err := scalarSupport(node)
		if err != nil {
			s.invalid = err.Error()
			return nil
		}
		s.Global = v
		return nil
	case yaml.MappingNode:
		s.PerTarget = make(map[string]SupportValue)
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, val := node.Content[i].Value, node.Content[i+1]
			switch val.Kind {
			case yaml.ScalarNode:
				v, err := scalarSupport(val)
				if err != nil {
					s.invalid = fmt.Sprintf("%s: %v", key, err)
					return nil
				}
				s.PerTarget[key] = v
			case yaml.MappingNode:
				var obj map[string]any
				if err := val.Decode(&obj); err != nil {
					s.invalid = fmt.Sprintf("%s: %v", key, err)
					return nil
				}
				if obj == nil {
					obj = map[string]any{}
				}
				s.PerTarget[key] = SupportValue{Object: obj}
				if key == "mobile" {
					s.bridge = bridgeFromNode(val)
				}
			default:
				s.invalid = fmt.Sprintf("line %d: %s must be a boolean, a handler name or a mapping", val.Line, key)
				return nil
			}
		}
		return nil
	default:
		s.invalid = fmt.Sprintf("line %d: expected a boolean, a handler name or a mapping of targets", node.Line)
		return nil
	}
}

func scalarSupport(node *yaml.Node) (SupportValue, error) {
	switch node.Tag {
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return SupportValue{}, err
		}
		return SupportValue{Bool: &b}, nil
	case "!!null":
		return SupportValue{}, nil
	case "!!str":
		return SupportValue{Handler: node.Value}, nil
	}
	return SupportValue{}, fmt.Errorf("line %d: unsupported value %q", node.Line, node.Value)
}

func bridgeFromNode(mobile *yaml.Node) *BridgeBinding {
	for i := 0; i+1 < len(mobile.Content); i += 2 {
		if mobile.Content[i].Value != "capacitor" {
			continue
		}
		var b BridgeBinding
		if err := mobile.Content[i+1].Decode(&b); err != nil {
			return nil
		}
		return &b
	}
	return nil
}

// Bool is a helper for building descriptors in code.
func Bool(b bool) *bool { return &b }
