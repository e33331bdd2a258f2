// Package resolve turns a RawConfig into a ResolvedConfig for one invocation
// context.
package resolve

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"commoners/internal/config"
	"commoners/internal/plugins"
	"commoners/internal/project"
	"commoners/pkg/logging"
)

// Resolve validates raw and expands it for ctx. It never modifies raw and
// never starts a process. The only error it returns is a
// *config.ConfigurationErrorCollection describing malformed services or
// plugins; every other problem degrades to the feature being absent.
func Resolve(ctx project.Context, raw *config.RawConfig, registry *plugins.Registry) (*config.ResolvedConfig, error) {
	if err := config.Validate(raw); err != nil {
		return nil, err
	}
	if registry == nil {
		registry = plugins.Default
	}

	name := firstNonEmpty(raw.Name, raw.Package.Name, filepath.Base(ctx.Root))
	appID := raw.AppID
	if appID == "" {
		appID = config.DefaultAppID(name)
	}

	outDir := ctx.OutDir
	if raw.Build.OutDir != "" && !ctx.OutDirSet {
		outDir = ctx.Abs(raw.Build.OutDir)
	}

	cfg := &config.ResolvedConfig{
		Name:     name,
		RawName:  rawName(name),
		AppID:    appID,
		Version:  firstNonEmpty(raw.Version, raw.Package.Version, config.DefaultVersion),
		Root:     ctx.Root,
		OutDir:   outDir,
		Platform: string(ctx.Platform),
		Icon:     resolveIcon(ctx, raw.Icon),
		Services: make(map[string]*config.ResolvedService, len(raw.Services)),
		Plugins:  make([]*config.ResolvedPlugin, 0, len(raw.Plugins)),
		PWA:      raw.PWA,
		Electron: raw.Electron,
		Package:  raw.Package,
	}

	for svcName, desc := range raw.Services {
		cfg.Services[svcName] = resolveService(ctx, svcName, desc)
	}

	for _, desc := range raw.Plugins {
		cfg.Plugins = append(cfg.Plugins, &config.ResolvedPlugin{
			PluginDescriptor: copyPlugin(desc),
			Support:          registry.SupportMatrix(desc),
		})
	}
	plugins.ApplyBridgeAvailability(cfg.Plugins, raw.Package)

	logging.Debug("Resolver", "Resolved %s (%s) with %d services and %d plugins for %s/%s",
		cfg.Name, cfg.AppID, len(cfg.Services), len(cfg.Plugins), ctx.Target, ctx.Platform)
	return cfg, nil
}

func resolveService(ctx project.Context, name string, desc *config.ServiceDescriptor) *config.ResolvedService {
	platform := string(ctx.Platform)

	src := ctx.Abs(desc.Src)
	launch := desc.Command.Select(platform)
	if launch == "" && src != "" {
		launch = LaunchCommand(src)
	}

	env := make(map[string]string, len(desc.Env))
	for k, v := range desc.Env {
		env[k] = v
	}

	return &config.ResolvedService{
		Name:           name,
		Src:            src,
		Launch:         launch,
		BuildCommand:   desc.Build.Select(platform),
		Build:          copyCommand(desc.Build),
		ExtraResources: append([]string(nil), desc.ExtraResources...),
		Port:           desc.Port,
		Env:            env,
	}
}

// LaunchCommand derives the command used to run a service source file from
// its extension.
func LaunchCommand(src string) string {
	quoted := quote(src)
	switch strings.ToLower(filepath.Ext(src)) {
	case ".js", ".mjs", ".cjs":
		return "node " + quoted
	case ".py":
		return "python " + quoted
	case ".ts", ".mts":
		return "npx tsx " + quoted
	default:
		return quoted
	}
}

func quote(p string) string {
	if strings.ContainsAny(p, " \t'\"") {
		return "'" + strings.ReplaceAll(p, "'", `'\''`) + "'"
	}
	return p
}

func resolveIcon(ctx project.Context, icon config.IconSpec) config.IconSpec {
	if icon.IsZero() {
		return config.IconSpec{}
	}
	out := config.IconSpec{Default: ctx.Abs(icon.Default)}
	if len(icon.ByOS) > 0 {
		out.ByOS = make(map[string]string, len(icon.ByOS))
		for os, p := range icon.ByOS {
			out.ByOS[os] = ctx.Abs(p)
		}
	}
	return out
}

func copyCommand(c config.CommandSpec) config.CommandSpec {
	out := config.CommandSpec{Shared: c.Shared}
	if len(c.PerPlatform) > 0 {
		out.PerPlatform = make(map[string]string, len(c.PerPlatform))
		for k, v := range c.PerPlatform {
			out.PerPlatform[k] = v
		}
	}
	return out
}

func copyPlugin(d *config.PluginDescriptor) config.PluginDescriptor {
	out := *d
	if d.Capacitor != nil {
		b := *d.Capacitor
		out.Capacitor = &b
	}
	return out
}

// rawName strips whitespace so the name can be used in identifiers and file
// names.
func rawName(name string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, name)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Describe is a one-line summary used by the config command.
func Describe(cfg *config.ResolvedConfig) string {
	return fmt.Sprintf("%s %s (%s): %d services, %d plugins", cfg.Name, cfg.Version, cfg.AppID, len(cfg.Services), len(cfg.Plugins))
}
