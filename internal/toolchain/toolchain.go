package toolchain

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"commoners/internal/config"
	"commoners/internal/desktop"
	"commoners/internal/lifecycle"
	"commoners/internal/mobile"
	"commoners/internal/process"
	"commoners/internal/project"
	"commoners/internal/runtimecfg"
	"commoners/pkg/logging"

	"github.com/google/uuid"
)

// Environment variables passed to the bundler besides the service map.
const (
	TargetEnvVar   = "COMMONERS_TARGET"
	PlatformEnvVar = "COMMONERS_PLATFORM"
)

// Toolchain runs the external tools for one project.
type Toolchain struct {
	root    string
	spawner process.Spawner
	hooks   *lifecycle.Hooks

	// Runner prefixes every tool invocation ("npx" by default).
	Runner string
	// Installer installs missing packages ("npm" by default).
	Installer string
}

// New returns a toolchain rooted at the project directory. Hooks receive
// cleanup of transient files and may be nil.
func New(root string, spawner process.Spawner, hooks *lifecycle.Hooks) *Toolchain {
	if spawner == nil {
		spawner = process.Exec{}
	}
	return &Toolchain{
		root:      root,
		spawner:   spawner,
		hooks:     hooks,
		Runner:    "npx",
		Installer: "npm",
	}
}

func (t *Toolchain) command(tool string, env map[string]string, args ...string) process.Command {
	attr := slog.String("tool", tool)
	return process.Command{
		Label:  tool,
		Args:   args,
		Dir:    t.root,
		Env:    env,
		Stdout: logging.NewLineWriter("Toolchain", logging.LevelInfo, attr),
		Stderr: logging.NewLineWriter("Toolchain", logging.LevelWarn, attr),
	}
}

func (t *Toolchain) run(ctx context.Context, c process.Command) error {
	defer closeWriters(c.Stdout, c.Stderr)
	logging.Debug("Toolchain", "Running %v", c.Args)
	if err := t.spawner.Run(ctx, c); err != nil {
		return fmt.Errorf("%s: %w", c.Label, err)
	}
	return nil
}

// BundlerEnv is the environment handed to the bundler.
func BundlerEnv(target project.Target, platform project.Platform, services map[string]runtimecfg.Service) (map[string]string, error) {
	encoded, err := runtimecfg.EncodeServices(services)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		runtimecfg.ServicesEnvVar: encoded,
		TargetEnvVar:              string(target),
		PlatformEnvVar:            string(platform),
	}, nil
}

// BundleFrontend builds the frontend into the output directory.
func (t *Toolchain) BundleFrontend(ctx context.Context, cfg *config.ResolvedConfig, target project.Target, platform project.Platform, services map[string]runtimecfg.Service) error {
	env, err := BundlerEnv(target, platform, services)
	if err != nil {
		return err
	}
	c := t.command("bundler", env, t.Runner, "vite", "build", "--outDir", cfg.OutDir, "--emptyOutDir=false")
	return t.run(ctx, c)
}

// StartDevServer starts the frontend dev server. The caller owns the
// returned process.
func (t *Toolchain) StartDevServer(ctx context.Context, target project.Target, platform project.Platform, services map[string]runtimecfg.Service, port int) (*process.Process, error) {
	env, err := BundlerEnv(target, platform, services)
	if err != nil {
		return nil, err
	}
	args := []string{t.Runner, "vite"}
	if port > 0 {
		args = append(args, "--port", strconv.Itoa(port))
	}
	c := t.command("dev-server", env, args...)
	p, err := t.spawner.Start(ctx, c)
	if err != nil {
		closeWriters(c.Stdout, c.Stderr)
		return nil, fmt.Errorf("dev-server: %w", err)
	}
	go func() {
		<-p.Done()
		closeWriters(c.Stdout, c.Stderr)
	}()
	return p, nil
}

// packagerFlag maps a desktop platform to the packager's CLI flag.
func packagerFlag(platform project.Platform) string {
	switch platform {
	case project.PlatformMac:
		return "--mac"
	case project.PlatformWindows:
		return "--win"
	default:
		return "--linux"
	}
}

// PackageDesktop writes the installer config to a uniquely named temporary
// file and runs the desktop packager with it.
func (t *Toolchain) PackageDesktop(ctx context.Context, ic desktop.InstallerConfig, platform project.Platform) error {
	data, err := ic.YAML()
	if err != nil {
		return fmt.Errorf("encoding installer config: %w", err)
	}
	path := filepath.Join(os.TempDir(), "commoners-installer-"+uuid.NewString()+".yaml")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing installer config: %w", err)
	}
	defer os.Remove(path)

	args := []string{t.Runner, "electron-builder", "--config", path, packagerFlag(platform)}
	if ic.Publish != "" {
		args = append(args, "--publish", ic.Publish)
	}
	return t.run(ctx, t.command("packager", nil, args...))
}

// InstallPackages installs packages as development dependencies.
func (t *Toolchain) InstallPackages(ctx context.Context, pkgs ...string) error {
	if len(pkgs) == 0 {
		return nil
	}
	args := append([]string{t.Installer, "install"}, pkgs...)
	args = append(args, "-D")
	return t.run(ctx, t.command("installer", nil, args...))
}

// MobilePrebuild makes sure the bridge packages are installed and the bridge
// config exists before the frontend is bundled.
func (t *Toolchain) MobilePrebuild(ctx context.Context, cfg *config.ResolvedConfig, platform project.Platform) error {
	if missing := mobile.MissingPackages(cfg, platform); len(missing) > 0 {
		logging.Info("Toolchain", "Installing %v", missing)
		if err := t.InstallPackages(ctx, missing...); err != nil {
			return err
		}
	}
	_, _, err := mobile.WriteBridgeConfig(cfg, t.hooks)
	return err
}

// MobileInit creates the native project if needed and syncs the built web
// assets into it.
func (t *Toolchain) MobileInit(ctx context.Context, cfg *config.ResolvedConfig, platform project.Platform) error {
	p := string(platform)
	if !mobile.HasNativeProject(cfg.Root, platform) {
		if err := t.run(ctx, t.command("bridge", nil, t.Runner, "cap", "add", p)); err != nil {
			return err
		}
		if err := t.run(ctx, t.command("bridge", nil, t.Runner, "cap", "copy", p)); err != nil {
			return err
		}
	}
	return t.run(ctx, t.command("bridge", nil, t.Runner, "cap", "sync", p))
}

// MobileOpen opens the native project in the platform IDE.
func (t *Toolchain) MobileOpen(ctx context.Context, platform project.Platform) error {
	return t.run(ctx, t.command("bridge", nil, t.Runner, "cap", "open", string(platform)))
}

// LaunchDesktop runs the desktop shell on the built output.
func (t *Toolchain) LaunchDesktop(ctx context.Context, cfg *config.ResolvedConfig) (*process.Process, error) {
	c := t.command("shell", nil, t.Runner, "electron", cfg.OutDir)
	p, err := t.spawner.Start(ctx, c)
	if err != nil {
		closeWriters(c.Stdout, c.Stderr)
		return nil, fmt.Errorf("shell: %w", err)
	}
	go func() {
		<-p.Done()
		closeWriters(c.Stdout, c.Stderr)
	}()
	return p, nil
}

func closeWriters(ws ...io.Writer) {
	for _, w := range ws {
		if c, ok := w.(io.Closer); ok {
			_ = c.Close()
		}
	}
}
