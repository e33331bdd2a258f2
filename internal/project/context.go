package project

import (
	"path/filepath"

	"github.com/google/uuid"
)

// Mode distinguishes the development loop from release builds.
type Mode string

const (
	ModeDev    Mode = "dev"
	ModeBuild  Mode = "build"
	ModeLaunch Mode = "launch"
)

// DefaultOutDir is the build output directory relative to the project root.
const DefaultOutDir = ".commoners/dist"

// Context is the explicit per-invocation state. It is passed by value.
type Context struct {
	// ID identifies the invocation in logs and generated file names.
	ID       string
	Root     string
	Target   Target
	Platform Platform
	Mode     Mode
	// OutDir is absolute once NewContext has run.
	OutDir string
	// OutDirSet reports that OutDir came from the caller rather than the
	// default. It then takes precedence over the project's build.outDir.
	OutDirSet bool
	// Publish is forwarded to the desktop packager ("", "always", "never", ...).
	Publish string
}

// NewContext builds a Context rooted at root. Relative outDir values are
// resolved against root; an empty outDir selects DefaultOutDir.
func NewContext(root string, target Target, platform Platform, mode Mode, outDir string) (Context, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return Context{}, err
	}
	if target == TargetMobile && !platform.IsMobile() {
		platform = DefaultMobilePlatform()
	}
	ctx := Context{
		ID:       uuid.NewString(),
		Root:     absRoot,
		Target:   target,
		Platform: platform,
		Mode:     mode,
	}
	ctx.OutDir = ctx.Abs(outDirOrDefault(outDir))
	ctx.OutDirSet = outDir != ""
	return ctx, nil
}

func outDirOrDefault(outDir string) string {
	if outDir == "" {
		return DefaultOutDir
	}
	return outDir
}

// Abs resolves p against the project root.
func (c Context) Abs(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Root, p)
}

// AssetsDir is where common assets (icons) are copied.
func (c Context) AssetsDir() string {
	return filepath.Join(c.OutDir, "assets")
}

// ServicesDir is the directory under OutDir receiving built services.
func (c Context) ServicesDir() string {
	return filepath.Join(c.OutDir, "services")
}

// WithTarget returns a copy of c for another target.
func (c Context) WithTarget(t Target) Context {
	c.Target = t
	return c
}
