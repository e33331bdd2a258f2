package output

import (
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"commoners/internal/config"
	"commoners/internal/project"
	"commoners/internal/runtimecfg"
	"commoners/pkg/logging"
)

// File names written by Populate.
const (
	RuntimeConfigFile = "commoners.config.json"
	OnloadFile        = "onload.js"
	PackageFile       = "package.json"
	WebManifestFile   = "manifest.webmanifest"
	ServiceWorkerFile = "sw.js"
	AssetsDir         = "assets"
)

// Dir is the output directory of one invocation.
type Dir struct {
	mu   sync.Mutex
	path string
}

// New returns a Dir for path. Nothing is created until it is used.
func New(path string) *Dir {
	return &Dir{path: path}
}

// Path returns the directory path.
func (d *Dir) Path() string {
	return d.path
}

// Lock gives exclusive use of the directory until the returned func is called.
func (d *Dir) Lock() func() {
	d.mu.Lock()
	return d.mu.Unlock
}

// Clear removes everything in the directory and recreates it empty.
func (d *Dir) Clear() error {
	unlock := d.Lock()
	defer unlock()

	if d.path == "" || d.path == string(filepath.Separator) {
		return fmt.Errorf("refusing to clear %q", d.path)
	}
	if err := os.RemoveAll(d.path); err != nil {
		return fmt.Errorf("clearing output directory: %w", err)
	}
	logging.Debug("Output", "Cleared %s", d.path)
	return os.MkdirAll(d.path, 0o755)
}

// Populate writes the common files for a target. It only overwrites the
// files it owns; other content (a previous frontend bundle, built services)
// is left alone.
func (d *Dir) Populate(cfg *config.ResolvedConfig, target project.Target, payload runtimecfg.Config) ([]string, error) {
	unlock := d.Lock()
	defer unlock()

	if err := os.MkdirAll(d.path, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	var written []string
	icons, err := d.copyIcons(cfg)
	if err != nil {
		return nil, err
	}
	written = append(written, icons...)

	files := map[string][]byte{}
	if files[RuntimeConfigFile], err = payload.JSON(); err != nil {
		return nil, err
	}
	files[OnloadFile] = []byte(onloadScript)
	if files[PackageFile], err = packageManifest(cfg, target); err != nil {
		return nil, err
	}
	if target == project.TargetPWA {
		if files[WebManifestFile], err = webManifest(cfg, d.path); err != nil {
			return nil, err
		}
		files[ServiceWorkerFile] = []byte(fmt.Sprintf(serviceWorkerScript, config.Slug(cfg.Name)+"-"+cfg.Version))
	}

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		p := filepath.Join(d.path, name)
		if err := os.WriteFile(p, files[name], 0o644); err != nil {
			return nil, fmt.Errorf("writing %s: %w", name, err)
		}
		written = append(written, p)
	}

	logging.Debug("Output", "Populated %s with %d files for %s", d.path, len(written), target)
	return written, nil
}

// AssetPath returns where Populate copies a project file.
func AssetPath(cfg *config.ResolvedConfig, src string) string {
	rel, err := filepath.Rel(cfg.Root, src)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = filepath.Base(src)
	}
	return filepath.Join(cfg.OutDir, AssetsDir, rel)
}

func (d *Dir) copyIcons(cfg *config.ResolvedConfig) ([]string, error) {
	seen := map[string]bool{}
	var sources []string
	add := func(p string) {
		if p != "" && !seen[p] {
			seen[p] = true
			sources = append(sources, p)
		}
	}
	add(cfg.Icon.Default)
	for _, platform := range sortedKeys(cfg.Icon.ByOS) {
		add(cfg.Icon.ByOS[platform])
	}

	var written []string
	for _, src := range sources {
		if _, err := os.Stat(src); err != nil {
			logging.Warn("Output", "Icon %s is missing, skipping", src)
			continue
		}
		dst := AssetPath(cfg, src)
		if err := copyPath(src, dst); err != nil {
			return nil, fmt.Errorf("copying icon %s: %w", src, err)
		}
		written = append(written, dst)
	}
	return written, nil
}

// copyPath copies a file or a directory tree.
func copyPath(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return copyFile(src, dst, info.Mode())
	}
	return filepath.WalkDir(src, func(p string, e fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(src, p)
		target := filepath.Join(dst, rel)
		if e.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		fi, err := e.Info()
		if err != nil {
			return err
		}
		return copyFile(p, target, fi.Mode())
	})
}

func copyFile(src, dst string, mode fs.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode.Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func packageManifest(cfg *config.ResolvedConfig, target project.Target) ([]byte, error) {
	m := map[string]any{
		"name":    config.Slug(cfg.RawName),
		"version": cfg.Version,
		"private": true,
	}
	if cfg.Package.Description != "" {
		m["description"] = cfg.Package.Description
	}
	if cfg.Package.Author != "" {
		m["author"] = cfg.Package.Author
	}
	if target == project.TargetDesktop {
		m["main"] = "main.js"
	}
	return json.MarshalIndent(m, "", "  ")
}

type manifestIcon struct {
	Src  string `json:"src"`
	Type string `json:"type,omitempty"`
}

func webManifest(cfg *config.ResolvedConfig, outDir string) ([]byte, error) {
	pwa := cfg.PWA
	m := map[string]any{
		"name":             firstNonEmpty(pwa.Name, cfg.Name),
		"short_name":       firstNonEmpty(pwa.ShortName, pwa.Name, cfg.Name),
		"start_url":        firstNonEmpty(pwa.StartURL, "."),
		"display":          firstNonEmpty(pwa.Display, "standalone"),
		"theme_color":      firstNonEmpty(pwa.ThemeColor, "#ffffff"),
		"background_color": firstNonEmpty(pwa.BackgroundColor, "#ffffff"),
	}
	if cfg.Icon.Default != "" {
		rel, err := filepath.Rel(outDir, AssetPath(cfg, cfg.Icon.Default))
		if err == nil {
			m["icons"] = []manifestIcon{{Src: filepath.ToSlash(rel), Type: iconType(cfg.Icon.Default)}}
		}
	}
	return json.MarshalIndent(m, "", "  ")
}

func iconType(p string) string {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".png":
		return "image/png"
	case ".svg":
		return "image/svg+xml"
	case ".ico":
		return "image/x-icon"
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

const onloadScript = `// Generated by commoners. Do not edit.
(async () => {
  const res = await fetch(new URL('./commoners.config.json', import.meta.url))
  const config = await res.json()
  globalThis.commoners = Object.freeze({ ...config, ready: Promise.resolve(config) })
  globalThis.dispatchEvent?.(new CustomEvent('commoners:ready', { detail: config }))
})()
`

const serviceWorkerScript = `// Generated by commoners. Do not edit.
const CACHE = %q
self.addEventListener('install', (event) => {
  event.waitUntil(caches.open(CACHE).then((cache) => cache.addAll(['./', './commoners.config.json', './onload.js'])))
})
self.addEventListener('activate', (event) => {
  event.waitUntil(caches.keys().then((keys) => Promise.all(keys.filter((k) => k !== CACHE).map((k) => caches.delete(k)))))
})
self.addEventListener('fetch', (event) => {
  event.respondWith(caches.match(event.request).then((hit) => hit || fetch(event.request)))
})
`
