package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"commoners/pkg/logging"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// ConfigFileNames are tried in order when no explicit file is given.
var ConfigFileNames = []string{
	"commoners.config.yaml",
	"commoners.config.yml",
	"commoners.config.json",
	"commoners.config.toml",
}

// FindConfigFile returns the first config file present in root, or "".
func FindConfigFile(root string) string {
	for _, name := range ConfigFileNames {
		p := filepath.Join(root, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Load reads the project configuration from root. When path is empty the
// well known file names are tried; a project without a config file gets the
// defaults. package.json is read alongside when present.
func Load(root, path string) (*RawConfig, error) {
	if path == "" {
		path = FindConfigFile(root)
	} else if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}

	raw := DefaultRawConfig()
	if path == "" {
		logging.Info("ConfigLoader", "No commoners config found in %s, using defaults", root)
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &ConfigurationErrorCollection{Errors: []ConfigurationError{
				NewConfigurationError(path, ErrorTypeIO, "cannot read configuration file", err),
			}}
		}
		if err := decode(path, data, raw); err != nil {
			return nil, &ConfigurationErrorCollection{Errors: []ConfigurationError{
				NewConfigurationError(path, ErrorTypeParse, "configuration file is not valid", err),
			}}
		}
		raw.Path = path
		logging.Info("ConfigLoader", "Loaded configuration from %s", path)
	}

	pkg, err := ReadPackageManifest(filepath.Join(root, PackageManifestFile))
	switch {
	case errors.Is(err, os.ErrNotExist):
		logging.Debug("ConfigLoader", "No %s in %s", PackageManifestFile, root)
	case err != nil:
		return nil, &ConfigurationErrorCollection{Errors: []ConfigurationError{{
			FilePath:  filepath.Join(root, PackageManifestFile),
			Category:  CategoryPackage,
			ErrorType: ErrorTypeParse,
			Message:   "package manifest is not valid JSON",
			Details:   err.Error(),
		}}}
	default:
		raw.Package = pkg
	}

	return raw, nil
}

func decode(path string, data []byte, raw *RawConfig) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		// TOML is normalized through YAML so the same shape rules apply.
		var generic map[string]any
		if _, err := toml.Decode(string(data), &generic); err != nil {
			return err
		}
		normalized, err := yaml.Marshal(generic)
		if err != nil {
			return fmt.Errorf("normalizing TOML: %w", err)
		}
		data = normalized
	case ".yaml", ".yml", ".json":
		// JSON is a subset of YAML 1.2.
	default:
		return fmt.Errorf("unsupported configuration format %q", filepath.Ext(path))
	}
	return yaml.Unmarshal(data, raw)
}
