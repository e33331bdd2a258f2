package config

import (
	"fmt"
	"sort"
)

// Validate checks the shape of every services and plugins entry and returns a
// *ConfigurationErrorCollection, or nil when the configuration is usable.
// Validate never reads the file system or starts anything.
func Validate(raw *RawConfig) error {
	errs := NewConfigurationErrorCollection()
	if raw == nil {
		errs.AddValidation(CategoryFile, "", "configuration is empty")
		return errs
	}

	names := make([]string, 0, len(raw.Services))
	for name := range raw.Services {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if name == "" {
			errs.AddValidation(CategoryServices, name, "service name is empty")
			continue
		}
		if reason := raw.Services[name].Invalid(); reason != "" {
			errs.AddValidation(CategoryServices, name, reason)
		}
	}

	seen := make(map[string]int, len(raw.Plugins))
	for i, p := range raw.Plugins {
		key := fmt.Sprintf("#%d", i)
		if p != nil && p.Name != "" {
			key = p.Name
		}
		if reason := p.Invalid(); reason != "" {
			errs.AddValidation(CategoryPlugins, key, reason)
			continue
		}
		if prev, dup := seen[p.Name]; dup {
			errs.AddValidation(CategoryPlugins, key, fmt.Sprintf("duplicate plugin name (first declared at #%d)", prev))
			continue
		}
		seen[p.Name] = i
	}

	for i := range errs.Errors {
		errs.Errors[i].FilePath = raw.Path
	}
	return errs.ErrOrNil()
}
