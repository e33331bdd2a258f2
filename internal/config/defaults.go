package config

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// DefaultVersion is used when neither the config nor package.json has one.
	DefaultVersion = "0.0.0"

	// DefaultAppIDPattern derives an application id from the slugged name.
	DefaultAppIDPattern = "com.%s.app"
)

// DefaultRawConfig returns the configuration used when a project has no
// config file. Everything not listed here is derived during resolution.
func DefaultRawConfig() *RawConfig {
	return &RawConfig{
		Services: map[string]*ServiceDescriptor{},
	}
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slug lowercases s and replaces runs of other characters with a dash.
func Slug(s string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

// DefaultAppID derives an application id from a project name.
func DefaultAppID(name string) string {
	slug := strings.ReplaceAll(Slug(name), "-", "")
	if slug == "" {
		slug = "commoners"
	}
	return fmt.Sprintf(DefaultAppIDPattern, slug)
}
