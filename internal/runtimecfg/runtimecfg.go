// Package runtimecfg defines what a runtime context (renderer, preload,
// mobile web view, browser) is allowed to see of a resolved configuration.
//
// Config is the only shape that crosses that boundary. Anything not declared
// here (build commands, service sources and environments, plugin main
// fragments, extra resources) cannot leak because there is no field for it.
package runtimecfg

import (
	"encoding/json"
	"fmt"
	"sort"

	"commoners/internal/config"
)

// ServicesEnvVar carries the sanitized service map to the bundler process.
const ServicesEnvVar = "COMMONERS_SERVICES"

// Config is the runtime payload embedded in generated files.
type Config struct {
	Name     string             `json:"name"`
	AppID    string             `json:"appId"`
	Version  string             `json:"version"`
	Target   string             `json:"target"`
	Platform string             `json:"platform"`
	Services map[string]Service `json:"services"`
	Plugins  []Plugin           `json:"plugins"`
}

// Service is a service endpoint as seen by the frontend.
type Service struct {
	URL  string `json:"url,omitempty"`
	Port int    `json:"port,omitempty"`
}

// Plugin is a sanitized plugin. Preload and Render are only present on
// targets that may run them.
type Plugin struct {
	Name    string         `json:"name"`
	Preload string         `json:"preload,omitempty"`
	Render  string         `json:"render,omitempty"`
	Options map[string]any `json:"options,omitempty"`
}

// New assembles the payload for one target. plugins must already be sanitized.
func New(cfg *config.ResolvedConfig, target, platform string, services map[string]Service, plugins []Plugin) Config {
	if services == nil {
		services = map[string]Service{}
	}
	if plugins == nil {
		plugins = []Plugin{}
	}
	return Config{
		Name:     cfg.Name,
		AppID:    cfg.AppID,
		Version:  cfg.Version,
		Target:   target,
		Platform: platform,
		Services: services,
		Plugins:  plugins,
	}
}

// Services builds the endpoint map. Ports assigned at run time take
// precedence over configured ones; services without a known port get no URL.
func Services(cfg *config.ResolvedConfig, assigned map[string]int) map[string]Service {
	out := make(map[string]Service, len(cfg.Services))
	for _, name := range cfg.ServiceNames() {
		port := cfg.Services[name].Port
		if p, ok := assigned[name]; ok && p > 0 {
			port = p
		}
		svc := Service{Port: port}
		if port > 0 {
			svc.URL = URL(port)
		}
		out[name] = svc
	}
	return out
}

// URL returns the loopback address of a service port.
func URL(port int) string {
	return fmt.Sprintf("http://localhost:%d", port)
}

// EncodeServices returns the value of ServicesEnvVar for a service map.
func EncodeServices(services map[string]Service) (string, error) {
	data, err := json.Marshal(services)
	if err != nil {
		return "", fmt.Errorf("encoding %s: %w", ServicesEnvVar, err)
	}
	return string(data), nil
}

// ServicesEnv returns the KEY=VALUE entry passing the service map to a child
// process.
func ServicesEnv(services map[string]Service) (string, error) {
	value, err := EncodeServices(services)
	if err != nil {
		return "", err
	}
	return ServicesEnvVar + "=" + value, nil
}

// DecodeServices parses the value of ServicesEnvVar.
func DecodeServices(value string) (map[string]Service, error) {
	out := map[string]Service{}
	if value == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(value), &out); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", ServicesEnvVar, err)
	}
	return out, nil
}

// JSON renders the payload with stable key order.
func (c Config) JSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// PluginNames lists the plugin names present in the payload.
func (c Config) PluginNames() []string {
	names := make([]string, 0, len(c.Plugins))
	for _, p := range c.Plugins {
		names = append(names, p.Name)
	}
	sort.Strings(names)
	return names
}
