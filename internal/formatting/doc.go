// Package formatting renders command output: build plans and service status
// as tables, and the resolved configuration as JSON or YAML.
package formatting
