// Package app wires one commoners invocation together.
//
// NewApplication initializes logging, loads the project configuration,
// resolves it for the requested target and platform, and creates the
// service manager, toolchain and output directory. Configuration errors are
// returned from NewApplication, before any process has been spawned.
//
// The three modes map to the CLI commands:
//
//   - Dev starts every service, writes the runtime config with the assigned
//     ports, then starts the frontend dev server. Services are not waited on
//     for readiness. A ServiceWatcher restarts a service when its source
//     changes.
//   - Build runs the plan produced by internal/planner, or prints it with
//     DryRun.
//   - Launch serves the built output over HTTP for web targets, runs the
//     desktop shell for desktop, and reports mobile as unsupported.
//
// Close runs the exit hooks: services and the dev server are stopped and
// transient files are removed. It runs at most once, whichever of normal
// return, error or signal comes first.
package app
