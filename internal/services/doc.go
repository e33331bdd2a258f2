// Package services manages the auxiliary backend processes of a commoners
// project.
//
// A Manager owns at most one ServiceProcess per service name. Each process
// moves through the states
//
//	Stopped -> Starting -> Running -> Stopping -> Stopped
//
// and reaches Failed from Starting (spawn error) or Running (unexpected
// exit). Every transition is reported to the StateChangeCallback given in
// Options.
//
// # Launching
//
// StartAll starts every service in parallel. A service that fails to spawn
// is reported in the StartReport and left Failed; its siblings are not
// affected and the dev loop carries on without it. A service counts as
// running as soon as the OS started its process. No readiness probe gates
// anything that happens afterwards.
//
// Launch commands are Go templates with the sprig functions available:
//
//	services:
//	  api:
//	    command: uvicorn api:app --port {{ .Port }}
//
// The assigned port is also exported as PORT, together with the project's
// .env values and the service's own env entries.
//
// # Building
//
// Build runs a service's build command for one platform, falling back to the
// shared variant, and waits for it. BuildAll builds services one after the
// other so their logs stay attributable.
package services
