// Package logging provides the structured logger used across commoners.
//
// It is a thin layer over log/slog. Every entry carries a subsystem name so
// output from the resolver, the service manager and the build planner can be
// told apart:
//
//	logging.InitForCLI(logging.LevelInfo, os.Stderr)
//
//	logging.Info("Resolver", "Resolved %d services", len(cfg.Services))
//	logging.Warn("Plugins", "Plugin %s is not supported on %s", name, target)
//	logging.Error("Planner", err, "Step %s failed", step)
//
// Output of child processes (services, the bundler, the packager) is routed
// through a LineWriter so each line becomes one entry tagged with its origin:
//
//	w := logging.NewLineWriter("Service", logging.LevelInfo, slog.String("service", "api"))
//	cmd.Stdout = w
//
// Before Init is called, warnings and errors go to stderr and everything else
// is dropped.
package logging
