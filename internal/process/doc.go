// Package process spawns external commands on behalf of commoners: service
// processes, the bundler, the desktop packager and the mobile bridge CLI.
//
// Every command runs in its own process group so stopping it also stops the
// children it forked (npx, shells, language servers). The tail of each
// command's combined output is kept in a bounded buffer and attached to
// errors, which keeps build failures diagnosable without holding whole logs
// in memory.
package process
