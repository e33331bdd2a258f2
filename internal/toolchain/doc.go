// Package toolchain drives the external tools a project is built with: the
// frontend bundler, the desktop packager and the mobile bridge CLI. Every
// tool is started through a process.Spawner and its output is forwarded to
// the logger line by line.
package toolchain
