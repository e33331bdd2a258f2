// Package project holds the invocation context threaded through every
// commoners component: the project root, the selected target and platform,
// and the output locations derived from them.
//
// Nothing in commoners reads the current target or platform from globals.
// The CLI builds one Context per invocation and passes it down explicitly,
// which keeps the resolver, the planner and the service manager testable in
// isolation.
package project
