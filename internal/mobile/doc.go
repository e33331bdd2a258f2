// Package mobile prepares a project for the native bridge toolchain.
//
// The bridge reads capacitor.config.json from the project root. When the
// user has not provided one, WriteBridgeConfig generates it from the
// resolved configuration: each active plugin with an installed bridge
// package contributes its options under its bridge name. The generated file
// is transient and is removed by an exit hook.
package mobile
