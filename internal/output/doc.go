// Package output manages the build output directory shared by every step of
// a build plan.
//
// Dir serializes Clear and Populate within one invocation. Nothing protects
// the directory against a second commoners process; running two builds
// against the same output directory at once is not supported.
//
// Populate writes the files every target needs:
//
//	<outDir>/assets/...               icons, copied with their project relative path
//	<outDir>/commoners.config.json    the sanitized runtime payload
//	<outDir>/onload.js                installs the payload as globalThis.commoners
//	<outDir>/package.json             generated manifest for the shell
//	<outDir>/manifest.webmanifest     pwa only
//	<outDir>/sw.js                    pwa only
//
// All of them are regenerated on every build and are safe to delete.
package output
