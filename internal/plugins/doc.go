// Package plugins decides, per plugin and per target, whether a plugin is
// active and what of it may reach a runtime context.
//
// Plugin behaviour is provided by Go handlers registered by name in a
// Registry, never by evaluating strings from the configuration. A plugin's
// isSupported entry may name a handler implementing SupportChecker; the
// handler is called with the target and its verdict is used. A missing
// handler, a returned error or a panic all count as "not supported" and are
// logged, never propagated.
//
// Sanitize is the single way a plugin crosses into a runtime payload:
// main never crosses, preload and render only reach the desktop shell unless
// the plugin opts out of being electron-only, and inactive plugins do not
// cross at all.
package plugins
