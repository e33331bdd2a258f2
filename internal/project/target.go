package project

import (
	"fmt"
	"runtime"
	"strings"
)

// Target selects the packaging pipeline.
type Target string

const (
	TargetWeb     Target = "web"
	TargetDesktop Target = "desktop"
	TargetMobile  Target = "mobile"
	TargetPWA     Target = "pwa"
)

// Targets lists every supported target in a stable order.
var Targets = []Target{TargetWeb, TargetDesktop, TargetMobile, TargetPWA}

// ParseTarget validates a user supplied target name. An empty string selects
// the web target.
func ParseTarget(s string) (Target, error) {
	switch t := Target(strings.ToLower(strings.TrimSpace(s))); t {
	case "":
		return TargetWeb, nil
	case TargetWeb, TargetDesktop, TargetMobile, TargetPWA:
		return t, nil
	case "electron":
		return TargetDesktop, nil
	}
	return "", fmt.Errorf("unknown target %q (expected one of web, desktop, mobile, pwa)", s)
}

// IsShell reports whether the target runs inside the desktop shell, the only
// context where preload and render fragments are meaningful.
func (t Target) IsShell() bool {
	return t == TargetDesktop
}

// Platform is the operating system a build is produced for.
type Platform string

const (
	PlatformMac     Platform = "mac"
	PlatformWindows Platform = "windows"
	PlatformLinux   Platform = "linux"
	PlatformIOS     Platform = "ios"
	PlatformAndroid Platform = "android"
)

// ParsePlatform normalizes a platform name. darwin and win are accepted as
// aliases. An empty string selects the host platform.
func ParsePlatform(s string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return DefaultPlatform(), nil
	case "mac", "darwin", "macos", "osx":
		return PlatformMac, nil
	case "windows", "win", "win32":
		return PlatformWindows, nil
	case "linux":
		return PlatformLinux, nil
	case "ios":
		return PlatformIOS, nil
	case "android":
		return PlatformAndroid, nil
	}
	return "", fmt.Errorf("unknown platform %q", s)
}

// DefaultPlatform maps runtime.GOOS to a Platform.
func DefaultPlatform() Platform {
	switch runtime.GOOS {
	case "darwin":
		return PlatformMac
	case "windows":
		return PlatformWindows
	default:
		return PlatformLinux
	}
}

// IsMobile reports whether the platform is a mobile operating system.
func (p Platform) IsMobile() bool {
	return p == PlatformIOS || p == PlatformAndroid
}

// DefaultMobilePlatform is used when the mobile target is requested on a
// desktop host without an explicit platform.
func DefaultMobilePlatform() Platform {
	if runtime.GOOS == "darwin" {
		return PlatformIOS
	}
	return PlatformAndroid
}
