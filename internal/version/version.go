// Package version provides build and version information.
package version

// Version is the current application version.
const Version = "0.3.0"

// Milestones:
// 0.3.0 - Desktop window presenter, screen saver mode, debug overlay
// 0.2.0 - Terminal half-block presenter, settings file, BMP snapshots
// 0.1.0 - Initial release: star field core, headless ASCII/BMP/summary export

// String returns the version banner printed by -version.
func String() string {
	return "ls-starfly v" + Version
}
