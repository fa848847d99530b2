// Package version exposes the build version injected at link time.
package version

// version is overridden via -ldflags "-X .../internal/version.version=vX.Y.Z".
var version = "v0.0.0"

// Value returns the build version string.
func Value() string {
	return version
}
