// Package version exposes build identification, overridable at link time
// with -ldflags "-X ...".
package version

var (
	// Version is the release tag, or "dev" for local builds.
	Version = "dev"
	// GitSHA is the commit the binary was built from.
	GitSHA = "unknown"
	// BuildTime is the build timestamp.
	BuildTime = "unknown"
)

// String returns a short human-readable build identifier.
func String() string {
	return Version + " (" + GitSHA + ")"
}
