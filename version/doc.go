// Package version reports build information for the evtsrc binary.
//
// Version, commit and build time can be set at link time:
//
//	go build -ldflags "-X github.com/kbukum/evtsrc/version.Version=1.0.0" ./cmd/evtsrc
//
// Unset values fall back to the module's embedded VCS build settings.
package version
