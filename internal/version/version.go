// Package version exposes the build version, overridden at link time
// with -ldflags "-X ...version.Version=v1.2.3".
package version

// Version is the server build version.
var Version = "dev"
