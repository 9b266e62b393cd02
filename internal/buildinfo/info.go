// Package buildinfo carries the version stamped in at link time.
package buildinfo

var (
	// Version is overridden via -ldflags at release time.
	Version = "dev"
	// Commit is the short hash of the built revision.
	Commit = "none"
	// Date is the build timestamp.
	Date = "unknown"
)
