// Package misc keeps build time program identification.
package misc

// Set by the linker: -ldflags "-X silk/misc.version=... -X silk/misc.gitHash=...".
var (
	version = "dev"
	gitHash = "unknown"
)

// GetVersion returns program version.
func GetVersion() string {
	return version
}

// GetGitHash returns git hash of the source tree program was built from.
func GetGitHash() string {
	return gitHash
}

// GetAppName returns program name used for logs, reports and default file names.
func GetAppName() string {
	return "silk"
}
