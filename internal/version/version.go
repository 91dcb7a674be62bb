// Package version holds build metadata for the tool.
package version

const toolName = "codex-vibe-monitor"

// Version can be overridden at build time via
// -ldflags "-X .../internal/version.Version=x.y.z".
var Version = "0.1.0"

// UserAgent returns the User-Agent value sent with every upstream request.
func UserAgent() string {
	return toolName + "/" + Version
}
