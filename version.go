// Package agentpresence provides the version information for agent-presence.
package agentpresence

// Version is the current version of agent-presence.
const Version = "0.1.0"

// GetVersion returns the current version string.
func GetVersion() string {
	return Version
}
