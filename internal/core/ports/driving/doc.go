// Package driving lists the operations the CLI and the MCP server invoke.
// internal/core/services provides every implementation; adapters depend
// on these interfaces only.
package driving
