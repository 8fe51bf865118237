// Package entry discovers compile targets (a file plus, optionally, a
// specific component name within it) from a workspace, the way the
// teacher's internal/scan/providers package discovers graph-scan roots.
package entry

import "context"

// Entry is one discovered compile target, before it's turned into a
// compiler.Target by resolving Path to an absolute file.
type Entry struct {
	Name      string
	Path      string
	Component string
}

// Provider discovers a set of entries given the workspace root. Mirrors
// the teacher's providers.Provider interface (internal/scan/providers/providers.go),
// generalized from "component-graph scan roots" to "compile targets".
type Provider interface {
	Discover(ctx context.Context, workspaceRoot string) ([]Entry, error)
}
