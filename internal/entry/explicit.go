package entry

import (
	"context"
	"path/filepath"
)

// ExplicitProvider names a single entry directly, as spelled out in an
// EntrySpec{Type: "explicit"}.
type ExplicitProvider struct {
	Name      string
	Path      string
	Component string
}

func (e ExplicitProvider) Discover(ctx context.Context, workspaceRoot string) ([]Entry, error) {
	p := e.Path
	if !filepath.IsAbs(p) {
		p = filepath.Clean(filepath.Join(workspaceRoot, p))
	}
	return []Entry{{Name: e.Name, Path: p, Component: e.Component}}, nil
}
