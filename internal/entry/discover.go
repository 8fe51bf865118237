package entry

import (
	"context"
	"fmt"

	"github.com/barefootsplit/bfc/internal/compiler"
	"github.com/barefootsplit/bfc/internal/config"
	"github.com/barefootsplit/bfc/internal/resolve"
)

// ProvidersFromSpecs maps config.EntrySpec values into concrete
// providers, the way the CLI layer would have previously hand-wired
// scan.EntrySpec into providers.Provider before this package existed.
func ProvidersFromSpecs(specs []config.EntrySpec) ([]Provider, error) {
	providers := make([]Provider, 0, len(specs))
	for _, s := range specs {
		switch s.Type {
		case "explicit":
			providers = append(providers, ExplicitProvider{Name: s.Name, Path: s.Path, Component: s.Component})
		case "rootsTs":
			providers = append(providers, RootsTsProvider{File: s.File, NameFrom: s.NameFrom})
		default:
			return nil, fmt.Errorf("entry: unknown entry type %q", s.Type)
		}
	}
	return providers, nil
}

// Targets runs every provider against workspaceRoot and resolves each
// discovered Entry to a compiler.Target, probing for a file extension
// or index file the way resolve.ResolveFile does for a plain import
// specifier. An entry whose path doesn't resolve to a real file makes
// Targets return an error (and no targets) rather than being silently
// skipped.
func Targets(ctx context.Context, providers []Provider, workspaceRoot string) ([]compiler.Target, error) {
	var targets []compiler.Target
	for _, p := range providers {
		entries, err := p.Discover(ctx, workspaceRoot)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			path, ok := resolve.ResolveFile(e.Path)
			if !ok {
				return nil, fmt.Errorf("entry: %q (%s) does not resolve to a file", e.Name, e.Path)
			}
			targets = append(targets, compiler.Target{Path: path, Name: e.Component})
		}
	}
	return targets, nil
}
