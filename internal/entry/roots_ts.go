package entry

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

// RootsTsProvider parses a file like frontend/roots.ts and extracts
// entries from:
//
//	Name: { moduleFactory: () => import(/* webpackChunkName: "Name" */ "./components/foo/root") }
//
// Entries are named by object key by default, optionally by
// webpackChunkName. Adapted from the teacher's
// internal/scan/providers/root_ts.go, which discovers component-graph
// scan roots the same way; here the discovered file is a compile
// target instead.
type RootsTsProvider struct {
	File     string // path to roots.ts (relative to workspace or absolute)
	NameFrom string // "objectKey" (default) or "webpackChunkName"
}

var reRootMember = regexp.MustCompile(`(?s)([A-Za-z0-9_]+)\s*:\s*{[^}]*?moduleFactory\s*:\s*\(\s*\)\s*=>\s*import\(\s*(?:/\*\s*webpackChunkName:\s*"(.*?)"\s*\*/\s*)?['"]([^'"]+)['"]\s*\)`)

func (r RootsTsProvider) Discover(ctx context.Context, workspaceRoot string) ([]Entry, error) {
	path := r.File
	if !filepath.IsAbs(path) {
		path = filepath.Clean(filepath.Join(workspaceRoot, r.File))
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read roots.ts: %w", err)
	}

	matches := reRootMember.FindAllStringSubmatch(string(b), -1)
	entries := make([]Entry, 0, len(matches))

	baseDir := filepath.Dir(path)
	for _, m := range matches {
		objectKey := m[1]
		chunkName := m[2]
		importRel := m[3]

		name := objectKey
		if r.NameFrom == "webpackChunkName" && chunkName != "" {
			name = chunkName
		}

		entryPath := importRel
		if !filepath.IsAbs(entryPath) {
			entryPath = filepath.Clean(filepath.Join(baseDir, importRel))
		}

		entries = append(entries, Entry{Name: name, Path: entryPath})
	}

	return entries, nil
}
