package resolve

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

// tsConfig models the subset of tsconfig.json the alias resolver cares
// about: compilerOptions.baseUrl and compilerOptions.paths.
type tsConfig struct {
	CompilerOptions struct {
		BaseURL string              `json:"baseUrl"`
		Paths   map[string][]string `json:"paths"`
	} `json:"compilerOptions"`
}

// AliasResolver layers tsconfig path-mapping resolution in front of the
// relative-import rule in Resolve. This supplements spec.md §4.1, which
// only specifies the relative-path case; every real TS/TSX codebase in
// the retrieval pack also supports `@app/*`-style aliases.
type AliasResolver struct {
	root    string
	baseDir string
	paths   map[string][]string
}

// NewAliasResolver loads tsconfig.base.json or tsconfig.json under root.
// A missing or unparseable config yields a resolver with no aliases,
// which behaves as a no-op (every lookup falls through to Resolve).
func NewAliasResolver(root string) *AliasResolver {
	r := &AliasResolver{root: root, baseDir: root}
	var cfg tsConfig
	for _, name := range []string{"tsconfig.base.json", "tsconfig.json"} {
		b, err := os.ReadFile(filepath.Join(root, name))
		if err != nil {
			continue
		}
		if json.Unmarshal(b, &cfg) == nil {
			break
		}
	}
	r.paths = cfg.CompilerOptions.Paths
	if cfg.CompilerOptions.BaseURL != "" {
		r.baseDir = filepath.Clean(filepath.Join(root, cfg.CompilerOptions.BaseURL))
	}
	return r
}

// Resolve tries alias patterns from compilerOptions.paths first, falling
// back to relative resolution via Resolve. Bare specifiers with no
// matching alias are left unresolved (ok=false): they name a package,
// not a file.
func (r *AliasResolver) Resolve(basePath, spec string) (string, bool) {
	if IsRelative(spec) {
		return Resolve(basePath, spec)
	}
	if len(r.paths) == 0 {
		return "", false
	}

	if globs, ok := r.paths[spec]; ok {
		for _, g := range globs {
			if p, ok := r.probe(g); ok {
				return p, true
			}
		}
	}

	for pattern, globs := range r.paths {
		if !strings.Contains(pattern, "*") {
			continue
		}
		head := strings.SplitN(pattern, "*", 2)[0]
		if !strings.HasPrefix(spec, head) {
			continue
		}
		tail := strings.TrimPrefix(spec, head)
		for _, g := range globs {
			target := strings.Replace(g, "*", tail, 1)
			if p, ok := r.probe(target); ok {
				return p, true
			}
		}
	}

	return "", false
}

// probe resolves a tsconfig path-mapping target (relative to baseDir) to
// a concrete file, reusing the extension/index-file probing from
// Resolve by treating the target as an import relative to a synthetic
// file inside baseDir.
func (r *AliasResolver) probe(target string) (string, bool) {
	synthetic := filepath.Join(r.baseDir, "__bfc_alias__.ts")
	spec := target
	if !IsRelative(spec) {
		spec = "./" + spec
	}
	return Resolve(synthetic, spec)
}
