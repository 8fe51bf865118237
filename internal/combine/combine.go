// Package combine implements spec.md §4.7: grouping a source file's
// compiled components into one client script and (optionally) one
// server file, deduplicating imports, and deriving a content-addressed
// output filename so that any change to a contained component changes
// the file's URL.
package combine

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/barefootsplit/bfc/internal/emit/server"
	"github.com/barefootsplit/bfc/internal/extract"
	"github.com/barefootsplit/bfc/internal/hashutil"
)

// ComponentArtifact is one compiled component's pieces, as produced by
// internal/emit/client and internal/emit/server, gathered here for
// combination. ClientBody is empty for components with no client needs
// (spec.md §4.6) and such components contribute nothing to the client
// file besides their absence.
type ComponentArtifact struct {
	Name            string
	ClientBody      string
	ServerBody      string
	ModuleConstants []*extract.Const
	Signals         []extract.Signal
	Memos           []extract.Memo
}

// File is one source file's components plus the imports the original
// file carried, gathered for combination.
type File struct {
	SourcePath      string
	Components      []*ComponentArtifact
	ModuleConstants []*extract.Const
	OriginalImports []extract.Import
}

// ClientFile is the combined client-script output for one source file:
// its text and its content-addressed filename.
type ClientFile struct {
	Filename string
	Source   string
	Hash     string
}

// CombineClient implements §4.7's client half: one script per file,
// sharing deduplicated imports, with a filename embedding a hash over
// every contained component's (constants + signals + memos + client
// body). Components with no client body (IsEmpty per spec.md §4.5)
// contribute no section but still participate in the hash only through
// their constants/signals/memos, which is moot since a component with
// no client needs also has none of those client-relevant bindings it
// didn't already fold into another component — in practice such
// components simply add nothing.
func CombineClient(f *File) ClientFile {
	var hashParts []string
	var body strings.Builder

	imports := dedupeImports(f.OriginalImports)
	for _, imp := range imports {
		body.WriteString(imp.Text)
		body.WriteString("\n")
	}
	if len(imports) > 0 {
		body.WriteString("\n")
	}

	for _, c := range f.Components {
		hashParts = append(hashParts, constsText(c.ModuleConstants), signalsText(c.Signals), memosText(c.Memos), c.ClientBody)
		if c.ClientBody == "" {
			continue
		}
		body.WriteString(c.ClientBody)
		body.WriteString("\n")
	}

	hash := hashutil.ContentHash(hashParts...)
	base := strings.TrimSuffix(filepath.Base(f.SourcePath), filepath.Ext(f.SourcePath))
	filename := fmt.Sprintf("%s-%s.js", base, hash)

	return ClientFile{Filename: filename, Source: body.String(), Hash: hash}
}

// dedupeImports merges import statements that share a source module,
// keeping the first-seen text for each module (§4.7: "deduplicates
// imports, merging by source module"). Distinct local bindings from the
// same module (e.g. a named import and a later default import) are
// preserved verbatim on first sight; the compiler does not attempt to
// merge their specifier lists textually, since re-synthesizing a merged
// import statement risks reordering named bindings the original author
// relied on.
func dedupeImports(imports []extract.Import) []extract.Import {
	seen := map[string]bool{}
	var out []extract.Import
	for _, imp := range imports {
		if seen[imp.Module] {
			continue
		}
		seen[imp.Module] = true
		out = append(out, imp)
	}
	return out
}

func constsText(consts []*extract.Const) string {
	var b strings.Builder
	for _, c := range consts {
		b.WriteString(c.Text)
	}
	return b.String()
}

func signalsText(signals []extract.Signal) string {
	var b strings.Builder
	for _, s := range signals {
		fmt.Fprintf(&b, "%s%s%s", s.Getter, s.Setter, s.Init)
	}
	return b.String()
}

func memosText(memos []extract.Memo) string {
	var b strings.Builder
	for _, m := range memos {
		fmt.Fprintf(&b, "%s%s", m.Getter, m.Expr)
	}
	return b.String()
}

// ServerFile is the combined server output for one source file.
type ServerFile struct {
	Filename string
	Source   string
}

// CombineServer implements §4.7's optional server half: when adapter
// also implements server.FileAdapter, it renders one file covering
// every component in in.Components (the adapter's own textual
// packaging); the filename shares the client file's content hash so
// that server and client artifacts for the same file version together.
// An adapter that doesn't implement FileAdapter has no combined-file
// concept, so CombineServer is skipped entirely by callers in that case
// (see internal/compiler).
func CombineServer(adapter server.FileAdapter, in *server.ServerFileInput, perComponent []string, contentHash string) (ServerFile, error) {
	src, err := adapter.GenerateServerFile(in, perComponent)
	if err != nil {
		return ServerFile{}, err
	}
	base := strings.TrimSuffix(filepath.Base(in.SourcePath), filepath.Ext(in.SourcePath))
	return ServerFile{Filename: fmt.Sprintf("%s-%s.server", base, contentHash), Source: src}, nil
}

// childPlaceholderPattern matches the inlining marker a parent's
// original source carries for a child whose client script should be
// absorbed in place, per §4.7: `import '/* @bf-child:Name */'`.
var childPlaceholderPattern = regexp.MustCompile(`@bf-child:([A-Za-z0-9_$]+)`)

// placeholderChildren returns the component names named by f's
// @bf-child placeholder imports, in source order.
func placeholderChildren(f *File) []string {
	var names []string
	for _, imp := range f.OriginalImports {
		if m := childPlaceholderPattern.FindStringSubmatch(imp.Text); m != nil {
			names = append(names, m[1])
		}
	}
	return names
}

// Inline absorbs every file reachable from root's @bf-child placeholder
// imports into one combined client file, depth-first, so that a
// parent's bundle contains its children's hydration code instead of
// requiring a second network request. byName resolves a component name
// to the File that defines it (a component may be the only component in
// its file, or one of several). Cycles are impossible here because
// component instantiation cannot be mutually recursive at the file
// level without an unresolved import already having failed earlier in
// the pipeline (§4.1); Inline does not re-detect them.
func Inline(root *File, byName map[string]*File) ClientFile {
	visited := map[string]bool{}
	var parts []*ComponentArtifact
	var importSets [][]extract.Import

	var walk func(f *File)
	walk = func(f *File) {
		if visited[f.SourcePath] {
			return
		}
		visited[f.SourcePath] = true
		importSets = append(importSets, f.OriginalImports)
		parts = append(parts, f.Components...)
		for _, childName := range placeholderChildren(f) {
			if cf, ok := byName[childName]; ok {
				walk(cf)
			}
		}
	}
	walk(root)

	var merged []extract.Import
	for _, set := range importSets {
		for _, imp := range set {
			if childPlaceholderPattern.MatchString(imp.Text) {
				continue // the placeholder itself is consumed by inlining, not re-emitted
			}
			merged = append(merged, imp)
		}
	}

	combined := &File{
		SourcePath:      root.SourcePath,
		Components:      parts,
		ModuleConstants: root.ModuleConstants,
		OriginalImports: merged,
	}
	return CombineClient(combined)
}
