// Package compiler implements spec.md §5: the single-threaded
// cooperative driver that turns a set of entry targets into a manifest
// of compiled components, combined client/server files, and
// diagnostics. The only suspension point is the file-reading callback;
// everything else runs synchronously in one goroutine, unlike the
// teacher's tsgraph worker-pool graph build, which this package
// deliberately does not reuse as a concurrency model.
package compiler

import (
	"fmt"

	"github.com/barefootsplit/bfc/internal/analyze"
	"github.com/barefootsplit/bfc/internal/combine"
	"github.com/barefootsplit/bfc/internal/diag"
	"github.com/barefootsplit/bfc/internal/emit/client"
	"github.com/barefootsplit/bfc/internal/emit/server"
	"github.com/barefootsplit/bfc/internal/extract"
	"github.com/barefootsplit/bfc/internal/graph"
	"github.com/barefootsplit/bfc/internal/ir"
	"github.com/barefootsplit/bfc/internal/resolve"
	"github.com/barefootsplit/bfc/internal/transform"
)

// FileReader is the sole yielding operation in the compiler (spec.md
// §5): it returns a file's contents, or ok=false if the path doesn't
// exist or can't be read.
type FileReader func(path string) (content []byte, ok bool)

// ModuleResolver resolves an import specifier against the file that
// imports it, matching resolve.Resolve's contract. Compile uses
// resolve.Resolve by default; CompileWithResolver accepts a
// *resolve.AliasResolver (or any alias-aware strategy) in front of it so
// the SUPPLEMENTED tsconfig path-mapping resolution (§4.1) can
// participate in child-component lookup, not just the relative-path
// rule spec.md names explicitly.
type ModuleResolver func(basePath, spec string) (path string, ok bool)

// Target is one requested compile root: a file path and, optionally,
// the specific component name within it the caller wants (empty means
// "that file's principal component", per §4.1's named-target rule).
type Target struct {
	Path string
	Name string
}

// Result is one compiled component's artifacts.
type Result struct {
	Key             string
	Name            string
	SourcePath      string
	IsPrincipal     bool
	IsRootEligible  bool
	ServerSource    string
	ClientBody      string
	ModuleConstants []*extract.Const
	Signals         []extract.Signal
	Memos           []extract.Memo
}

// Manifest is the complete output of a compile: every component
// actually reached from the targets, combined per-file client (and
// optional server) artifacts, the instantiation graph, and every
// diagnostic collected along the way.
type Manifest struct {
	Results     []*Result
	ClientFiles map[string]combine.ClientFile
	ServerFiles map[string]combine.ServerFile
	Graph       *graph.Graph
	Diagnostics *diag.Bag
}

// placeholder is the result a requester sees when it asks for a
// component that is already being compiled further up its own call
// stack (spec.md §3/§5's cycle rule): empty sequences, no client
// behavior. It is never cached and never appears in Manifest.Results —
// the in-progress compile that's actually running for that key produces
// the real Result once it returns, and that's what gets cached under
// the key instead.
func placeholder(key, name, path string) *Result {
	return &Result{Key: key, Name: name, SourcePath: path}
}

type driver struct {
	read     FileReader
	resolve  ModuleResolver
	adapter  server.Adapter
	bag      *diag.Bag
	graph    *graph.Graph
	files    map[string]*extract.FileInfo
	cache    map[string]*Result
	inflight map[string]bool
	order    []*Result
}

// Compile compiles every target and everything reachable from it
// through child-component instantiation, resolving imports with the
// plain relative-path rule, and returns the manifest.
func Compile(targets []Target, read FileReader, adapter server.Adapter) *Manifest {
	return CompileWithResolver(targets, read, adapter, resolve.Resolve)
}

// CompileWithResolver is Compile with a caller-supplied module
// resolution strategy, e.g. a *resolve.AliasResolver wrapping tsconfig
// path mappings in front of the relative-path fallback.
func CompileWithResolver(targets []Target, read FileReader, adapter server.Adapter, moduleResolve ModuleResolver) *Manifest {
	d := &driver{
		read:     read,
		resolve:  moduleResolve,
		adapter:  adapter,
		bag:      &diag.Bag{},
		graph:    graph.New(),
		files:    map[string]*extract.FileInfo{},
		cache:    map[string]*Result{},
		inflight: map[string]bool{},
	}

	for _, t := range targets {
		d.compileComponent(t.Path, t.Name)
	}

	return d.manifest()
}

// fileInfo extracts path once and caches the result (including a nil
// cache entry for an unreadable or unparseable path, so a second
// reference doesn't re-attempt the read or re-report the diagnostic).
func (d *driver) fileInfo(path string) *extract.FileInfo {
	if fi, cached := d.files[path]; cached {
		return fi
	}
	content, ok := d.read(path)
	if !ok {
		d.bag.Resolution("module-not-found", fmt.Sprintf("could not read %q", path), diag.Span{Path: path})
		d.files[path] = nil
		return nil
	}
	fi := extract.ExtractFile(path, content, d.bag)
	d.files[path] = fi
	return fi
}

// selectPrincipal implements §4.1's principal-component rule: the
// default export if one exists; otherwise, for an index file, the
// exported component matching the capitalized containing directory
// name; otherwise the first exported component.
func selectPrincipal(path string, comps []*extract.Component) *extract.Component {
	for _, c := range comps {
		if c.IsDefaultExport {
			return c
		}
	}
	if resolve.IsIndexFile(path) {
		want := resolve.ContainingDirName(path)
		for _, c := range comps {
			if c.IsExported && c.Name == want {
				return c
			}
		}
	}
	for _, c := range comps {
		if c.IsExported {
			return c
		}
	}
	return nil
}

// lookupComponent resolves name (or, if empty, the principal) within
// fi, reporting whether the result is that file's principal.
func lookupComponent(path string, fi *extract.FileInfo, name string) (comp *extract.Component, isPrincipal bool) {
	principal := selectPrincipal(path, fi.Components)
	if name == "" {
		return principal, principal != nil
	}
	for _, c := range fi.Components {
		if c.Name == name {
			return c, c == principal
		}
	}
	return nil, false
}

// compileComponent is the recursive §5 DFS step: resolve (path, name)
// to a component, short-circuit on cache or in-progress cycle, then
// transform, analyze, and emit. Every child-component reference found
// along the way is compiled first (§5: "dependencies are fully compiled
// before their dependents"), which is also what makes locals and
// same-file siblings compile before the principal whenever the
// principal actually instantiates them, without any separate ordering
// pass.
func (d *driver) compileComponent(path, name string) *Result {
	fi := d.fileInfo(path)
	if fi == nil {
		return nil
	}
	comp, isPrincipal := lookupComponent(path, fi, name)
	if comp == nil {
		d.bag.Resolution("module-not-found", fmt.Sprintf("component %q not found in %s", name, path), diag.Span{Path: path})
		return nil
	}

	key := resolve.ComponentKey(path, comp.Name, isPrincipal)
	if r, ok := d.cache[key]; ok {
		return r
	}
	if d.inflight[key] {
		d.bag.Cycle("import-cycle", fmt.Sprintf("%s participates in a component instantiation cycle", key), diag.Span{Path: path})
		return placeholder(key, comp.Name, path)
	}
	d.inflight[key] = true
	defer delete(d.inflight, key)

	resolved := map[string]childRef{}
	ctx := &transform.Context{
		Src:      comp.Source,
		Path:     path,
		Alloc:    &transform.IDAllocator{},
		Reactive: transform.NewReactive(comp),
		Resolve:  d.makeResolver(path, fi, resolved),
		Bag:      d.bag,
	}
	diagsBefore := len(d.bag.All())
	jsx := transform.Transform(ctx, comp.JSXReturn)
	for _, dg := range d.bag.All()[diagsBefore:] {
		if dg.Fatal && dg.Span.Path == path {
			// A fatal finding in this component's own JSX leaves it with
			// empty outputs and keeps it out of d.order (the manifest).
			r := &Result{Key: key, Name: comp.Name, SourcePath: path, IsPrincipal: isPrincipal}
			d.cache[key] = r
			return r
		}
	}
	analyze.MarkClientUsedConstants(jsx, comp.ModuleConstants)
	for _, c := range comp.ModuleConstants {
		if c.Reassigned && c.ClientUsed {
			d.bag.Analysis("reassigned-client-constant", fmt.Sprintf("module constant %q is reassigned and also referenced client-side", c.Name), diag.Span{Path: path})
		}
	}

	needs := analyze.Collect(jsx)
	paths := analyze.Plan(jsx)

	var childComponents []*ir.ChildComponent
	for _, ci := range needs.ChildInstance {
		childComponents = append(childComponents, ci.Child)
		if ref, ok := resolved[ci.Child.Name]; ok {
			d.linkChild(key, ref.path, ref.name)
		}
	}

	isRootEligible := len(comp.Props) > 0 || len(childComponents) > 0

	clientBody := ""
	if !needs.IsEmpty() {
		clientBody = client.GenerateInitializer(&client.Input{
			Name:            comp.Name,
			Props:           comp.Props,
			JSX:             jsx,
			Needs:           needs,
			Paths:           paths,
			Signals:         comp.Signals,
			Memos:           comp.Memos,
			LocalFunctions:  comp.LocalFunctions,
			ModuleConstants: comp.ModuleConstants,
			ChildComponents: childComponents,
			IsRootEligible:  isRootEligible,
		})
	}

	serverSource, err := d.adapter.GenerateServerComponent(&server.ComponentInput{
		Name:            comp.Name,
		Props:           comp.Props,
		JSX:             jsx,
		Needs:           needs,
		Paths:           paths,
		Signals:         comp.Signals,
		Memos:           comp.Memos,
		ChildComponents: childComponents,
		ModuleConstants: comp.ModuleConstants,
		LocalVars:       comp.LocalVars,
		LocalFunctions:  comp.LocalFunctions,
		OriginalImports: comp.Imports,
		SourcePath:      path,
		IsDefaultExport: comp.IsDefaultExport,
		IsRootEligible:  isRootEligible,
	})
	if err != nil {
		d.bag.Analysis("server-emit-failed", err.Error(), diag.Span{Path: path})
	}

	result := &Result{
		Key:             key,
		Name:            comp.Name,
		SourcePath:      path,
		IsPrincipal:     isPrincipal,
		IsRootEligible:  isRootEligible,
		ServerSource:    serverSource,
		ClientBody:      clientBody,
		ModuleConstants: comp.ModuleConstants,
		Signals:         comp.Signals,
		Memos:           comp.Memos,
	}
	d.cache[key] = result
	d.order = append(d.order, result)
	d.graph.Touch(key)
	return result
}

// linkChild compiles an already-resolved target (recursively satisfying
// the dependencies-first ordering) and records the instantiation edge on
// the graph.
func (d *driver) linkChild(fromKey, targetPath, targetName string) {
	child := d.compileComponent(targetPath, targetName)
	if child == nil {
		return
	}
	if child.Key == fromKey {
		return
	}
	d.graph.AddEdge(fromKey, child.Key)
}

// resolveComponentLocation maps a JSX tag head to the file and
// component name it names: a same-file component if one is declared
// with that identifier, otherwise an imported binding resolved through
// d.resolve. A default import resolves to the target file's principal
// component (empty name); a named import resolves to the export named
// by the import's ImportedName, so an aliased import (`import { Foo as
// Bar }`) still finds Foo in the target file even though the JSX tag
// reads `<Bar />`.
func (d *driver) resolveComponentLocation(fromPath string, fi *extract.FileInfo, tagHead string) (path, name string, ok bool) {
	for _, c := range fi.Components {
		if c.Name == tagHead {
			return fromPath, tagHead, true
		}
	}
	for _, imp := range fi.Imports {
		if imp.LocalName != tagHead {
			continue
		}
		target, resolved := d.resolve(fromPath, imp.Module)
		if !resolved {
			return "", "", false
		}
		if imp.IsDefault {
			return target, "", true
		}
		return target, imp.ImportedName, true
	}
	return "", "", false
}

// childRef is where a resolved child-component tag actually lives: the
// file that declares it and the name it's declared under there (which
// may differ from the local JSX tag name after an aliased import).
type childRef struct {
	path string
	name string
}

// makeResolver builds the transform.Resolver fi's components use to
// recognize JSX tags that name a known component (same file or
// imported) vs. a merely-capitalized identifier with no definition. It
// returns the component's own declared name — not the local tag text —
// since that's what the generated init call must match (writeChildInit
// calls "init"+Name using whatever name ends up on the ir.ChildComponent
// node), and records the (path, name) pair under that canonical name in
// resolved so the caller can look the target back up without redoing
// the import-alias resolution from a name alone.
func (d *driver) makeResolver(path string, fi *extract.FileInfo, resolved map[string]childRef) transform.Resolver {
	return func(tagHead string) (string, bool) {
		targetPath, name, ok := d.resolveComponentLocation(path, fi, tagHead)
		if !ok {
			return tagHead, false
		}
		canonical := name
		if canonical == "" {
			targetFile := d.fileInfo(targetPath)
			if targetFile == nil {
				return tagHead, false
			}
			principal := selectPrincipal(targetPath, targetFile.Components)
			if principal == nil {
				return tagHead, false
			}
			canonical = principal.Name
		}
		resolved[canonical] = childRef{path: targetPath, name: canonical}
		return canonical, true
	}
}

// manifest assembles the final Manifest: every compiled result grouped
// by source file into combine.File, in first-reached order, so
// CombineClient (and, for adapters implementing FileAdapter,
// CombineServer) can produce the per-file artifacts §4.7 describes.
func (d *driver) manifest() *Manifest {
	m := &Manifest{
		Results:     d.order,
		ClientFiles: map[string]combine.ClientFile{},
		ServerFiles: map[string]combine.ServerFile{},
		Graph:       d.graph,
		Diagnostics: d.bag,
	}

	var fileOrder []string
	byFile := map[string][]*Result{}
	for _, r := range d.order {
		if _, seen := byFile[r.SourcePath]; !seen {
			fileOrder = append(fileOrder, r.SourcePath)
		}
		byFile[r.SourcePath] = append(byFile[r.SourcePath], r)
	}

	fileAdapter, combinesServer := d.adapter.(server.FileAdapter)

	for _, path := range fileOrder {
		results := byFile[path]
		fi := d.files[path]

		var artifacts []*combine.ComponentArtifact
		var perComponentServer []string
		var compInputs []*server.ComponentInput
		for _, r := range results {
			artifacts = append(artifacts, &combine.ComponentArtifact{
				Name:            r.Name,
				ClientBody:      r.ClientBody,
				ServerBody:      r.ServerSource,
				ModuleConstants: r.ModuleConstants,
				Signals:         r.Signals,
				Memos:           r.Memos,
			})
			perComponentServer = append(perComponentServer, r.ServerSource)
			compInputs = append(compInputs, &server.ComponentInput{Name: r.Name, SourcePath: path})
		}

		cf := combine.CombineClient(&combine.File{
			SourcePath:      path,
			Components:      artifacts,
			ModuleConstants: fi.ModuleConstants,
			OriginalImports: fi.Imports,
		})
		m.ClientFiles[path] = cf

		if combinesServer {
			sf, err := combine.CombineServer(fileAdapter, &server.ServerFileInput{
				SourcePath:      path,
				Components:      compInputs,
				ModuleConstants: fi.ModuleConstants,
				OriginalImports: fi.Imports,
			}, perComponentServer, cf.Hash)
			if err != nil {
				d.bag.Analysis("server-file-emit-failed", err.Error(), diag.Span{Path: path})
			} else {
				m.ServerFiles[path] = sf
			}
		}
	}

	return m
}
