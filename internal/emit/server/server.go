// Package server implements spec.md §4.5/§6.1: the adapter-mediated
// server emitter. The core walks the IR once and hands an adapter
// everything §6.1 promises; adapters decide textual packaging.
package server

import (
	"github.com/barefootsplit/bfc/internal/analyze"
	"github.com/barefootsplit/bfc/internal/extract"
	"github.com/barefootsplit/bfc/internal/ir"
)

// ComponentInput is everything §6.1's generateServerComponent contract
// guarantees an adapter: the component's signature, its IR, the
// analyzer's needs/paths, and the raw extraction fields needed to decide
// what is server-only vs. client-shared.
type ComponentInput struct {
	Name             string
	Props            []extract.Prop
	JSX              ir.Node
	Needs            *analyze.Needs
	Paths            map[int]*analyze.Path
	Signals          []extract.Signal
	Memos            []extract.Memo
	ChildComponents  []*ir.ChildComponent
	ModuleConstants  []*extract.Const
	LocalVars        []extract.LocalVar
	LocalFunctions   []extract.LocalFunc
	OriginalImports  []extract.Import
	SourcePath       string
	IsDefaultExport  bool
	// IsRootEligible mirrors spec.md §4.6(a): true when the component has
	// props or instantiates children, so it is addressed by the
	// auto-hydration bootstrap. TemplateAdapter does not read it: it emits
	// the data-bf-props sibling for every component.
	IsRootEligible bool
}

// ServerFileInput is §4.7's `generateServerFile({ sourcePath, components,
// moduleConstants, originalImports })`.
type ServerFileInput struct {
	SourcePath      string
	Components      []*ComponentInput
	ModuleConstants []*extract.Const
	OriginalImports []extract.Import
}

// Adapter is the pluggable server-emission strategy of spec.md §6.1.
type Adapter interface {
	// GenerateServerComponent renders one component's server-side source.
	GenerateServerComponent(in *ComponentInput) (string, error)
}

// FileAdapter is the optional combined-file operation. An Adapter that
// also implements FileAdapter can emit one file covering every component
// in a source file instead of one artifact per component.
type FileAdapter interface {
	GenerateServerFile(in *ServerFileInput, perComponent []string) (string, error)
}
