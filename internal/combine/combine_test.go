package combine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/barefootsplit/bfc/internal/emit/server"
	"github.com/barefootsplit/bfc/internal/extract"
)

func TestCombineClient_DedupesImportsAndHashesOverAllComponents(t *testing.T) {
	f := &File{
		SourcePath: "src/Todos.tsx",
		OriginalImports: []extract.Import{
			{LocalName: "createSignal", Module: "bf", Text: `import { createSignal } from "bf"`},
			{LocalName: "createEffect", Module: "bf", Text: `import { createEffect } from "bf"`},
		},
		Components: []*ComponentArtifact{
			{Name: "Todos", ClientBody: "function initTodos() {}"},
			{Name: "Header", ClientBody: ""},
		},
	}
	out := CombineClient(f)

	require.Contains(t, out.Source, `import { createSignal } from "bf"`)
	require.NotContains(t, out.Source, `import { createEffect } from "bf"`)
	require.Contains(t, out.Source, "function initTodos() {}")
	require.Contains(t, out.Filename, "Todos-")
	require.Len(t, out.Hash, 16)
}

func TestCombineClient_HashChangesWhenAComponentBodyChanges(t *testing.T) {
	base := &File{SourcePath: "a.tsx", Components: []*ComponentArtifact{{Name: "A", ClientBody: "x"}}}
	changed := &File{SourcePath: "a.tsx", Components: []*ComponentArtifact{{Name: "A", ClientBody: "y"}}}

	require.NotEqual(t, CombineClient(base).Hash, CombineClient(changed).Hash)
}

func TestCombineClient_EmptyComponentContributesNoSection(t *testing.T) {
	f := &File{SourcePath: "Static.tsx", Components: []*ComponentArtifact{{Name: "Static", ClientBody: ""}}}
	out := CombineClient(f)
	require.Equal(t, "", out.Source)
}

func TestInline_AbsorbsPlaceholderChildDepthFirst(t *testing.T) {
	child := &File{
		SourcePath: "src/Row.tsx",
		Components: []*ComponentArtifact{{Name: "Row", ClientBody: "function initRow() {}"}},
	}
	parent := &File{
		SourcePath: "src/List.tsx",
		OriginalImports: []extract.Import{
			{Module: "./Row", Text: `import '/* @bf-child:Row */'`},
			{Module: "bf", Text: `import { createSignal } from "bf"`},
		},
		Components: []*ComponentArtifact{{Name: "List", ClientBody: "function initList() {}"}},
	}
	out := Inline(parent, map[string]*File{"Row": child})

	require.Contains(t, out.Source, "function initList() {}")
	require.Contains(t, out.Source, "function initRow() {}")
	require.Contains(t, out.Source, `import { createSignal } from "bf"`)
	require.NotContains(t, out.Source, "@bf-child")
}

func TestInline_MissingChildFileIsSkippedNotFatal(t *testing.T) {
	parent := &File{
		SourcePath: "src/List.tsx",
		OriginalImports: []extract.Import{
			{Module: "./Missing", Text: `import '/* @bf-child:Missing */'`},
		},
		Components: []*ComponentArtifact{{Name: "List", ClientBody: "function initList() {}"}},
	}
	out := Inline(parent, map[string]*File{})
	require.Contains(t, out.Source, "function initList() {}")
}

type stubFileAdapter struct{}

func (stubFileAdapter) GenerateServerComponent(in *server.ComponentInput) (string, error) {
	return "", nil
}

func (stubFileAdapter) GenerateServerFile(in *server.ServerFileInput, perComponent []string) (string, error) {
	out := "// " + in.SourcePath + "\n"
	for _, c := range perComponent {
		out += c
	}
	return out, nil
}

func TestCombineServer_SharesContentHashWithClientFile(t *testing.T) {
	f := &File{SourcePath: "src/Todos.tsx", Components: []*ComponentArtifact{{Name: "Todos", ClientBody: "body"}}}
	clientFile := CombineClient(f)

	adapter := stubFileAdapter{}
	in := &server.ServerFileInput{SourcePath: f.SourcePath}
	serverFile, err := CombineServer(adapter, in, []string{"rendered-todos"}, clientFile.Hash)

	require.NoError(t, err)
	require.Contains(t, serverFile.Filename, clientFile.Hash)
	require.Contains(t, serverFile.Source, "rendered-todos")
}
