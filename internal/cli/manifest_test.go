package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/barefootsplit/bfc/internal/combine"
	"github.com/barefootsplit/bfc/internal/compiler"
	"github.com/barefootsplit/bfc/internal/diag"
	"github.com/barefootsplit/bfc/internal/graph"
)

func TestBuildManifestDoc_IncludesOutputFilenamesAndDiagnostics(t *testing.T) {
	g := graph.New()
	g.AddEdge("App.tsx", "Button.tsx")
	bag := &diag.Bag{}
	bag.Cycle("import-cycle", "informational", diag.Span{Path: "App.tsx"})

	m := &compiler.Manifest{
		Results: []*compiler.Result{
			{Key: "App.tsx", Name: "App", SourcePath: "App.tsx", IsPrincipal: true},
		},
		ClientFiles: map[string]combine.ClientFile{
			"App.tsx": {Filename: "App-abc123.js"},
		},
		ServerFiles: map[string]combine.ServerFile{
			"App.tsx": {Filename: "App-abc123.server"},
		},
		Graph:       g,
		Diagnostics: bag,
	}

	doc := buildManifestDoc(m)
	require.Len(t, doc.Components, 1)
	require.Equal(t, "App-abc123.js", doc.Components[0].ClientFile)
	require.Equal(t, "App-abc123.server", doc.Components[0].ServerFile)
	require.Len(t, doc.Diagnostics, 1)
	require.Equal(t, 0, doc.ExitCode)

	raw, err := marshalManifest(doc)
	require.NoError(t, err)

	var roundTripped struct {
		Graph *graph.Graph `json:"graph"`
	}
	roundTripped.Graph = graph.New()
	require.NoError(t, json.Unmarshal(raw, &roundTripped))
	require.True(t, roundTripped.Graph.DependsOn("App.tsx", "Button.tsx"))
}

func TestOutputPath_MirrorsSourceDirectoryRelativeToRoot(t *testing.T) {
	root := "/workspace/src"
	source := "/workspace/src/components/Button.tsx"
	got := outputPath("dist", root, source, "Button-abc123.js")
	require.Equal(t, filepath.Join("dist", "components", "Button-abc123.js"), got)
}

func TestOutputPath_FallsBackWhenSourceOutsideRoot(t *testing.T) {
	got := outputPath("dist", "/workspace/src", "/elsewhere/Button.tsx", "Button-abc123.js")
	require.Equal(t, filepath.Join("dist", "/elsewhere", "Button-abc123.js"), got)
}
