package cli

import (
	"encoding/json"

	"github.com/barefootsplit/bfc/internal/compiler"
	"github.com/barefootsplit/bfc/internal/diag"
	"github.com/barefootsplit/bfc/internal/graph"
)

// componentSummary is one compiled component's entry in the written
// manifest.json, trimmed to what a downstream tool (or the "graph"
// command) needs: enough to locate the output files and re-run impact
// queries without re-parsing the source tree.
type componentSummary struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	SourcePath  string `json:"sourcePath"`
	IsPrincipal bool   `json:"isPrincipal"`
	ClientFile  string `json:"clientFile,omitempty"`
	ServerFile  string `json:"serverFile,omitempty"`
}

// manifestDoc is the on-disk shape written by "compile" and read back by
// "graph".
type manifestDoc struct {
	Components  []componentSummary `json:"components"`
	Graph       *graph.Graph       `json:"graph"`
	Diagnostics []diag.Diagnostic  `json:"diagnostics"`
	ExitCode    int                `json:"exitCode"`
}

func buildManifestDoc(m *compiler.Manifest) manifestDoc {
	doc := manifestDoc{
		Graph:       m.Graph,
		Diagnostics: m.Diagnostics.All(),
		ExitCode:    m.Diagnostics.ExitCode(),
	}
	for _, r := range m.Results {
		cs := componentSummary{
			Key:         r.Key,
			Name:        r.Name,
			SourcePath:  r.SourcePath,
			IsPrincipal: r.IsPrincipal,
		}
		if cf, ok := m.ClientFiles[r.SourcePath]; ok {
			cs.ClientFile = cf.Filename
		}
		if sf, ok := m.ServerFiles[r.SourcePath]; ok {
			cs.ServerFile = sf.Filename
		}
		doc.Components = append(doc.Components, cs)
	}
	return doc
}

func marshalManifest(doc manifestDoc) ([]byte, error) {
	return json.Marshal(doc)
}
