package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/barefootsplit/bfc/internal/emit/server"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func fsReader() FileReader {
	return func(path string) ([]byte, bool) {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, false
		}
		return b, true
	}
}

func TestCompile_SingleComponentProducesClientAndServerFiles(t *testing.T) {
	dir := t.TempDir()
	counter := writeFile(t, dir, "Counter.tsx", `
import { createSignal } from 'runtime'

export default function Counter() {
	const [n, setN] = createSignal(0)
	return (
		<div>
			<p>{n()}</p>
			<button onClick={() => setN(k => k + 1)}>+</button>
		</div>
	)
}
`)

	m := Compile([]Target{{Path: counter}}, fsReader(), server.NewTemplateAdapter())

	require.Empty(t, m.Diagnostics.All())
	require.Len(t, m.Results, 1)
	require.Equal(t, "Counter", m.Results[0].Name)
	require.True(t, m.Results[0].IsPrincipal)
	require.Contains(t, m.Results[0].ClientBody, "createSignal(0)")

	cf, ok := m.ClientFiles[counter]
	require.True(t, ok)
	require.Contains(t, cf.Source, "createSignal(0)")

	sf, ok := m.ServerFiles[counter]
	require.True(t, ok)
	require.Contains(t, sf.Source, `{{define "Counter"}}`)
}

func TestCompile_ChildComponentAcrossFilesCompilesDependencyFirst(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Button.tsx", `
export default function Button({ label, onClick }) {
	return <button onClick={onClick}>{label}</button>
}
`)
	app := writeFile(t, dir, "App.tsx", `
import Button from './Button'

export default function App() {
	return <div><Button label="go" onClick={() => {}} /></div>
}
`)

	m := Compile([]Target{{Path: app}}, fsReader(), server.NewTemplateAdapter())

	require.Empty(t, m.Diagnostics.All())
	require.Len(t, m.Results, 2)
	require.Equal(t, "Button", m.Results[0].Name, "dependency must compile before dependent")
	require.Equal(t, "App", m.Results[1].Name)

	require.True(t, m.Graph.DependsOn(filepath.Join(dir, "App.tsx"), filepath.Join(dir, "Button.tsx")))
}

func TestCompile_NamedImportWithAliasResolvesToExportedName(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "controls.tsx", `
export function Button({ label }) {
	return <button>{label}</button>
}
`)
	app := writeFile(t, dir, "App.tsx", `
import { Button as UIButton } from './controls'

export default function App() {
	return <div><UIButton label="go" /></div>
}
`)

	m := Compile([]Target{{Path: app}}, fsReader(), server.NewTemplateAdapter())

	require.Empty(t, m.Diagnostics.All())
	names := []string{}
	for _, r := range m.Results {
		names = append(names, r.Name)
	}
	require.Contains(t, names, "Button")
	require.Contains(t, names, "App")
}

func TestCompile_InstantiationCycleIsNonFatalAndTerminates(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "A.tsx", `
import B from './B'
export default function A() {
	return <div><B /></div>
}
`)
	b := writeFile(t, dir, "B.tsx", `
import A from './A'
export default function B() {
	return <div><A /></div>
}
`)

	m := Compile([]Target{{Path: b}}, fsReader(), server.NewTemplateAdapter())

	require.False(t, m.Diagnostics.HasFatal())
	require.Equal(t, 0, m.Diagnostics.ExitCode())

	found := false
	for _, d := range m.Diagnostics.All() {
		if d.Kind == "cycle" {
			found = true
		}
	}
	require.True(t, found, "expected a cycle diagnostic")
}

func TestCompile_UnresolvedChildComponentIsFatal(t *testing.T) {
	dir := t.TempDir()
	app := writeFile(t, dir, "App.tsx", `
import Missing from './Missing'
export default function App() {
	return <div><Missing /></div>
}
`)

	m := Compile([]Target{{Path: app}}, fsReader(), server.NewTemplateAdapter())
	require.True(t, m.Diagnostics.HasFatal())
	require.Equal(t, 1, m.Diagnostics.ExitCode())
}

func TestCompile_ModuleConstantReferencedByEventHandlerReachesClientOutput(t *testing.T) {
	dir := t.TempDir()
	panel := writeFile(t, dir, "Panel.tsx", `
const STYLES = { highlight: 'hl' }

export default function Panel() {
	const [n, setN] = createSignal(0)
	return (
		<div class={STYLES}>
			<button onClick={() => setN(STYLES.highlight.length)}>{n()}</button>
		</div>
	)
}
`)

	m := Compile([]Target{{Path: panel}}, fsReader(), server.NewTemplateAdapter())

	require.Empty(t, m.Diagnostics.All())
	require.Len(t, m.Results, 1)
	require.Contains(t, m.Results[0].ClientBody, "const STYLES = { highlight: 'hl' }")
}

func TestCompile_ModuleConstantOnlyInStaticClassIsOmittedFromClientOutput(t *testing.T) {
	dir := t.TempDir()
	panel := writeFile(t, dir, "Panel.tsx", `
const STYLES = { highlight: 'hl' }

export default function Panel() {
	const [n, setN] = createSignal(0)
	return (
		<div class={STYLES}>
			<button onClick={() => setN(k => k + 1)}>{n()}</button>
		</div>
	)
}
`)

	m := Compile([]Target{{Path: panel}}, fsReader(), server.NewTemplateAdapter())

	require.Empty(t, m.Diagnostics.All())
	require.Len(t, m.Results, 1)
	require.NotContains(t, m.Results[0].ClientBody, "STYLES")
}

func TestCompile_ReassignedClientUsedConstantEmitsAnalysisWarning(t *testing.T) {
	dir := t.TempDir()
	panel := writeFile(t, dir, "Panel.tsx", `
let COUNT = 0

export default function Panel() {
	const [n, setN] = createSignal(0)
	COUNT = COUNT + 1
	return <button onClick={() => setN(COUNT)}>{n()}</button>
}
`)

	m := Compile([]Target{{Path: panel}}, fsReader(), server.NewTemplateAdapter())

	require.False(t, m.Diagnostics.HasFatal())
	found := false
	for _, d := range m.Diagnostics.All() {
		if d.Kind == "analysis" && d.Code == "reassigned-client-constant" {
			found = true
		}
	}
	require.True(t, found, "expected an analysis diagnostic for the reassigned, client-used constant")
}

func TestCompile_SharedComponentAcrossTwoEntriesCompiledOnce(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Button.tsx", `
export default function Button() {
	return <button>go</button>
}
`)
	page1 := writeFile(t, dir, "Page1.tsx", `
import Button from './Button'
export default function Page1() {
	return <div><Button /></div>
}
`)
	page2 := writeFile(t, dir, "Page2.tsx", `
import Button from './Button'
export default function Page2() {
	return <div><Button /></div>
}
`)

	m := Compile([]Target{{Path: page1}, {Path: page2}}, fsReader(), server.NewTemplateAdapter())

	require.Empty(t, m.Diagnostics.All())
	count := 0
	for _, r := range m.Results {
		if r.Name == "Button" {
			count++
		}
	}
	require.Equal(t, 1, count, "Button should be compiled once and reused from cache")
}
