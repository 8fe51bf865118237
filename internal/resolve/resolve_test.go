package resolve

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolve_ExtensionAndIndexProbing(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Button.tsx"), []byte(""), 0o644))
	compDir := filepath.Join(dir, "Card")
	require.NoError(t, os.MkdirAll(compDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(compDir, "index.tsx"), []byte(""), 0o644))

	from := filepath.Join(dir, "App.tsx")

	got, ok := Resolve(from, "./Button")
	require.True(t, ok)
	require.Equal(t, filepath.Join(dir, "Button.tsx"), got)

	got, ok = Resolve(from, "./Card")
	require.True(t, ok)
	require.Equal(t, filepath.Join(compDir, "index.tsx"), got)

	_, ok = Resolve(from, "react")
	require.False(t, ok, "bare package specifiers never resolve to a file")

	_, ok = Resolve(from, "./Missing")
	require.False(t, ok)
}

func TestResolveFile_ProbesExtensionAndIndexOnABarePath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "root.tsx"), []byte(""), 0o644))
	pageDir := filepath.Join(dir, "Page")
	require.NoError(t, os.MkdirAll(pageDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(pageDir, "index.tsx"), []byte(""), 0o644))

	got, ok := ResolveFile(filepath.Join(dir, "root"))
	require.True(t, ok)
	require.Equal(t, filepath.Join(dir, "root.tsx"), got)

	got, ok = ResolveFile(pageDir)
	require.True(t, ok)
	require.Equal(t, filepath.Join(pageDir, "index.tsx"), got)

	_, ok = ResolveFile(filepath.Join(dir, "Missing"))
	require.False(t, ok)
}

func TestComponentKey(t *testing.T) {
	require.Equal(t, "a/b.tsx", ComponentKey("a/b.tsx", "Widget", true))
	require.Equal(t, "a/b.tsx#Widget", ComponentKey("a/b.tsx", "Widget", false))
}

func TestPrincipalNameHelpers(t *testing.T) {
	require.True(t, IsIndexFile("/pkg/Button/index.tsx"))
	require.False(t, IsIndexFile("/pkg/Button.tsx"))
	require.Equal(t, "Button", ContainingDirName("/pkg/Button/index.tsx"))
	require.Equal(t, "Button", ComponentNameFromFile("/pkg/button.tsx"))
}
