// Package resolve implements spec.md §4.1: resolving an import specifier
// relative to a requesting file, keying components for the compiler's
// cache, and picking a file's principal component.
package resolve

import (
	"os"
	"path/filepath"
	"strings"
)

// FileExists is overridable in tests; production code always uses
// os.Stat.
var FileExists = func(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// IsRelative reports whether spec is a relative or absolute path
// specifier, as opposed to a bare package name.
func IsRelative(spec string) bool {
	return strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../") || strings.HasPrefix(spec, "/")
}

// Resolve implements the §4.1 contract: resolve(basePath, importSpecifier)
// → absolutePath, trying "<spec>.tsx" before "<spec>/index.tsx". basePath
// is the file containing the import. Non-relative specifiers (bare
// package names) are not resolved to a file; ok is false.
func Resolve(basePath, spec string) (path string, ok bool) {
	if !IsRelative(spec) {
		return "", false
	}
	base := filepath.Dir(basePath)
	candidate := filepath.Clean(filepath.Join(base, spec))

	// Exact path, if the specifier already names a file.
	if FileExists(candidate) {
		return candidate, true
	}

	// "./X" -> "./X.tsx" (then .ts, for type-only modules).
	for _, ext := range []string{".tsx", ".ts"} {
		if filepath.Ext(candidate) == "" {
			if try := candidate + ext; FileExists(try) {
				return try, true
			}
		}
	}

	// "./X" -> "./X/index.tsx".
	for _, ext := range []string{".tsx", ".ts"} {
		if try := filepath.Join(candidate, "index"+ext); FileExists(try) {
			return try, true
		}
	}

	return "", false
}

// ResolveFile probes an already-absolute (or cwd-relative) candidate
// path the same way Resolve probes a specifier, trying the bare path
// first and then ".tsx"/".ts"/"/index.tsx"/"/index.ts". Used by
// internal/entry to turn a discovered entry path (which, e.g. from a
// roots.ts extensionless import, may not name a file directly) into a
// concrete source file.
func ResolveFile(candidate string) (path string, ok bool) {
	candidate = filepath.Clean(candidate)
	if FileExists(candidate) {
		return candidate, true
	}
	for _, ext := range []string{".tsx", ".ts"} {
		if filepath.Ext(candidate) == "" {
			if try := candidate + ext; FileExists(try) {
				return try, true
			}
		}
	}
	for _, ext := range []string{".tsx", ".ts"} {
		if try := filepath.Join(candidate, "index"+ext); FileExists(try) {
			return try, true
		}
	}
	return "", false
}

// ComponentKey implements the §4.1 keying rule: a file's principal
// component is keyed "<path>"; every other component declared in that
// file (non-principal exports, local components) is keyed
// "<path>#<Name>".
func ComponentKey(path, name string, isPrincipal bool) string {
	if isPrincipal {
		return path
	}
	return path + "#" + name
}

// ComponentNameFromFile capitalizes a file's base name (minus extension)
// for use as a fallback principal-component name, e.g. "button.tsx" -> "Button".
func ComponentNameFromFile(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return Capitalize(base)
}

// Capitalize upper-cases the first rune of s.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// IsIndexFile reports whether path's base name (without extension) is
// "index".
func IsIndexFile(path string) bool {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return base == "index"
}

// ContainingDirName returns the capitalized name of path's containing
// directory, used by the principal-component rule for index files:
// ".../Button/index.tsx" prefers an exported component named "Button".
func ContainingDirName(path string) string {
	return Capitalize(filepath.Base(filepath.Dir(path)))
}
