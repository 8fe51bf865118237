package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tidwall/pretty"

	"github.com/barefootsplit/bfc/internal/compiler"
	"github.com/barefootsplit/bfc/internal/config"
	"github.com/barefootsplit/bfc/internal/emit/server"
	"github.com/barefootsplit/bfc/internal/entry"
	"github.com/barefootsplit/bfc/internal/resolve"
)

var jsonOut bool

var compileCmd = &cobra.Command{
	Use:   "compile [files...]",
	Short: "Compile entries (and everything they instantiate) to server and client output",
	RunE:  runCompile,
}

func init() {
	compileCmd.Flags().BoolVar(&jsonOut, "json", false, "pretty-print the manifest to stdout in addition to writing it")
	rootCmd.AddCommand(compileCmd)
}

func loadConfig(args []string) (config.Config, error) {
	var cfg config.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if cfg.Root == "" {
		cfg.Root = "."
	}
	if cfg.Adapter == "" {
		cfg.Adapter = "template"
	}
	for _, a := range args {
		cfg.Entries = append(cfg.Entries, config.EntrySpec{Type: "explicit", Name: filepath.Base(a), Path: a})
	}
	return cfg, nil
}

func resolveAdapter(name string) (server.Adapter, error) {
	switch name {
	case "", "template":
		return server.NewTemplateAdapter(), nil
	default:
		return nil, fmt.Errorf("unknown adapter %q", name)
	}
}

func fileReader() compiler.FileReader {
	return func(path string) ([]byte, bool) {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, false
		}
		return b, true
	}
}

func runCompile(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	if len(cfg.Entries) == 0 {
		return fmt.Errorf("no entries: pass files as arguments or list entries in the config file")
	}

	providers, err := entry.ProvidersFromSpecs(cfg.Entries)
	if err != nil {
		return err
	}
	targets, err := entry.Targets(context.Background(), providers, cfg.Root)
	if err != nil {
		return err
	}
	log.Info("discovered entries", "count", len(targets))

	adapter, err := resolveAdapter(cfg.Adapter)
	if err != nil {
		return err
	}

	var moduleResolve compiler.ModuleResolver = resolve.Resolve
	if cfg.AliasTS {
		moduleResolve = resolve.NewAliasResolver(cfg.Root).Resolve
	}

	manifest := compiler.CompileWithResolver(targets, fileReader(), adapter, moduleResolve)
	log.Info("compiled", "components", len(manifest.Results), "diagnostics", len(manifest.Diagnostics.All()))

	for _, d := range manifest.Diagnostics.All() {
		if d.Fatal {
			log.Error(d.Message, "kind", d.Kind, "code", d.Code, "at", d.Span.String())
		} else {
			log.Warn(d.Message, "kind", d.Kind, "code", d.Code, "at", d.Span.String())
		}
	}

	if err := writeOutputs(cfg.Out, cfg.Root, manifest); err != nil {
		return err
	}

	doc := buildManifestDoc(manifest)
	raw, err := marshalManifest(doc)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.MkdirAll(cfg.Out, 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(cfg.Out, "manifest.json"), pretty.Pretty(raw), 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	if jsonOut {
		os.Stdout.Write(pretty.Pretty(raw))
	}

	if code := manifest.Diagnostics.ExitCode(); code != 0 {
		os.Exit(code)
	}
	return nil
}

// writeOutputs writes each source file's combined client script and
// (when the adapter produces one) combined server file under outDir,
// mirroring the source path relative to root so files from different
// directories with the same base name never collide.
func writeOutputs(outDir, root string, m *compiler.Manifest) error {
	for path, cf := range m.ClientFiles {
		if cf.Source == "" {
			continue
		}
		dest := outputPath(outDir, root, path, cf.Filename)
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(dest, []byte(cf.Source), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", dest, err)
		}
	}
	for path, sf := range m.ServerFiles {
		dest := outputPath(outDir, root, path, sf.Filename)
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(dest, []byte(sf.Source), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", dest, err)
		}
	}
	return nil
}

func outputPath(outDir, root, sourcePath, filename string) string {
	rel, err := filepath.Rel(root, filepath.Dir(sourcePath))
	if err != nil || strings.HasPrefix(rel, "..") || filepath.IsAbs(rel) {
		rel = filepath.Dir(sourcePath)
	}
	return filepath.Join(outDir, rel, filename)
}
