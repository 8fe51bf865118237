package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"

	"github.com/barefootsplit/bfc/internal/graph"
)

var (
	manifestFile string
	impactedOf   string
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Query the component graph from a previously written manifest.json",
	RunE:  runGraph,
}

func init() {
	graphCmd.Flags().StringVar(&manifestFile, "manifest", "dist/manifest.json", "manifest.json written by compile")
	graphCmd.Flags().StringVar(&impactedOf, "impacted", "", "print every component that (directly or transitively) instantiates this component key")
	rootCmd.AddCommand(graphCmd)
}

func runGraph(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(manifestFile)
	if err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}

	var doc struct {
		Graph *graph.Graph `json:"graph"`
	}
	doc.Graph = graph.New()
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse manifest: %w", err)
	}

	if impactedOf == "" {
		b, err := json.Marshal(doc.Graph)
		if err != nil {
			return err
		}
		os.Stdout.Write(pretty.Pretty(b))
		return nil
	}

	impacted := doc.Graph.Impacted(impactedOf)
	log.Info("impacted components", "of", impactedOf, "count", len(impacted))
	b, err := json.Marshal(impacted)
	if err != nil {
		return err
	}
	os.Stdout.Write(pretty.Pretty(b))
	return nil
}
