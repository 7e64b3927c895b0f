package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lindaliu1/endangered-ocean/internal/analyze"
	"github.com/lindaliu1/endangered-ocean/internal/config"
	"github.com/lindaliu1/endangered-ocean/internal/scrape"
)

var analyzeDetails string

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Summarize depth and threat extraction from scraped details",
	Long: `Analyze reads the scraped species details and reports how the
extraction went:
- Depth coverage by provenance (explicit statements vs habitat buckets)
- Canonical threat category counts
- Raw threat phrase frequencies

Summary tables print to stdout; depth_notes.json, threats.json, and
normalized_threats.json are written into the data directory.

Example:
  oceand analyze
  oceand analyze --details data/noaa_details.json`,
	Args: cobra.NoArgs,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&analyzeDetails, "details", "", "details artifact path (default: <data-dir>/"+scrape.DetailsArtifact+")")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	path := analyzeDetails
	if path == "" {
		path = cfg.ArtifactPath(scrape.DetailsArtifact)
	}

	species, err := scrape.LoadSpecies(path)
	if err != nil {
		return fmt.Errorf("read details: %w", err)
	}

	report := analyze.Build(species)
	report.Render(os.Stdout)

	written, err := report.WriteArtifacts(cfg.Data.Dir)
	if err != nil {
		return err
	}
	for _, p := range written {
		fmt.Fprintf(os.Stderr, "✓ Wrote %s\n", p)
	}
	return nil
}
