package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/lindaliu1/endangered-ocean/internal/config"
	"github.com/lindaliu1/endangered-ocean/internal/scrape"
)

var loadDetails string

// loadCmd represents the load command
var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load scraped species into Postgres",
	Long: `Load upserts the scraped species details into Postgres and rebuilds
the species-threat links. Reloading the same file is safe: records match
on (source, source_record_id), links are replaced per species, and
stored blurbs survive a reload that carries none.

Example:
  oceand load
  oceand load --details data/noaa_details.json`,
	Args: cobra.NoArgs,
	RunE: runLoad,
}

func init() {
	rootCmd.AddCommand(loadCmd)

	loadCmd.Flags().StringVar(&loadDetails, "details", "", "details artifact path (default: <data-dir>/"+scrape.DetailsArtifact+")")
}

func runLoad(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	path := loadDetails
	if path == "" {
		path = cfg.ArtifactPath(scrape.DetailsArtifact)
	}

	species, err := scrape.LoadSpecies(path)
	if err != nil {
		return fmt.Errorf("read details: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	st, cleanup, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := st.EnsureSchema(ctx); err != nil {
		return err
	}

	summary, err := st.LoadSpecies(ctx, species)
	if err != nil {
		return err
	}

	fmt.Println(summary.String())
	return nil
}
