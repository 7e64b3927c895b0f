package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lindaliu1/endangered-ocean/internal/config"
	"github.com/lindaliu1/endangered-ocean/internal/enrich"
	"github.com/lindaliu1/endangered-ocean/internal/model"
	"github.com/lindaliu1/endangered-ocean/internal/scrape"
)

var (
	enrichLimit   int
	enrichDetails string
	enrichDB      bool
)

// enrichCmd represents the enrich command
var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Generate missing species blurbs with OpenAI",
	Long: `Enrich fills in a short factual blurb for every species that does not
have one yet. Prompts carry only scraped facts (name, status, threats,
habitat notes); blurbs are display text and never feed back into depth
or threat extraction.

By default blurbs are written back into the details artifact so a later
"oceand load" carries them into Postgres. With --db the candidates come
straight from the database and blurbs are stored directly.

Requires OPENAI_API_KEY.

Example:
  oceand enrich --limit 5
  oceand enrich --db`,
	Args: cobra.NoArgs,
	RunE: runEnrich,
}

func init() {
	rootCmd.AddCommand(enrichCmd)

	enrichCmd.Flags().IntVar(&enrichLimit, "limit", 0, "enrich at most N species (0 = all)")
	enrichCmd.Flags().StringVar(&enrichDetails, "details", "", "details artifact path (default: <data-dir>/"+scrape.DetailsArtifact+")")
	enrichCmd.Flags().BoolVar(&enrichDB, "db", false, "read candidates from Postgres and write blurbs back there")
}

func runEnrich(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	enricher, err := enrich.NewEnricher(enrich.Options{
		APIKey:   cfg.Enrich.OpenAIKey,
		Model:    cfg.Enrich.Model,
		MaxWords: cfg.Enrich.MaxWords,
		Logger:   newLogger("enrich"),
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if enrichDB {
		return enrichStore(ctx, cfg, enricher)
	}
	return enrichArtifact(ctx, cfg, enricher)
}

// enrichArtifact rewrites the details JSON with generated blurbs.
func enrichArtifact(ctx context.Context, cfg *config.Config, enricher *enrich.Enricher) error {
	path := enrichDetails
	if path == "" {
		path = cfg.ArtifactPath(scrape.DetailsArtifact)
	}

	species, err := scrape.LoadSpecies(path)
	if err != nil {
		return fmt.Errorf("read details: %w", err)
	}

	updated, failed := 0, 0
	for i := range species {
		if species[i].Blurb != "" {
			continue
		}
		if enrichLimit > 0 && updated+failed >= enrichLimit {
			break
		}

		blurb, err := enricher.Blurb(ctx, subjectFromSpecies(&species[i]))
		if err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", species[i].CommonName, err)
			if ctx.Err() != nil {
				break
			}
			continue
		}
		species[i].Blurb = blurb
		updated++
		fmt.Fprintf(os.Stderr, "✓ %s\n", species[i].CommonName)
	}

	if updated > 0 {
		if err := scrape.WriteJSON(path, species); err != nil {
			return fmt.Errorf("write details: %w", err)
		}
	}

	fmt.Fprintf(os.Stderr, "\nEnriched %d species (%d failed)\n", updated, failed)
	if failed > 0 && updated == 0 {
		return fmt.Errorf("all %d enrichments failed", failed)
	}
	return nil
}

// enrichStore generates blurbs for database rows missing one.
func enrichStore(ctx context.Context, cfg *config.Config, enricher *enrich.Enricher) error {
	st, cleanup, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	candidates, err := st.ListSpeciesWithoutBlurb(ctx, enrichLimit)
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		fmt.Fprintln(os.Stderr, "Nothing to enrich: every species has a blurb")
		return nil
	}

	updated, failed := 0, 0
	for _, c := range candidates {
		blurb, err := enricher.Blurb(ctx, enrich.Subject{
			CommonName:     c.CommonName,
			ScientificName: c.ScientificName,
			Status:         c.Status,
			DepthNotes:     c.DepthNotes,
			Threats:        []string(c.Threats),
		})
		if err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", c.CommonName, err)
			if ctx.Err() != nil {
				break
			}
			continue
		}
		if err := st.UpdateBlurb(ctx, c.ID, blurb); err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", c.CommonName, err)
			continue
		}
		updated++
		fmt.Fprintf(os.Stderr, "✓ %s\n", c.CommonName)
	}

	fmt.Fprintf(os.Stderr, "\nEnriched %d species (%d failed)\n", updated, failed)
	if failed > 0 && updated == 0 {
		return fmt.Errorf("all %d enrichments failed", failed)
	}
	return nil
}

func subjectFromSpecies(sp *model.Species) enrich.Subject {
	return enrich.Subject{
		CommonName:     sp.CommonName,
		ScientificName: sp.ScientificName,
		Status:         string(sp.Status),
		DepthNotes:     sp.DepthNotes,
		Threats:        sp.Threats,
	}
}
