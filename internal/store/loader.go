package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/lindaliu1/endangered-ocean/internal/model"
)

const upsertSpeciesSQL = `
INSERT INTO species (
  source,
  source_record_id,
  detail_url,
  common_name,
  scientific_name,
  status,
  image_url,
  min_depth_m,
  max_depth_m,
  depth_notes,
  depth_source,
  blurb
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (source, source_record_id)
DO UPDATE SET
  detail_url = EXCLUDED.detail_url,
  common_name = EXCLUDED.common_name,
  scientific_name = EXCLUDED.scientific_name,
  status = EXCLUDED.status,
  image_url = EXCLUDED.image_url,
  min_depth_m = EXCLUDED.min_depth_m,
  max_depth_m = EXCLUDED.max_depth_m,
  depth_notes = EXCLUDED.depth_notes,
  depth_source = EXCLUDED.depth_source,
  blurb = COALESCE(EXCLUDED.blurb, species.blurb)
RETURNING id
`

const upsertThreatSQL = `
INSERT INTO threat (name)
VALUES ($1)
ON CONFLICT (name)
DO UPDATE SET name = EXCLUDED.name
RETURNING id
`

const deleteSpeciesThreatsSQL = `
DELETE FROM species_threat
WHERE species_id = $1
`

const insertSpeciesThreatSQL = `
INSERT INTO species_threat (species_id, threat_id)
VALUES ($1, $2)
ON CONFLICT (species_id, threat_id) DO NOTHING
`

// LoadSummary reports what a load run changed.
type LoadSummary struct {
	SpeciesUpserted int
	LinksInserted   int
	TotalSpecies    int
}

func (s LoadSummary) String() string {
	return fmt.Sprintf("OK: upserted %d species; inserted %d species_threat links; db species rows now %d",
		s.SpeciesUpserted, s.LinksInserted, s.TotalSpecies)
}

// LoadSpecies upserts scraped species rows and replaces their threat links
// in a single transaction. Reloading the same data is idempotent; a reload
// without blurbs keeps any blurbs already stored.
func (s *Store) LoadSpecies(ctx context.Context, rows []model.Species) (*LoadSummary, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin load: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	summary := &LoadSummary{}
	for i := range rows {
		sp := &rows[i]
		id, err := upsertSpecies(ctx, tx, sp)
		if err != nil {
			return nil, err
		}
		summary.SpeciesUpserted++

		inserted, err := replaceSpeciesThreats(ctx, tx, id, sp.Threats)
		if err != nil {
			return nil, err
		}
		summary.LinksInserted += inserted
	}

	if err := tx.GetContext(ctx, &summary.TotalSpecies, countSpeciesSQL); err != nil {
		return nil, fmt.Errorf("count species: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit load: %w", err)
	}
	return summary, nil
}

func upsertSpecies(ctx context.Context, tx *sqlx.Tx, sp *model.Species) (int64, error) {
	var id int64
	err := tx.GetContext(ctx, &id, upsertSpeciesSQL,
		sp.Source,
		sp.SourceRecordID,
		sp.DetailURL,
		sp.CommonName,
		sp.ScientificName,
		string(sp.Status),
		sp.ImageURL,
		sp.MinDepthM,
		sp.MaxDepthM,
		sp.DepthNotes,
		string(sp.DepthSource),
		nullable(sp.Blurb),
	)
	if err != nil {
		return 0, fmt.Errorf("upsert species %q: %w", sp.SourceRecordID, err)
	}
	return id, nil
}

// replaceSpeciesThreats clears the species' threat links and relinks the
// given names, returning how many links were newly inserted.
func replaceSpeciesThreats(ctx context.Context, tx *sqlx.Tx, speciesID int64, names []string) (int, error) {
	if _, err := tx.ExecContext(ctx, deleteSpeciesThreatsSQL, speciesID); err != nil {
		return 0, fmt.Errorf("clear threats for species %d: %w", speciesID, err)
	}

	inserted := 0
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		var threatID int64
		if err := tx.GetContext(ctx, &threatID, upsertThreatSQL, name); err != nil {
			return 0, fmt.Errorf("upsert threat %q: %w", name, err)
		}
		res, err := tx.ExecContext(ctx, insertSpeciesThreatSQL, speciesID, threatID)
		if err != nil {
			return 0, fmt.Errorf("link species %d to threat %d: %w", speciesID, threatID, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}
	return inserted, nil
}

const updateBlurbSQL = `
UPDATE species
SET blurb = $2
WHERE id = $1
`

// UpdateBlurb stores generated blurb text for one species.
func (s *Store) UpdateBlurb(ctx context.Context, id int64, blurb string) error {
	res, err := s.db.ExecContext(ctx, updateBlurbSQL, id, nullable(blurb))
	if err != nil {
		return fmt.Errorf("update blurb for species %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
