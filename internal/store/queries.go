package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

const listSpeciesSQL = `
SELECT
  s.id,
  s.source,
  s.source_record_id,
  s.detail_url,
  s.common_name,
  s.scientific_name,
  s.status,
  s.image_url,
  s.min_depth_m,
  s.max_depth_m,
  s.blurb,
  COALESCE(array_remove(array_agg(DISTINCT t.name), NULL), ARRAY[]::text[]) AS threats
FROM species s
LEFT JOIN species_threat st ON st.species_id = s.id
LEFT JOIN threat t ON t.id = st.threat_id
WHERE
  ($1::text IS NULL OR s.status = $1)
  AND (
    $2::text IS NULL OR s.id IN (
      SELECT st2.species_id
      FROM species_threat st2
      JOIN threat t2 ON t2.id = st2.threat_id
      WHERE t2.name = $2
    )
  )
GROUP BY s.id
ORDER BY s.common_name ASC
LIMIT $3
OFFSET $4
`

const getSpeciesSQL = `
SELECT
  s.id,
  s.source,
  s.source_record_id,
  s.detail_url,
  s.common_name,
  s.scientific_name,
  s.status,
  s.image_url,
  s.min_depth_m,
  s.max_depth_m,
  s.blurb,
  COALESCE(array_remove(array_agg(DISTINCT t.name), NULL), ARRAY[]::text[]) AS threats
FROM species s
LEFT JOIN species_threat st ON st.species_id = s.id
LEFT JOIN threat t ON t.id = st.threat_id
WHERE s.id = $1
GROUP BY s.id
`

const listThreatsSQL = `
SELECT id, name
FROM threat
ORDER BY name ASC
`

const countSpeciesSQL = `SELECT COUNT(*) FROM species`

// SpeciesRecord is a persisted species row as served by the API.
type SpeciesRecord struct {
	ID             int64    `json:"id"`
	Source         string   `json:"source"`
	SourceRecordID string   `json:"source_record_id"`
	DetailURL      string   `json:"detail_url"`
	CommonName     string   `json:"common_name"`
	ScientificName string   `json:"scientific_name"`
	Status         string   `json:"status"`
	ImageURL       string   `json:"image_url"`
	MinDepthM      *int     `json:"min_depth_m"`
	MaxDepthM      *int     `json:"max_depth_m"`
	Blurb          string   `json:"blurb,omitempty"`
	Threats        []string `json:"threats"`
}

// ThreatRecord is a persisted threat category.
type ThreatRecord struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// SpeciesFilter narrows and pages the species listing.
type SpeciesFilter struct {
	Status string // exact conservation status, empty for all
	Threat string // exact threat name, empty for all
	Limit  int
	Offset int
}

func (f SpeciesFilter) normalized() SpeciesFilter {
	if f.Limit <= 0 {
		f.Limit = 100
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

type speciesRow struct {
	ID             int64          `db:"id"`
	Source         string         `db:"source"`
	SourceRecordID string         `db:"source_record_id"`
	DetailURL      string         `db:"detail_url"`
	CommonName     string         `db:"common_name"`
	ScientificName string         `db:"scientific_name"`
	Status         string         `db:"status"`
	ImageURL       string         `db:"image_url"`
	MinDepthM      sql.NullInt64  `db:"min_depth_m"`
	MaxDepthM      sql.NullInt64  `db:"max_depth_m"`
	Blurb          sql.NullString `db:"blurb"`
	Threats        pq.StringArray `db:"threats"`
}

func (r *speciesRow) toRecord() SpeciesRecord {
	rec := SpeciesRecord{
		ID:             r.ID,
		Source:         r.Source,
		SourceRecordID: r.SourceRecordID,
		DetailURL:      r.DetailURL,
		CommonName:     r.CommonName,
		ScientificName: r.ScientificName,
		Status:         r.Status,
		ImageURL:       r.ImageURL,
		Blurb:          r.Blurb.String,
		Threats:        []string(r.Threats),
	}
	if r.MinDepthM.Valid {
		v := int(r.MinDepthM.Int64)
		rec.MinDepthM = &v
	}
	if r.MaxDepthM.Valid {
		v := int(r.MaxDepthM.Int64)
		rec.MaxDepthM = &v
	}
	if rec.Threats == nil {
		rec.Threats = []string{}
	}
	return rec
}

// ListSpecies returns species matching the filter, ordered by common name.
func (s *Store) ListSpecies(ctx context.Context, f SpeciesFilter) ([]SpeciesRecord, error) {
	f = f.normalized()

	var rows []speciesRow
	err := s.db.SelectContext(ctx, &rows, listSpeciesSQL,
		nullable(f.Status), nullable(f.Threat), f.Limit, f.Offset)
	if err != nil {
		return nil, fmt.Errorf("list species: %w", err)
	}

	out := make([]SpeciesRecord, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toRecord())
	}
	return out, nil
}

// GetSpecies returns one species by id, or ErrNotFound.
func (s *Store) GetSpecies(ctx context.Context, id int64) (*SpeciesRecord, error) {
	var row speciesRow
	err := s.db.GetContext(ctx, &row, getSpeciesSQL, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get species %d: %w", id, err)
	}
	rec := row.toRecord()
	return &rec, nil
}

// ListThreats returns all threat categories ordered by name.
func (s *Store) ListThreats(ctx context.Context) ([]ThreatRecord, error) {
	var out []ThreatRecord
	if err := s.db.SelectContext(ctx, &out, listThreatsSQL); err != nil {
		return nil, fmt.Errorf("list threats: %w", err)
	}
	if out == nil {
		out = []ThreatRecord{}
	}
	return out, nil
}

// CountSpecies returns the total number of species rows.
func (s *Store) CountSpecies(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, countSpeciesSQL); err != nil {
		return 0, fmt.Errorf("count species: %w", err)
	}
	return n, nil
}

const listSpeciesWithoutBlurbSQL = `
SELECT
  s.id,
  s.common_name,
  s.scientific_name,
  s.status,
  COALESCE(s.depth_notes, '') AS depth_notes,
  COALESCE(array_remove(array_agg(DISTINCT t.name), NULL), ARRAY[]::text[]) AS threats
FROM species s
LEFT JOIN species_threat st ON st.species_id = s.id
LEFT JOIN threat t ON t.id = st.threat_id
WHERE s.blurb IS NULL OR s.blurb = ''
GROUP BY s.id
ORDER BY s.common_name ASC
LIMIT $1
`

// BlurbCandidate is a species row that still needs generated blurb text.
type BlurbCandidate struct {
	ID             int64          `db:"id"`
	CommonName     string         `db:"common_name"`
	ScientificName string         `db:"scientific_name"`
	Status         string         `db:"status"`
	DepthNotes     string         `db:"depth_notes"`
	Threats        pq.StringArray `db:"threats"`
}

// ListSpeciesWithoutBlurb returns species that have no blurb yet, ordered
// by common name. A limit of zero or less returns all of them.
func (s *Store) ListSpeciesWithoutBlurb(ctx context.Context, limit int) ([]BlurbCandidate, error) {
	lim := sql.NullInt64{Int64: int64(limit), Valid: limit > 0}

	var out []BlurbCandidate
	if err := s.db.SelectContext(ctx, &out, listSpeciesWithoutBlurbSQL, lim); err != nil {
		return nil, fmt.Errorf("list species without blurb: %w", err)
	}
	return out, nil
}
