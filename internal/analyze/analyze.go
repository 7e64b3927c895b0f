// Package analyze distills scraped species records into report
// artifacts: isolated depth narratives, raw threat frequencies and
// per-species normalized threat categories.
package analyze

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/lindaliu1/endangered-ocean/internal/model"
	"github.com/lindaliu1/endangered-ocean/internal/scrape"
	"github.com/lindaliu1/endangered-ocean/internal/threat"
)

// Artifact names written next to the scrape outputs.
const (
	DepthNotesArtifact        = "depth_notes.json"
	ThreatsArtifact           = "threats.json"
	NormalizedThreatsArtifact = "normalized_threats.json"
)

// DepthNote pairs a species with its habitat narrative.
type DepthNote struct {
	CommonName string `json:"common_name"`
	DepthNotes string `json:"depth_notes"`
}

// ThreatCount is how often a threat label appears across species.
type ThreatCount struct {
	Threat string `json:"threat"`
	Count  int    `json:"count"`
}

// NormalizedThreats maps one species' raw threat phrases to canonical
// categories.
type NormalizedThreats struct {
	Threats    []string `json:"threats"`
	Normalized []string `json:"normalized"`
}

// SourceCount is how many species a depth provenance tag covers.
type SourceCount struct {
	Source  string `json:"source"`
	Species int    `json:"species"`
}

// Report is everything the analyze stage derives from one scrape.
type Report struct {
	TotalSpecies   int
	WithDepthNotes int
	DepthSources   []SourceCount
	DepthNotes     []DepthNote
	ThreatCounts   []ThreatCount
	Categories     []ThreatCount
	Normalized     []NormalizedThreats
}

// Build runs every analysis over the scraped records.
func Build(species []model.Species) *Report {
	r := &Report{TotalSpecies: len(species)}
	r.DepthNotes = DepthNotes(species)
	r.WithDepthNotes = len(r.DepthNotes)
	r.DepthSources = depthSources(species)
	r.ThreatCounts = ThreatCounts(species)
	r.Categories = categoryCounts(species)
	r.Normalized = Normalized(species)
	return r
}

// DepthNotes keeps only species whose narrative is non-empty,
// preserving input order.
func DepthNotes(species []model.Species) []DepthNote {
	out := make([]DepthNote, 0, len(species))
	for i := range species {
		if species[i].DepthNotes == "" {
			continue
		}
		out = append(out, DepthNote{
			CommonName: species[i].CommonName,
			DepthNotes: species[i].DepthNotes,
		})
	}
	return out
}

// ThreatCounts tallies raw threat phrases, case-folded and trimmed,
// most frequent first with the phrase as tiebreak.
func ThreatCounts(species []model.Species) []ThreatCount {
	counts := map[string]int{}
	for i := range species {
		for _, raw := range species[i].RawThreats {
			phrase := strings.ToLower(strings.TrimSpace(raw))
			if phrase == "" {
				continue
			}
			counts[phrase]++
		}
	}
	return sortedCounts(counts)
}

// Normalized reports, per species with any raw threats, the canonical
// categories those phrases map to.
func Normalized(species []model.Species) []NormalizedThreats {
	norm := threat.NewNormalizer()
	out := make([]NormalizedThreats, 0, len(species))
	for i := range species {
		sp := &species[i]
		if len(sp.RawThreats) == 0 {
			continue
		}
		normalized := sp.Threats
		if normalized == nil {
			normalized = norm.Normalize(sp.RawThreats)
		}
		out = append(out, NormalizedThreats{
			Threats:    sp.RawThreats,
			Normalized: normalized,
		})
	}
	return out
}

// categoryCounts tallies species per canonical threat category.
func categoryCounts(species []model.Species) []ThreatCount {
	norm := threat.NewNormalizer()
	counts := map[string]int{}
	for i := range species {
		categories := species[i].Threats
		if categories == nil {
			categories = norm.Normalize(species[i].RawThreats)
		}
		for _, category := range categories {
			counts[category]++
		}
	}
	return sortedCounts(counts)
}

func sortedCounts(counts map[string]int) []ThreatCount {
	out := make([]ThreatCount, 0, len(counts))
	for label, n := range counts {
		out = append(out, ThreatCount{Threat: label, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Threat < out[j].Threat
	})
	return out
}

func depthSources(species []model.Species) []SourceCount {
	counts := map[string]int{}
	for i := range species {
		source := string(species[i].DepthSource)
		if source == "" {
			source = string(model.DepthSourceUnknown)
		}
		counts[source]++
	}
	out := make([]SourceCount, 0, len(counts))
	for source, n := range counts {
		out = append(out, SourceCount{Source: source, Species: n})
	}
	sort.Slice(out, func(i, j int) bool {
		ri, rj := sourceRank(out[i].Source), sourceRank(out[j].Source)
		if ri != rj {
			return ri < rj
		}
		return out[i].Source < out[j].Source
	})
	return out
}

func sourceRank(source string) int {
	switch {
	case source == string(model.DepthSourceExplicit):
		return 0
	case strings.HasPrefix(source, "bucket:"):
		return 1
	case source == string(model.DepthSourceUnknown):
		return 3
	default:
		return 2
	}
}

// WriteArtifacts persists the three report files under dir and returns
// their paths.
func (r *Report) WriteArtifacts(dir string) ([]string, error) {
	outputs := []struct {
		name string
		data any
	}{
		{DepthNotesArtifact, r.DepthNotes},
		{ThreatsArtifact, r.ThreatCounts},
		{NormalizedThreatsArtifact, r.Normalized},
	}
	paths := make([]string, 0, len(outputs))
	for _, out := range outputs {
		path := filepath.Join(dir, out.name)
		if err := scrape.WriteJSON(path, out.data); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
