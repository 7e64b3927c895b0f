package scrape

import (
	"path/filepath"
	"testing"

	"github.com/lindaliu1/endangered-ocean/internal/model"
)

func TestWriteJSON_CreatesDirsAndRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data", DetailsArtifact)

	min, max := 30, 61
	species := []model.Species{{
		Source:         "noaa",
		SourceRecordID: "blue-whale",
		CommonName:     "Blue Whale",
		Status:         model.StatusEndangered,
		MinDepthM:      &min,
		MaxDepthM:      &max,
		DepthSource:    model.DepthSourceExplicit,
		RawThreats:     []string{"Vessel strikes"},
		Threats:        []string{"fishing"},
	}}

	if err := WriteJSON(path, species); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	loaded, err := LoadSpecies(path)
	if err != nil {
		t.Fatalf("LoadSpecies failed: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("expected 1 species, got %d", len(loaded))
	}
	if loaded[0].CommonName != "Blue Whale" || loaded[0].DepthSource != model.DepthSourceExplicit {
		t.Errorf("unexpected record: %+v", loaded[0])
	}
	if loaded[0].MinDepthM == nil || *loaded[0].MinDepthM != 30 {
		t.Errorf("min depth lost in round trip: %v", loaded[0].MinDepthM)
	}
}

func TestLoadEntries_MissingFile(t *testing.T) {
	_, err := LoadEntries(filepath.Join(t.TempDir(), "nope.json"))
	if err == nil {
		t.Fatal("expected error for missing artifact")
	}
}
