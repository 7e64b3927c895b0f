package scrape

import (
	"fmt"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"

	"github.com/lindaliu1/endangered-ocean/internal/model"
)

// Artifact filenames under the data directory.
const (
	ListArtifact    = "noaa_list.json"
	DetailsArtifact = "noaa_details.json"
	RunArtifact     = "scrape_run.json"
)

// WriteJSON writes v as indented JSON at path, creating parent
// directories as needed.
func WriteJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode artifact: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	return nil
}

// LoadEntries reads a directory listing artifact.
func LoadEntries(path string) ([]model.ListEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read listing artifact: %w", err)
	}
	var entries []model.ListEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode listing artifact: %w", err)
	}
	return entries, nil
}

// LoadSpecies reads a species details artifact.
func LoadSpecies(path string) ([]model.Species, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read species artifact: %w", err)
	}
	var species []model.Species
	if err := json.Unmarshal(data, &species); err != nil {
		return nil, fmt.Errorf("decode species artifact: %w", err)
	}
	return species, nil
}
