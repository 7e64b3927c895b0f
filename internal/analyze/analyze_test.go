package analyze

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/lindaliu1/endangered-ocean/internal/model"
)

func intp(v int) *int { return &v }

func testSpecies() []model.Species {
	return []model.Species{
		{
			CommonName:  "Blue Whale",
			DepthNotes:  "They dive to depths of 100 to 200 feet.",
			MinDepthM:   intp(30),
			MaxDepthM:   intp(61),
			DepthSource: model.DepthSourceExplicit,
			RawThreats:  []string{"Vessel strikes", "Entanglement in fishing gear", "Ocean noise"},
			Threats:     []string{"fishing"},
		},
		{
			CommonName:  "Green Turtle",
			DepthNotes:  "Green turtles graze in shallow seagrass beds.",
			MinDepthM:   intp(0),
			MaxDepthM:   intp(20),
			DepthSource: model.BucketSource("shallow"),
			RawThreats:  []string{"Bycatch in fishing gear", "Loss of nesting habitat"},
			Threats:     []string{"fishing", "habitat loss"},
		},
		{
			CommonName:  "White Abalone",
			DepthSource: model.DepthSourceUnknown,
			RawThreats:  []string{"Overharvesting", "Low population density", "Disease"},
			Threats:     []string{"disease", "fishing", "low population"},
		},
		{
			CommonName:  "Staghorn Coral",
			DepthNotes:  "Staghorn coral grows on reefs.",
			DepthSource: model.BucketSource("shallow"),
			Threats:     []string{},
		},
		{
			CommonName: "Atlantic Salmon",
			RawThreats: []string{"Bycatch in fishing gear", "Dams"},
			Threats:    []string{"fishing"},
		},
	}
}

func TestDepthNotes(t *testing.T) {
	notes := DepthNotes(testSpecies())

	want := []DepthNote{
		{CommonName: "Blue Whale", DepthNotes: "They dive to depths of 100 to 200 feet."},
		{CommonName: "Green Turtle", DepthNotes: "Green turtles graze in shallow seagrass beds."},
		{CommonName: "Staghorn Coral", DepthNotes: "Staghorn coral grows on reefs."},
	}
	if !reflect.DeepEqual(notes, want) {
		t.Errorf("DepthNotes = %+v, want %+v", notes, want)
	}
}

func TestDepthNotes_Empty(t *testing.T) {
	notes := DepthNotes(nil)
	if notes == nil || len(notes) != 0 {
		t.Errorf("DepthNotes(nil) = %#v, want empty non-nil slice", notes)
	}
}

func TestThreatCounts(t *testing.T) {
	counts := ThreatCounts(testSpecies())

	want := []ThreatCount{
		{Threat: "bycatch in fishing gear", Count: 2},
		{Threat: "dams", Count: 1},
		{Threat: "disease", Count: 1},
		{Threat: "entanglement in fishing gear", Count: 1},
		{Threat: "loss of nesting habitat", Count: 1},
		{Threat: "low population density", Count: 1},
		{Threat: "ocean noise", Count: 1},
		{Threat: "overharvesting", Count: 1},
		{Threat: "vessel strikes", Count: 1},
	}
	if !reflect.DeepEqual(counts, want) {
		t.Errorf("ThreatCounts = %+v, want %+v", counts, want)
	}
}

func TestThreatCounts_FoldsCaseAndSpace(t *testing.T) {
	counts := ThreatCounts([]model.Species{
		{RawThreats: []string{"Oil Spills", "  oil spills  ", "OIL SPILLS"}},
		{RawThreats: []string{"   "}},
	})

	want := []ThreatCount{{Threat: "oil spills", Count: 3}}
	if !reflect.DeepEqual(counts, want) {
		t.Errorf("ThreatCounts = %+v, want %+v", counts, want)
	}
}

func TestNormalized(t *testing.T) {
	entries := Normalized(testSpecies())

	if len(entries) != 4 {
		t.Fatalf("Normalized returned %d entries, want 4 (species without raw threats skipped)", len(entries))
	}
	first := entries[0]
	if !reflect.DeepEqual(first.Threats, []string{"Vessel strikes", "Entanglement in fishing gear", "Ocean noise"}) {
		t.Errorf("first.Threats = %v", first.Threats)
	}
	if !reflect.DeepEqual(first.Normalized, []string{"fishing"}) {
		t.Errorf("first.Normalized = %v, want [fishing]", first.Normalized)
	}
	third := entries[2]
	if !reflect.DeepEqual(third.Normalized, []string{"disease", "fishing", "low population"}) {
		t.Errorf("third.Normalized = %v", third.Normalized)
	}
}

func TestNormalized_FallsBackToNormalizer(t *testing.T) {
	entries := Normalized([]model.Species{
		{RawThreats: []string{"Oil spills near rookeries"}},
	})

	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if !reflect.DeepEqual(entries[0].Normalized, []string{"pollution"}) {
		t.Errorf("Normalized = %v, want [pollution]", entries[0].Normalized)
	}
}

func TestBuild(t *testing.T) {
	r := Build(testSpecies())

	if r.TotalSpecies != 5 {
		t.Errorf("TotalSpecies = %d, want 5", r.TotalSpecies)
	}
	if r.WithDepthNotes != 3 {
		t.Errorf("WithDepthNotes = %d, want 3", r.WithDepthNotes)
	}

	wantSources := []SourceCount{
		{Source: "explicit", Species: 1},
		{Source: "bucket:shallow", Species: 2},
		{Source: "unknown", Species: 2},
	}
	if !reflect.DeepEqual(r.DepthSources, wantSources) {
		t.Errorf("DepthSources = %+v, want %+v", r.DepthSources, wantSources)
	}

	wantCategories := []ThreatCount{
		{Threat: "fishing", Count: 4},
		{Threat: "disease", Count: 1},
		{Threat: "habitat loss", Count: 1},
		{Threat: "low population", Count: 1},
	}
	if !reflect.DeepEqual(r.Categories, wantCategories) {
		t.Errorf("Categories = %+v, want %+v", r.Categories, wantCategories)
	}
}

func TestRenderTable(t *testing.T) {
	var buf bytes.Buffer
	renderTable(&buf, []string{"threat", "count"}, [][]string{
		{"fishing", "4"},
		{"habitat loss", "1"},
	})

	want := strings.Join([]string{
		"| threat       | count |",
		"| ------------ | ----- |",
		"| fishing      | 4     |",
		"| habitat loss | 1     |",
		"",
	}, "\n")
	if got := buf.String(); got != want {
		t.Errorf("table mismatch:\n got:\n%s\nwant:\n%s", got, want)
	}
}

func TestRenderTable_WideRunes(t *testing.T) {
	var buf bytes.Buffer
	renderTable(&buf, []string{"name", "n"}, [][]string{{"日本語", "1"}})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	if lines[0] != "| name   | n   |" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[2] != "| 日本語 | 1   |" {
		t.Errorf("row = %q", lines[2])
	}
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	Build(testSpecies()).Render(&buf)
	out := buf.String()

	for _, want := range []string{
		"Species analyzed: 5",
		"Depth notes present: 3 of 5",
		"Depth extraction",
		"Threat categories",
		"Raw threats",
		"| fishing",
		"| bucket:shallow",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("render output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteArtifacts(t *testing.T) {
	dir := t.TempDir()
	r := Build(testSpecies())

	paths, err := r.WriteArtifacts(dir)
	if err != nil {
		t.Fatalf("WriteArtifacts: %v", err)
	}
	if len(paths) != 3 {
		t.Fatalf("got %d paths, want 3", len(paths))
	}

	data, err := os.ReadFile(filepath.Join(dir, ThreatsArtifact))
	if err != nil {
		t.Fatalf("read threats artifact: %v", err)
	}
	var counts []ThreatCount
	if err := json.Unmarshal(data, &counts); err != nil {
		t.Fatalf("decode threats artifact: %v", err)
	}
	if !reflect.DeepEqual(counts, r.ThreatCounts) {
		t.Errorf("threats artifact = %+v, want %+v", counts, r.ThreatCounts)
	}

	data, err = os.ReadFile(filepath.Join(dir, DepthNotesArtifact))
	if err != nil {
		t.Fatalf("read depth notes artifact: %v", err)
	}
	var notes []DepthNote
	if err := json.Unmarshal(data, &notes); err != nil {
		t.Fatalf("decode depth notes artifact: %v", err)
	}
	if len(notes) != 3 {
		t.Errorf("depth notes artifact has %d entries, want 3", len(notes))
	}
}
