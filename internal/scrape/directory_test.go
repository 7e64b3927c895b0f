package scrape

import (
	"strings"
	"testing"

	"github.com/lindaliu1/endangered-ocean/internal/model"
)

const directoryHTML = `<!DOCTYPE html>
<html><body>
<nav>
  <a href="/about">About Us</a>
  <a href="/species-directory">Species Directory</a>
</nav>
<main>
  <ul>
    <li><a href="/species/white-abalone">White Abalone</a></li>
    <li><a href="/species/green-turtle"><span>Green  Turtle</span></a></li>
    <li><a href="/species/green-turtle">Green Turtle Again</a></li>
    <li><a href="/species/blue-whale">Blue Whale</a></li>
    <li><a href="/species/atlantic-salmon">atlantic salmon</a></li>
    <li><a href="/species/unnamed">   </a></li>
  </ul>
</main>
</body></html>`

func TestParseDirectory_Entries(t *testing.T) {
	entries, err := ParseDirectory(directoryHTML, "")
	if err != nil {
		t.Fatalf("ParseDirectory failed: %v", err)
	}

	want := []model.ListEntry{
		{Source: "noaa", SourceRecordID: "atlantic-salmon", CommonName: "atlantic salmon", DetailURL: "https://www.fisheries.noaa.gov/species/atlantic-salmon"},
		{Source: "noaa", SourceRecordID: "blue-whale", CommonName: "Blue Whale", DetailURL: "https://www.fisheries.noaa.gov/species/blue-whale"},
		{Source: "noaa", SourceRecordID: "green-turtle", CommonName: "Green Turtle", DetailURL: "https://www.fisheries.noaa.gov/species/green-turtle"},
		{Source: "noaa", SourceRecordID: "white-abalone", CommonName: "White Abalone", DetailURL: "https://www.fisheries.noaa.gov/species/white-abalone"},
	}

	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %d: %+v", len(want), len(entries), entries)
	}
	for i, w := range want {
		if entries[i] != w {
			t.Errorf("entry %d: got %+v, want %+v", i, entries[i], w)
		}
	}
}

func TestParseDirectory_DedupeFirstWins(t *testing.T) {
	entries, err := ParseDirectory(directoryHTML, "")
	if err != nil {
		t.Fatalf("ParseDirectory failed: %v", err)
	}

	count := 0
	for _, e := range entries {
		if e.SourceRecordID == "green-turtle" {
			count++
			if e.CommonName != "Green Turtle" {
				t.Errorf("first occurrence should win, got %q", e.CommonName)
			}
		}
	}
	if count != 1 {
		t.Errorf("expected 1 green-turtle entry, got %d", count)
	}
}

func TestParseDirectory_SkipsOtherLinks(t *testing.T) {
	entries, err := ParseDirectory(directoryHTML, "")
	if err != nil {
		t.Fatalf("ParseDirectory failed: %v", err)
	}

	for _, e := range entries {
		if !strings.Contains(e.DetailURL, "/species/") {
			t.Errorf("non-species link leaked through: %+v", e)
		}
		if e.CommonName == "" {
			t.Errorf("entry with empty name leaked through: %+v", e)
		}
	}
}

func TestParseDirectory_ResolvesAgainstPageURL(t *testing.T) {
	entries, err := ParseDirectory(directoryHTML, "http://127.0.0.1:8900/directory")
	if err != nil {
		t.Fatalf("ParseDirectory failed: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("expected entries")
	}
	for _, e := range entries {
		if !strings.HasPrefix(e.DetailURL, "http://127.0.0.1:8900/species/") {
			t.Errorf("expected link resolved against page URL, got %q", e.DetailURL)
		}
	}
}

func TestParseDirectory_NameTieBreaksOnURL(t *testing.T) {
	content := `<html><body>
<a href="/species/sawfish-us">Sawfish</a>
<a href="/species/sawfish-global">Sawfish</a>
</body></html>`

	entries, err := ParseDirectory(content, "")
	if err != nil {
		t.Fatalf("ParseDirectory failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].SourceRecordID != "sawfish-global" || entries[1].SourceRecordID != "sawfish-us" {
		t.Errorf("expected URL tie-break ordering, got %q then %q",
			entries[0].SourceRecordID, entries[1].SourceRecordID)
	}
}

func TestParseDirectory_Empty(t *testing.T) {
	entries, err := ParseDirectory("<html><body></body></html>", "")
	if err != nil {
		t.Fatalf("ParseDirectory failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no entries, got %d", len(entries))
	}
}

func TestSlugFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.fisheries.noaa.gov/species/green-turtle", "green-turtle"},
		{"https://www.fisheries.noaa.gov/species/green-turtle/", "green-turtle"},
		{"https://www.fisheries.noaa.gov/a/b/white-abalone", "white-abalone"},
		{"https://www.fisheries.noaa.gov/", "https://www.fisheries.noaa.gov/"},
		{"https://www.fisheries.noaa.gov", "https://www.fisheries.noaa.gov"},
	}

	for _, tt := range tests {
		if got := slugFromURL(tt.url); got != tt.want {
			t.Errorf("slugFromURL(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}
