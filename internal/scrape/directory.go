package scrape

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/lindaliu1/endangered-ocean/internal/model"
)

// BaseURL anchors relative links found on NOAA pages.
const BaseURL = "https://www.fisheries.noaa.gov"

// DirectoryURL is the NOAA Fisheries listing of threatened and
// endangered species, sized to return every row on one page.
const DirectoryURL = BaseURL + "/species-directory/threatened-endangered" +
	"?oq=&field_species_categories_vocab=All&field_region_vocab=All&items_per_page=350"

// ParseDirectory extracts species rows from the directory listing page,
// resolving links against pageURL. Rows are deduplicated by detail URL
// with the first occurrence winning, then sorted by common name and URL.
func ParseDirectory(content, pageURL string) ([]model.ListEntry, error) {
	doc, err := parseHTML(content)
	if err != nil {
		return nil, fmt.Errorf("parse directory: %w", err)
	}
	base := baseFor(pageURL)

	seen := make(map[string]bool)
	var entries []model.ListEntry
	for _, a := range findAll(doc, "a") {
		href, ok := attr(a, "href")
		if !ok || !strings.HasPrefix(href, "/species/") {
			continue
		}
		name := textContent(a)
		if name == "" {
			continue
		}
		detailURL := resolveURL(base, href)
		if detailURL == "" || seen[detailURL] {
			continue
		}
		seen[detailURL] = true

		entries = append(entries, model.ListEntry{
			Source:         model.SourceNOAA,
			SourceRecordID: slugFromURL(detailURL),
			CommonName:     name,
			DetailURL:      detailURL,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		an, bn := strings.ToLower(a.CommonName), strings.ToLower(b.CommonName)
		if an != bn {
			return an < bn
		}
		return a.DetailURL < b.DetailURL
	})

	return entries, nil
}

// baseFor parses pageURL for link resolution, falling back to the NOAA
// site root when it is empty or relative.
func baseFor(pageURL string) *url.URL {
	if u, err := url.Parse(pageURL); err == nil && u.IsAbs() {
		return u
	}
	u, _ := url.Parse(BaseURL)
	return u
}

// slugFromURL takes the last path segment as the stable record ID,
// falling back to the whole URL when the path has none.
func slugFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	slug := strings.TrimRight(u.Path, "/")
	if idx := strings.LastIndex(slug, "/"); idx >= 0 {
		slug = slug[idx+1:]
	}
	if slug == "" {
		return rawURL
	}
	return slug
}
