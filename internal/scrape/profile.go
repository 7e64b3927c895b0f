package scrape

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/lindaliu1/endangered-ocean/internal/model"
)

// Profile holds the fields parsed from one species detail page.
type Profile struct {
	ScientificName string
	Status         model.Status
	ImageURL       string
	DepthNotes     string
	RawThreats     []string
}

// ParseProfile extracts the overview fields from a species detail page,
// resolving the image link against pageURL.
func ParseProfile(content, pageURL string) (*Profile, error) {
	doc, err := parseHTML(content)
	if err != nil {
		return nil, fmt.Errorf("parse profile: %w", err)
	}
	base := baseFor(pageURL)

	return &Profile{
		ScientificName: scientificName(doc),
		Status:         model.StatusFromLabel(statusLabel(doc)),
		ImageURL:       imageURL(doc, base),
		DepthNotes:     depthNotes(doc),
		RawThreats:     rawThreats(doc),
	}, nil
}

func scientificName(doc *html.Node) string {
	if n := findFirstClass(doc, "p", "species-overview__header-subname"); n != nil {
		return textContent(n)
	}
	return ""
}

func statusLabel(doc *html.Node) string {
	if n := findFirstClass(doc, "div", "species-overview__status"); n != nil {
		return textContent(n)
	}
	return ""
}

func imageURL(doc *html.Node, base *url.URL) string {
	img := findFirstClass(doc, "img", "img-responsive")
	if img == nil {
		return ""
	}
	src, _ := attr(img, "src")
	if strings.TrimSpace(src) == "" {
		src, _ = attr(img, "data-src")
	}
	if strings.TrimSpace(src) == "" {
		return ""
	}
	return resolveURL(base, src)
}

// depthNotes collects the paragraphs of the "Where They Live" section.
// The section body is the sibling div of whatever element holds the
// heading text; only the div's direct paragraph children belong to it.
func depthNotes(doc *html.Node) string {
	marker := findText(doc, func(s string) bool {
		return strings.EqualFold(strings.TrimSpace(s), "where they live")
	})
	if marker == nil || marker.Parent == nil {
		return ""
	}

	section := nextElementSibling(marker.Parent)
	if section == nil || section.Data != "div" {
		return ""
	}

	var paragraphs []string
	for c := section.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || c.Data != "p" {
			continue
		}
		if text := textContent(c); text != "" {
			paragraphs = append(paragraphs, text)
		}
	}
	return strings.Join(paragraphs, "\n\n")
}

// rawThreats reads the comma-separated Threats fact, deduplicated
// case-insensitively with the first casing kept.
func rawThreats(doc *html.Node) []string {
	for _, label := range findAllClass(doc, "div", "species-overview__facts-label") {
		if !strings.EqualFold(textContent(label), "threats") {
			continue
		}
		value := nextSiblingClass(label, "div", "species-overview__facts-value")
		if value == nil {
			continue
		}

		raw := textContent(value)
		if raw == "" {
			return []string{}
		}

		seen := make(map[string]bool)
		threats := []string{}
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			key := strings.ToLower(part)
			if seen[key] {
				continue
			}
			seen[key] = true
			threats = append(threats, part)
		}
		return threats
	}
	return []string{}
}
