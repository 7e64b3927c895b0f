package depth

import "strings"

// bucket is a coarse habitat depth band inferred from keywords
type bucket struct {
	name     string
	minM     int
	maxM     int
	keywords []string
}

// buckets are checked top to bottom against the whole narrative; the
// first bucket with any keyword present wins. Priority order is fixed.
// Substring matching makes plural forms like "lagoons" and "bays" fall
// out of their singular keywords.
var buckets = []bucket{
	{
		name: "deep", minM: 200, maxM: 1000,
		keywords: []string{
			"deep sea", "deepwater", "deep-water", "offshore", "oceanic",
			"pelagic", "upper slope", "continental slope", "abyss",
			"bathyal", "over deep water", "deeper waters", "deeper than",
		},
	},
	{
		name: "continental_shelf", minM: 20, maxM: 200,
		keywords: []string{
			"continental shelf", "shelf waters", "shelf break", "outer shelf",
		},
	},
	{
		name: "shallow", minM: 0, maxM: 20,
		keywords: []string{
			"intertidal", "subtidal", "shallow", "nearshore", "inshore",
			"coastal", "reef", "lagoon", "estuary", "estuaries",
			"river mouth", "seagrass", "mangrove", "bay",
		},
	},
}

// matchBucket matches bucket keywords case-insensitively against the
// normalized narrative
func matchBucket(text string) (bucket, bool) {
	lower := strings.ToLower(text)
	for _, b := range buckets {
		for _, kw := range b.keywords {
			if strings.Contains(lower, kw) {
				return b, true
			}
		}
	}
	return bucket{}, false
}
