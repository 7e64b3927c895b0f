package threat

import (
	"sort"
	"strings"
)

// Canonical category labels. The set is closed: scraped phrases map onto
// these seven or onto nothing.
const (
	ClimateChange = "climate change"
	Disease       = "disease"
	Fishing       = "fishing"
	HabitatLoss   = "habitat loss"
	Pollution     = "pollution"
	Predation     = "predation"
	LowPopulation = "low population"
)

// category pairs a canonical label with its trigger keywords
type category struct {
	label    string
	keywords []string
}

// categories are evaluated top to bottom per phrase; the first category
// with any keyword present claims the phrase. Priority order is fixed
// and must not be reordered.
var categories = []category{
	{ClimateChange, []string{"climate change", "ocean acidification", "ocean warming", "sea level rise", "temperatures"}},
	{Disease, []string{"disease", "diseases"}},
	{Fishing, []string{"fishing", "bycatch", "overfishing", "fisheries", "entanglement", "vessel", "vessel-based", "harvest", "overharvest"}},
	{HabitatLoss, []string{"habitat", "habitats", "dredging"}},
	{Pollution, []string{"oil", "spill", "gas", "pollution", "pollutants", "contaminants", "toxic", "toxins", "debris"}},
	{Predation, []string{"predation", "predators", "harassment"}},
	{LowPopulation, []string{"population"}},
}

// Normalizer reduces noisy scraped threat phrases to the canonical
// category set
type Normalizer struct{}

// NewNormalizer creates a new threat normalizer
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Normalize classifies each phrase case-insensitively and returns the
// union of matched categories as a sorted slice. A phrase contributes at
// most one category; phrases matching nothing drop silently.
func (n *Normalizer) Normalize(phrases []string) []string {
	set := make(map[string]struct{})

	for _, phrase := range phrases {
		if label, ok := Classify(phrase); ok {
			set[label] = struct{}{}
		}
	}

	out := make([]string, 0, len(set))
	for label := range set {
		out = append(out, label)
	}
	sort.Strings(out)
	return out
}

// Classify maps a single raw phrase to its canonical category, if any
func Classify(phrase string) (string, bool) {
	lower := strings.ToLower(phrase)
	for _, c := range categories {
		for _, kw := range c.keywords {
			if strings.Contains(lower, kw) {
				return c.label, true
			}
		}
	}
	return "", false
}

// Categories returns the canonical labels in priority order
func Categories() []string {
	out := make([]string, len(categories))
	for i, c := range categories {
		out[i] = c.label
	}
	return out
}
