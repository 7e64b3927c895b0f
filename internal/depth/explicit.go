package depth

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// metersPerFoot converts feet-denominated depths to meters.
const metersPerFoot = 0.3048

// num captures 1-4 digits with an optional single thousands comma
// grouping (e.g. "1,082"); unit captures meter/feet tokens only, so a
// captured value can always be parsed and converted.
const (
	num  = `(\d{1,3},\d{3}|\d{1,4})`
	unit = `(meters?|feet|ft|m)`
)

var (
	// "between 100 and 200 feet", "from 20 to 40 m"
	reRangeBetween = regexp.MustCompile(`(?i)\b(?:between|from)\s+` + num + `\s*(?:to|and|–|-)\s*` + num + `\s*` + unit + `\b`)
	// "100 to 200 feet", "20–40 m"
	reRangeLoose = regexp.MustCompile(`(?i)\b` + num + `\s*(?:to|–|-)\s*` + num + `\s*` + unit + `\b`)

	// "as deep as 1,000 m"
	reAsDeepAs = regexp.MustCompile(`(?i)\bas\s+deep\s+as\s+` + num + `\s*` + unit + `\b`)
	// "depths to 300 m"
	reDepthsTo = regexp.MustCompile(`(?i)\bdepths\s+to\s+` + num + `\s*` + unit + `\b`)
	// "diving to 900 feet depths"
	reDivingTo = regexp.MustCompile(`(?i)\bdiving\s+to\s+` + num + `\s*` + unit + `\s+(?:depths|deep)\b`)
	// "300 m deep", "to about 100 feet deep"
	reValueDeep = regexp.MustCompile(`(?i)\b(?:to\s+about\s+|about\s+)?` + num + `\s*` + unit + `\s+(?:deep|depths)\b`)

	// "less than 30 m", "< 30 m"
	reLessThan = regexp.MustCompile(`(?i)(?:\bless\s+than\s+|<\s*)` + num + `\s*` + unit + `\b`)
)

// Range patterns outrank single-value patterns, which outrank the
// less-than pattern. The order within each list is fixed and must not
// be changed.
var (
	rangePatterns  = []*regexp.Regexp{reRangeBetween, reRangeLoose}
	singlePatterns = []*regexp.Regexp{reAsDeepAs, reDepthsTo, reDivingTo, reValueDeep}
)

// matchRange returns an ordered (min, max) pair in whole meters
func matchRange(sentence string) (int, int, bool) {
	for _, re := range rangePatterns {
		m := re.FindStringSubmatch(sentence)
		if m == nil {
			continue
		}
		lo := roundMeters(toMeters(parseNumber(m[1]), m[3]))
		hi := roundMeters(toMeters(parseNumber(m[2]), m[3]))
		if lo > hi {
			lo, hi = hi, lo
		}
		return lo, hi, true
	}
	return 0, 0, false
}

// matchSingle returns a single stated depth in whole meters
func matchSingle(sentence string) (int, bool) {
	for _, re := range singlePatterns {
		if m := re.FindStringSubmatch(sentence); m != nil {
			return roundMeters(toMeters(parseNumber(m[1]), m[2])), true
		}
	}
	return 0, false
}

// matchLessThan returns the upper bound of a "less than" statement
func matchLessThan(sentence string) (int, bool) {
	if m := reLessThan.FindStringSubmatch(sentence); m != nil {
		return roundMeters(toMeters(parseNumber(m[1]), m[2])), true
	}
	return 0, false
}

// parseNumber strips the thousands comma and parses the digits. The
// capture grammar guarantees a valid integer token.
func parseNumber(tok string) float64 {
	n, _ := strconv.Atoi(strings.ReplaceAll(tok, ",", ""))
	return float64(n)
}

// toMeters passes meter values through and converts feet
func toMeters(value float64, unitTok string) float64 {
	switch strings.ToLower(unitTok) {
	case "ft", "feet":
		return value * metersPerFoot
	}
	return value
}

// roundMeters rounds half to even, applied independently to each bound
func roundMeters(v float64) int {
	return int(math.RoundToEven(v))
}
