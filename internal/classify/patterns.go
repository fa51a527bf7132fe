package classify

import (
	"regexp"
	"strconv"
)

const noteLimit = 200

// rule pairs a category predicate with its payload extractor. The table is
// ordered: narrower patterns (FSI) come before broader keyword matches so a
// clause mentioning several concepts lands in the most specific category.
type rule struct {
	category Category
	match    *regexp.Regexp
	extract  func(text string, m []int) Details
}

var (
	numberRe = regexp.MustCompile(`\d+(?:\.\d+)?`)
	meterRe  = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:m|meter|metre|meters|metres)\b`)
)

var rules = []rule{
	{
		category: CategoryFSI,
		match:    regexp.MustCompile(`(?i)\b(?:FSI|F\.S\.I|floor space index)\b[^0-9\n]{0,12}((?:\d+(?:\.\d+)?)?)`),
		extract:  captureValue("fsi", 1),
	},
	{
		category: CategoryHeight,
		match:    regexp.MustCompile(`(?i)\bheight\b`),
		extract:  meterAfter("height_m"),
	},
	{
		category: CategorySetback,
		match:    regexp.MustCompile(`(?i)\bset\s?backs?\b|\bdistance from (?:plot |road )?boundary\b`),
		extract:  numberAfter("setback_m"),
	},
	{
		category: CategoryFloors,
		match:    regexp.MustCompile(`(?i)(\d+)\s*(?:floors|storeys|stories|storey|floor)\b`),
		extract:  captureValue("floors", 1),
	},
	{
		category: CategoryParking,
		match:    regexp.MustCompile(`(?i)\b(?:parking|car park|vehicle space|stilt)\b`),
		extract:  numberAfter("value"),
	},
	{
		category: CategoryCoverage,
		match:    regexp.MustCompile(`(?i)\b(?:site|ground|building)\s+coverage\b`),
		extract:  numberAfter("value"),
	},
	{
		category: CategoryDensity,
		match:    regexp.MustCompile(`(?i)\b(?:population density|tenements|units per hectare|plinth area)\b`),
		extract:  numberAfter("value"),
	},
	{
		category: CategoryLandUse,
		match:    regexp.MustCompile(`(?i)\b(?:residential|commercial|industrial|institutional|mixed use|green zone)\b`),
		extract:  matchedKeyword,
	},
	{
		category: CategoryEntitlement,
		match:    regexp.MustCompile(`(?i)\b(?:entitlement|entitled?|allowed|permitted|may be permitted|shall be permitted)\b`),
		extract:  noteExcerpt,
	},
}

// captureValue parses capture group g of the match as the payload number.
func captureValue(key string, g int) func(string, []int) Details {
	return func(text string, m []int) Details {
		details := Details{}
		start, end := m[2*g], m[2*g+1]
		if start < 0 || start == end {
			return details
		}
		if v, err := strconv.ParseFloat(text[start:end], 64); err == nil {
			details[key] = v
		}
		return details
	}
}

// meterAfter binds the first metre-suffixed number at or after the keyword
// match, so figures elsewhere in the clause (page numbers, cross references)
// are not picked up.
func meterAfter(key string) func(string, []int) Details {
	return func(text string, m []int) Details {
		details := Details{}
		tail := text[m[0]:]
		if g := meterRe.FindStringSubmatch(tail); g != nil {
			if v, err := strconv.ParseFloat(g[1], 64); err == nil {
				details[key] = v
			}
		}
		return details
	}
}

// numberAfter binds the first bare number at or after the keyword match.
func numberAfter(key string) func(string, []int) Details {
	return func(text string, m []int) Details {
		details := Details{}
		tail := text[m[1]:]
		if s := numberRe.FindString(tail); s != "" {
			if v, err := strconv.ParseFloat(s, 64); err == nil {
				details[key] = v
			}
		}
		return details
	}
}

// matchedKeyword records which land-use term matched; these clauses are
// categorically informative without being numerically comparable.
func matchedKeyword(text string, m []int) Details {
	return Details{"matched": text[m[0]:m[1]]}
}

func noteExcerpt(text string, m []int) Details {
	note := text
	if len(note) > noteLimit {
		note = note[:noteLimit]
	}
	return Details{"note": note}
}
