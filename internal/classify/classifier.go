package classify

// Category is the closed set of regulation categories a clause can be
// assigned to.
type Category string

const (
	CategoryFSI         Category = "fsi"
	CategoryHeight      Category = "height"
	CategorySetback     Category = "setback"
	CategoryFloors      Category = "floors"
	CategoryParking     Category = "parking"
	CategoryLandUse     Category = "land_use"
	CategoryDensity     Category = "density"
	CategoryCoverage    Category = "coverage"
	CategoryEntitlement Category = "entitlement"
	CategoryOther       Category = "other"
)

// Details carries the structured payload extracted alongside a category:
// a numeric limit under a category-specific key, or a short text note for
// non-numeric clauses. Empty when nothing was extractable.
type Details map[string]any

// Classify assigns clause text to exactly one category and extracts its
// payload. Patterns are evaluated in fixed priority order and the first
// match wins; text matching nothing is classified as other. Classify is
// total: it never fails, whatever the input.
func Classify(clauseText string) (Category, Details) {
	for _, r := range rules {
		m := r.match.FindStringSubmatchIndex(clauseText)
		if m == nil {
			continue
		}

		details := Details{}
		if r.extract != nil {
			details = r.extract(clauseText, m)
		}
		return r.category, details
	}

	return CategoryOther, Details{}
}

// Categories returns every category in priority order, ending with other.
func Categories() []Category {
	out := make([]Category, 0, len(rules)+1)
	for _, r := range rules {
		out = append(out, r.category)
	}
	return append(out, CategoryOther)
}
