package classify

import "testing"

func floatDetail(t *testing.T, d Details, key string) float64 {
	t.Helper()
	v, ok := d[key]
	if !ok {
		t.Fatalf("details missing key %q: %v", key, d)
	}
	f, ok := v.(float64)
	if !ok {
		t.Fatalf("details[%q] = %T, want float64", key, v)
	}
	return f
}

func TestClassifyCategories(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		category Category
		key      string
		value    float64
	}{
		{"fsi with value", "FSI: 2.5 for residential zones", CategoryFSI, "fsi", 2.5},
		{"fsi spelled out", "The floor space index 1.8 applies to plots above 500 sqm", CategoryFSI, "fsi", 1.8},
		{"height in meters", "Maximum height shall be 24 m from ground level", CategoryHeight, "height_m", 24},
		{"height spelled out", "Building height of 17.5 metres permitted near junctions", CategoryHeight, "height_m", 17.5},
		{"setback", "Front setback of 4.5 m shall be maintained", CategorySetback, "setback_m", 4.5},
		{"setback two words", "A set back of 3 m from the plot boundary", CategorySetback, "setback_m", 3},
		{"floors", "Not more than 7 storeys shall be constructed", CategoryFloors, "floors", 7},
		{"parking", "Parking shall be provided at 2 spaces per tenement", CategoryParking, "value", 2},
		{"coverage", "Ground coverage shall not exceed 40 percent", CategoryCoverage, "value", 40},
		{"density", "Maximum 150 units per hectare in the R2 zone", CategoryDensity, "value", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat, details := Classify(tt.text)
			if cat != tt.category {
				t.Fatalf("Classify(%q) category = %s, want %s", tt.text, cat, tt.category)
			}
			if tt.value != 0 {
				if got := floatDetail(t, details, tt.key); got != tt.value {
					t.Errorf("details[%q] = %v, want %v", tt.key, got, tt.value)
				}
			}
		})
	}
}

func TestClassifyPriorityFSIOverHeight(t *testing.T) {
	cat, details := Classify("FSI of 2.0 subject to a height of 24 m")
	if cat != CategoryFSI {
		t.Fatalf("expected fsi to win priority, got %s", cat)
	}
	if got := floatDetail(t, details, "fsi"); got != 2.0 {
		t.Errorf("fsi = %v, want 2.0", got)
	}
}

func TestClassifyKeywordWithoutNumber(t *testing.T) {
	cat, details := Classify("The height shall be as prescribed by the authority")
	if cat != CategoryHeight {
		t.Fatalf("expected height, got %s", cat)
	}
	if len(details) != 0 {
		t.Errorf("expected empty details, got %v", details)
	}
}

func TestClassifyNumberAdjacency(t *testing.T) {
	// The figure before the keyword belongs to a cross-reference and must
	// not be bound as the limit.
	cat, details := Classify("As per table 14, maximum height shall be 30 m")
	if cat != CategoryHeight {
		t.Fatalf("expected height, got %s", cat)
	}
	if got := floatDetail(t, details, "height_m"); got != 30 {
		t.Errorf("height_m = %v, want 30 (not the table number)", got)
	}
}

func TestClassifyRangeBindsFirstNumber(t *testing.T) {
	// Known precision limitation: range clauses bind the first number.
	_, details := Classify("Height of 18 m to 24 m for corner plots")
	if got := floatDetail(t, details, "height_m"); got != 18 {
		t.Errorf("height_m = %v, want 18 (first-match extraction)", got)
	}
}

func TestClassifyEntitlementNote(t *testing.T) {
	long := "Additional built-up area may be permitted by the commissioner subject to such conditions as deemed fit, "
	long = long + long + long // push past the excerpt limit

	cat, details := Classify(long)
	if cat != CategoryEntitlement {
		t.Fatalf("expected entitlement, got %s", cat)
	}
	note, ok := details["note"].(string)
	if !ok {
		t.Fatalf("expected note detail, got %v", details)
	}
	if len(note) != noteLimit {
		t.Errorf("note length = %d, want %d", len(note), noteLimit)
	}
}

func TestClassifyLandUse(t *testing.T) {
	cat, details := Classify("Industrial units shall not abut the green belt")
	if cat != CategoryLandUse {
		t.Fatalf("expected land_use, got %s", cat)
	}
	if details["matched"] == "" {
		t.Error("expected matched keyword in details")
	}
}

func TestClassifyUnmatchedIsOther(t *testing.T) {
	cat, details := Classify("The development control rules are sanctioned under the act")
	if cat != CategoryOther {
		t.Fatalf("expected other, got %s", cat)
	}
	if len(details) != 0 {
		t.Errorf("expected empty details, got %v", details)
	}
}

func TestClassifyTotalCoverage(t *testing.T) {
	known := make(map[Category]bool)
	for _, c := range Categories() {
		known[c] = true
	}

	inputs := []string{
		"", "   ", "randomtext", "FSI", "height", "998877",
		"setback parking coverage", "!!!", "Clause 12.3",
	}
	for _, in := range inputs {
		cat, details := Classify(in)
		if !known[cat] {
			t.Errorf("Classify(%q) returned unknown category %q", in, cat)
		}
		if details == nil {
			t.Errorf("Classify(%q) returned nil details", in)
		}
	}
}
