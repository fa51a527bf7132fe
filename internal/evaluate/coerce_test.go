package evaluate

import (
	"encoding/json"
	"testing"
)

func TestToNumber(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  float64
		ok    bool
	}{
		{"float64", 24.5, 24.5, true},
		{"int", 7, 7, true},
		{"int64", int64(3), 3, true},
		{"numeric string", "2.5", 2.5, true},
		{"padded string", "  18.0  ", 18, true},
		{"json number", json.Number("1.8"), 1.8, true},
		{"nil", nil, 0, false},
		{"word", "twenty", 0, false},
		{"empty string", "", 0, false},
		{"bool", true, 0, false},
		{"slice", []int{1}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ToNumber(tt.input)
			if ok != tt.ok || got != tt.want {
				t.Errorf("ToNumber(%v) = (%v, %v), want (%v, %v)", tt.input, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestPickNumber(t *testing.T) {
	fields := map[string]any{
		"height_m": "not a number",
		"value":    21.0,
	}

	v, present := pickNumber(fields, []string{"height_m", "value"})
	if !present || v == nil || *v != 21.0 {
		t.Errorf("pickNumber should fall through to the next candidate, got (%v, %v)", v, present)
	}

	v, present = pickNumber(fields, []string{"missing"})
	if present || v != nil {
		t.Errorf("absent keys must report not present, got (%v, %v)", v, present)
	}

	v, present = pickNumber(fields, []string{"height_m"})
	if !present || v != nil {
		t.Errorf("uncoercible value must report present with nil number, got (%v, %v)", v, present)
	}
}
