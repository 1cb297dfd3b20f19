package evaluate

import "testing"

func TestEvaluate_StringReference(t *testing.T) {
	tests := []struct {
		name   string
		answer string
		ref    any
		want   bool
	}{
		{"exact match", "Paris", "Paris", true},
		{"case insensitive", "paris", "Paris", true},
		{"whitespace trimmed", " Paris ", "paris", true},
		{"wrong answer", "London", "Paris", false},
		{"empty answer", "", "Paris", false},
		{"both empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Evaluate(tt.answer, tt.ref); got != tt.want {
				t.Errorf("Evaluate(%q, %v) = %v, want %v", tt.answer, tt.ref, got, tt.want)
			}
		})
	}
}

func TestEvaluate_KeyedReference(t *testing.T) {
	tests := []struct {
		name   string
		answer string
		ref    any
		want   bool
	}{
		{"correct_answer key", "4", map[string]any{"correct_answer": "4"}, true},
		{"solution key", "x=2", map[string]any{"solution": "x=2"}, true},
		{"answer key", "42", map[string]any{"answer": "42"}, true},
		{"value key", "blue", map[string]any{"value": "Blue"}, true},
		{"key precedence", "first", map[string]any{"answer": "second", "correct_answer": "first"}, true},
		{"precedence excludes later keys", "second", map[string]any{"answer": "second", "correct_answer": "first"}, false},
		{"no known key", "4", map[string]any{"hint": "4"}, false},
		{"non-string non-array value", "4", map[string]any{"correct_answer": 4.0}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Evaluate(tt.answer, tt.ref); got != tt.want {
				t.Errorf("Evaluate(%q, %v) = %v, want %v", tt.answer, tt.ref, got, tt.want)
			}
		})
	}
}

func TestEvaluate_MultiSelect(t *testing.T) {
	tests := []struct {
		name   string
		answer string
		ref    any
		want   bool
	}{
		{"order independent", "b|a", []any{"a", "b"}, true},
		{"same order", "a|b", []any{"a", "b"}, true},
		{"missing selection", "a", []any{"a", "b"}, false},
		{"extra selection", "a|b|c", []any{"a", "b"}, false},
		{"case and whitespace", " A | b ", []any{"a", "B"}, true},
		{"wrong token", "a|c", []any{"a", "b"}, false},
		{"single choice", "a", []any{"a"}, true},
		{"keyed array value", "b|a", map[string]any{"correct_answer": []any{"a", "b"}}, true},
		{"keyed array wrong length", "a", map[string]any{"correct_answer": []any{"a", "b"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Evaluate(tt.answer, tt.ref); got != tt.want {
				t.Errorf("Evaluate(%q, %v) = %v, want %v", tt.answer, tt.ref, got, tt.want)
			}
		})
	}
}

func TestEvaluate_UnknownShapes(t *testing.T) {
	tests := []struct {
		name string
		ref  any
	}{
		{"nil reference", nil},
		{"number", 4.0},
		{"bool", true},
		{"mixed array", []any{"a", 2.0}},
		{"nested object value", map[string]any{"correct_answer": map[string]any{"x": "4"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if Evaluate("anything", tt.ref) {
				t.Errorf("Evaluate(_, %v) = true, want false", tt.ref)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	if k := Classify("x").Kind; k != RefText {
		t.Errorf("string → %v, want RefText", k)
	}
	if k := Classify(map[string]any{"solution": "x"}).Kind; k != RefKeyed {
		t.Errorf("keyed → %v, want RefKeyed", k)
	}
	if k := Classify([]any{"a"}).Kind; k != RefChoices {
		t.Errorf("array → %v, want RefChoices", k)
	}
	if k := Classify(nil).Kind; k != RefUnknown {
		t.Errorf("nil → %v, want RefUnknown", k)
	}
}
