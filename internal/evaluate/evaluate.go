// Package evaluate grades a learner's answer against the server-supplied
// reference answer. Grading is a deterministic client-side approximation:
// the backend does not yet return a correctness verdict, so the verdict
// computed here is provisional rather than authoritative.
package evaluate

import "strings"

// RefKind classifies the reference answer shape. The backend stores
// reference answers loosely (string, keyed object or list), so the shape
// is decided at evaluation time.
type RefKind int

const (
	RefUnknown RefKind = iota // unrecognized shape, always graded incorrect
	RefText                   // bare string
	RefKeyed                  // object carrying the answer under a known key
	RefChoices                // list of strings (multi-select)
)

// Keys probed, in order, to extract the canonical value from a keyed
// reference object.
var answerKeys = []string{"correct_answer", "solution", "answer", "value"}

// Reference is the classified form of a raw reference answer.
type Reference struct {
	Kind    RefKind
	Text    string   // set for RefText and RefKeyed with a string value
	Choices []string // set for RefChoices
}

// Classify inspects a raw reference answer and returns its tagged form.
func Classify(ref any) Reference {
	switch v := ref.(type) {
	case string:
		return Reference{Kind: RefText, Text: v}

	case map[string]any:
		for _, key := range answerKeys {
			value, ok := v[key]
			if !ok {
				continue
			}
			switch inner := value.(type) {
			case string:
				return Reference{Kind: RefKeyed, Text: inner}
			case []any:
				choices, ok := stringSlice(inner)
				if !ok {
					return Reference{Kind: RefUnknown}
				}
				return Reference{Kind: RefChoices, Choices: choices}
			}
			return Reference{Kind: RefUnknown}
		}
		return Reference{Kind: RefUnknown}

	case []any:
		choices, ok := stringSlice(v)
		if !ok {
			return Reference{Kind: RefUnknown}
		}
		return Reference{Kind: RefChoices, Choices: choices}

	case []string:
		return Reference{Kind: RefChoices, Choices: v}
	}

	return Reference{Kind: RefUnknown}
}

// Evaluate reports whether userAnswer matches the reference answer.
//
// Normalization rules:
//   - Whitespace is trimmed, comparison is case-insensitive
//   - Multi-select answers are split on "|" and compared as sets
//     (length-exact, order-independent)
//   - Unrecognized or missing references grade as incorrect
func Evaluate(userAnswer string, ref any) bool {
	classified := Classify(ref)

	switch classified.Kind {
	case RefText, RefKeyed:
		return strings.EqualFold(
			strings.TrimSpace(userAnswer),
			strings.TrimSpace(classified.Text),
		)

	case RefChoices:
		return matchChoices(userAnswer, classified.Choices)
	}

	return false
}

// matchChoices compares a "|"-separated multi-select answer against the
// reference set.
func matchChoices(userAnswer string, choices []string) bool {
	tokens := strings.Split(userAnswer, "|")
	if len(tokens) != len(choices) {
		return false
	}

	want := make(map[string]bool, len(choices))
	for _, c := range choices {
		want[normalize(c)] = true
	}
	for _, tok := range tokens {
		if !want[normalize(tok)] {
			return false
		}
	}
	return true
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func stringSlice(values []any) ([]string, bool) {
	out := make([]string, 0, len(values))
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}
