package content

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/adaptlearn/termtutor/internal/api"
)

// payloadSchemas validate content_data per content type. Schemas are
// deliberately permissive about which fields appear (authoring varies)
// but strict about the types of the fields that do.
var payloadSchemas = map[string]map[string]any{
	api.ContentTypeLesson: {
		"type": "object",
		"properties": map[string]any{
			"description":  map[string]any{"type": "string"},
			"theory":       map[string]any{"type": "string"},
			"examples":     map[string]any{"type": "array"},
			"hints":        map[string]any{"type": "array"},
			"explanations": map[string]any{"type": "array"},
		},
	},
	api.ContentTypeExercise: {
		"type": "object",
		"properties": map[string]any{
			"description":  map[string]any{"type": "string"},
			"question":     map[string]any{"type": "string"},
			"starter_code": map[string]any{"type": []any{"string", "null"}},
			"test_cases":   map[string]any{"type": "array"},
		},
	},
	api.ContentTypeQuiz: {
		"type": "object",
		"properties": map[string]any{
			"description": map[string]any{"type": "string"},
			"question":    map[string]any{"type": "string"},
			"options": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
		},
	},
	api.ContentTypeExplanation: {
		"type": "object",
		"properties": map[string]any{
			"description": map[string]any{"type": "string"},
			"text":        map[string]any{"type": "string"},
		},
	},
}

// compiledSchemas caches compiled payload schemas by content type.
var compiledSchemas sync.Map // map[string]*jsonschema.Schema

// ErrInvalidPayload indicates content_data does not conform to the
// schema for its content type.
type ErrInvalidPayload struct {
	ContentID   int
	ContentType string
	Err         error
}

func (e *ErrInvalidPayload) Error() string {
	return fmt.Sprintf("content %d: invalid %s payload: %v", e.ContentID, e.ContentType, e.Err)
}

func (e *ErrInvalidPayload) Unwrap() error { return e.Err }

// validatePayload checks item.ContentData against the schema for its
// content type. Unknown content types pass through unvalidated.
func validatePayload(item *api.ContentItem) error {
	def, ok := payloadSchemas[item.ContentType]
	if !ok {
		return nil
	}

	compiled, err := compiledSchema(item.ContentType, def)
	if err != nil {
		return &ErrInvalidPayload{ContentID: item.ContentID, ContentType: item.ContentType, Err: err}
	}

	// The jsonschema library wants plain decoded JSON values; ContentData
	// already is one (map[string]any from the gateway decode).
	var payload any = item.ContentData
	if item.ContentData == nil {
		payload = map[string]any{}
	}
	if err := compiled.Validate(payload); err != nil {
		return &ErrInvalidPayload{ContentID: item.ContentID, ContentType: item.ContentType, Err: err}
	}
	return nil
}

func compiledSchema(name string, def map[string]any) (*jsonschema.Schema, error) {
	if cached, ok := compiledSchemas.Load(name); ok {
		return cached.(*jsonschema.Schema), nil
	}

	// The jsonschema library expects a parsed JSON value (any), not raw
	// bytes. Marshal then unmarshal to get a clean any representation.
	defBytes, err := json.Marshal(def)
	if err != nil {
		return nil, fmt.Errorf("marshal schema definition: %w", err)
	}
	var defParsed any
	if err := json.Unmarshal(defBytes, &defParsed); err != nil {
		return nil, fmt.Errorf("parse schema definition: %w", err)
	}

	c := jsonschema.NewCompiler()
	schemaURL := fmt.Sprintf("schema://content-%s.json", name)
	if err := c.AddResource(schemaURL, defParsed); err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}
	compiled, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}

	compiledSchemas.Store(name, compiled)
	return compiled, nil
}
