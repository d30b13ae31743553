package llm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// schemaCache holds compiled schemas keyed by name; shallow variants carry
// a ".root" suffix.
var schemaCache sync.Map // map[string]*jsonschema.Schema

// envelopeKey names the property an array-rooted schema is wrapped under.
const envelopeKey = "items"

// validateResponse checks raw against schema. A nil schema accepts
// anything. Failures are *ErrInvalidResponse.
func validateResponse(schema *Schema, raw json.RawMessage) error {
	if schema == nil {
		return nil
	}

	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return &ErrInvalidResponse{
			Content: raw,
			Err:     fmt.Errorf("invalid JSON: %w", err),
		}
	}

	compiled, err := compiledSchema(schema)
	if err != nil {
		return &ErrInvalidResponse{
			Content: raw,
			Err:     fmt.Errorf("compile schema %q: %w", schema.Name, err),
		}
	}

	if err := compiled.Validate(parsed); err != nil {
		return &ErrInvalidResponse{
			Content: raw,
			Err:     fmt.Errorf("schema %q: %w", schema.Name, err),
		}
	}
	return nil
}

func compiledSchema(schema *Schema) (*jsonschema.Schema, error) {
	key, def := schema.Name, schema.Definition
	if schema.Shallow {
		key += ".root"
		def = map[string]any{"type": schema.Definition["type"]}
	}
	if cached, ok := schemaCache.Load(key); ok {
		return cached.(*jsonschema.Schema), nil
	}

	// The compiler wants decoded JSON values, not Go maps of typed slices.
	b, err := json.Marshal(def)
	if err != nil {
		return nil, fmt.Errorf("marshal definition: %w", err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("parse definition: %w", err)
	}

	c := jsonschema.NewCompiler()
	url := "schema://" + key + ".json"
	if err := c.AddResource(url, doc); err != nil {
		return nil, err
	}
	compiled, err := c.Compile(url)
	if err != nil {
		return nil, err
	}

	actual, _ := schemaCache.LoadOrStore(key, compiled)
	return actual.(*jsonschema.Schema), nil
}

// objectRoot returns a definition with an object at the root, which the
// OpenAI and Anthropic structured-output modes require. An array-rooted
// definition is wrapped under envelopeKey and wrapped is true.
func objectRoot(def map[string]any) (out map[string]any, wrapped bool) {
	if def["type"] != "array" {
		return def, false
	}
	return map[string]any{
		"type":                 "object",
		"properties":           map[string]any{envelopeKey: def},
		"required":             []any{envelopeKey},
		"additionalProperties": false,
	}, true
}

// unwrapEnvelope undoes objectRoot on a response.
func unwrapEnvelope(raw json.RawMessage) (json.RawMessage, error) {
	var env map[string]json.RawMessage
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &ErrInvalidResponse{Content: raw, Err: fmt.Errorf("invalid JSON: %w", err)}
	}
	inner, ok := env[envelopeKey]
	if !ok {
		return nil, &ErrInvalidResponse{Content: raw, Err: errors.New("response envelope has no " + envelopeKey)}
	}
	return inner, nil
}
