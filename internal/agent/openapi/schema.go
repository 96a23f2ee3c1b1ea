package openapi

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/google/jsonschema-go/jsonschema"
	validator "github.com/santhosh-tekuri/jsonschema/v6"
)

// maxSchemaDepth bounds conversion so recursive schemas terminate.
const maxSchemaDepth = 16

// schemaMap converts a loaded schema into a plain JSON Schema map.
// OpenAPI 3.0 "nullable" becomes a type list and annotation-only keywords
// are dropped.
func schemaMap(ref *openapi3.SchemaRef, depth int) map[string]any {
	if ref == nil || ref.Value == nil || depth > maxSchemaDepth {
		return map[string]any{}
	}
	s := ref.Value
	out := make(map[string]any)

	switch types := s.Type.Slice(); len(types) {
	case 0:
	case 1:
		out["type"] = types[0]
	default:
		out["type"] = toAnySlice(types)
	}
	if s.Nullable {
		if t, ok := out["type"].(string); ok {
			out["type"] = []any{t, "null"}
		}
	}
	if _, ok := out["type"]; !ok && len(s.Properties) > 0 {
		out["type"] = "object"
	}

	for key, v := range map[string]string{
		"title":       s.Title,
		"description": s.Description,
		"format":      s.Format,
		"pattern":     s.Pattern,
	} {
		if v != "" {
			out[key] = v
		}
	}
	if len(s.Enum) > 0 {
		out["enum"] = s.Enum
	}
	if s.Default != nil {
		out["default"] = s.Default
	}
	if s.Min != nil {
		out["minimum"] = *s.Min
	}
	if s.Max != nil {
		out["maximum"] = *s.Max
	}
	if s.MultipleOf != nil {
		out["multipleOf"] = *s.MultipleOf
	}
	if s.MinLength > 0 {
		out["minLength"] = s.MinLength
	}
	if s.MaxLength != nil {
		out["maxLength"] = *s.MaxLength
	}
	if s.MinItems > 0 {
		out["minItems"] = s.MinItems
	}
	if s.MaxItems != nil {
		out["maxItems"] = *s.MaxItems
	}
	if s.UniqueItems {
		out["uniqueItems"] = true
	}

	if s.Items != nil {
		out["items"] = schemaMap(s.Items, depth+1)
	}
	if len(s.Properties) > 0 {
		props := make(map[string]any, len(s.Properties))
		for name, prop := range s.Properties {
			props[name] = schemaMap(prop, depth+1)
		}
		out["properties"] = props
	}
	if len(s.Required) > 0 {
		out["required"] = toAnySlice(s.Required)
	}
	if ap := s.AdditionalProperties; ap.Schema != nil {
		out["additionalProperties"] = schemaMap(ap.Schema, depth+1)
	} else if ap.Has != nil {
		out["additionalProperties"] = *ap.Has
	}
	for key, list := range map[string]openapi3.SchemaRefs{
		"allOf": s.AllOf,
		"anyOf": s.AnyOf,
		"oneOf": s.OneOf,
	} {
		if len(list) == 0 {
			continue
		}
		inlined := make([]any, 0, len(list))
		for _, item := range list {
			inlined = append(inlined, schemaMap(item, depth+1))
		}
		out[key] = inlined
	}
	if s.Not != nil {
		out["not"] = schemaMap(s.Not, depth+1)
	}
	return out
}

// schemaType returns the first non-null type of schema.
func schemaType(schema map[string]any) string {
	switch t := schema["type"].(type) {
	case string:
		return t
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok && s != "null" {
				return s
			}
		}
	}
	return ""
}

// argumentSchema builds the tool's input schema as a plain JSON schema map.
func argumentSchema(op *Operation) map[string]any {
	props := make(map[string]any)
	var required []string

	for _, param := range op.Parameters {
		s := copySchema(param.Schema)
		if _, ok := s["description"]; !ok && param.Description != "" {
			s["description"] = param.Description
		}
		props[param.Name] = s
		if param.Required {
			required = append(required, param.Name)
		}
	}

	if op.Body != nil {
		if op.Body.Flattened() {
			bodyProps, _ := op.Body.Schema["properties"].(map[string]any)
			args := make([]string, 0, len(op.Body.Fields))
			for arg := range op.Body.Fields {
				args = append(args, arg)
			}
			sort.Strings(args)
			for _, arg := range args {
				if s, ok := bodyProps[op.Body.Fields[arg]].(map[string]any); ok {
					props[arg] = copySchema(s)
				} else {
					props[arg] = map[string]any{}
				}
			}
			required = append(required, op.Body.RequiredFields...)
		} else {
			s := copySchema(op.Body.Schema)
			if _, ok := s["description"]; !ok && op.Body.Description != "" {
				s["description"] = op.Body.Description
			}
			props[BodyArgument] = s
			if op.Body.Required {
				required = append(required, BodyArgument)
			}
		}
	}

	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = toAnySlice(required)
	}
	return schema
}

func copySchema(s map[string]any) map[string]any {
	out := make(map[string]any, len(s)+1)
	for k, v := range s {
		out[k] = v
	}
	return out
}

func toAnySlice(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}

// toToolSchema converts a JSON schema map to the structure ADK advertises to
// the model. Only keywords models understand are carried over.
func toToolSchema(m map[string]any) *jsonschema.Schema {
	s := &jsonschema.Schema{}
	switch t := m["type"].(type) {
	case string:
		s.Type = t
	case []any:
		for _, item := range t {
			if str, ok := item.(string); ok {
				s.Types = append(s.Types, str)
			}
		}
	}
	s.Title, _ = m["title"].(string)
	s.Description, _ = m["description"].(string)
	s.Format, _ = m["format"].(string)
	if enum, ok := m["enum"].([]any); ok {
		s.Enum = enum
	}
	if items, ok := m["items"].(map[string]any); ok {
		s.Items = toToolSchema(items)
	}
	if props, ok := m["properties"].(map[string]any); ok {
		s.Properties = make(map[string]*jsonschema.Schema, len(props))
		for name, prop := range props {
			if pm, ok := prop.(map[string]any); ok {
				s.Properties[name] = toToolSchema(pm)
			}
		}
	}
	s.Required = stringList(m["required"])
	if len(s.Required) == 0 {
		s.Required = nil
	}
	return s
}

// compileValidator compiles schema for argument validation.
func compileValidator(schema map[string]any) (*validator.Schema, error) {
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}

	c := validator.NewCompiler()
	if err := c.AddResource("schema.json", doc); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	compiled, err := c.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return compiled, nil
}

// jsonValue round-trips v through encoding/json so the validator sees plain
// JSON types regardless of how the arguments were produced.
func jsonValue(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
