// Package openapi turns OpenAPI 3 documents into ADK tools, one tool per
// operation, which call the described HTTP API.
package openapi

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"
)

// Document types accepted by Parse.
const (
	TypeJSON = "json"
	TypeYAML = "yaml"
)

// methods are visited in this order for every path.
var methods = []string{"get", "post", "put", "patch", "delete", "head", "options"}

// Parameter locations.
const (
	InPath   = "path"
	InQuery  = "query"
	InHeader = "header"
	InCookie = "cookie"
)

// Spec is a parsed OpenAPI document reduced to what tool generation needs.
type Spec struct {
	Title      string
	BaseURL    string
	Operations []*Operation
}

// Operation is one HTTP operation exposed as a tool.
type Operation struct {
	// ToolName is the snake_case operationId, unique within the spec
	ToolName    string
	OperationID string
	Method      string
	// PathTemplate may carry a query string, e.g. "/get?petId={petId}"
	PathTemplate string
	Summary      string
	Description  string
	Parameters   []Parameter
	Body         *RequestBody
}

// Parameter is a path, query, header or cookie parameter.
type Parameter struct {
	Name        string
	In          string
	Description string
	Required    bool
	Schema      map[string]any
}

// RequestBody is a JSON request body. Object bodies are flattened into the
// tool arguments; anything else is passed as the "body" argument.
type RequestBody struct {
	Description string
	Required    bool
	ContentType string
	Schema      map[string]any
	// Fields maps argument names to body property names for flattened bodies
	Fields map[string]string
	// RequiredFields are the flattened body's required argument names
	RequiredFields []string
}

// Flattened reports whether the body's properties are separate arguments.
func (b *RequestBody) Flattened() bool {
	return b.Fields != nil
}

// BodyArgument is the argument name used for non-object request bodies.
const BodyArgument = "body"

// Parse reads an OpenAPI document of the given type (json or yaml).
// Local $refs are resolved by the loader; external references are refused.
func Parse(text []byte, docType string) (*Spec, error) {
	var head struct {
		OpenAPI string `json:"openapi" yaml:"openapi"`
	}
	switch strings.ToLower(docType) {
	case TypeJSON, "":
		if err := json.Unmarshal(text, &head); err != nil {
			return nil, fmt.Errorf("parsing OpenAPI JSON: %w", err)
		}
	case TypeYAML, "yml":
		var node yaml.Node
		if err := yaml.Unmarshal(text, &node); err != nil {
			return nil, fmt.Errorf("parsing OpenAPI YAML: %w", err)
		}
		if len(node.Content) == 0 || node.Content[0].Kind != yaml.MappingNode {
			return nil, fmt.Errorf("OpenAPI YAML document must be a mapping")
		}
		if err := node.Decode(&head); err != nil {
			return nil, fmt.Errorf("parsing OpenAPI YAML: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported OpenAPI document type %q", docType)
	}
	if !strings.HasPrefix(head.OpenAPI, "3.") {
		return nil, fmt.Errorf("unsupported OpenAPI version %q (expected 3.x)", head.OpenAPI)
	}

	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = false
	doc, err := loader.LoadFromData(text)
	if err != nil {
		return nil, fmt.Errorf("loading OpenAPI document: %w", err)
	}
	return fromDocument(doc)
}

func fromDocument(doc *openapi3.T) (*Spec, error) {
	spec := &Spec{}
	if doc.Info != nil {
		spec.Title = doc.Info.Title
	}
	if len(doc.Servers) > 0 && doc.Servers[0] != nil {
		spec.BaseURL = serverURL(doc.Servers[0])
	}
	if doc.Paths == nil {
		return spec, nil
	}

	items := doc.Paths.Map()
	pathKeys := make([]string, 0, len(items))
	for k := range items {
		pathKeys = append(pathKeys, k)
	}
	sort.Strings(pathKeys)

	seen := make(map[string]string)
	for _, path := range pathKeys {
		item := items[path]
		if item == nil {
			continue
		}
		shared, err := parameters(item.Parameters)
		if err != nil {
			return nil, fmt.Errorf("path %s: %w", path, err)
		}

		for _, method := range methods {
			raw := item.GetOperation(strings.ToUpper(method))
			if raw == nil {
				continue
			}
			op, err := buildOperation(method, path, raw, shared)
			if err != nil {
				return nil, fmt.Errorf("%s %s: %w", strings.ToUpper(method), path, err)
			}
			if prev, dup := seen[op.ToolName]; dup {
				return nil, fmt.Errorf("duplicate tool name %q for %s %s and %s",
					op.ToolName, strings.ToUpper(method), path, prev)
			}
			seen[op.ToolName] = strings.ToUpper(method) + " " + path
			spec.Operations = append(spec.Operations, op)
		}
	}

	return spec, nil
}

// serverURL expands server variables with their defaults.
func serverURL(server *openapi3.Server) string {
	u := server.URL
	for name, v := range server.Variables {
		if v != nil && v.Default != "" {
			u = strings.ReplaceAll(u, "{"+name+"}", v.Default)
		}
	}
	return strings.TrimRight(u, "/")
}

func buildOperation(method, path string, raw *openapi3.Operation, shared []Parameter) (*Operation, error) {
	op := &Operation{
		Method:       strings.ToUpper(method),
		PathTemplate: path,
		OperationID:  raw.OperationID,
		Summary:      raw.Summary,
		Description:  raw.Description,
	}

	if op.OperationID != "" {
		op.ToolName = ToolName(op.OperationID)
	} else {
		op.ToolName = ToolName(method + "_" + path)
	}
	if op.ToolName == "" {
		return nil, fmt.Errorf("cannot derive a tool name")
	}

	own, err := parameters(raw.Parameters)
	if err != nil {
		return nil, err
	}
	op.Parameters = mergeParameters(shared, own)

	if raw.RequestBody != nil && raw.RequestBody.Value != nil {
		body, err := requestBody(raw.RequestBody.Value, op.Parameters)
		if err != nil {
			return nil, err
		}
		op.Body = body
	}

	return op, nil
}

// mergeParameters lets operation parameters override path-level ones with
// the same name and location.
func mergeParameters(shared, own []Parameter) []Parameter {
	out := make([]Parameter, 0, len(shared)+len(own))
	overridden := make(map[string]bool, len(own))
	for _, param := range own {
		overridden[param.In+"/"+param.Name] = true
	}
	for _, param := range shared {
		if !overridden[param.In+"/"+param.Name] {
			out = append(out, param)
		}
	}
	return append(out, own...)
}

func parameters(refs openapi3.Parameters) ([]Parameter, error) {
	params := make([]Parameter, 0, len(refs))
	for i, ref := range refs {
		if ref == nil || ref.Value == nil {
			return nil, fmt.Errorf("parameter %d is not an object", i)
		}
		m := ref.Value
		param := Parameter{
			Name:        m.Name,
			In:          m.In,
			Description: m.Description,
			Required:    m.Required,
		}

		if param.Name == "" {
			return nil, fmt.Errorf("parameter %d has no name", i)
		}
		switch param.In {
		case InPath:
			param.Required = true
		case InQuery, InHeader, InCookie:
		default:
			return nil, fmt.Errorf("parameter %q has unsupported location %q", param.Name, param.In)
		}

		if m.Schema != nil && m.Schema.Value != nil {
			param.Schema = schemaMap(m.Schema, 0)
		} else {
			param.Schema = map[string]any{"type": "string"}
		}
		params = append(params, param)
	}
	return params, nil
}

func requestBody(raw *openapi3.RequestBody, params []Parameter) (*RequestBody, error) {
	body := &RequestBody{
		Description: raw.Description,
		Required:    raw.Required,
	}

	contentType, media := pickJSONContent(raw.Content)
	if media == nil {
		// Only JSON bodies can be built from tool arguments.
		return nil, nil
	}
	body.ContentType = contentType

	schema := map[string]any{}
	if media.Schema != nil {
		schema = schemaMap(media.Schema, 0)
	}
	body.Schema = schema

	props, isObject := schema["properties"].(map[string]any)
	if schemaType(schema) != "object" || !isObject {
		return body, nil
	}

	taken := make(map[string]bool, len(params))
	for _, param := range params {
		taken[param.Name] = true
	}

	propNames := make([]string, 0, len(props))
	for name := range props {
		propNames = append(propNames, name)
	}
	sort.Strings(propNames)

	body.Fields = make(map[string]string, len(props))
	argFor := make(map[string]string, len(props))
	for _, prop := range propNames {
		arg := prop
		if taken[arg] {
			arg = "body_" + prop
		}
		if taken[arg] {
			return nil, fmt.Errorf("request body property %q clashes with a parameter", prop)
		}
		taken[arg] = true
		body.Fields[arg] = prop
		argFor[prop] = arg
	}
	for _, req := range stringList(schema["required"]) {
		if arg, ok := argFor[req]; ok {
			body.RequiredFields = append(body.RequiredFields, arg)
		}
	}
	return body, nil
}

// pickJSONContent prefers application/json, then any +json or */* media type.
func pickJSONContent(content openapi3.Content) (string, *openapi3.MediaType) {
	if m := content["application/json"]; m != nil {
		return "application/json", m
	}
	keys := make([]string, 0, len(content))
	for k := range content {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if strings.HasSuffix(k, "+json") || k == "*/*" {
			if m := content[k]; m != nil {
				ct := k
				if k == "*/*" {
					ct = "application/json"
				}
				return ct, m
			}
		}
	}
	return "", nil
}

func stringList(v any) []string {
	list, _ := v.([]any)
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
