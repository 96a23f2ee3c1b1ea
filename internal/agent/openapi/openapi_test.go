package openapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToolName(t *testing.T) {
	tests := map[string]string{
		"listPets":                     "list_pets",
		"showPetById":                  "show_pet_by_id",
		"createPet":                    "create_pet",
		"getHTTPStatus":                "get_http_status",
		"get_/pets/{petId}":            "get_pets_pet_id",
		"Already_snake__case":          "already_snake_case",
		"v2ListUsers":                  "v2_list_users",
		"--weird--":                    "weird",
		strings.Repeat("a", 70):        strings.Repeat("a", 60),
		"getÄpfel":                     "get_pfel",
		"listÜberPets":                 "list_ber_pets",
		"naïveName":                    "na_ve_name",
		"ŁódźCity":                     "d_city",
		strings.Repeat("é", 80) + "ok": "ok",
	}
	for in, want := range tests {
		assert.Equal(t, want, ToolName(in), in)
	}

	long := ToolName(strings.Repeat("ab", 29) + "_cdef")
	assert.LessOrEqual(t, len(long), MaxToolNameLength)
	assert.False(t, strings.HasSuffix(long, "_"))

	mixed := ToolName(strings.Repeat("aé", 40))
	assert.True(t, utf8.ValidString(mixed))
	assert.LessOrEqual(t, len(mixed), MaxToolNameLength)
	assert.Equal(t, strings.Repeat("a_", 29)+"a", mixed)
}

func TestParsePetStore(t *testing.T) {
	spec, err := Parse(PetStoreDocument(), TypeJSON)
	require.NoError(t, err)

	assert.Equal(t, "Simple Pet Store API (Mock)", spec.Title)
	assert.Equal(t, "https://randomuser.me", spec.BaseURL)
	require.Len(t, spec.Operations, 3)

	doc := string(PetStoreDocument())
	assert.Contains(t, doc, `"description": "An API to manage pets in a store, using httpbin for responses."`)
	assert.Contains(t, doc, `"description": "Mock server (httpbin.org)"`)

	list, show, create := spec.Operations[0], spec.Operations[1], spec.Operations[2]
	assert.Equal(t, "list_pets", list.ToolName)
	assert.Equal(t, "GET", list.Method)
	assert.Equal(t, "/api", list.PathTemplate)
	require.Len(t, list.Parameters, 2)
	assert.Equal(t, "List all pets (Simulated)\nSimulates returning a list of pets. Uses httpbin's /get endpoint which echoes query parameters.",
		toolDescription(list))

	assert.Equal(t, "show_pet_by_id", show.ToolName)
	assert.Equal(t, "/get?petId={petId}", show.PathTemplate)
	require.Len(t, show.Parameters, 1)
	assert.True(t, show.Parameters[0].Required)

	assert.Equal(t, "create_pet", create.ToolName)
	require.NotNil(t, create.Body)
	assert.True(t, create.Body.Flattened())
	assert.Equal(t, map[string]string{"name": "name", "tag": "tag"}, create.Body.Fields)
	assert.Equal(t, []string{"name"}, create.Body.RequiredFields)

	schema := argumentSchema(create)
	assert.Equal(t, []any{"name"}, schema["required"])
}

func TestPetStoreTools(t *testing.T) {
	ts, err := LoadPetStore(Options{})
	require.NoError(t, err)
	assert.Equal(t, PetStoreToolsetName, ts.Name())

	tools, err := ts.Tools()
	require.NoError(t, err)
	names := make([]string, 0, len(tools))
	for _, tl := range tools {
		names = append(names, tl.Name())
		assert.NotEmpty(t, tl.Description())
	}
	assert.Equal(t, []string{"list_pets", "show_pet_by_id", "create_pet"}, names)
}

type recorded struct {
	method string
	path   string
	query  string
	header http.Header
	body   string
}

func newPetServer(t *testing.T) (*httptest.Server, *recorded) {
	t.Helper()
	rec := &recorded{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		rec.method = r.Method
		rec.path = r.URL.Path
		rec.query = r.URL.RawQuery
		rec.header = r.Header.Clone()
		rec.body = string(body)

		switch r.URL.Path {
		case "/api", "/get":
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{"args": r.URL.Query()})
		case "/post":
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"json":` + string(body) + `}`))
		case "/list":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[1,2,3]`))
		case "/text":
			w.Header().Set("Content-Type", "text/plain")
			_, _ = w.Write([]byte("hello pets"))
		case "/big":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"data":"` + strings.Repeat("x", 100) + `"}`))
		default:
			http.Error(w, "nope", http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func operation(t *testing.T, ts *Toolset, name string) *Operation {
	t.Helper()
	for _, op := range ts.Operations() {
		if op.ToolName == name {
			return op
		}
	}
	t.Fatalf("operation %s not found", name)
	return nil
}

func TestInvokeQueryParameters(t *testing.T) {
	srv, rec := newPetServer(t)
	ts, err := LoadPetStore(Options{BaseURL: srv.URL})
	require.NoError(t, err)

	res := ts.Invoke(context.Background(), operation(t, ts, "list_pets"),
		map[string]any{"limit": float64(5), "status": "available"})

	assert.Equal(t, "GET", rec.method)
	assert.Equal(t, "/api", rec.path)
	assert.Equal(t, "limit=5&status=available", rec.query)
	assert.Contains(t, res, "args")
	assert.NotContains(t, res, "error")
}

func TestInvokePathTemplateWithQuery(t *testing.T) {
	srv, rec := newPetServer(t)
	ts, err := LoadPetStore(Options{BaseURL: srv.URL + "/"})
	require.NoError(t, err)

	res := ts.Invoke(context.Background(), operation(t, ts, "show_pet_by_id"), map[string]any{"petId": float64(42)})

	assert.Equal(t, "/get", rec.path)
	assert.Equal(t, "petId=42", rec.query)
	args, ok := res["args"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []any{"42"}, args["petId"])
}

func TestInvokeFlattenedBody(t *testing.T) {
	srv, rec := newPetServer(t)
	ts, err := LoadPetStore(Options{BaseURL: srv.URL})
	require.NoError(t, err)

	res := ts.Invoke(context.Background(), operation(t, ts, "create_pet"), map[string]any{"name": "Rex", "tag": "dog"})

	assert.Equal(t, "POST", rec.method)
	assert.Equal(t, "application/json", rec.header.Get("Content-Type"))
	assert.JSONEq(t, `{"name":"Rex","tag":"dog"}`, rec.body)
	assert.Equal(t, map[string]any{"name": "Rex", "tag": "dog"}, res["json"])
}

func TestInvokeValidation(t *testing.T) {
	srv, rec := newPetServer(t)
	ts, err := LoadPetStore(Options{BaseURL: srv.URL})
	require.NoError(t, err)

	tests := []struct {
		op   string
		args map[string]any
	}{
		{"create_pet", map[string]any{"tag": "dog"}},
		{"list_pets", map[string]any{"status": "lost"}},
		{"list_pets", map[string]any{"limit": "ten"}},
		{"show_pet_by_id", nil},
	}
	for _, tt := range tests {
		res := ts.Invoke(context.Background(), operation(t, ts, tt.op), tt.args)
		msg, ok := res["error"].(string)
		require.True(t, ok, "%s %v", tt.op, tt.args)
		assert.True(t, strings.HasPrefix(msg, "invalid arguments"), msg)
	}
	assert.Empty(t, rec.method, "no request is sent for invalid arguments")
}

const extraSpec = `openapi: 3.0.3
info:
  title: Extra
servers:
  - url: "{scheme}://example.invalid"
    variables:
      scheme:
        default: https
paths:
  /items/{itemId}:
    parameters:
      - $ref: '#/components/parameters/ItemID'
    put:
      operationId: replaceItem
      parameters:
        - name: X-Trace
          in: header
          schema: {type: string}
        - name: session
          in: cookie
          schema: {type: string}
      requestBody:
        required: true
        content:
          application/json:
            schema:
              $ref: '#/components/schemas/Item'
      responses:
        200:
          description: ok
  /tags:
    post:
      summary: Replace tags
      requestBody:
        content:
          application/json:
            schema:
              type: array
              items: {type: string}
      responses:
        204:
          description: ok
  /text:
    get:
      operationId: getText
      responses:
        200:
          description: ok
  /list:
    get:
      operationId: getList
      responses:
        200:
          description: ok
  /big:
    get:
      operationId: getBig
      responses:
        200:
          description: ok
  /missing:
    delete:
      operationId: removeMissing
      responses:
        404:
          description: gone
components:
  parameters:
    ItemID:
      name: itemId
      in: path
      schema: {type: integer}
  schemas:
    Item:
      type: object
      required: [itemId]
      properties:
        itemId: {type: integer}
        label: {type: string, nullable: true}
`

func loadExtra(t *testing.T, baseURL string, maxBytes int64) *Toolset {
	t.Helper()
	ts, err := Load("extra", []byte(extraSpec), TypeYAML, Options{BaseURL: baseURL, MaxResponseBytes: maxBytes})
	require.NoError(t, err)
	return ts
}

func TestParseYAMLFeatures(t *testing.T) {
	spec, err := Parse([]byte(extraSpec), TypeYAML)
	require.NoError(t, err)
	assert.Equal(t, "https://example.invalid", spec.BaseURL)

	byName := map[string]*Operation{}
	for _, op := range spec.Operations {
		byName[op.ToolName] = op
	}
	require.Contains(t, byName, "replace_item")
	require.Contains(t, byName, "post_tags")

	replace := byName["replace_item"]
	require.Len(t, replace.Parameters, 3)
	assert.Equal(t, "itemId", replace.Parameters[0].Name)
	// The body property clashes with the path parameter and is renamed.
	assert.Equal(t, map[string]string{"body_itemId": "itemId", "label": "label"}, replace.Body.Fields)
	assert.Equal(t, []string{"body_itemId"}, replace.Body.RequiredFields)

	labelSchema := argumentSchema(replace)["properties"].(map[string]any)["label"].(map[string]any)
	assert.Equal(t, []any{"string", "null"}, labelSchema["type"])

	tags := byName["post_tags"]
	require.NotNil(t, tags.Body)
	assert.False(t, tags.Body.Flattened())
	assert.Contains(t, argumentSchema(tags)["properties"], BodyArgument)
	assert.Equal(t, "Replace tags", toolDescription(tags))
}

const refSpec = `{
  "openapi": "3.0.1",
  "info": {"title": "Refs"},
  "servers": [{"url": "http://{host}:{port}/v1/", "variables": {
    "host": {"default": "localhost"}, "port": {"default": "8081"}}}],
  "paths": {
    "/orders": {
      "post": {
        "operationId": "createOrder",
        "requestBody": {"$ref": "#/components/requestBodies/Order"},
        "responses": {"201": {"description": "created"}}
      }
    }
  },
  "components": {
    "requestBodies": {
      "Order": {
        "required": true,
        "content": {"application/vnd.order+json": {"schema": {"$ref": "#/components/schemas/Order"}}}
      }
    },
    "schemas": {
      "Order": {
        "required": ["lines"],
        "properties": {
          "lines": {"type": "array", "minItems": 1, "items": {"$ref": "#/components/schemas/Line"}},
          "notes": {"type": "object", "additionalProperties": {"type": "string"}},
          "priority": {"type": "integer", "minimum": 1, "maximum": 5, "default": 3}
        }
      },
      "Line": {
        "allOf": [
          {"type": "object", "properties": {"sku": {"type": "string", "pattern": "^[A-Z]{3}$"}}},
          {"type": "object", "properties": {"qty": {"type": "integer"}}}
        ]
      }
    }
  }
}`

func TestParseResolvesReferences(t *testing.T) {
	spec, err := Parse([]byte(refSpec), TypeJSON)
	require.NoError(t, err)
	assert.Equal(t, "Refs", spec.Title)
	assert.Equal(t, "http://localhost:8081/v1", spec.BaseURL)

	require.Len(t, spec.Operations, 1)
	op := spec.Operations[0]
	assert.Equal(t, "create_order", op.ToolName)
	require.NotNil(t, op.Body)
	assert.True(t, op.Body.Required)
	assert.Equal(t, "application/vnd.order+json", op.Body.ContentType)
	assert.Equal(t, []string{"lines"}, op.Body.RequiredFields)

	props := argumentSchema(op)["properties"].(map[string]any)
	lines := props["lines"].(map[string]any)
	assert.Equal(t, "array", lines["type"])
	items := lines["items"].(map[string]any)
	require.Len(t, items["allOf"], 2)
	sku := items["allOf"].([]any)[0].(map[string]any)["properties"].(map[string]any)["sku"].(map[string]any)
	assert.Equal(t, "^[A-Z]{3}$", sku["pattern"])

	notes := props["notes"].(map[string]any)
	assert.Equal(t, map[string]any{"type": "string"}, notes["additionalProperties"])
	priority := props["priority"].(map[string]any)
	assert.Equal(t, 1.0, priority["minimum"])
	assert.Equal(t, 3.0, priority["default"])
}

func TestInvokeValidatesResolvedSchema(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	ts, err := Load("refs", []byte(refSpec), TypeJSON, Options{BaseURL: srv.URL})
	require.NoError(t, err)
	op := operation(t, ts, "create_order")

	res := ts.Invoke(context.Background(), op, map[string]any{
		"lines": []any{map[string]any{"sku": "abc", "qty": 1}},
	})
	msg, _ := res["error"].(string)
	assert.True(t, strings.HasPrefix(msg, "invalid arguments"), msg)
	assert.Zero(t, calls)

	res = ts.Invoke(context.Background(), op, map[string]any{
		"lines": []any{map[string]any{"sku": "ABC", "qty": 1}},
	})
	assert.NotContains(t, res, "error")
	assert.Equal(t, 1, calls)
}

func TestInvokeHeadersCookiesAndPath(t *testing.T) {
	var got *http.Request
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		got, body = r, string(raw)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	ts := loadExtra(t, srv.URL, 0)
	res := ts.Invoke(context.Background(), operation(t, ts, "replace_item"), map[string]any{
		"itemId":      float64(7),
		"body_itemId": float64(7),
		"label":       nil,
		"X-Trace":     "abc",
		"session":     "s1",
	})

	require.NotNil(t, got)
	assert.Equal(t, http.MethodPut, got.Method)
	assert.Equal(t, "/items/7", got.URL.Path)
	assert.Equal(t, "abc", got.Header.Get("X-Trace"))
	cookie, err := got.Cookie("session")
	require.NoError(t, err)
	assert.Equal(t, "s1", cookie.Value)
	assert.JSONEq(t, `{"itemId":7,"label":null}`, body)
	assert.Equal(t, map[string]any{"text": ""}, res)
}

func TestInvokeArrayBody(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		body = string(raw)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	ts := loadExtra(t, srv.URL, 0)
	ts.Invoke(context.Background(), operation(t, ts, "post_tags"), map[string]any{"body": []any{"a", "b"}})
	assert.JSONEq(t, `["a","b"]`, body)
}

func TestInvokeResponseShapes(t *testing.T) {
	srv, _ := newPetServer(t)
	ts := loadExtra(t, srv.URL, 32)

	assert.Equal(t, map[string]any{"text": "hello pets"},
		ts.Invoke(context.Background(), operation(t, ts, "get_text"), nil))

	assert.Equal(t, map[string]any{"response": []any{float64(1), float64(2), float64(3)}},
		ts.Invoke(context.Background(), operation(t, ts, "get_list"), nil))

	big := ts.Invoke(context.Background(), operation(t, ts, "get_big"), nil)
	assert.Equal(t, true, big["truncated"])
	assert.Len(t, big["text"], 32)

	missing := ts.Invoke(context.Background(), operation(t, ts, "remove_missing"), nil)
	assert.Equal(t, 404, missing["status_code"])
	assert.Equal(t, "404 Not Found: nope\n", missing["error"])
}

func TestInvokeTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	ts, err := LoadPetStore(Options{BaseURL: url})
	require.NoError(t, err)
	res := ts.Invoke(context.Background(), operation(t, ts, "list_pets"), nil)
	msg, ok := res["error"].(string)
	require.True(t, ok)
	assert.Contains(t, msg, "request failed")
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name, doc, docType, wantErr string
	}{
		{"bad json", "{", TypeJSON, "parsing OpenAPI JSON"},
		{"bad type", "{}", "xml", "unsupported OpenAPI document type"},
		{"swagger 2", `{"swagger":"2.0"}`, TypeJSON, "unsupported OpenAPI version"},
		{"yaml scalar", "hello", TypeYAML, "must be a mapping"},
		{"duplicate names", `{"openapi":"3.0.0","paths":{
			"/a":{"get":{"operationId":"listPets"}},
			"/b":{"get":{"operationId":"list_pets"}}}}`, TypeJSON, "duplicate tool name"},
		{"bad param location", `{"openapi":"3.0.0","paths":{
			"/a":{"get":{"parameters":[{"name":"x","in":"body"}]}}}}`, TypeJSON, "unsupported location"},
		{"external ref", `{"openapi":"3.0.0","paths":{
			"/a":{"get":{"parameters":[{"$ref":"other.json#/components/parameters/X"}]}}}}`, TypeJSON, "loading OpenAPI document"},
		{"dangling ref", `{"openapi":"3.0.0","paths":{
			"/a":{"get":{"parameters":[{"$ref":"#/components/parameters/Missing"}]}}}}`, TypeJSON, "loading OpenAPI document"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc), tt.docType)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewToolsetRequiresBaseURL(t *testing.T) {
	_, err := Load("nobase", []byte(`{"openapi":"3.0.0","paths":{}}`), TypeJSON, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no base URL")
}

func TestLoadFiles(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "pets.json")
	yamlPath := filepath.Join(dir, "extra.yaml")
	require.NoError(t, os.WriteFile(jsonPath, PetStoreDocument(), 0600))
	require.NoError(t, os.WriteFile(yamlPath, []byte(extraSpec), 0600))

	toolsets, err := LoadFiles(context.Background(), []Source{
		{Name: "pets", Path: jsonPath, Type: TypeJSON, BaseURL: "http://localhost:1"},
		{Name: "extra", Path: yamlPath, Type: TypeYAML},
	}, Options{})
	require.NoError(t, err)
	require.Len(t, toolsets, 2)
	assert.Equal(t, "pets", toolsets[0].Name())
	assert.Equal(t, "http://localhost:1", toolsets[0].BaseURL())
	assert.Equal(t, "https://example.invalid", toolsets[1].BaseURL())

	_, err = LoadFiles(context.Background(), []Source{{Name: "gone", Path: filepath.Join(dir, "gone.json")}}, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "toolset gone")
}
