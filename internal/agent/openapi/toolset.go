package openapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/moolen/agentdesk/internal/logging"
	validator "github.com/santhosh-tekuri/jsonschema/v6"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/adk/tool"
	"google.golang.org/adk/tool/functiontool"
)

// Defaults for Options.
const (
	DefaultTimeout          = 30 * time.Second
	DefaultMaxResponseBytes = 64 << 10
)

// Options configures how a Toolset calls its API.
type Options struct {
	// BaseURL overrides the document's servers[0].url
	BaseURL string
	// HTTPClient defaults to a client with Timeout
	HTTPClient *http.Client
	// Timeout bounds each request when HTTPClient is nil
	Timeout time.Duration
	// MaxResponseBytes truncates response bodies
	MaxResponseBytes int64
	// Headers are added to every request
	Headers map[string]string
}

// Toolset is the set of tools generated from one OpenAPI document.
type Toolset struct {
	name       string
	spec       *Spec
	baseURL    string
	client     *http.Client
	maxBytes   int64
	headers    map[string]string
	validators map[string]*validator.Schema
	schemas    map[string]map[string]any
	tracer     trace.Tracer
	logger     *logging.Logger
}

// NewToolset prepares spec for execution. name identifies the toolset in logs
// and registry references.
func NewToolset(name string, spec *Spec, opts Options) (*Toolset, error) {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = spec.BaseURL
	}
	if baseURL == "" {
		return nil, fmt.Errorf("toolset %s: no base URL (document has no servers and none was configured)", name)
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("toolset %s: invalid base URL: %w", name, err)
	}

	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	maxBytes := opts.MaxResponseBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxResponseBytes
	}

	ts := &Toolset{
		name:       name,
		spec:       spec,
		baseURL:    baseURL,
		client:     client,
		maxBytes:   maxBytes,
		headers:    opts.Headers,
		validators: make(map[string]*validator.Schema, len(spec.Operations)),
		schemas:    make(map[string]map[string]any, len(spec.Operations)),
		tracer:     otel.Tracer("agentdesk/openapi"),
		logger:     logging.GetLogger("agent.openapi").WithField("toolset", name),
	}

	for _, op := range spec.Operations {
		schema := argumentSchema(op)
		compiled, err := compileValidator(schema)
		if err != nil {
			return nil, fmt.Errorf("toolset %s: operation %s: %w", name, op.ToolName, err)
		}
		ts.schemas[op.ToolName] = schema
		ts.validators[op.ToolName] = compiled
	}
	return ts, nil
}

// Load parses a document and prepares its toolset.
func Load(name string, text []byte, docType string, opts Options) (*Toolset, error) {
	spec, err := Parse(text, docType)
	if err != nil {
		return nil, fmt.Errorf("toolset %s: %w", name, err)
	}
	return NewToolset(name, spec, opts)
}

// Name returns the toolset name.
func (ts *Toolset) Name() string {
	return ts.name
}

// BaseURL returns the URL requests are sent to.
func (ts *Toolset) BaseURL() string {
	return ts.baseURL
}

// Operations returns the operations in tool order.
func (ts *Toolset) Operations() []*Operation {
	return ts.spec.Operations
}

// Tools creates one ADK function tool per operation.
func (ts *Toolset) Tools() ([]tool.Tool, error) {
	out := make([]tool.Tool, 0, len(ts.spec.Operations))
	for _, op := range ts.spec.Operations {
		t, err := functiontool.New(functiontool.Config{
			Name:        op.ToolName,
			Description: toolDescription(op),
			InputSchema: toToolSchema(ts.schemas[op.ToolName]),
		}, func(ctx tool.Context, args map[string]any) (map[string]any, error) {
			return ts.Invoke(ctx, op, args), nil
		})
		if err != nil {
			return nil, fmt.Errorf("toolset %s: creating tool %s: %w", ts.name, op.ToolName, err)
		}
		out = append(out, t)
	}
	return out, nil
}

func toolDescription(op *Operation) string {
	parts := make([]string, 0, 2)
	if op.Summary != "" {
		parts = append(parts, op.Summary)
	}
	if op.Description != "" {
		parts = append(parts, op.Description)
	}
	if len(parts) == 0 {
		return op.Method + " " + op.PathTemplate
	}
	return strings.Join(parts, "\n")
}

// Invoke validates args, calls the operation and converts the response into
// a tool result. Failures are reported in the result under "error".
func (ts *Toolset) Invoke(ctx context.Context, op *Operation, args map[string]any) map[string]any {
	ctx, span := ts.tracer.Start(ctx, "openapi."+op.ToolName,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("openapi.toolset", ts.name),
			attribute.String("http.method", op.Method),
		),
	)
	defer span.End()

	if args == nil {
		args = map[string]any{}
	}
	if err := ts.validate(op, args); err != nil {
		span.SetStatus(codes.Error, "invalid arguments")
		return errorResult(fmt.Sprintf("invalid arguments: %v", err))
	}

	req, err := ts.buildRequest(ctx, op, args)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return errorResult(err.Error())
	}
	span.SetAttributes(attribute.String("http.url", req.URL.String()))

	start := time.Now()
	resp, err := ts.client.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		ts.logger.WarnWithFields("Tool request failed",
			logging.Field("tool", op.ToolName),
			logging.Field("error", err.Error()),
		)
		return errorResult(fmt.Sprintf("request failed: %v", err))
	}
	defer resp.Body.Close()

	body, truncated, err := readLimited(resp.Body, ts.maxBytes)
	if err != nil {
		span.RecordError(err)
		return errorResult(fmt.Sprintf("reading response: %v", err))
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	ts.logger.DebugWithFields("Tool request complete",
		logging.Field("tool", op.ToolName),
		logging.Field("status", resp.StatusCode),
		logging.Field("duration_ms", time.Since(start).Milliseconds()),
		logging.Field("bytes", len(body)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		span.SetStatus(codes.Error, resp.Status)
		return map[string]any{
			"error":       fmt.Sprintf("%s: %s", resp.Status, string(body)),
			"status_code": resp.StatusCode,
		}
	}
	return successResult(resp.Header.Get("Content-Type"), body, truncated)
}

func (ts *Toolset) validate(op *Operation, args map[string]any) error {
	v, ok := ts.validators[op.ToolName]
	if !ok {
		return nil
	}
	doc, err := jsonValue(args)
	if err != nil {
		return err
	}
	return v.Validate(doc)
}

func (ts *Toolset) buildRequest(ctx context.Context, op *Operation, args map[string]any) (*http.Request, error) {
	pathPart, queryPart, _ := strings.Cut(op.PathTemplate, "?")

	query, err := url.ParseQuery(substitute(queryPart, op, args, url.QueryEscape))
	if err != nil {
		return nil, fmt.Errorf("invalid query in path template %q: %w", op.PathTemplate, err)
	}
	path := substitute(pathPart, op, args, url.PathEscape)

	for _, param := range op.Parameters {
		v, ok := args[param.Name]
		if !ok || v == nil || param.In != InQuery {
			continue
		}
		if list, isList := v.([]any); isList {
			for _, item := range list {
				query.Add(param.Name, formatValue(item))
			}
			continue
		}
		query.Add(param.Name, formatValue(v))
	}

	target := ts.baseURL + path
	if encoded := query.Encode(); encoded != "" {
		target += "?" + encoded
	}

	var body io.Reader
	if op.Body != nil {
		payload, send := requestPayload(op.Body, args)
		if send {
			raw, err := json.Marshal(payload)
			if err != nil {
				return nil, fmt.Errorf("encoding request body: %w", err)
			}
			body = bytes.NewReader(raw)
		}
	}

	req, err := http.NewRequestWithContext(ctx, op.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json, */*;q=0.5")
	if body != nil {
		req.Header.Set("Content-Type", op.Body.ContentType)
	}
	for k, v := range ts.headers {
		req.Header.Set(k, v)
	}

	for _, param := range op.Parameters {
		v, ok := args[param.Name]
		if !ok || v == nil {
			continue
		}
		switch param.In {
		case InHeader:
			req.Header.Set(param.Name, formatValue(v))
		case InCookie:
			req.AddCookie(&http.Cookie{Name: param.Name, Value: formatValue(v)})
		}
	}
	return req, nil
}

// substitute replaces "{name}" with path parameter values.
func substitute(template string, op *Operation, args map[string]any, escape func(string) string) string {
	if !strings.Contains(template, "{") {
		return template
	}
	for _, param := range op.Parameters {
		if param.In != InPath {
			continue
		}
		if v, ok := args[param.Name]; ok && v != nil {
			template = strings.ReplaceAll(template, "{"+param.Name+"}", escape(formatValue(v)))
		}
	}
	return template
}

// requestPayload picks the body out of args. send is false when a flattened
// optional body has no fields set.
func requestPayload(b *RequestBody, args map[string]any) (payload any, send bool) {
	if !b.Flattened() {
		v, ok := args[BodyArgument]
		return v, ok || b.Required
	}
	fields := make(map[string]any)
	for arg, prop := range b.Fields {
		if v, ok := args[arg]; ok {
			fields[prop] = v
		}
	}
	return fields, len(fields) > 0 || b.Required
}

// formatValue renders a JSON value for a URL, header or cookie.
func formatValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case map[string]any, []any:
		raw, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(raw)
	default:
		return fmt.Sprint(t)
	}
}

func readLimited(r io.Reader, limit int64) ([]byte, bool, error) {
	body, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, false, err
	}
	if int64(len(body)) > limit {
		return body[:limit], true, nil
	}
	return body, false, nil
}

func successResult(contentType string, body []byte, truncated bool) map[string]any {
	if !truncated && isJSON(contentType, body) {
		var decoded any
		if err := json.Unmarshal(body, &decoded); err == nil {
			if obj, ok := decoded.(map[string]any); ok {
				return obj
			}
			return map[string]any{"response": decoded}
		}
	}
	result := map[string]any{"text": string(body)}
	if truncated {
		result["truncated"] = true
	}
	return result
}

func isJSON(contentType string, body []byte) bool {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		if mediaType == "application/json" || strings.HasSuffix(mediaType, "+json") {
			return true
		}
	}
	trimmed := bytes.TrimSpace(body)
	return len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') && json.Valid(trimmed)
}

func errorResult(msg string) map[string]any {
	return map[string]any{"error": msg}
}
