package mock

import (
	"encoding/json"
	"net/http"
)

var statusSchema = map[string]any{"type": "number", "minimum": 100, "maximum": 599}

var headersSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": map[string]any{"type": "string"},
}

type responseOptions struct {
	Status  int               `json:"status"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    any               `json:"body,omitempty"`
}

func (o responseOptions) writeHeaders(w http.ResponseWriter, contentType string) {
	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	for name, value := range o.Headers {
		w.Header().Set(name, value)
	}
}

func builtinHandlers() []VariantHandler {
	return []VariantHandler{
		{
			ID: "json",
			OptionsSchema: map[string]any{
				"type":     "object",
				"required": []any{"status"},
				"properties": map[string]any{
					"status":  statusSchema,
					"headers": headersSchema,
					"body":    map[string]any{},
				},
			},
			New: newJSONHandler,
		},
		{
			ID: "text",
			OptionsSchema: map[string]any{
				"type":     "object",
				"required": []any{"status"},
				"properties": map[string]any{
					"status":  statusSchema,
					"headers": headersSchema,
					"body":    map[string]any{"type": "string"},
				},
			},
			New: newTextHandler,
		},
		{
			ID: "status",
			OptionsSchema: map[string]any{
				"type":     "object",
				"required": []any{"status"},
				"properties": map[string]any{
					"status":  statusSchema,
					"headers": headersSchema,
				},
				"additionalProperties": false,
			},
			New: newStatusHandler,
		},
	}
}

func newJSONHandler(options map[string]any) (http.Handler, error) {
	var opts responseOptions
	if err := decodeOptions(options, &opts); err != nil {
		return nil, err
	}
	body, err := json.Marshal(opts.Body)
	if err != nil {
		return nil, err
	}
	hasBody := opts.Body != nil
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		opts.writeHeaders(w, "application/json")
		w.WriteHeader(opts.Status)
		if hasBody {
			_, _ = w.Write(body)
		}
	}), nil
}

func newTextHandler(options map[string]any) (http.Handler, error) {
	var opts responseOptions
	if err := decodeOptions(options, &opts); err != nil {
		return nil, err
	}
	body, _ := opts.Body.(string)
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		opts.writeHeaders(w, "text/plain; charset=utf-8")
		w.WriteHeader(opts.Status)
		_, _ = w.Write([]byte(body))
	}), nil
}

func newStatusHandler(options map[string]any) (http.Handler, error) {
	var opts responseOptions
	if err := decodeOptions(options, &opts); err != nil {
		return nil, err
	}
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		opts.writeHeaders(w, "")
		w.WriteHeader(opts.Status)
	}), nil
}
