package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
)

var (
	defaultCORSMethods = []string{"GET", "HEAD", "PUT", "PATCH", "POST", "DELETE"}
	defaultCORSHeaders = []string{"Content-Type", "Authorization", "X-Requested-With", "Accept", "Origin"}
)

// CORSPolicy is the decoded value of the cors option.
type CORSPolicy struct {
	Enabled     bool     `json:"enabled"`
	Origin      string   `json:"origin,omitempty"`
	Methods     []string `json:"methods,omitempty"`
	Headers     []string `json:"headers,omitempty"`
	Credentials bool     `json:"credentials,omitempty"`
	MaxAge      int      `json:"maxAge,omitempty"`
}

// DefaultCORS is the default value of the cors option.
func DefaultCORS() map[string]any {
	return map[string]any{"enabled": true}
}

// decodeCORS reads a CORSPolicy from an option value. Unknown keys are
// ignored, missing ones take their defaults.
func decodeCORS(v any) CORSPolicy {
	policy := CORSPolicy{Enabled: true}
	data, err := json.Marshal(v)
	if err != nil {
		return policy
	}
	_ = json.Unmarshal(data, &policy)
	return policy
}

// allowOrigin returns the Access-Control-Allow-Origin value for origin.
func (p CORSPolicy) allowOrigin(origin string) string {
	switch {
	case p.Origin == "" || p.Origin == "*":
		if p.Credentials && origin != "" {
			return origin
		}
		return "*"
	case origin == "":
		return ""
	}
	for _, allowed := range strings.Split(p.Origin, ",") {
		if strings.TrimSpace(allowed) == origin {
			return origin
		}
	}
	return ""
}

// apply sets the CORS headers on w. It reports true when the request was a
// preflight and has been answered.
func (p CORSPolicy) apply(w http.ResponseWriter, r *http.Request, hasMock func(*http.Request) bool) bool {
	if !p.Enabled {
		return false
	}
	allowOrigin := p.allowOrigin(r.Header.Get("Origin"))
	if allowOrigin != "" {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", allowOrigin)
		if allowOrigin != "*" {
			h.Add("Vary", "Origin")
		}
		if p.Credentials {
			h.Set("Access-Control-Allow-Credentials", "true")
		}
	}

	if r.Method != http.MethodOptions || r.Header.Get("Access-Control-Request-Method") == "" {
		return false
	}
	// User defined OPTIONS routes take precedence over preflight handling.
	if hasMock != nil && hasMock(r) {
		return false
	}
	if allowOrigin == "" {
		w.WriteHeader(http.StatusForbidden)
		return true
	}

	methods := p.Methods
	if len(methods) == 0 {
		methods = defaultCORSMethods
	}
	headers := p.Headers
	if len(headers) == 0 {
		if requested := r.Header.Get("Access-Control-Request-Headers"); requested != "" {
			headers = []string{requested}
		} else {
			headers = defaultCORSHeaders
		}
	}
	h := w.Header()
	h.Set("Access-Control-Allow-Methods", strings.Join(methods, ","))
	h.Set("Access-Control-Allow-Headers", strings.Join(headers, ","))
	if p.MaxAge > 0 {
		h.Set("Access-Control-Max-Age", strconv.Itoa(p.MaxAge))
	}
	w.WriteHeader(http.StatusNoContent)
	return true
}
