package server

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mocks-server/mocks-server/pkg/config"
	"github.com/mocks-server/mocks-server/pkg/metrics"
	"github.com/mocks-server/mocks-server/pkg/mock"
)

func newTestServer(t *testing.T, opts ...Option) (*Server, *config.Namespace) {
	t.Helper()

	m := mock.New()
	errs := m.Load([]mock.RouteDefinition{
		{
			ID:     "get-users",
			URL:    "/api/users",
			Method: mock.Methods{"GET"},
			Variants: []mock.VariantDefinition{
				{ID: "success", Type: "json", Options: map[string]any{"status": 200, "body": []any{}}},
			},
		},
		{
			ID:     "options-users",
			URL:    "/api/custom-options",
			Method: mock.Methods{"OPTIONS"},
			Variants: []mock.VariantDefinition{
				{ID: "ok", Type: "status", Options: map[string]any{"status": 200}},
			},
		},
	}, []mock.CollectionDefinition{
		{ID: "base", Routes: []string{"get-users:success", "options-users:ok"}},
	})
	require.Empty(t, errs)

	ns, err := config.New().AddNamespace("server")
	require.NoError(t, err)
	s, err := New(ns, m, opts...)
	require.NoError(t, err)
	require.NoError(t, ns.Set(map[string]any{"host": "127.0.0.1", "port": 0}))
	return s, ns
}

func do(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestNewDeclaresOptions(t *testing.T) {
	m := mock.New()
	ns, err := config.New().AddNamespace("server")
	require.NoError(t, err)

	_, err = New(ns, m)
	require.NoError(t, err)

	assert.InDelta(t, float64(DefaultPort), ns.Option("port").Value(), 0)
	assert.Equal(t, DefaultHost, ns.Option("host").Value())
	assert.Equal(t, map[string]any{"enabled": true}, ns.Option("cors").Value())

	_, err = New(ns, m)
	require.ErrorIs(t, err, config.ErrNameCollision)
}

func TestServeMock(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(s, httptest.NewRequest(http.MethodGet, "/api/users", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	rec = do(s, httptest.NewRequest(http.MethodGet, "/api/unknown", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequestIDIsKept(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.Header.Set(RequestIDHeader, "abc")
	rec := do(s, req)

	assert.Equal(t, "abc", rec.Header().Get(RequestIDHeader))
}

func TestRouters(t *testing.T) {
	s, _ := newTestServer(t)

	named := func(name string) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, name+" "+r.URL.Path)
		})
	}
	s.AddRouter("/api", named("api"))
	s.AddRouter("/api/admin/", named("admin"))

	tests := []struct {
		path string
		want string
	}{
		{"/api/users", "api /users"},
		{"/api/admin/about", "admin /about"},
		{"/api/admin", "admin /"},
		{"/api/administrator", "api /administrator"},
		{"/api", "api /"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := do(s, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.want, rec.Body.String())
		})
	}

	s.RemoveRouter("/api")
	rec := do(s, httptest.NewRequest(http.MethodGet, "/api/users", nil))
	assert.JSONEq(t, `[]`, rec.Body.String(), "mocks answer again once the router is removed")

	s.AddRouter("/api/admin", named("replaced"))
	rec = do(s, httptest.NewRequest(http.MethodGet, "/api/admin/x", nil))
	assert.Equal(t, "replaced /x", rec.Body.String())
}

func TestCORS(t *testing.T) {
	s, ns := newTestServer(t)

	preflight := func(path string) *http.Request {
		req := httptest.NewRequest(http.MethodOptions, path, nil)
		req.Header.Set("Origin", "http://example.com")
		req.Header.Set("Access-Control-Request-Method", "GET")
		return req
	}

	rec := do(s, preflight("/api/users"))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "GET")

	rec = do(s, preflight("/api/custom-options"))
	assert.Equal(t, http.StatusOK, rec.Code, "OPTIONS routes take precedence over preflight")

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.Header.Set("Origin", "http://example.com")
	assert.Equal(t, "*", do(s, req).Header().Get("Access-Control-Allow-Origin"))

	require.NoError(t, ns.Set(map[string]any{"cors": map[string]any{"origin": "http://allowed.com"}}))
	assert.Equal(t, http.StatusForbidden, do(s, preflight("/api/users")).Code)

	require.NoError(t, ns.Set(map[string]any{"cors": map[string]any{"enabled": false}}))
	rec = do(s, preflight("/api/users"))
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetrics(t *testing.T) {
	reg := metrics.NewRegistry()
	s, _ := newTestServer(t, WithMetrics(reg))
	s.AddRouter("/admin", http.NotFoundHandler())

	do(s, httptest.NewRequest(http.MethodGet, "/api/users", nil))
	do(s, httptest.NewRequest(http.MethodGet, "/api/users", nil))
	do(s, httptest.NewRequest(http.MethodGet, "/nope", nil))
	do(s, httptest.NewRequest(http.MethodGet, "/admin/x", nil))

	rec := do(reg.Handler(), httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	assert.Contains(t, body, `mocks_server_requests_total{route="get-users",status="200",variant="success"} 2`)
	assert.Contains(t, body, `mocks_server_requests_total{route="none",status="404",variant="none"} 1`)
	assert.Contains(t, body, `mocks_server_requests_total{route="/admin",status="404",variant="router"} 1`)
}

func TestStartStop(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()

	_, err := s.Addr()
	require.ErrorIs(t, err, ErrNotStarted)

	require.NoError(t, s.Start(ctx))
	t.Cleanup(func() { _ = s.Stop(ctx) })
	require.ErrorIs(t, s.Start(ctx), ErrAlreadyStarted)

	resp, err := http.Get(s.URL() + "/api/users")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, s.Stop(ctx))
	assert.False(t, s.Running())
	require.NoError(t, s.Stop(ctx), "stopping twice is a no-op")
}

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

func TestRestartOnPortChange(t *testing.T) {
	s, ns := newTestServer(t)
	ctx := context.Background()
	ns.Start()

	require.NoError(t, s.Start(ctx))
	t.Cleanup(func() { _ = s.Stop(ctx) })

	port := freePort(t)
	require.NoError(t, ns.Set(map[string]any{"port": port}))
	s.WaitRestarts()

	addr, err := s.Addr()
	require.NoError(t, err)
	assert.Equal(t, port, addr.(*net.TCPAddr).Port)

	resp, err := http.Get(s.URL() + "/api/users")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestNoRestartWhenStopped(t *testing.T) {
	s, ns := newTestServer(t)
	ns.Start()

	require.NoError(t, ns.Set(map[string]any{"port": freePort(t)}))
	s.WaitRestarts()

	assert.False(t, s.Running())
}

func TestDecodeCORS(t *testing.T) {
	assert.Equal(t, CORSPolicy{Enabled: true}, decodeCORS(DefaultCORS()))
	assert.Equal(t, CORSPolicy{Enabled: false, Origin: "a"}, decodeCORS(map[string]any{"enabled": false, "origin": "a"}))
	assert.Equal(t, CORSPolicy{Enabled: true}, decodeCORS(map[string]any{"methods": "not a list"}))

	p := CORSPolicy{Enabled: true, Origin: "http://a.com, http://b.com"}
	assert.Equal(t, "http://b.com", p.allowOrigin("http://b.com"))
	assert.Empty(t, p.allowOrigin("http://c.com"))

	p = CORSPolicy{Enabled: true, Credentials: true}
	assert.Equal(t, "http://c.com", p.allowOrigin("http://c.com"))
}
