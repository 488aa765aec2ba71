package main

import (
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/baditaflorin/go_invariant_normalizer/internal/adapters/cache"
	"github.com/baditaflorin/go_invariant_normalizer/internal/adapters/logger"
	"github.com/baditaflorin/go_invariant_normalizer/internal/app"
	"github.com/baditaflorin/go_invariant_normalizer/internal/config"
	"github.com/baditaflorin/go_invariant_normalizer/internal/core/domain"
	"github.com/baditaflorin/go_invariant_normalizer/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

type testServer struct {
	client *fasthttp.Client
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := config.Default()
	cfg.Cache.Backend = cache.BackendNone

	a, err := app.Build(&cfg, logger.NewNop(), "test")
	require.NoError(t, err)

	ln := fasthttputil.NewInmemoryListener()
	srv := &fasthttp.Server{Handler: newAPI(a.Service, logger.NewNop(), 5*time.Second).requestHandler}
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() { _ = ln.Close() })

	return &testServer{client: &fasthttp.Client{
		Dial: func(string) (net.Conn, error) { return ln.Dial() },
	}}
}

func (s *testServer) do(t *testing.T, method, path string, body []byte) (int, []byte) {
	t.Helper()
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI("http://invnorm.test" + path)
	req.Header.SetMethod(method)
	if body != nil {
		req.Header.SetContentType("application/json")
		req.SetBody(body)
	}
	require.NoError(t, s.client.DoTimeout(req, resp, 5*time.Second))

	out := append([]byte(nil), resp.Body()...)
	return resp.StatusCode(), out
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, fasthttp.MethodGet, "/health", nil)
	require.Equal(t, fasthttp.StatusOK, status)

	var h service.Health
	require.NoError(t, json.Unmarshal(body, &h))
	assert.Equal(t, "healthy", h.Status)
	assert.Equal(t, "test", h.Version)
}

func TestNormalizeEndpoint(t *testing.T) {
	s := newTestServer(t)

	body := []byte(`{"invariants":[{
		"description":"Test invariant",
		"formal_expression":"User ID > 0",
		"natural_language":"User ID must be positive",
		"variables":[{"name":"User ID","type":"integer","unit":"count"}],
		"units":{"User ID":"count"},
		"confidence_score":0.95,
		"priority":"HIGH"
	}]}`)
	status, out := s.do(t, fasthttp.MethodPost, "/normalize", body)
	require.Equal(t, fasthttp.StatusOK, status, string(out))

	var resp NormalizeResponse
	require.NoError(t, json.Unmarshal(out, &resp))
	require.Len(t, resp.Invariants, 1)

	inv := resp.Invariants[0]
	assert.Equal(t, "user_id > 0", inv.FormalExpression)
	assert.Equal(t, "user_id", inv.Variables[0].Name)
	assert.Equal(t, "items", inv.Variables[0].Unit)
	assert.Equal(t, []string{"user_id"}, inv.Units.Keys())
	assert.Equal(t, "User ID must be positive", inv.NaturalLanguage)
	assert.Equal(t, domain.PriorityHigh, inv.Priority)
}

func TestNormalizeEndpointRejectsBadInput(t *testing.T) {
	s := newTestServer(t)

	status, _ := s.do(t, fasthttp.MethodGet, "/normalize", nil)
	assert.Equal(t, fasthttp.StatusMethodNotAllowed, status)

	status, out := s.do(t, fasthttp.MethodPost, "/normalize", []byte(`{"invariants":`))
	assert.Equal(t, fasthttp.StatusBadRequest, status)
	assert.Contains(t, string(out), "Invalid request")
}

func TestExtractEndpoint(t *testing.T) {
	s := newTestServer(t)

	body := []byte(`{
		"document_id":"auth-1",
		"title":"Auth",
		"content":"1. User ID must be positive\n2. Password length must be at least 8 characters"
	}`)
	status, out := s.do(t, fasthttp.MethodPost, "/extract", body)
	require.Equal(t, fasthttp.StatusOK, status, string(out))

	var resp domain.ExtractResponse
	require.NoError(t, json.Unmarshal(out, &resp))
	require.Len(t, resp.Invariants, 2)
	assert.Equal(t, "user_id > 0", resp.Invariants[0].FormalExpression)
	assert.Equal(t, "password_length >= 8", resp.Invariants[1].FormalExpression)
	assert.False(t, resp.Metadata.Cached)
	require.NotNil(t, resp.Invariants[0].Metadata)
	assert.Contains(t, resp.Invariants[0].Metadata.PostProcessingRules, "unit_standardization")
}

func TestExtractEndpointValidation(t *testing.T) {
	s := newTestServer(t)

	status, out := s.do(t, fasthttp.MethodPost, "/extract", []byte(`{"document_id":"x"}`))
	assert.Equal(t, fasthttp.StatusBadRequest, status)
	assert.Contains(t, string(out), "invalid request")
}

func TestMetricsAndNotFound(t *testing.T) {
	s := newTestServer(t)

	_, _ = s.do(t, fasthttp.MethodPost, "/normalize", []byte(`{"invariants":[]}`))
	status, out := s.do(t, fasthttp.MethodGet, "/metrics", nil)
	require.Equal(t, fasthttp.StatusOK, status)
	assert.Contains(t, string(out), "invnorm_invariants_processed_total")

	status, _ = s.do(t, fasthttp.MethodGet, "/nope", nil)
	assert.Equal(t, fasthttp.StatusNotFound, status)
}
