package main

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/baditaflorin/go_invariant_normalizer/internal/core/domain"
	"github.com/baditaflorin/go_invariant_normalizer/internal/ports"
	"github.com/baditaflorin/go_invariant_normalizer/internal/service"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

// NormalizeRequest carries invariants to canonicalize.
type NormalizeRequest struct {
	Invariants []domain.Invariant `json:"invariants"`
}

// NormalizeResponse returns the canonical invariants.
type NormalizeResponse struct {
	Invariants     []domain.Invariant `json:"invariants"`
	ProcessingTime string             `json:"processing_time,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// api routes HTTP requests to the extraction service.
type api struct {
	svc            *service.Service
	logger         ports.Logger
	requestTimeout time.Duration
	metrics        fasthttp.RequestHandler
}

func newAPI(svc *service.Service, logger ports.Logger, requestTimeout time.Duration) *api {
	return &api{
		svc:            svc,
		logger:         logger,
		requestTimeout: requestTimeout,
		metrics:        fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler()),
	}
}

// requestHandler is the main fasthttp request handler
func (a *api) requestHandler(ctx *fasthttp.RequestCtx) {
	startTime := time.Now()

	ctx.Response.Header.Set("Server", "InvariantNormalizer")

	switch string(ctx.Path()) {
	case "/health":
		a.handleHealthCheck(ctx)
	case "/normalize":
		a.handleNormalize(ctx)
	case "/extract":
		a.handleExtract(ctx)
	case "/metrics":
		a.metrics(ctx)
	default:
		ctx.SetStatusCode(fasthttp.StatusNotFound)
		a.writeJSONError(ctx, "Not found")
	}

	a.logger.Info("Request processed",
		"method", string(ctx.Method()),
		"path", string(ctx.Path()),
		"status", ctx.Response.StatusCode(),
		"ip", ctx.RemoteIP().String(),
		"duration", time.Since(startTime),
	)
}

// handleHealthCheck responds to health check requests
func (a *api) handleHealthCheck(ctx *fasthttp.RequestCtx) {
	ctx.SetStatusCode(fasthttp.StatusOK)
	a.writeJSONResponse(ctx, a.svc.Health())
}

// handleNormalize canonicalizes caller-supplied invariants.
func (a *api) handleNormalize(ctx *fasthttp.RequestCtx) {
	if !ctx.IsPost() {
		ctx.SetStatusCode(fasthttp.StatusMethodNotAllowed)
		a.writeJSONError(ctx, "Method not allowed")
		return
	}

	var req NormalizeRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		ctx.SetStatusCode(fasthttp.StatusBadRequest)
		a.writeJSONError(ctx, "Invalid request: "+err.Error())
		return
	}
	if req.Invariants == nil {
		req.Invariants = []domain.Invariant{}
	}

	c, cancel := context.WithTimeout(context.Background(), a.requestTimeout)
	defer cancel()

	start := time.Now()
	invs, err := a.svc.Normalize(c, req.Invariants)
	if err != nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		a.writeJSONError(ctx, err.Error())
		return
	}

	ctx.SetStatusCode(fasthttp.StatusOK)
	a.writeJSONResponse(ctx, NormalizeResponse{
		Invariants:     invs,
		ProcessingTime: time.Since(start).String(),
	})
}

// handleExtract runs the extraction pipeline for one document.
func (a *api) handleExtract(ctx *fasthttp.RequestCtx) {
	if !ctx.IsPost() {
		ctx.SetStatusCode(fasthttp.StatusMethodNotAllowed)
		a.writeJSONError(ctx, "Method not allowed")
		return
	}

	var req domain.ExtractRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		ctx.SetStatusCode(fasthttp.StatusBadRequest)
		a.writeJSONError(ctx, "Invalid request: "+err.Error())
		return
	}

	c, cancel := context.WithTimeout(context.Background(), a.requestTimeout)
	defer cancel()

	resp, err := a.svc.Extract(c, req)
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		ctx.SetStatusCode(fasthttp.StatusBadRequest)
		a.writeJSONError(ctx, err.Error())
		return
	case err != nil:
		ctx.SetStatusCode(fasthttp.StatusBadGateway)
		a.writeJSONError(ctx, err.Error())
		return
	}

	ctx.SetStatusCode(fasthttp.StatusOK)
	a.writeJSONResponse(ctx, resp)
}

// writeJSONResponse writes a JSON response to the context
func (a *api) writeJSONResponse(ctx *fasthttp.RequestCtx, data interface{}) {
	response, err := json.Marshal(data)
	if err != nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		a.logger.Error("Error marshaling JSON response", "error", err)
		a.writeJSONError(ctx, "Internal server error")
		return
	}

	ctx.SetContentType("application/json")
	ctx.SetBody(response)
}

// writeJSONError writes a JSON error response to the context
func (a *api) writeJSONError(ctx *fasthttp.RequestCtx, message string) {
	response, err := json.Marshal(ErrorResponse{Error: message})
	if err != nil {
		a.logger.Error("Error marshaling JSON error response", "error", err)
		response = []byte(`{"error":"Internal server error"}`)
	}

	ctx.SetContentType("application/json")
	ctx.SetBody(response)
}
