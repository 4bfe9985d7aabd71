package http

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"3tcapital/ms_facturacion_ar/internal/core/audit"
	ctxutil "3tcapital/ms_facturacion_ar/internal/infrastructure/context"
	"3tcapital/ms_facturacion_ar/internal/infrastructure/security"
)

// auditSaveTimeout bounds the detached audit insert.
const auditSaveTimeout = 10 * time.Second

const defaultMaxResponseBytes = 1 << 20

// TracedClient wraps an HTTP client to log every outbound call and persist a
// sanitized audit record of it.
type TracedClient struct {
	client       *http.Client
	log          *slog.Logger
	auditRepo    audit.Repository
	gateway      string
	auditEnabled bool
	logReqBody   bool
	logRespBody  bool
	maxBodySize  int
	maxRespBytes int64

	pending sync.WaitGroup
}

// TracedClientConfig holds configuration for the traced HTTP client.
type TracedClientConfig struct {
	Timeout         time.Duration
	AuditEnabled    bool
	LogRequestBody  bool
	LogResponseBody bool
	MaxBodySize     int
	MaxConnsPerHost int   // 0 means 10
	MaxResponseSize int64 // bytes buffered from a response; 0 means 1 MiB
}

// NewTracedClient creates a traced client. auditRepo may be nil, in which case
// calls are only logged.
func NewTracedClient(cfg *TracedClientConfig, log *slog.Logger, auditRepo audit.Repository, gateway string) *TracedClient {
	maxBodySize := cfg.MaxBodySize
	if maxBodySize == 0 {
		maxBodySize = 64 * 1024
	}
	maxConnsPerHost := cfg.MaxConnsPerHost
	if maxConnsPerHost == 0 {
		maxConnsPerHost = 10
	}
	maxRespBytes := cfg.MaxResponseSize
	if maxRespBytes <= 0 {
		maxRespBytes = defaultMaxResponseBytes
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          maxConnsPerHost,
		MaxIdleConnsPerHost:   maxConnsPerHost,
		MaxConnsPerHost:       maxConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: cfg.Timeout,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &TracedClient{
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		log:          log,
		auditRepo:    auditRepo,
		gateway:      gateway,
		auditEnabled: cfg.AuditEnabled,
		logReqBody:   cfg.LogRequestBody,
		logRespBody:  cfg.LogResponseBody,
		maxBodySize:  maxBodySize,
		maxRespBytes: maxRespBytes,
	}
}

// Do executes req, logging and auditing it. At most MaxResponseSize bytes of
// the response body are buffered and handed back to the caller unread.
func (c *TracedClient) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	correlationID := ctxutil.GetCorrelationID(ctx)
	operation := operationName(req)
	start := time.Now()

	if correlationID != "" {
		req.Header.Set("X-Correlation-ID", correlationID)
	}

	var requestBody []byte
	if req.Body != nil {
		var err error
		requestBody, err = io.ReadAll(req.Body)
		_ = req.Body.Close()
		if err != nil {
			return nil, err
		}
		req.Body = io.NopCloser(bytes.NewReader(requestBody))
	}

	c.logRequest(correlationID, operation, req, requestBody)

	resp, err := c.client.Do(req)
	duration := time.Since(start)

	var responseBody []byte
	if resp != nil && resp.Body != nil {
		var readErr error
		responseBody, readErr = io.ReadAll(io.LimitReader(resp.Body, c.maxRespBytes))
		_ = resp.Body.Close()
		resp.Body = io.NopCloser(bytes.NewReader(responseBody))
		if readErr != nil && err == nil {
			err = readErr
		}
	}

	c.logResponse(correlationID, operation, req, resp, err, duration, responseBody)

	if c.auditEnabled && c.auditRepo != nil {
		call := c.buildAuditRecord(correlationID, operation, req, resp, err, duration, requestBody, responseBody)
		c.pending.Add(1)
		go func() {
			defer c.pending.Done()
			c.persist(call)
		}()
	}

	return resp, err
}

// Wait blocks until every audit record started by Do has been written or has
// failed. Call it before closing the audit store.
func (c *TracedClient) Wait() {
	c.pending.Wait()
}

func (c *TracedClient) logRequest(correlationID, operation string, req *http.Request, body []byte) {
	attrs := []any{
		"correlation_id", correlationID,
		"gateway", c.gateway,
		"operation", operation,
		"method", req.Method,
		"url", security.SanitizeURL(req.URL.String()),
	}
	if c.logReqBody && len(body) > 0 {
		attrs = append(attrs, "request_body", string(security.SanitizeBody(body, c.maxBodySize)))
	}
	c.log.Info("gateway_request", attrs...)
}

func (c *TracedClient) logResponse(correlationID, operation string, req *http.Request, resp *http.Response, err error, duration time.Duration, body []byte) {
	attrs := []any{
		"correlation_id", correlationID,
		"gateway", c.gateway,
		"operation", operation,
		"method", req.Method,
		"duration_ms", duration.Milliseconds(),
	}

	if err != nil {
		attrs = append(attrs, "error", err.Error())
		c.log.Error("gateway_request_failed", attrs...)
		return
	}

	attrs = append(attrs, "status", resp.StatusCode, "response_size_bytes", len(body))
	if c.logRespBody && len(body) > 0 {
		attrs = append(attrs, "response_body", string(security.SanitizeBody(body, c.maxBodySize)))
	}

	switch {
	case resp.StatusCode >= 500:
		c.log.Error("gateway_response", attrs...)
	case resp.StatusCode >= 400:
		c.log.Warn("gateway_response", attrs...)
	default:
		c.log.Info("gateway_response", attrs...)
	}
}

func (c *TracedClient) buildAuditRecord(correlationID, operation string, req *http.Request, resp *http.Response, err error, duration time.Duration, requestBody, responseBody []byte) audit.GatewayCall {
	if correlationID == "" {
		_, correlationID = ctxutil.EnsureCorrelationID(context.Background())
	}

	call := audit.GatewayCall{
		CorrelationID:  correlationID,
		Gateway:        c.gateway,
		Operation:      operation,
		RequestMethod:  req.Method,
		RequestURL:     security.SanitizeURL(req.URL.String()),
		RequestHeaders: security.SanitizeHeaders(req.Header),
		RequestBody:    security.SanitizeBody(requestBody, c.maxBodySize),
		DurationMs:     duration.Milliseconds(),
	}
	if resp != nil {
		status := resp.StatusCode
		call.ResponseStatus = &status
		call.ResponseHeaders = security.SanitizeHeaders(resp.Header)
		call.ResponseBody = security.SanitizeBody(responseBody, c.maxBodySize)
	}
	if err != nil {
		call.ErrorMessage = err.Error()
	}
	return call
}

// persist runs detached from the request context: an audit record must be
// written even when the inbound request has already finished.
func (c *TracedClient) persist(call audit.GatewayCall) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("panic persisting gateway audit record",
				"panic", r,
				"correlation_id", call.CorrelationID,
			)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), auditSaveTimeout)
	defer cancel()

	if err := c.auditRepo.Save(ctx, call); err != nil {
		c.log.Error("failed to persist gateway audit record",
			"error", err,
			"correlation_id", call.CorrelationID,
			"gateway", call.Gateway,
			"operation", call.Operation,
			"response_status", call.ResponseStatus,
		)
	}
}

// operationName derives the audit operation from the last path segment,
// e.g. /facturacion/nuevo -> facturacion.nuevo.
func operationName(req *http.Request) string {
	parts := strings.Split(strings.Trim(req.URL.Path, "/"), "/")
	if len(parts) >= 2 {
		return parts[len(parts)-2] + "." + parts[len(parts)-1]
	}
	if len(parts) == 1 && parts[0] != "" {
		return parts[0]
	}
	return strings.ToLower(req.Method)
}
