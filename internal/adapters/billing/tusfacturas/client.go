package tusfacturas

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"3tcapital/ms_facturacion_ar/internal/core/invoice"
)

// Name identifies this gateway in logs and audit records.
const Name = "tusfacturas"

const (
	emitPath         = "/facturacion/nuevo"
	maxResponseBytes = 1 << 20
)

// HTTPClient allows using both standard and traced HTTP clients.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// errServerFailure marks 5xx replies so the breaker counts them; the reply
// itself is still handed to the caller.
var errServerFailure = errors.New("billing API server error")

// Client implements invoice.Gateway for the TusFacturas API.
type Client struct {
	baseURL    string
	httpClient HTTPClient
	breaker    *CircuitBreaker // Optional: nil disables fail-fast
	log        *slog.Logger
}

// NewClient creates a billing API client. baseURL is the API root, for example
// https://www.tusfacturas.app/app/api/v2.
func NewClient(baseURL string, httpClient HTTPClient, breaker *CircuitBreaker, log *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		breaker:    breaker,
		log:        log,
	}
}

// Emit posts one invoice request. Any HTTP reply, 5xx included, is returned as
// a RawResponse for the normalizer to interpret; an error means no reply was
// obtained. The request is sent at most once.
func (c *Client) Emit(ctx context.Context, req invoice.Request) (invoice.RawResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return invoice.RawResponse{}, fmt.Errorf("encode billing request: %w", err)
	}

	var raw invoice.RawResponse
	call := func() error {
		var callErr error
		raw, callErr = c.post(ctx, payload)
		if callErr != nil {
			return callErr
		}
		if raw.StatusCode >= http.StatusInternalServerError {
			return errServerFailure
		}
		return nil
	}

	if c.breaker == nil {
		err = call()
	} else {
		err = c.breaker.Execute(call)
	}

	switch {
	case err == nil, errors.Is(err, errServerFailure):
		return raw, nil
	case errors.Is(err, ErrCircuitBreakerOpen):
		c.log.Warn("billing API call skipped, circuit open", "gateway", Name)
		return invoice.RawResponse{}, err
	default:
		return invoice.RawResponse{}, err
	}
}

func (c *Client) post(ctx context.Context, payload []byte) (invoice.RawResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+emitPath, bytes.NewReader(payload))
	if err != nil {
		return invoice.RawResponse{}, fmt.Errorf("create billing request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		err = fmt.Errorf("send billing request: %w", err)
		if neverSent(err) {
			return invoice.RawResponse{}, err
		}
		return invoice.RawResponse{}, &invoice.UnconfirmedEmissionError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return invoice.RawResponse{}, &invoice.UnconfirmedEmissionError{Err: fmt.Errorf("read billing response: %w", err)}
	}

	return invoice.RawResponse{StatusCode: resp.StatusCode, Body: body}, nil
}

// neverSent reports whether err happened before a connection to the API was
// established: failed DNS lookups and dials.
func neverSent(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}
