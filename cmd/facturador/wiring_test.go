package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"3tcapital/ms_facturacion_ar/internal/core/audit"
	httpinfra "3tcapital/ms_facturacion_ar/internal/infrastructure/http"
)

type slowAuditStore struct {
	saved atomic.Int32
}

func (s *slowAuditStore) Save(context.Context, audit.GatewayCall) error {
	time.Sleep(150 * time.Millisecond)
	s.saved.Add(1)
	return nil
}

func (s *slowAuditStore) FindByCorrelationID(context.Context, string) ([]audit.GatewayCall, error) {
	return nil, nil
}

func TestApp_CloseWaitsForAuditWrites(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"N"}`))
	}))
	defer server.Close()

	store := &slowAuditStore{}
	client := httpinfra.NewTracedClient(&httpinfra.TracedClientConfig{Timeout: 5 * time.Second, AuditEnabled: true},
		slog.New(slog.NewTextHandler(io.Discard, nil)), store, "tusfacturas")

	req, err := http.NewRequest(http.MethodPost, server.URL+"/facturacion/nuevo", strings.NewReader(`{}`))
	require.NoError(t, err)
	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	a := &app{billingClient: client}
	a.close()

	assert.Equal(t, int32(1), store.saved.Load())
}

func TestApp_CloseWithoutBillingClient(t *testing.T) {
	assert.NotPanics(t, func() { (&app{}).close() })
}
