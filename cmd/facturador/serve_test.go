package main

import (
	"context"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"

	"3tcapital/ms_facturacion_ar/internal/infrastructure/config"
)

func TestServeOpts_RequiresJWTSettings(t *testing.T) {
	s := &serveOpts{rootOpts: &rootOpts{cfg: config.AppConfig{Auth: config.AuthSettings{Enabled: true}}}}
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())

	err := s.runE(cmd, nil)

	assert.EqualError(t, err, "invalid config: JWT_ISSUER_URI is required when AUTH_ENABLED=true")
}
