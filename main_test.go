package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/massmux/lndhub/internal"
	"github.com/massmux/lndhub/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errors.Transport(502, fmt.Errorf("bad gateway")), 3},
		{errors.Newf(errors.DecodeError, "x"), 4},
		{errors.Newf(errors.InvalidInvoiceError, "x"), 4},
		{errors.Newf(errors.AuthError, "x"), 5},
		{errors.Newf(errors.ApplicationError, "x"), 6},
		{fmt.Errorf("usage"), 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, exitCode(tt.err), tt.err.Error())
	}
}

func TestRun_ArgumentErrors(t *testing.T) {
	cfg := &internal.Configuration{LndHub: internal.LndHubConfiguration{Url: "http://127.0.0.1:1", Timeout: 1}}
	ctx := context.Background()

	assert.Error(t, run(ctx, cfg, "create", []string{"alice"}))
	assert.Error(t, run(ctx, cfg, "invoice", []string{"-memo", "x", "notanumber"}))
	assert.Error(t, run(ctx, cfg, "frobnicate", nil))

	err := run(ctx, cfg, "decode", []string{"not-an-invoice"})
	assert.True(t, errors.Is(err, errors.InvalidInvoiceError))
}

func TestConfigLoader_MockNeedsNoUrl(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mock:\n  address: 127.0.0.1:4000\n"), 0o600))

	tests := []struct {
		command string
		wantErr bool
	}{
		{"mock", false},
		{"balance", true},
		{"decode", true},
	}
	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			cfg, err := configLoader(tt.command)(path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "127.0.0.1:4000", cfg.Mock.Address)
		})
	}
}
