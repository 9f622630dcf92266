package config

import (
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allKeys = []string{
	"BANKPARSER_WORKERS", "BANKPARSER_FILE_TIMEOUT",
	"BANKPARSER_OCR_ENABLED", "BANKPARSER_OCR_LANG", "BANKPARSER_OCR_DPI",
	"BANKPARSER_LOG_LEVEL", "BANKPARSER_LOG_FORMAT",
	"BANKPARSER_HTTP_ADDR", "BANKPARSER_MAX_UPLOAD_MB", "BANKPARSER_OUTPUT_FORMAT",
	"BANKPARSER_HTTP_RATE", "BANKPARSER_HTTP_BURST",
}

func clearEnv(t *testing.T) {
	t.Helper()
	// t.Setenv restores the previous value; an empty value counts as unset.
	for _, k := range allKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, runtime.NumCPU(), cfg.Processing.Workers)
	assert.Equal(t, 5*time.Minute, cfg.Processing.FileTimeout)
	assert.True(t, cfg.OCR.Enabled)
	assert.Equal(t, "spa+eng", cfg.OCR.Lang)
	assert.Equal(t, 300, cfg.OCR.DPI)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 50*1024*1024, cfg.HTTP.MaxUploadSize)
	assert.Equal(t, 2.0, cfg.HTTP.RateLimit)
	assert.Equal(t, 4, cfg.HTTP.RateBurst)
	assert.Equal(t, "xlsx", cfg.Output.Format)
}

func TestLoad_CustomValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("BANKPARSER_WORKERS", "3")
	t.Setenv("BANKPARSER_FILE_TIMEOUT", "90s")
	t.Setenv("BANKPARSER_OCR_ENABLED", "false")
	t.Setenv("BANKPARSER_OCR_LANG", "eng")
	t.Setenv("BANKPARSER_OCR_DPI", "200")
	t.Setenv("BANKPARSER_LOG_FORMAT", "json")
	t.Setenv("BANKPARSER_OUTPUT_FORMAT", "CSV")
	t.Setenv("BANKPARSER_HTTP_RATE", "0.5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Processing.Workers)
	assert.Equal(t, 90*time.Second, cfg.Processing.FileTimeout)
	assert.False(t, cfg.OCR.Enabled)
	assert.Equal(t, "eng", cfg.OCR.Lang)
	assert.Equal(t, 200, cfg.OCR.DPI)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "csv", cfg.Output.Format)
	assert.Equal(t, 0.5, cfg.HTTP.RateLimit)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("BANKPARSER_WORKERS", "many")
	t.Setenv("BANKPARSER_FILE_TIMEOUT", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, runtime.NumCPU(), cfg.Processing.Workers)
	assert.Equal(t, 5*time.Minute, cfg.Processing.FileTimeout)
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"BANKPARSER_WORKERS", "0"},
		{"BANKPARSER_FILE_TIMEOUT", "-1s"},
		{"BANKPARSER_OCR_DPI", "20"},
		{"BANKPARSER_OUTPUT_FORMAT", "pdf"},
		{"BANKPARSER_MAX_UPLOAD_MB", "0"},
		{"BANKPARSER_HTTP_RATE", "-1"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
