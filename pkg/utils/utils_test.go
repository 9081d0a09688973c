package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		email   string
		wantErr bool
	}{
		{"manager@corp.test", false},
		{"  padded@corp.test ", false},
		{"no-at-sign", true},
		{"a@b", true},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, ValidatePassword("travel2026"))
	assert.Error(t, ValidatePassword("short1"))
	assert.Error(t, ValidatePassword("lettersonly"))
	assert.Error(t, ValidatePassword("1234567890"))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "mixed@corp.test", NormalizeEmail("  Mixed@Corp.TEST "))
}

func TestNewLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "server.log")

	logger, err := NewLogger(LoggerConfig{Level: "info", OutputPath: path, Format: "json", Service: "travel-approval"})
	require.NoError(t, err)
	logger.Info("written")
	require.NoError(t, logger.Sync())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"msg":"written"`)
	assert.Contains(t, string(raw), `"timestamp"`)
	assert.Contains(t, string(raw), `"service":"travel-approval"`)
}

func TestLevelFor(t *testing.T) {
	assert.Equal(t, "debug", levelFor("debug").String())
	assert.Equal(t, "info", levelFor("loud").String())
}
