package policy

import (
	"testing"

	"droply/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EmbeddedPolicy(t *testing.T) {
	p, err := Load()
	require.NoError(t, err)

	assert.EqualValues(t, 100<<20, p.MaxUploadBytes())
	assert.Equal(t, "application/octet-stream", p.DefaultMimeType())

	// Order follows the YAML file
	blocked := p.BlockedTypes()
	require.NotEmpty(t, blocked)
	assert.Equal(t, "application/x-executable", blocked[0].MimeType)

	for _, mt := range []string{"application/x-executable", "application/x-sh", "application/x-bsh", "application/x-csh", "application/x-tcsh"} {
		_, isBlocked := p.Blocked(mt)
		assert.True(t, isBlocked, mt)
	}
}

func TestParse(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		p, err := Parse([]byte("blocked_mime_types: {}\n"))
		require.NoError(t, err)
		assert.EqualValues(t, config.MaxUploadBytes, p.MaxUploadBytes())
		assert.Equal(t, "application/octet-stream", p.DefaultMimeType())
		assert.Empty(t, p.BlockedTypes())
	})

	t.Run("negative limit", func(t *testing.T) {
		_, err := Parse([]byte("max_upload_bytes: -1\n"))
		assert.Error(t, err)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		_, err := Parse([]byte("max_upload_bytes: [\n"))
		assert.Error(t, err)
	})
}

func TestCheckUpload(t *testing.T) {
	p, err := Parse([]byte(`
max_upload_bytes: 10
blocked_mime_types:
  application/x-sh: shell script
`))
	require.NoError(t, err)

	tests := []struct {
		name        string
		contentType string
		size        int64
		wantErr     bool
	}{
		{"allowed", "text/plain", 10, false},
		{"empty type uses default", "", 1, false},
		{"blocked", "application/x-sh", 1, true},
		{"blocked with params and case", "Application/X-SH; charset=utf-8", 1, true},
		{"too large", "text/plain", 11, true},
		{"negative size", "text/plain", -1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := p.CheckUpload(tt.contentType, tt.size)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNormalizeMimeType(t *testing.T) {
	p, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "text/plain", p.NormalizeMimeType("text/plain; charset=utf-8"))
	assert.Equal(t, "image/png", p.NormalizeMimeType("IMAGE/PNG"))
	assert.Equal(t, "application/octet-stream", p.NormalizeMimeType(""))
	assert.Equal(t, "application/octet-stream", p.NormalizeMimeType(";;;"))
}
