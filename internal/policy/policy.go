package policy

import (
	"embed"
	"fmt"
	"mime"
	"strings"

	"droply/internal/config"

	"gopkg.in/yaml.v3"
)

//go:embed config/*.yaml
var configFiles embed.FS

// Policy answers upload admission questions from the embedded YAML rules
type Policy struct {
	rules   UploadPolicy
	blocked map[string]string
}

// Load reads the embedded upload policy
func Load() (*Policy, error) {
	data, err := configFiles.ReadFile("config/upload.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read upload policy: %w", err)
	}
	return Parse(data)
}

// Parse builds a Policy from YAML bytes
func Parse(data []byte) (*Policy, error) {
	var rules UploadPolicy
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("failed to unmarshal upload policy: %w", err)
	}
	if rules.MaxUploadBytes < 0 {
		return nil, fmt.Errorf("upload policy: max_upload_bytes must not be negative")
	}
	if rules.MaxUploadBytes == 0 {
		rules.MaxUploadBytes = config.MaxUploadBytes
	}
	if rules.DefaultMimeType == "" {
		rules.DefaultMimeType = "application/octet-stream"
	}

	p := &Policy{
		rules:   rules,
		blocked: make(map[string]string, len(rules.BlockedTypes)),
	}
	for _, b := range rules.BlockedTypes {
		p.blocked[strings.ToLower(b.MimeType)] = b.Reason
	}
	return p, nil
}

// MaxUploadBytes is the largest accepted upload
func (p *Policy) MaxUploadBytes() int64 {
	return p.rules.MaxUploadBytes
}

// DefaultMimeType is used when the client sends no content type
func (p *Policy) DefaultMimeType() string {
	return p.rules.DefaultMimeType
}

// BlockedTypes lists the refused MIME types in file order
func (p *Policy) BlockedTypes() []BlockedType {
	return p.rules.BlockedTypes
}

// NormalizeMimeType strips parameters ("text/plain; charset=utf-8") and
// falls back to the default type
func (p *Policy) NormalizeMimeType(contentType string) string {
	if contentType == "" {
		return p.rules.DefaultMimeType
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return p.rules.DefaultMimeType
	}
	return strings.ToLower(mediaType)
}

// Blocked reports whether a MIME type may not be uploaded, and why
func (p *Policy) Blocked(contentType string) (string, bool) {
	reason, ok := p.blocked[p.NormalizeMimeType(contentType)]
	return reason, ok
}

// CheckUpload returns a descriptive error when a file may not be uploaded
func (p *Policy) CheckUpload(contentType string, size int64) error {
	if reason, blocked := p.Blocked(contentType); blocked {
		return fmt.Errorf("file type %s is not allowed (%s)", p.NormalizeMimeType(contentType), reason)
	}
	if size < 0 {
		return fmt.Errorf("file size must not be negative")
	}
	if size > p.rules.MaxUploadBytes {
		return fmt.Errorf("file exceeds the %d byte upload limit", p.rules.MaxUploadBytes)
	}
	return nil
}
