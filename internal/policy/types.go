package policy

import "gopkg.in/yaml.v3"

// BlockedType is a MIME type that may never be uploaded
type BlockedType struct {
	MimeType string `yaml:"-" json:"mime_type"`
	Reason   string `yaml:"-" json:"reason"`
}

// UploadPolicy is the decoded form of config/upload.yaml
type UploadPolicy struct {
	MaxUploadBytes  int64         `yaml:"max_upload_bytes" json:"max_upload_bytes"`
	DefaultMimeType string        `yaml:"default_mime_type" json:"default_mime_type"`
	BlockedTypes    []BlockedType `yaml:"-" json:"blocked_types"` // Ordered slice, populated by custom unmarshaler
}

// UnmarshalYAML implements custom YAML unmarshaling to preserve the order of
// blocked_mime_types as written in the file
func (p *UploadPolicy) UnmarshalYAML(node *yaml.Node) error {
	type plain struct {
		MaxUploadBytes  int64  `yaml:"max_upload_bytes"`
		DefaultMimeType string `yaml:"default_mime_type"`
	}
	var base plain
	if err := node.Decode(&base); err != nil {
		return err
	}
	p.MaxUploadBytes = base.MaxUploadBytes
	p.DefaultMimeType = base.DefaultMimeType

	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value != "blocked_mime_types" {
			continue
		}
		// Content alternates: key, value, key, value...
		blocked := node.Content[i+1]
		for j := 0; j+1 < len(blocked.Content); j += 2 {
			p.BlockedTypes = append(p.BlockedTypes, BlockedType{
				MimeType: blocked.Content[j].Value,
				Reason:   blocked.Content[j+1].Value,
			})
		}
		break
	}

	return nil
}
