// Package policy holds the upload validation rules shared by the upload
// controller and the HTTP API.
package policy

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Validation failures. Callers map these to their own user-facing messages.
var (
	ErrInvalidType = errors.New("media type not allowed")
	ErrTooLarge    = errors.New("file exceeds size limit")
)

// MaxUploadBytes is the default upload ceiling: files at or above 10 MiB
// are rejected.
const MaxUploadBytes = 10 * 1024 * 1024

// Policy describes which files may be submitted for analysis.
type Policy struct {
	// AllowedTypes is an exact-match, case-sensitive allow-set of declared
	// media types.
	AllowedTypes []string `yaml:"allowedTypes" json:"allowedTypes"`
	// MaxBytes is the exclusive upper bound on file size.
	MaxBytes int64 `yaml:"maxBytes" json:"maxBytes"`
}

// Default returns the built-in policy: the image types the analysis service
// accepts, capped at 10 MiB.
func Default() *Policy {
	return &Policy{
		AllowedTypes: []string{
			"image/jpeg",
			"image/jpg",
			"image/png",
			"image/bmp",
			"image/tiff",
		},
		MaxBytes: MaxUploadBytes,
	}
}

// Allows reports whether the declared media type is in the allow-set.
func (p *Policy) Allows(mediaType string) bool {
	for _, t := range p.AllowedTypes {
		if t == mediaType {
			return true
		}
	}
	return false
}

// Validate checks a candidate file's declared media type and byte size.
// The type is checked first, so an oversized file of a disallowed type
// reports ErrInvalidType.
func (p *Policy) Validate(mediaType string, size int64) error {
	if !p.Allows(mediaType) {
		return ErrInvalidType
	}
	if size >= p.MaxBytes {
		return ErrTooLarge
	}
	return nil
}

// ParseFromReader parses a yaml policy document.
func ParseFromReader(r io.Reader) (*Policy, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading policy: %w", err)
	}

	p := &Policy{}
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("parsing policy: %w", err)
	}

	if len(p.AllowedTypes) == 0 {
		return nil, fmt.Errorf("policy has no allowed types")
	}
	if p.MaxBytes <= 0 {
		return nil, fmt.Errorf("policy maxBytes must be positive")
	}

	return p, nil
}

// Load reads a yaml policy file from disk.
func Load(path string) (*Policy, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ParseFromReader(f)
}

// Save writes the policy to a yaml file.
func (p *Policy) Save(path string) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshaling policy: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing policy file: %w", err)
	}

	return nil
}
