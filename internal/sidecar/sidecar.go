// Package sidecar reads and writes the per-item metadata JSON files that sit
// next to each video asset.
package sidecar

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/goccy/go-json"

	"reelpipe/internal/fileutil"
	"reelpipe/internal/services"
	"reelpipe/internal/textutil"
)

// Extension is the sidecar file suffix.
const Extension = ".json"

// Metadata is the publishable description of one video.
type Metadata struct {
	Title             string   `json:"title"`
	Description       string   `json:"description"`
	Tags              []string `json:"tags"`
	Categories        []string `json:"categories"`
	Channel           string   `json:"channel,omitempty"`
	MetadataUpdatedAt string   `json:"metadata_updated_at,omitempty"`
}

// FileName returns the sidecar name derived from a title.
func FileName(title string) string {
	return textutil.SanitizeFileName(title) + Extension
}

// PathFor returns the sidecar path for title inside dir.
func PathFor(dir, title string) string {
	return filepath.Join(dir, FileName(title))
}

// Exists reports whether the sidecar for title is present in dir.
func Exists(dir, title string) bool {
	info, err := os.Stat(PathFor(dir, title))
	return err == nil && !info.IsDir()
}

// Read decodes the sidecar at path. Nil tag and category lists become empty.
func Read(path string) (Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Metadata{}, services.Wrap(services.ErrNotFound, "sidecar", "read", path, err)
		}
		return Metadata{}, fmt.Errorf("read sidecar %s: %w", path, err)
	}
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return Metadata{}, services.Wrap(services.ErrValidation, "sidecar", "decode", path, err)
	}
	meta.normalize()
	return meta, nil
}

// Write replaces the sidecar at path.
func Write(path string, meta Metadata) error {
	meta.normalize()
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return fmt.Errorf("encode sidecar: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create sidecar dir: %w", err)
	}
	if err := fileutil.WriteFileAtomic(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write sidecar %s: %w", path, err)
	}
	return nil
}

func (m *Metadata) normalize() {
	m.Title = strings.TrimSpace(m.Title)
	if m.Tags == nil {
		m.Tags = []string{}
	}
	if m.Categories == nil {
		m.Categories = []string{}
	}
}

// FindByTitle scans dir for a sidecar whose own title shares the first
// `words` significant words with title. Files that fail to decode are
// skipped. The first match in directory order wins.
func FindByTitle(dir, title string, words int) (string, Metadata, error) {
	want := textutil.Normalize(title, textutil.ModeSignificant, words)
	if len(want) < words {
		return "", Metadata{}, services.Wrap(services.ErrNotFound, "sidecar", "find", fmt.Sprintf("title %q has fewer than %d significant words", title, words), nil)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", Metadata{}, fmt.Errorf("list %s: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), Extension) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		meta, err := Read(path)
		if err != nil {
			continue
		}
		got := textutil.Normalize(meta.Title, textutil.ModeSignificant, words)
		if slices.Equal(got, want) {
			return path, meta, nil
		}
	}
	return "", Metadata{}, services.Wrap(services.ErrNotFound, "sidecar", "find", fmt.Sprintf("no sidecar titled like %q", title), nil)
}
