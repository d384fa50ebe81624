// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package filesystem

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/leseb/beebot-mcp/pkg/archive"
)

func init() {
	archive.Providers.Register("filesystem", func(_ context.Context, params map[string]string) (archive.Archive, error) {
		return New(params["base_dir"])
	})
}

// compile-time check
var _ archive.Archive = (*Store)(nil)

// Store implements archive.Archive backed by a local filesystem.
//
// Layout:
//
//	<baseDir>/<report_id>/report.md      report text
//	<baseDir>/<report_id>/metadata.json  JSON metadata sidecar
type Store struct {
	baseDir string
}

// New creates a filesystem-backed Store, creating baseDir if it does not exist.
func New(baseDir string) (*Store, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("filesystem archive: base_dir is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create base dir %s: %w", baseDir, err)
	}
	return &Store{baseDir: baseDir}, nil
}

// Save writes the report text and metadata to disk atomically.
func (s *Store) Save(_ context.Context, report *archive.Report) error {
	if err := archive.CheckID(report.ID); err != nil {
		return fmt.Errorf("save: invalid report id %q", report.ID)
	}
	dir := filepath.Join(s.baseDir, report.ID)
	if _, err := os.Stat(dir); err == nil {
		return fmt.Errorf("report %s already exists", report.ID)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}

	if err := writeAtomic(filepath.Join(dir, "report.md"), []byte(report.Content)); err != nil {
		return fmt.Errorf("write content: %w", err)
	}

	metaBytes, err := json.Marshal(archive.MetadataOf(report))
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	if err := writeAtomic(filepath.Join(dir, "metadata.json"), metaBytes); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}

// writeAtomic writes to a temp file and renames it into place.
func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Get returns the report with its content.
func (s *Store) Get(_ context.Context, id string) (*archive.Report, error) {
	if err := archive.CheckID(id); err != nil {
		return nil, err
	}
	meta, err := s.readMetadata(id)
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(filepath.Join(s.baseDir, id, "report.md"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("report %s: %w", id, archive.ErrReportNotFound)
		}
		return nil, fmt.Errorf("read content: %w", err)
	}
	r := meta.Report()
	r.Content = string(content)
	return r, nil
}

// List reads every metadata sidecar and returns the newest reports.
func (s *Store) List(_ context.Context, limit int) ([]*archive.Report, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("read base dir: %w", err)
	}

	var all []*archive.Report
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.readMetadata(entry.Name())
		if err != nil {
			continue // skip partial writes
		}
		all = append(all, meta.Report())
	}
	return archive.Newest(all, limit), nil
}

// Delete removes the report directory.
func (s *Store) Delete(_ context.Context, id string) error {
	if err := archive.CheckID(id); err != nil {
		return err
	}
	dir := filepath.Join(s.baseDir, id)
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("report %s: %w", id, archive.ErrReportNotFound)
		}
		return fmt.Errorf("stat report dir: %w", err)
	}
	return os.RemoveAll(dir)
}

// Close is a no-op for the filesystem archive.
func (s *Store) Close(_ context.Context) error {
	return nil
}

func (s *Store) readMetadata(id string) (*archive.Metadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, id, "metadata.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("report %s: %w", id, archive.ErrReportNotFound)
		}
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	var meta archive.Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("decode metadata for %s: %w", id, err)
	}
	return &meta, nil
}
