// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/leseb/beebot-mcp/pkg/archive"
)

func init() {
	archive.Providers.Register("memory", func(_ context.Context, _ map[string]string) (archive.Archive, error) {
		return New(), nil
	})
}

// compile-time check
var _ archive.Archive = (*Store)(nil)

// Store is an in-memory report archive.
type Store struct {
	mu      sync.RWMutex
	reports map[string]*archive.Report
}

// New creates a new in-memory archive.
func New() *Store {
	return &Store{
		reports: make(map[string]*archive.Report),
	}
}

// Save stores a new report.
func (s *Store) Save(_ context.Context, report *archive.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.reports[report.ID]; exists {
		return fmt.Errorf("report %s already exists", report.ID)
	}

	cp := *report
	s.reports[report.ID] = &cp
	return nil
}

// Get returns a copy of the report with content.
func (s *Store) Get(_ context.Context, id string) (*archive.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	report, exists := s.reports[id]
	if !exists {
		return nil, fmt.Errorf("report %s: %w", id, archive.ErrReportNotFound)
	}
	cp := *report
	return &cp, nil
}

// List returns the newest reports without content.
func (s *Store) List(_ context.Context, limit int) ([]*archive.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]*archive.Report, 0, len(s.reports))
	for _, r := range s.reports {
		cp := *r
		cp.Content = ""
		all = append(all, &cp)
	}
	return archive.Newest(all, limit), nil
}

// Delete removes a report.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.reports[id]; !exists {
		return fmt.Errorf("report %s: %w", id, archive.ErrReportNotFound)
	}
	delete(s.reports, id)
	return nil
}

// Close is a no-op for the in-memory archive.
func (s *Store) Close(_ context.Context) error {
	return nil
}
