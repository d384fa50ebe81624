// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package archive stores finished research reports so they can be listed
// and fetched again by id.
package archive

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/leseb/beebot-mcp/pkg/provider"
)

// ErrReportNotFound is returned when a report does not exist.
var ErrReportNotFound = errors.New("report not found")

// Providers is the registry of archive backend implementations.
// Import implementation packages with blank imports to register them:
//
//	import _ "github.com/leseb/beebot-mcp/pkg/archive/memory"
//	import _ "github.com/leseb/beebot-mcp/pkg/archive/filesystem"
//	import _ "github.com/leseb/beebot-mcp/pkg/archive/s3"
var Providers = provider.NewRegistry[Archive]("archive")

// Report is one archived research report.
type Report struct {
	ID        string
	Topic     string
	Focus     string
	CreatedAt time.Time
	Content   string // empty in List results
}

// NewReport stamps a report with a fresh id and creation time.
func NewReport(topic, focus, content string) *Report {
	return &Report{
		ID:        uuid.NewString(),
		Topic:     topic,
		Focus:     focus,
		CreatedAt: time.Now().UTC(),
		Content:   content,
	}
}

// Archive defines the interface for pluggable report storage backends.
type Archive interface {
	Save(ctx context.Context, report *Report) error
	Get(ctx context.Context, id string) (*Report, error)
	// List returns up to limit reports, newest first, without content.
	List(ctx context.Context, limit int) ([]*Report, error)
	Delete(ctx context.Context, id string) error
	Close(ctx context.Context) error
}

// CheckID rejects ids that are not UUIDs. Backends that map ids to paths
// or keys call it before touching storage.
func CheckID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("report %q: %w", id, ErrReportNotFound)
	}
	return nil
}

// Metadata is the JSON sidecar persisted next to report content.
type Metadata struct {
	ID        string    `json:"id"`
	Topic     string    `json:"topic"`
	Focus     string    `json:"focus"`
	Bytes     int       `json:"bytes"`
	CreatedAt time.Time `json:"created_at"`
}

// MetadataOf builds the sidecar for a report.
func MetadataOf(r *Report) Metadata {
	return Metadata{
		ID:        r.ID,
		Topic:     r.Topic,
		Focus:     r.Focus,
		Bytes:     len(r.Content),
		CreatedAt: r.CreatedAt,
	}
}

// Report converts the sidecar back into a content-less report.
func (m Metadata) Report() *Report {
	return &Report{ID: m.ID, Topic: m.Topic, Focus: m.Focus, CreatedAt: m.CreatedAt}
}

// Newest sorts reports newest first and trims the slice to limit.
// A non-positive limit keeps every report.
func Newest(reports []*Report, limit int) []*Report {
	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].CreatedAt.After(reports[j].CreatedAt)
	})
	if limit > 0 && len(reports) > limit {
		reports = reports[:limit]
	}
	return reports
}
