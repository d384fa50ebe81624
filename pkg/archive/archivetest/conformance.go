// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package archivetest provides a shared conformance test suite for
// archive.Archive implementations. Each backend should call
// RunConformanceTests from its own _test.go file.
package archivetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/leseb/beebot-mcp/pkg/archive"
)

// RunConformanceTests exercises an Archive implementation against the
// shared contract. newArchive is called once per sub-test to provide an
// isolated instance.
func RunConformanceTests(t *testing.T, newArchive func(t *testing.T) archive.Archive) {
	t.Helper()

	t.Run("SaveAndGet", func(t *testing.T) {
		a := newArchive(t)
		defer a.Close(context.Background())
		ctx := context.Background()

		r := archive.NewReport("fusion energy", "recent breakthroughs", "## Key Sources\n\n1. [x](https://x)\n")
		r.CreatedAt = r.CreatedAt.Truncate(time.Millisecond)
		if err := a.Save(ctx, r); err != nil {
			t.Fatalf("Save: %v", err)
		}

		got, err := a.Get(ctx, r.ID)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got.ID != r.ID || got.Topic != r.Topic || got.Focus != r.Focus || got.Content != r.Content {
			t.Errorf("Get returned %+v, want %+v", got, r)
		}
		if !got.CreatedAt.Equal(r.CreatedAt) {
			t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, r.CreatedAt)
		}
	})

	t.Run("GetNotFound", func(t *testing.T) {
		a := newArchive(t)
		defer a.Close(context.Background())

		_, err := a.Get(context.Background(), "6f1c7c56-2c43-4b5e-9d6e-000000000000")
		if !errors.Is(err, archive.ErrReportNotFound) {
			t.Fatalf("expected ErrReportNotFound, got %v", err)
		}
	})

	t.Run("DuplicateSave", func(t *testing.T) {
		a := newArchive(t)
		defer a.Close(context.Background())
		ctx := context.Background()

		r := archive.NewReport("t", "f", "c")
		if err := a.Save(ctx, r); err != nil {
			t.Fatalf("Save: %v", err)
		}
		if err := a.Save(ctx, r); err == nil {
			t.Fatal("expected error saving the same id twice")
		}
	})

	t.Run("ListNewestFirstWithoutContent", func(t *testing.T) {
		a := newArchive(t)
		defer a.Close(context.Background())
		ctx := context.Background()

		base := time.Now().UTC().Truncate(time.Millisecond)
		var ids []string
		for i := 0; i < 4; i++ {
			r := archive.NewReport("topic", "focus", "content")
			r.CreatedAt = base.Add(time.Duration(i) * time.Minute)
			if err := a.Save(ctx, r); err != nil {
				t.Fatalf("Save: %v", err)
			}
			ids = append(ids, r.ID)
		}

		got, err := a.List(ctx, 3)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(got) != 3 {
			t.Fatalf("expected 3 reports, got %d", len(got))
		}
		for i, want := range []string{ids[3], ids[2], ids[1]} {
			if got[i].ID != want {
				t.Errorf("List[%d] = %s, want %s", i, got[i].ID, want)
			}
			if got[i].Content != "" {
				t.Errorf("List[%d] carries content", i)
			}
		}

		all, err := a.List(ctx, 0)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(all) != 4 {
			t.Errorf("List(0) returned %d reports, want 4", len(all))
		}
	})

	t.Run("Delete", func(t *testing.T) {
		a := newArchive(t)
		defer a.Close(context.Background())
		ctx := context.Background()

		r := archive.NewReport("t", "f", "c")
		if err := a.Save(ctx, r); err != nil {
			t.Fatalf("Save: %v", err)
		}
		if err := a.Delete(ctx, r.ID); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if _, err := a.Get(ctx, r.ID); !errors.Is(err, archive.ErrReportNotFound) {
			t.Errorf("expected ErrReportNotFound after delete, got %v", err)
		}
		if err := a.Delete(ctx, r.ID); !errors.Is(err, archive.ErrReportNotFound) {
			t.Errorf("expected ErrReportNotFound deleting twice, got %v", err)
		}
	})
}
