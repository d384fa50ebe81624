// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package s3_test

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/leseb/beebot-mcp/pkg/archive"
	"github.com/leseb/beebot-mcp/pkg/archive/archivetest"
	archives3 "github.com/leseb/beebot-mcp/pkg/archive/s3"
)

func TestS3Conformance(t *testing.T) {
	bucket := os.Getenv("ARCHIVE_S3_BUCKET")
	endpoint := os.Getenv("ARCHIVE_S3_ENDPOINT")
	if bucket == "" || endpoint == "" {
		t.Skip("Skipping S3 conformance tests: ARCHIVE_S3_BUCKET and ARCHIVE_S3_ENDPOINT must be set (e.g. with MinIO)")
	}

	region := os.Getenv("ARCHIVE_S3_REGION")
	if region == "" {
		region = "us-east-1"
	}

	archivetest.RunConformanceTests(t, func(t *testing.T) archive.Archive {
		store, err := archives3.New(context.Background(), archives3.Options{
			Bucket:   bucket,
			Region:   region,
			Prefix:   "test-" + strings.ReplaceAll(t.Name(), "/", "-") + "/",
			Endpoint: endpoint,
		})
		if err != nil {
			t.Fatalf("s3.New: %v", err)
		}
		return store
	})
}

func TestNew_RequiresBucket(t *testing.T) {
	if _, err := archives3.New(context.Background(), archives3.Options{}); err == nil {
		t.Fatal("expected error without bucket")
	}
}
