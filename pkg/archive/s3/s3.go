// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package s3

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"golang.org/x/sync/errgroup"

	"github.com/leseb/beebot-mcp/pkg/archive"
)

func init() {
	archive.Providers.Register("s3", func(ctx context.Context, params map[string]string) (archive.Archive, error) {
		return New(ctx, Options{
			Bucket:   params["bucket"],
			Region:   params["region"],
			Prefix:   params["prefix"],
			Endpoint: params["endpoint"],
		})
	})
}

// compile-time check
var _ archive.Archive = (*Store)(nil)

// Options configures the S3 backend.
type Options struct {
	Bucket   string // required
	Region   string // e.g. "us-east-1"
	Prefix   string // key prefix, e.g. "reports/"
	Endpoint string // custom endpoint for MinIO compatibility
}

// Store implements archive.Archive backed by S3 (or MinIO).
//
// Object layout:
//
//	<prefix><report_id>/report.md
//	<prefix><report_id>/metadata.json
type Store struct {
	client *s3.Client
	bucket string
	prefix string
}

// New creates an S3-backed Store.
func New(ctx context.Context, opts Options) (*Store, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("s3 archive: bucket is required")
	}

	optFns := []func(*awsconfig.LoadOptions) error{}
	if opts.Region != "" {
		optFns = append(optFns, awsconfig.WithRegion(opts.Region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	s3Opts := []func(*s3.Options){}
	if opts.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true // required for MinIO
		})
	}

	return &Store{
		client: s3.NewFromConfig(cfg, s3Opts...),
		bucket: opts.Bucket,
		prefix: opts.Prefix,
	}, nil
}

func (s *Store) contentKey(id string) string {
	return s.prefix + id + "/report.md"
}

func (s *Store) metadataKey(id string) string {
	return s.prefix + id + "/metadata.json"
}

// Save uploads the report text and its metadata sidecar.
func (s *Store) Save(ctx context.Context, report *archive.Report) error {
	if err := archive.CheckID(report.ID); err != nil {
		return fmt.Errorf("save: invalid report id %q", report.ID)
	}
	if _, err := s.readMetadata(ctx, report.ID); err == nil {
		return fmt.Errorf("report %s already exists", report.ID)
	}

	metaBytes, err := json.Marshal(archive.MetadataOf(report))
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.contentKey(report.ID)),
		Body:        strings.NewReader(report.Content),
		ContentType: aws.String("text/markdown; charset=utf-8"),
	})
	if err != nil {
		return fmt.Errorf("put content: %w", err)
	}

	// Metadata goes last: List only sees reports whose sidecar exists.
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.metadataKey(report.ID)),
		Body:        bytes.NewReader(metaBytes),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("put metadata: %w", err)
	}
	return nil
}

// Get returns the report with its content.
func (s *Store) Get(ctx context.Context, id string) (*archive.Report, error) {
	if err := archive.CheckID(id); err != nil {
		return nil, err
	}
	meta, err := s.readMetadata(ctx, id)
	if err != nil {
		return nil, err
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.contentKey(id)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("report %s: %w", id, archive.ErrReportNotFound)
		}
		return nil, fmt.Errorf("get content: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read content body: %w", err)
	}
	r := meta.Report()
	r.Content = string(data)
	return r, nil
}

// List reads the metadata of every report under the prefix and returns
// the newest ones.
func (s *Store) List(ctx context.Context, limit int) ([]*archive.Report, error) {
	var ids []string
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(s.bucket),
		Prefix:    aws.String(s.prefix),
		Delimiter: aws.String("/"),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list objects: %w", err)
		}
		for _, cp := range page.CommonPrefixes {
			dir := strings.TrimSuffix(strings.TrimPrefix(aws.ToString(cp.Prefix), s.prefix), "/")
			if dir != "" {
				ids = append(ids, dir)
			}
		}
	}

	reports := make([]*archive.Report, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(10)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			meta, err := s.readMetadata(gctx, id)
			if errors.Is(err, archive.ErrReportNotFound) {
				return nil // content uploaded, sidecar not yet
			}
			if err != nil {
				return err
			}
			reports[i] = meta.Report()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	found := reports[:0]
	for _, r := range reports {
		if r != nil {
			found = append(found, r)
		}
	}
	return archive.Newest(found, limit), nil
}

// Delete removes both objects of a report.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := archive.CheckID(id); err != nil {
		return err
	}
	if _, err := s.readMetadata(ctx, id); err != nil {
		return err
	}

	_, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(s.bucket),
		Delete: &s3types.Delete{
			Objects: []s3types.ObjectIdentifier{
				{Key: aws.String(s.contentKey(id))},
				{Key: aws.String(s.metadataKey(id))},
			},
			Quiet: aws.Bool(true),
		},
	})
	if err != nil {
		return fmt.Errorf("delete objects: %w", err)
	}
	return nil
}

// Close is a no-op for the S3 store.
func (s *Store) Close(_ context.Context) error {
	return nil
}

func (s *Store) readMetadata(ctx context.Context, id string) (*archive.Metadata, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.metadataKey(id)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("report %s: %w", id, archive.ErrReportNotFound)
		}
		return nil, fmt.Errorf("get metadata: %w", err)
	}
	defer out.Body.Close()

	var meta archive.Metadata
	if err := json.NewDecoder(out.Body).Decode(&meta); err != nil {
		return nil, fmt.Errorf("decode metadata for %s: %w", id, err)
	}
	return &meta, nil
}

// isNotFound checks whether the error indicates a missing S3 object.
func isNotFound(err error) bool {
	var nsk *s3types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	// Some S3-compatible services return a generic "NotFound" status.
	return strings.Contains(err.Error(), "NoSuchKey") || strings.Contains(err.Error(), "NotFound")
}
