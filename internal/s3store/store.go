// Package s3store implements the settee document store on an S3-compatible
// bucket. Each document is one JSON object under the configured prefix.
// Writes use conditional requests (If-None-Match on create, If-Match on
// update and delete) so concurrent writers conflict rather than overwrite.
package s3store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/mesh-intelligence/settee/pkg/types"
)

const (
	defaultRegion = "us-east-1"
	docsDir       = "docs/"
	docSuffix     = ".json"
)

// ObjectAPI is the subset of the S3 client the store uses.
type ObjectAPI interface {
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

var _ types.Backend = (*Store)(nil)

// Store is an S3-backed document store.
type Store struct {
	mu     sync.RWMutex
	client ObjectAPI
	bucket string
	prefix string
	now    func() time.Time
	dial   func(ctx context.Context, cfg types.S3Config) (ObjectAPI, error)
}

// New returns a detached store that dials AWS on Attach.
func New() *Store {
	return &Store{now: time.Now, dial: newClient}
}

// NewWithClient returns a detached store that uses api instead of dialing.
func NewWithClient(api ObjectAPI) *Store {
	s := New()
	s.dial = func(context.Context, types.S3Config) (ObjectAPI, error) { return api, nil }
	return s
}

func newClient(ctx context.Context, cfg types.S3Config) (ObjectAPI, error) {
	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}

// Attach builds the client and checks the bucket is reachable.
func (s *Store) Attach(cfg types.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		return types.ErrAlreadyAttached
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	ctx := context.Background()
	client, err := s.dial(ctx, cfg.S3)
	if err != nil {
		return err
	}
	if _, err := client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(cfg.S3.Bucket)}); err != nil {
		return fmt.Errorf("%w: head bucket %s: %w", types.ErrStoreUnavailable, cfg.S3.Bucket, err)
	}
	s.client = client
	s.bucket = cfg.S3.Bucket
	s.prefix = cfg.S3.Prefix
	return nil
}

// Detach drops the client. Idempotent.
func (s *Store) Detach() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.client = nil
	return nil
}

func (s *Store) api() (ObjectAPI, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.client == nil {
		return nil, types.ErrStoreDetached
	}
	return s.client, nil
}

func (s *Store) key(id string) string {
	return s.prefix + docsDir + id + docSuffix
}

// classify maps S3 API errors onto store errors.
func classify(op string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return types.ErrNotFound
		case "PreconditionFailed", "ConditionalRequestConflict":
			return types.ErrConflict
		}
	}
	return fmt.Errorf("%w: %s: %w", types.ErrStoreUnavailable, op, err)
}

// fetch reads a document and the ETag it was stored under.
func (s *Store) fetch(ctx context.Context, api ObjectAPI, id string) (*types.Document, string, error) {
	out, err := api.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(s.key(id))})
	if err != nil {
		return nil, "", classify("get object", err)
	}
	defer func() { _ = out.Body.Close() }()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, "", classify("read object", err)
	}
	doc, err := decodeDocument(data)
	if err != nil {
		return nil, "", err
	}
	return doc, aws.ToString(out.ETag), nil
}

func decodeDocument(data []byte) (*types.Document, error) {
	var doc types.Document
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidData, err)
	}
	if doc.Attributes == nil {
		doc.Attributes = make(map[string]any)
	}
	types.NormalizeNumbers(doc.Attributes)
	return &doc, nil
}

// Get retrieves a document by ID.
func (s *Store) Get(ctx context.Context, id string) (*types.Document, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	api, err := s.api()
	if err != nil {
		return nil, err
	}
	doc, _, err := s.fetch(ctx, api, id)
	return doc, err
}

// Write creates or updates a document.
func (s *Store) Write(ctx context.Context, doc *types.Document) (types.WriteResult, error) {
	if doc == nil || doc.Type == "" {
		return types.WriteResult{}, types.ErrInvalidData
	}
	if doc.Rev != "" && doc.ID == "" {
		return types.WriteResult{}, types.ErrInvalidID
	}
	if strings.Contains(doc.ID, "/") {
		return types.WriteResult{}, types.ErrInvalidID
	}
	api, err := s.api()
	if err != nil {
		return types.WriteResult{}, err
	}

	now := s.now().UTC()
	next := doc.Clone()
	next.UpdatedAt = now
	next.Rev = types.NextRevision(doc.Rev)
	if next.Attributes == nil {
		next.Attributes = make(map[string]any)
	}

	put := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		ContentType: aws.String("application/json"),
	}
	if doc.Rev == "" {
		if next.ID == "" {
			next.ID = types.NewDocumentID()
		}
		next.CreatedAt = now
		put.IfNoneMatch = aws.String("*")
	} else {
		current, etag, err := s.fetch(ctx, api, doc.ID)
		if errors.Is(err, types.ErrNotFound) {
			return types.WriteResult{}, types.ErrConflict
		}
		if err != nil {
			return types.WriteResult{}, err
		}
		if current.Rev != doc.Rev {
			return types.WriteResult{}, types.ErrConflict
		}
		next.CreatedAt = current.CreatedAt
		put.IfMatch = aws.String(etag)
	}

	body, err := json.Marshal(next)
	if err != nil {
		return types.WriteResult{}, fmt.Errorf("%w: %v", types.ErrInvalidData, err)
	}
	put.Key = aws.String(s.key(next.ID))
	put.Body = bytes.NewReader(body)
	if _, err := api.PutObject(ctx, put); err != nil {
		err = classify("put object", err)
		if errors.Is(err, types.ErrNotFound) {
			err = types.ErrConflict
		}
		return types.WriteResult{}, err
	}
	return types.WriteResult{ID: next.ID, Rev: next.Rev}, nil
}

// Delete removes a document at the given revision.
func (s *Store) Delete(ctx context.Context, id, rev string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	api, err := s.api()
	if err != nil {
		return err
	}
	current, etag, err := s.fetch(ctx, api, id)
	if err != nil {
		return err
	}
	if current.Rev != rev {
		return types.ErrConflict
	}
	_, err = api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket:  aws.String(s.bucket),
		Key:     aws.String(s.key(id)),
		IfMatch: aws.String(etag),
	})
	if err != nil {
		return classify("delete object", err)
	}
	return nil
}

// Find lists every document object and filters in process. Results are in
// creation order, ties broken by ID.
func (s *Store) Find(ctx context.Context, docType string, filter map[string]any) ([]*types.Document, error) {
	if err := types.ValidateFilter(filter); err != nil {
		return nil, err
	}
	api, err := s.api()
	if err != nil {
		return nil, err
	}

	var out []*types.Document
	pages := s3.NewListObjectsV2Paginator(api, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix + docsDir),
	})
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return nil, classify("list objects", err)
		}
		for _, obj := range page.Contents {
			id, ok := s.idFromKey(aws.ToString(obj.Key))
			if !ok {
				continue
			}
			doc, _, err := s.fetch(ctx, api, id)
			if errors.Is(err, types.ErrNotFound) || errors.Is(err, types.ErrInvalidData) {
				continue
			}
			if err != nil {
				return nil, err
			}
			if doc.Type == docType && doc.Matches(filter) {
				out = append(out, doc)
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) idFromKey(key string) (string, bool) {
	rest, ok := strings.CutPrefix(key, s.prefix+docsDir)
	if !ok {
		return "", false
	}
	id, ok := strings.CutSuffix(rest, docSuffix)
	return id, ok && id != "" && !strings.Contains(id, "/")
}
