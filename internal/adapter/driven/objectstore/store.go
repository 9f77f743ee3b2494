// Package objectstore implements the ProcessedRunStore port on S3-compatible
// object storage using minio-go. The object body is the same JSON document the
// statefile backend writes to disk.
package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/jaydeluca/java-meta-tracker/internal/adapter/driven/statefile"
	"github.com/jaydeluca/java-meta-tracker/internal/domain/model"
	"github.com/jaydeluca/java-meta-tracker/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ProcessedRunStore = (*Store)(nil)

// errObjectNotFound is returned by objectClient.get for a missing key.
var errObjectNotFound = errors.New("object not found")

// Options configures the S3 connection.
type Options struct {
	Endpoint  string
	Bucket    string
	Key       string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// objectClient is the subset of object storage operations the store needs.
type objectClient interface {
	ensureBucket(ctx context.Context, bucket string) error
	get(ctx context.Context, bucket, key string) ([]byte, error)
	put(ctx context.Context, bucket, key string, data []byte) error
}

// Store keeps the processed run state as a single object.
type Store struct {
	client objectClient
	bucket string
	key    string
	now    func() time.Time
}

// NewStore connects to the endpoint in opts. The bucket is created on first Save.
func NewStore(opts Options) (*Store, error) {
	if opts.Endpoint == "" {
		return nil, errors.New("s3 endpoint is required when TRACKER_STATE_BACKEND=s3")
	}
	if opts.Bucket == "" {
		return nil, errors.New("s3 bucket is required when TRACKER_STATE_BACKEND=s3")
	}

	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 client for %s: %w", opts.Endpoint, err)
	}

	return newStore(&minioClient{client: client}, opts.Bucket, opts.Key), nil
}

func newStore(client objectClient, bucket, key string) *Store {
	return &Store{client: client, bucket: bucket, key: key, now: time.Now}
}

// Load reads the state object. A missing object is a first run; any other
// failure is logged and treated as empty.
func (s *Store) Load(ctx context.Context) model.RunIDSet {
	data, err := s.client.get(ctx, s.bucket, s.key)
	if errors.Is(err, errObjectNotFound) {
		slog.Info("no processed run state yet", "bucket", s.bucket, "key", s.key)
		return model.NewRunIDSet()
	}
	if err != nil {
		slog.Warn("reading processed run state, starting empty", "bucket", s.bucket, "key", s.key, "error", err)
		return model.NewRunIDSet()
	}

	state, err := statefile.Decode(data)
	if err != nil {
		slog.Warn("decoding processed run state, starting empty", "bucket", s.bucket, "key", s.key, "error", err)
		return model.NewRunIDSet()
	}

	ids := state.IDSet()
	slog.Info("loaded processed run state", "bucket", s.bucket, "key", s.key, "count", ids.Len())
	return ids
}

// Save uploads the newest MaxStoredRunIDs IDs of ids. A single PUT replaces
// the object, so readers never observe a partial document.
func (s *Store) Save(ctx context.Context, ids model.RunIDSet) error {
	data, err := statefile.Encode(model.NewProcessedRunState(ids, s.now()))
	if err != nil {
		return err
	}

	if err := s.client.ensureBucket(ctx, s.bucket); err != nil {
		return fmt.Errorf("ensure bucket %s: %w", s.bucket, err)
	}

	if err := s.client.put(ctx, s.bucket, s.key, data); err != nil {
		return fmt.Errorf("put %s/%s: %w", s.bucket, s.key, err)
	}

	return nil
}

// minioClient adapts *minio.Client to objectClient.
type minioClient struct {
	client *minio.Client
}

func (c *minioClient) ensureBucket(ctx context.Context, bucket string) error {
	exists, err := c.client.BucketExists(ctx, bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return c.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{})
}

func (c *minioClient) get(ctx context.Context, bucket, key string) ([]byte, error) {
	obj, err := c.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, translateErr(err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, translateErr(err)
	}
	return data, nil
}

func (c *minioClient) put(ctx context.Context, bucket, key string, data []byte) error {
	_, err := c.client.PutObject(ctx, bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"})
	return err
}

func translateErr(err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return errObjectNotFound
	}
	return err
}
