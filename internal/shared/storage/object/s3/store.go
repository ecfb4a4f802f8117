package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"bda-pipeline/internal/shared/storage/object"
)

type s3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Store implements ObjectStore using Amazon S3.
type Store struct {
	client   s3API
	kmsKeyID string
}

// New creates a new S3-backed object store.
func New(ctx context.Context, region, kmsKeyID string) (*Store, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return NewWithClient(s3.NewFromConfig(cfg), kmsKeyID), nil
}

// NewWithClient wraps an existing S3 client.
func NewWithClient(client s3API, kmsKeyID string) *Store {
	return &Store{
		client:   client,
		kmsKeyID: strings.TrimSpace(kmsKeyID),
	}
}

// Open downloads an object for reading.
func (s *Store) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	loc, err := object.ParseURI(uri)
	if err != nil {
		return nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(loc.Bucket),
		Key:    aws.String(loc.Key),
	})
	if err != nil {
		var noKey *s3types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("s3 get object bucket=%s key=%s: %w", loc.Bucket, loc.Key, object.ErrNotFound)
		}
		return nil, fmt.Errorf("s3 get object bucket=%s key=%s: %w", loc.Bucket, loc.Key, err)
	}
	return out.Body, nil
}

// Save uploads data to the given URI.
func (s *Store) Save(ctx context.Context, uri string, contentType string, r io.Reader) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	loc, err := object.ParseURI(uri)
	if err != nil {
		return 0, err
	}
	if loc.Key == "" {
		return 0, fmt.Errorf("s3 put object: uri %q has no key", uri)
	}
	body, size, err := sizedBody(r)
	if err != nil {
		return 0, fmt.Errorf("s3 put object bucket=%s key=%s: read body: %w", loc.Bucket, loc.Key, err)
	}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(loc.Bucket),
		Key:           aws.String(loc.Key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	}
	if s.kmsKeyID != "" {
		input.ServerSideEncryption = s3types.ServerSideEncryptionAwsKms
		input.SSEKMSKeyId = aws.String(s.kmsKeyID)
	} else {
		input.ServerSideEncryption = s3types.ServerSideEncryptionAes256
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return 0, fmt.Errorf("s3 put object bucket=%s key=%s: %w", loc.Bucket, loc.Key, err)
	}
	return size, nil
}

// sizedBody returns a seekable body and its remaining length. PutObject
// needs both to send Content-Length instead of a chunked body.
func sizedBody(r io.Reader) (io.ReadSeeker, int64, error) {
	switch b := r.(type) {
	case *bytes.Reader:
		return b, int64(b.Len()), nil
	case *bytes.Buffer:
		return bytes.NewReader(b.Bytes()), int64(b.Len()), nil
	case *strings.Reader:
		return b, int64(b.Len()), nil
	case io.ReadSeeker:
		cur, err := b.Seek(0, io.SeekCurrent)
		if err != nil {
			return nil, 0, err
		}
		end, err := b.Seek(0, io.SeekEnd)
		if err != nil {
			return nil, 0, err
		}
		if _, err := b.Seek(cur, io.SeekStart); err != nil {
			return nil, 0, err
		}
		return b, end - cur, nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, 0, err
	}
	return bytes.NewReader(data), int64(len(data)), nil
}

var _ object.ObjectStore = (*Store)(nil)
