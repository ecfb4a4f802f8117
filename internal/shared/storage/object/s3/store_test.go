package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"bda-pipeline/internal/shared/storage/object"
)

type fakeS3 struct {
	objects map[string][]byte
	puts    []*s3.PutObjectInput
}

func (f *fakeS3) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	_ = ctx
	_ = optFns
	data, ok := f.objects[aws.ToString(params.Bucket)+"/"+aws.ToString(params.Key)]
	if !ok {
		return nil, &s3types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	_ = ctx
	_ = optFns
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	if f.objects == nil {
		f.objects = map[string][]byte{}
	}
	f.objects[aws.ToString(params.Bucket)+"/"+aws.ToString(params.Key)] = data
	f.puts = append(f.puts, params)
	return &s3.PutObjectOutput{}, nil
}

func TestSaveThenOpen(t *testing.T) {
	client := &fakeS3{}
	store := NewWithClient(client, "")

	n, err := store.Save(context.Background(), "s3://bucket/output/result.parquet", "application/vnd.apache.parquet", strings.NewReader("PAR1"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if n != 4 {
		t.Fatalf("expected 4 bytes written, got %d", n)
	}
	if got := aws.ToInt64(client.puts[0].ContentLength); got != 4 {
		t.Fatalf("expected content length 4, got %d", got)
	}
	if client.puts[0].ServerSideEncryption != s3types.ServerSideEncryptionAes256 {
		t.Fatalf("expected AES256 encryption, got %s", client.puts[0].ServerSideEncryption)
	}

	rc, err := store.Open(context.Background(), "s3://bucket/output/result.parquet")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "PAR1" {
		t.Fatalf("unexpected body %q", data)
	}
}

func TestSaveUsesKMSWhenConfigured(t *testing.T) {
	client := &fakeS3{}
	store := NewWithClient(client, " key-1 ")

	if _, err := store.Save(context.Background(), "s3://bucket/a.json", "application/json", strings.NewReader("{}")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if client.puts[0].ServerSideEncryption != s3types.ServerSideEncryptionAwsKms {
		t.Fatalf("expected KMS encryption, got %s", client.puts[0].ServerSideEncryption)
	}
	if aws.ToString(client.puts[0].SSEKMSKeyId) != "key-1" {
		t.Fatalf("unexpected kms key id %q", aws.ToString(client.puts[0].SSEKMSKeyId))
	}
}

func TestOpenMissingObjectIsNotFound(t *testing.T) {
	store := NewWithClient(&fakeS3{}, "")
	_, err := store.Open(context.Background(), "s3://bucket/missing.json")
	if !errors.Is(err, object.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveRejectsBucketOnlyURI(t *testing.T) {
	store := NewWithClient(&fakeS3{}, "")
	if _, err := store.Save(context.Background(), "s3://bucket", "text/plain", strings.NewReader("x")); err == nil {
		t.Fatalf("expected error for bucket-only uri")
	}
}

func TestSaveMeasuresBufferedBody(t *testing.T) {
	client := &fakeS3{}
	store := NewWithClient(client, "")

	var buf bytes.Buffer
	buf.WriteString("PAR1....PAR1")
	n, err := store.Save(context.Background(), "s3://bucket/output/p/i/final_result.parquet", "application/vnd.apache.parquet", &buf)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if n != 12 || aws.ToInt64(client.puts[0].ContentLength) != 12 {
		t.Fatalf("expected 12 bytes with content length 12, got n=%d length=%d", n, aws.ToInt64(client.puts[0].ContentLength))
	}
	if _, ok := client.puts[0].Body.(io.Seeker); !ok {
		t.Fatalf("expected seekable body, got %T", client.puts[0].Body)
	}
}

func TestSaveSendsContentLengthHeader(t *testing.T) {
	var (
		gotLength   int64 = -2
		gotEncoding []string
		gotPath     string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLength = r.ContentLength
		gotEncoding = r.TransferEncoding
		gotPath = r.URL.Path
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := s3.New(s3.Options{
		Region:       "us-east-1",
		BaseEndpoint: aws.String(srv.URL),
		UsePathStyle: true,
		Credentials:  credentials.NewStaticCredentialsProvider("AKID", "SECRET", ""),
	})
	store := NewWithClient(client, "")

	body := bytes.NewBufferString("PAR1 table bytes PAR1")
	if _, err := store.Save(context.Background(), "s3://bucket/output/p/i/final_result.parquet", "application/vnd.apache.parquet", body); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if gotLength < 0 {
		t.Fatalf("expected Content-Length header, got %d (transfer-encoding=%v)", gotLength, gotEncoding)
	}
	for _, te := range gotEncoding {
		if te == "chunked" {
			t.Fatalf("unexpected chunked transfer encoding")
		}
	}
	if gotPath != "/bucket/output/p/i/final_result.parquet" {
		t.Fatalf("unexpected request path %q", gotPath)
	}
}
