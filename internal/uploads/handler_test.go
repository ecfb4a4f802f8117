package uploads

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
)

func TestPresignSignedHeadersExcludeContentLength(t *testing.T) {
	cfg := aws.Config{
		Region:      "us-east-1",
		Credentials: aws.NewCredentialsCache(credentials.NewStaticCredentialsProvider("AKID", "SECRET", "")),
	}
	presigner := S3Presigner{Client: s3.NewPresignClient(s3.NewFromConfig(cfg))}

	raw, err := presigner.PresignPut(context.Background(), "bucket", "input/ad.png", "image/png", time.Minute)
	if err != nil {
		t.Fatalf("presign: %v", err)
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}

	signed := parsed.Query().Get("X-Amz-SignedHeaders")
	if signed == "" {
		t.Fatalf("expected X-Amz-SignedHeaders")
	}
	if strings.Contains(signed, "content-length") {
		t.Fatalf("unexpected content-length in signed headers: %s", signed)
	}
	if !strings.Contains(signed, "host") {
		t.Fatalf("expected host in signed headers: %s", signed)
	}
}

type fakePresigner struct {
	bucket, key string
	err         error
}

func (f *fakePresigner) PresignPut(ctx context.Context, bucket, key, contentType string, expires time.Duration) (string, error) {
	f.bucket, f.key = bucket, key
	if f.err != nil {
		return "", f.err
	}
	return "https://" + bucket + ".s3.amazonaws.com/" + key + "?sig=1", nil
}

func postPresign(t *testing.T, h *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h.RegisterRoutes(r.Group("/api/v1"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads/presign", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPresignUploadReturnsInputURI(t *testing.T) {
	fake := &fakePresigner{}
	h := NewHandler(fake, "media-bucket", "/incoming/")

	w := postPresign(t, h, `{"fileName":"team call.mp4","contentType":"video/mp4","sizeBytes":1048576}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp presignResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.HasPrefix(resp.InputURI, "s3://media-bucket/incoming/") || !strings.HasSuffix(resp.InputURI, "-team_call.mp4") {
		t.Fatalf("unexpected input uri %q", resp.InputURI)
	}
	if fake.bucket != "media-bucket" || "s3://media-bucket/"+fake.key != resp.InputURI {
		t.Fatalf("presigned wrong object %s/%s", fake.bucket, fake.key)
	}
	if resp.ExpiresInSeconds != 900 || resp.UploadURL == "" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestPresignUploadValidation(t *testing.T) {
	h := NewHandler(&fakePresigner{}, "media-bucket", "")
	cases := map[string]string{
		"bad json":       `{`,
		"no name":        `{"contentType":"image/png","sizeBytes":10}`,
		"not media":      `{"fileName":"a.zip","contentType":"application/zip","sizeBytes":10}`,
		"mismatched ext": `{"fileName":"a.png","contentType":"video/mp4","sizeBytes":10}`,
		"too large":      `{"fileName":"a.png","contentType":"image/png","sizeBytes":4294967296}`,
		"traversal":      `{"fileName":"../a.png","contentType":"image/png","sizeBytes":10}`,
	}
	for name, body := range cases {
		if w := postPresign(t, h, body); w.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", name, w.Code)
		}
	}
}

func TestPresignUploadFailure(t *testing.T) {
	h := NewHandler(&fakePresigner{err: errors.New("no creds")}, "media-bucket", "")
	if w := postPresign(t, h, `{"fileName":"a.pdf","contentType":"application/pdf","sizeBytes":10}`); w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestNewHandlerDisabledWithoutBucket(t *testing.T) {
	if NewHandler(&fakePresigner{}, " ", "") != nil {
		t.Fatalf("expected nil handler without bucket")
	}
}

func TestAllowedMedia(t *testing.T) {
	cases := []struct {
		name, ct string
		want     bool
	}{
		{"ad.png", "image/png", true},
		{"ad.JPG", "image/jpeg", true},
		{"clip.mp4", "video/mp4", true},
		{"talk.mp3", "audio/mpeg", true},
		{"doc.pdf", "application/pdf", true},
		{"noext", "image/png", false},
		{"doc.pdf", "image/png", false},
	}
	for _, tc := range cases {
		if got := allowedMedia(tc.name, tc.ct); got != tc.want {
			t.Fatalf("allowedMedia(%q, %q) = %v, want %v", tc.name, tc.ct, got, tc.want)
		}
	}
}
