package uploads

import (
	"context"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/h2non/filetype"

	"bda-pipeline/internal/shared/server/respond"
	"bda-pipeline/internal/shared/storage/object"
	"bda-pipeline/internal/shared/telemetry"
	"bda-pipeline/internal/shared/util"
)

const (
	maxUploadBytes       = 2 << 30
	presignExpires       = 15 * time.Minute
	defaultUploadsPrefix = "input/"
)

// Presigner issues presigned PUT URLs.
type Presigner interface {
	PresignPut(ctx context.Context, bucket, key, contentType string, expires time.Duration) (string, error)
}

// S3Presigner adapts an s3.PresignClient.
type S3Presigner struct {
	Client *s3.PresignClient
}

func (p S3Presigner) PresignPut(ctx context.Context, bucket, key, contentType string, expires time.Duration) (string, error) {
	out, err := p.Client.PresignPutObject(ctx, presignInput(bucket, key, contentType), func(opts *s3.PresignOptions) {
		opts.Expires = expires
	})
	if err != nil {
		return "", err
	}
	return out.URL, nil
}

// Handler hands out upload URLs for media that will later be submitted as a
// run's input.
type Handler struct {
	presign Presigner
	bucket  string
	prefix  string
}

// NewHandler returns nil when no bucket is configured.
func NewHandler(presign Presigner, bucket, prefix string) *Handler {
	bucket = strings.TrimSpace(bucket)
	if bucket == "" || presign == nil {
		return nil
	}
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		prefix = strings.TrimSuffix(defaultUploadsPrefix, "/")
	}
	return &Handler{presign: presign, bucket: bucket, prefix: prefix}
}

type presignRequest struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	SizeBytes   int64  `json:"sizeBytes"`
}

type presignResponse struct {
	UploadURL        string `json:"uploadUrl"`
	InputURI         string `json:"inputUri"`
	ExpiresInSeconds int64  `json:"expiresInSeconds"`
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/uploads/presign", h.presignUpload)
}

func (h *Handler) presignUpload(c *gin.Context) {
	var req presignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	req.FileName = strings.TrimSpace(req.FileName)
	req.ContentType = strings.ToLower(strings.TrimSpace(req.ContentType))

	if req.FileName == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "fileName is required", nil)
		return
	}
	if !allowedMedia(req.FileName, req.ContentType) {
		respond.Error(c, http.StatusBadRequest, "validation_error", "contentType is not allowed", nil)
		return
	}
	if req.SizeBytes <= 0 || req.SizeBytes > maxUploadBytes {
		respond.Error(c, http.StatusBadRequest, "validation_error", "sizeBytes exceeds limit", nil)
		return
	}

	sanitized, err := util.SanitizePathSegment(req.FileName)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid fileName", nil)
		return
	}

	key := path.Join(h.prefix, uuid.NewString()+"-"+sanitized)
	url, err := h.presign.PresignPut(c.Request.Context(), h.bucket, key, req.ContentType, presignExpires)
	if err != nil {
		telemetry.Error("uploads.presign.failed", map[string]any{
			"err":         err.Error(),
			"bucket":      h.bucket,
			"key":         key,
			"contentType": req.ContentType,
			"sizeBytes":   req.SizeBytes,
			"request_id":  c.GetString("requestId"),
		})
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to generate upload url", nil)
		return
	}

	respond.JSON(c, http.StatusOK, presignResponse{
		UploadURL:        url,
		InputURI:         object.Location{Bucket: h.bucket, Key: key}.String(),
		ExpiresInSeconds: int64(presignExpires.Seconds()),
	})
}

// allowedMedia accepts the media families data automation can read, and
// requires the file extension to agree with the declared content type.
func allowedMedia(fileName, contentType string) bool {
	family, _, _ := strings.Cut(contentType, "/")
	switch {
	case family == "image", family == "video", family == "audio", contentType == "application/pdf":
	default:
		return false
	}
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(fileName)), ".")
	if ext == "" {
		return false
	}
	kind := filetype.GetType(ext)
	if kind == filetype.Unknown {
		return false
	}
	return kind.MIME.Type == family || kind.MIME.Value == contentType
}

func presignInput(bucket, key, contentType string) *s3.PutObjectInput {
	in := &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}
	return in
}
