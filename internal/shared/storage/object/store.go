package object

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrNotFound is returned when an object does not exist.
var ErrNotFound = errors.New("object not found")

// ObjectStore defines the contract for reading and writing objects addressed by s3:// URIs.
type ObjectStore interface {
	Open(ctx context.Context, uri string) (io.ReadCloser, error)
	Save(ctx context.Context, uri string, contentType string, r io.Reader) (int64, error)
}

// Location is a parsed s3://bucket/key URI.
type Location struct {
	Bucket string
	Key    string
}

// ParseURI parses s3://bucket/key. The key may be empty for bucket-level prefixes.
func ParseURI(raw string) (Location, error) {
	trimmed := strings.TrimSpace(raw)
	rest, ok := strings.CutPrefix(trimmed, "s3://")
	if !ok {
		return Location{}, fmt.Errorf("invalid s3 uri %q: missing s3:// scheme", raw)
	}
	bucket, key, _ := strings.Cut(rest, "/")
	if bucket == "" {
		return Location{}, fmt.Errorf("invalid s3 uri %q: missing bucket", raw)
	}
	if strings.ContainsAny(bucket, " \\") {
		return Location{}, fmt.Errorf("invalid s3 uri %q: bad bucket name", raw)
	}
	return Location{Bucket: bucket, Key: strings.TrimLeft(key, "/")}, nil
}

// String renders the location as an s3:// URI.
func (l Location) String() string {
	if l.Key == "" {
		return "s3://" + l.Bucket
	}
	return "s3://" + l.Bucket + "/" + l.Key
}

// Join appends key segments to the location.
func (l Location) Join(parts ...string) Location {
	out := l
	for _, p := range parts {
		out.Key = applyPrefix(out.Key, p)
	}
	return out
}

// JoinURI appends key segments to a raw s3:// URI.
func JoinURI(base string, parts ...string) (string, error) {
	loc, err := ParseURI(base)
	if err != nil {
		return "", err
	}
	return loc.Join(parts...).String(), nil
}

func applyPrefix(prefix, key string) string {
	cleanPrefix := strings.Trim(prefix, "/")
	cleanKey := strings.Trim(key, "/")
	if cleanPrefix == "" {
		return cleanKey
	}
	if cleanKey == "" {
		return cleanPrefix
	}
	return cleanPrefix + "/" + cleanKey
}
