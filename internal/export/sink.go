package export

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Sink stores a rendered export and returns where it ended up.
type Sink interface {
	Write(ctx context.Context, name, contentType string, data []byte) (string, error)
}

// DirSink writes exports into a local directory. Files are written to a
// temporary name and renamed so a reader never sees a partial export.
type DirSink struct {
	Dir string
}

// NewDirSink returns a DirSink rooted at dir ("." when empty).
func NewDirSink(dir string) *DirSink {
	if strings.TrimSpace(dir) == "" {
		dir = "."
	}
	return &DirSink{Dir: dir}
}

// Write implements Sink.
func (d *DirSink) Write(ctx context.Context, name, _ string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	tmp, err := os.CreateTemp(d.Dir, "."+filepath.Base(name)+".*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("chmod temp file: %w", err)
	}
	target := filepath.Join(d.Dir, filepath.Base(name))
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("rename export: %w", err)
	}
	return target, nil
}

// S3API is the subset of the S3 client used by S3Sink.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sink uploads exports to a bucket under an optional key prefix.
type S3Sink struct {
	client S3API
	bucket string
	prefix string
}

// NewS3Sink creates an S3Sink.
func NewS3Sink(client S3API, bucket, prefix string) *S3Sink {
	return &S3Sink{client: client, bucket: bucket, prefix: strings.TrimLeft(prefix, "/")}
}

// Key returns the object key used for name.
func (s *S3Sink) Key(name string) string {
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

// Write implements Sink.
func (s *S3Sink) Write(ctx context.Context, name, contentType string, data []byte) (string, error) {
	if s.client == nil || s.bucket == "" {
		return "", fmt.Errorf("s3 sink not configured")
	}
	key := s.Key(name)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:             aws.String(s.bucket),
		Key:                aws.String(key),
		Body:               bytes.NewReader(data),
		ContentType:        aws.String(contentType),
		ContentDisposition: aws.String(fmt.Sprintf("attachment; filename=%q", name)),
	})
	if err != nil {
		return "", fmt.Errorf("s3 put %s: %w", key, err)
	}
	return "s3://" + s.bucket + "/" + key, nil
}
