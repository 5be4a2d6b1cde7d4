// Package storage fetches per-run diagnostic artifacts (report, timeline,
// trace) from the stage root configured at startup. The stage is addressed
// as {prefix}/{run_name}/{filename} inside a single bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"

	"pipeline-analytics/core/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// MaxArtifactBytes bounds how much of an artifact is read into memory.
// Artifacts are diagnostic HTML/text, not bulk data.
const MaxArtifactBytes = 20 << 20

// ArtifactErrorKind tags a failed artifact fetch.
type ArtifactErrorKind string

const (
	ArtifactNotFound         ArtifactErrorKind = "not_found"
	ArtifactAccessDenied     ArtifactErrorKind = "access_denied"
	ArtifactConnectionFailed ArtifactErrorKind = "connection_failed"
	ArtifactTooLarge         ArtifactErrorKind = "too_large"
)

// ArtifactError reports a failed fetch with the attempted stage path so the
// failure is diagnosable from the error alone.
type ArtifactError struct {
	Kind    ArtifactErrorKind
	Path    string
	Message string
}

func (e *ArtifactError) Error() string {
	return fmt.Sprintf("artifact %s: %s (%s)", e.Path, e.Message, e.Kind)
}

// runNamePattern guards against path traversal: run names become path
// segments and must stay plain identifiers.
var runNamePattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// ValidRunName reports whether name is safe to use as a stage path segment.
// Callers reject invalid names before opening a session for them.
func ValidRunName(name string) bool {
	return runNamePattern.MatchString(name)
}

// ObjectGetter is the single stage operation the store needs.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Store fetches artifacts from the configured stage root.
type Store struct {
	client ObjectGetter
	bucket string
	prefix string
}

// NewStore creates a store over the stage bucket. prefix may be empty when
// run directories live at the bucket root.
func NewStore(client ObjectGetter, bucket, prefix string) *Store {
	return &Store{client: client, bucket: bucket, prefix: prefix}
}

// ObjectPath resolves the deterministic stage key for a run's artifact.
// The path is the same whether or not the object exists.
func (s *Store) ObjectPath(runName string, kind models.ArtifactKind) (string, error) {
	filename, ok := kind.Filename()
	if !ok {
		return "", fmt.Errorf("unknown artifact kind %q", kind)
	}
	if !ValidRunName(runName) {
		return "", fmt.Errorf("invalid run name %q", runName)
	}
	if s.prefix != "" {
		return s.prefix + "/" + runName + "/" + filename, nil
	}
	return runName + "/" + filename, nil
}

// Fetch reads one artifact fully into memory. Validation failures are
// caught before any remote call; remote failures come back as an
// *ArtifactError carrying the attempted path.
func (s *Store) Fetch(ctx context.Context, runName string, kind models.ArtifactKind) ([]byte, error) {
	key, err := s.ObjectPath(runName, kind)
	if err != nil {
		return nil, err
	}
	path := s.bucket + "/" + key

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, classifyArtifactError(err, path)
	}
	defer out.Body.Close()

	if out.ContentLength != nil && *out.ContentLength > MaxArtifactBytes {
		return nil, &ArtifactError{
			Kind:    ArtifactTooLarge,
			Path:    path,
			Message: fmt.Sprintf("artifact is %d bytes, limit is %d", *out.ContentLength, MaxArtifactBytes),
		}
	}

	content, err := io.ReadAll(io.LimitReader(out.Body, MaxArtifactBytes+1))
	if err != nil {
		return nil, &ArtifactError{Kind: ArtifactConnectionFailed, Path: path, Message: err.Error()}
	}
	if len(content) > MaxArtifactBytes {
		return nil, &ArtifactError{
			Kind:    ArtifactTooLarge,
			Path:    path,
			Message: fmt.Sprintf("artifact exceeds the %d byte limit", MaxArtifactBytes),
		}
	}
	return content, nil
}

// classifyArtifactError maps stage errors onto the artifact taxonomy.
func classifyArtifactError(err error, path string) *ArtifactError {
	var noKey *types.NoSuchKey
	if errors.As(err, &noKey) {
		return &ArtifactError{Kind: ArtifactNotFound, Path: path, Message: "no file at stage path"}
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound", "NoSuchBucket":
			return &ArtifactError{Kind: ArtifactNotFound, Path: path, Message: apiErr.ErrorMessage()}
		case "AccessDenied", "Forbidden":
			return &ArtifactError{Kind: ArtifactAccessDenied, Path: path, Message: apiErr.ErrorMessage()}
		}
		return &ArtifactError{Kind: ArtifactConnectionFailed, Path: path, Message: apiErr.ErrorMessage()}
	}

	return &ArtifactError{Kind: ArtifactConnectionFailed, Path: path, Message: err.Error()}
}
