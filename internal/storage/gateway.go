// Package storage is the object-store gateway. It wraps the S3 client with
// existence checks, file download/upload, presigned upload URLs, and the
// raw/processed key naming convention. Calls that reach the provider run
// under the bounded retry policy; not-found outcomes and validation errors
// are never retried.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog/log"

	"github.com/bluecollarverse/media-pipeline/internal/mediaerr"
	"github.com/bluecollarverse/media-pipeline/internal/retry"
)

// uploadURLExpiry is the lifetime of presigned upload URLs.
const uploadURLExpiry = time.Hour

// Gateway wraps an S3 client. Construct one per invocation via New; clients
// are injected, never package-level.
type Gateway struct {
	client    *s3.Client
	presigner *s3.PresignClient
	retry     retry.Policy
}

// New creates a Gateway around the given S3 client with the default
// storage retry policy.
func New(client *s3.Client) *Gateway {
	return &Gateway{
		client:    client,
		presigner: s3.NewPresignClient(client),
		retry:     retry.Default(),
	}
}

// WithRetryPolicy overrides the retry policy. Used by tests to avoid
// multi-second backoff waits.
func (g *Gateway) WithRetryPolicy(p retry.Policy) *Gateway {
	g.retry = p
	return g
}

// Exists reports whether the object is present. Not-found is a normal false
// return; any other provider fault is a storage-access error.
func (g *Gateway) Exists(ctx context.Context, bucket, key string) (bool, error) {
	var found bool
	err := g.retry.Do(ctx, "s3.HeadObject", func() error {
		_, err := g.client.HeadObject(ctx, &s3.HeadObjectInput{
			Bucket: &bucket,
			Key:    &key,
		})
		if err != nil {
			if isNotFound(err) {
				found = false
				return nil
			}
			return mediaerr.Wrap(mediaerr.KindStorageAccess, "storage lookup failed", err).
				WithLog("HeadObject bucket=%s key=%s", bucket, key)
		}
		found = true
		return nil
	})
	if err != nil {
		return false, err
	}
	log.Debug().Str("bucket", bucket).Str("key", key).Bool("exists", found).Msg("Object existence check")
	return found, nil
}

// ContentType returns the stored content type of an object via a HEAD call.
// The dispatcher uses this instead of trusting client-supplied types.
func (g *Gateway) ContentType(ctx context.Context, bucket, key string) (string, error) {
	var contentType string
	err := g.retry.Do(ctx, "s3.HeadObject", func() error {
		out, err := g.client.HeadObject(ctx, &s3.HeadObjectInput{
			Bucket: &bucket,
			Key:    &key,
		})
		if err != nil {
			if isNotFound(err) {
				return mediaerr.Newf(mediaerr.KindNotFound, "object not found: %s", key).
					WithLog("HeadObject bucket=%s key=%s", bucket, key)
			}
			return mediaerr.Wrap(mediaerr.KindStorageAccess, "storage lookup failed", err).
				WithLog("HeadObject bucket=%s key=%s", bucket, key)
		}
		if out.ContentType == nil || *out.ContentType == "" {
			return mediaerr.Newf(mediaerr.KindValidation, "object %s has no content type", key)
		}
		contentType = *out.ContentType
		return nil
	})
	return contentType, err
}

// Download streams an object to destPath.
func (g *Gateway) Download(ctx context.Context, bucket, key, destPath string) error {
	return g.retry.Do(ctx, "s3.GetObject", func() error {
		log.Debug().Str("bucket", bucket).Str("key", key).Str("destPath", destPath).Msg("Downloading from S3")

		result, err := g.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: &bucket,
			Key:    &key,
		})
		if err != nil {
			if isNotFound(err) {
				return mediaerr.Newf(mediaerr.KindNotFound, "object not found: %s", key).
					WithLog("GetObject bucket=%s key=%s", bucket, key)
			}
			return mediaerr.Wrap(mediaerr.KindStorageAccess, "download failed", err).
				WithLog("GetObject bucket=%s key=%s", bucket, key)
		}
		defer result.Body.Close()

		f, err := os.Create(destPath)
		if err != nil {
			return fmt.Errorf("create file: %w", err)
		}
		defer f.Close()

		if _, err := io.Copy(f, result.Body); err != nil {
			return mediaerr.Wrap(mediaerr.KindStorageAccess, "download failed", err).
				WithLog("copy body bucket=%s key=%s", bucket, key)
		}
		return nil
	})
}

// Upload puts a local file to the bucket with the given content type. The
// caller owns localPath and removes it afterward regardless of outcome.
func (g *Gateway) Upload(ctx context.Context, localPath, bucket, key, contentType string) error {
	return g.retry.Do(ctx, "s3.PutObject", func() error {
		f, err := os.Open(localPath)
		if err != nil {
			return fmt.Errorf("open file: %w", err)
		}
		defer f.Close()

		_, err = g.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      &bucket,
			Key:         &key,
			Body:        f,
			ContentType: &contentType,
		})
		if err != nil {
			return mediaerr.Wrap(mediaerr.KindStorageAccess, "upload failed", err).
				WithLog("PutObject bucket=%s key=%s", bucket, key)
		}

		log.Debug().Str("bucket", bucket).Str("key", key).Str("contentType", contentType).Msg("Uploaded to S3")
		return nil
	})
}

// PresignUpload returns a short-lived write-only URL for direct client
// upload. The content type is part of the signature so the client cannot
// swap it after validation.
func (g *Gateway) PresignUpload(ctx context.Context, bucket, key, contentType string) (string, error) {
	result, err := g.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		ContentType: &contentType,
	}, s3.WithPresignExpires(uploadURLExpiry))
	if err != nil {
		return "", mediaerr.Wrap(mediaerr.KindStorageAccess, "failed to generate upload URL", err).
			WithLog("PresignPutObject bucket=%s key=%s", bucket, key)
	}
	return result.URL, nil
}

// isNotFound reports whether err is the provider's way of saying the object
// does not exist.
func isNotFound(err error) bool {
	var notFound *s3types.NotFound
	var noSuchKey *s3types.NoSuchKey
	return errors.As(err, &notFound) || errors.As(err, &noSuchKey)
}
