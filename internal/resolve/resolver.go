// Package resolve answers "where is the {size}.{extension} variant of this
// media item" for the retrieval path. A resolved variant is returned as a
// public URL; a missing variant triggers on-demand processing of that single
// variant before the URL is returned.
package resolve

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/bluecollarverse/media-pipeline/internal/catalog"
	"github.com/bluecollarverse/media-pipeline/internal/mediaerr"
	"github.com/bluecollarverse/media-pipeline/internal/mediainfo"
	"github.com/bluecollarverse/media-pipeline/internal/pipeline"
	"github.com/bluecollarverse/media-pipeline/internal/storage"
)

// ObjectChecker is the slice of the storage gateway the resolver needs.
type ObjectChecker interface {
	Exists(ctx context.Context, bucket, key string) (bool, error)
}

// Processor produces missing variants on demand.
type Processor interface {
	Process(ctx context.Context, req pipeline.ProcessRequest) error
}

// Resolver maps (filename, size, extension) to a public media URL,
// processing the variant first when it does not exist yet.
type Resolver struct {
	Objects   ObjectChecker
	Info      mediainfo.Store
	Processor Processor

	RawBucket       string
	ProcessedBucket string
	MediaDomain     string
}

// Resolve returns the public URL of the requested variant. The fast path is
// a single existence check against the processed bucket; only a miss costs a
// metadata lookup, a raw-object check, and a resize.
func (r *Resolver) Resolve(ctx context.Context, filename, sizeStr, extStr string) (string, error) {
	if filename == "" {
		return "", mediaerr.New(mediaerr.KindValidation, "missing or empty parameter: filename")
	}
	size, err := catalog.ParseSize(sizeStr)
	if err != nil {
		return "", err
	}
	extension, err := catalog.ParseExtension(extStr)
	if err != nil {
		return "", err
	}

	processedKey, err := storage.ProcessedKey(filename, size, extension)
	if err != nil {
		return "", err
	}

	exists, err := r.Objects.Exists(ctx, r.ProcessedBucket, processedKey)
	if err != nil {
		return "", err
	}
	if exists {
		log.Debug().Str("key", processedKey).Msg("Variant already processed")
		return storage.MediaURL(r.MediaDomain, processedKey)
	}

	if err := r.processVariant(ctx, filename, size, extension); err != nil {
		return "", err
	}
	return storage.MediaURL(r.MediaDomain, processedKey)
}

// processVariant locates the raw source via the metadata store and runs the
// pipeline for the single missing variant.
func (r *Resolver) processVariant(ctx context.Context, filename string, size catalog.Size, extension catalog.Extension) error {
	info, err := r.Info.Lookup(ctx, filename)
	if err != nil {
		return err
	}

	sourceExt, err := catalog.ExtensionFromContentType(info.ContentType)
	if err != nil {
		return err
	}

	rawKey, err := storage.RawKey(info.Username, sourceExt.MediaType(), filename)
	if err != nil {
		return err
	}
	exists, err := r.Objects.Exists(ctx, r.RawBucket, rawKey)
	if err != nil {
		return err
	}
	if !exists {
		return mediaerr.Newf(mediaerr.KindNotFound, "media not found: %s", filename).
			WithLog("raw object missing bucket=%s key=%s", r.RawBucket, rawKey)
	}

	log.Info().
		Str("filename", filename).
		Str("size", string(size)).
		Str("extension", string(extension)).
		Msg("Processing missing variant on demand")

	return r.Processor.Process(ctx, pipeline.ProcessRequest{
		Bucket:    r.RawBucket,
		Key:       rawKey,
		Filename:  filename,
		Extension: string(extension),
		Sizes:     []string{string(size)},
	})
}
