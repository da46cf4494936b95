// Package pipeline is the variant orchestrator: the per-request state
// machine that validates a processing payload, downloads the raw source to
// scratch space, runs the resize engine over the requested size matrix, and
// guarantees scratch cleanup on every exit. The whole orchestration is
// retried on transient storage faults with bounded attempts; reruns are
// idempotent because every variant overwrites the same processed key.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/bluecollarverse/media-pipeline/internal/catalog"
	"github.com/bluecollarverse/media-pipeline/internal/mediaerr"
	"github.com/bluecollarverse/media-pipeline/internal/retry"
	"github.com/bluecollarverse/media-pipeline/internal/scratch"
)

// Downloader fetches a raw object to a local path. Satisfied by
// *storage.Gateway.
type Downloader interface {
	Download(ctx context.Context, bucket, key, destPath string) error
}

// VariantEngine produces and uploads the size matrix for one source.
// Satisfied by *resize.Engine.
type VariantEngine interface {
	ProcessVariants(ctx context.Context, srcPath, filename string, format catalog.Extension, sizes []catalog.Size) error
}

// ProcessRequest is the typed processing payload. It is built once at the
// entry boundary; downstream components never see raw event maps.
type ProcessRequest struct {
	Bucket    string   `json:"bucket"`
	Key       string   `json:"key"`
	Filename  string   `json:"filename"`
	Extension string   `json:"extension"`
	Sizes     []string `json:"sizes"`
}

// Orchestrator drives one processing request end to end.
type Orchestrator struct {
	Downloads Downloader
	Engine    VariantEngine
	Arena     *scratch.Arena
	Retry     retry.Policy
}

// New creates an Orchestrator with the default storage retry policy.
func New(downloads Downloader, engine VariantEngine, arena *scratch.Arena) *Orchestrator {
	return &Orchestrator{
		Downloads: downloads,
		Engine:    engine,
		Arena:     arena,
		Retry:     retry.Default(),
	}
}

// Process validates req, then runs download → resize → upload under the
// bounded retry policy. Validation failures return before any network call.
func (o *Orchestrator) Process(ctx context.Context, req ProcessRequest) error {
	start := time.Now()

	format, sizes, err := validate(req)
	if err != nil {
		return err
	}

	if format.MediaType() == catalog.MediaTypeVideo {
		return mediaerr.Newf(mediaerr.KindNotImplemented, "video processing is not implemented").
			WithLog("request for %s extension %s", req.Filename, format)
	}

	logger := log.With().
		Str("bucket", req.Bucket).
		Str("key", req.Key).
		Str("filename", req.Filename).
		Str("extension", string(format)).
		Logger()
	logger.Info().Int("sizes", len(sizes)).Msg("Processing media variants")

	err = o.Retry.Do(ctx, "pipeline.process", func() error {
		return o.runOnce(ctx, req, format, sizes)
	})
	if err != nil {
		logger.Error().Err(err).Dur("duration", time.Since(start)).Msg("Variant processing failed")
		return err
	}

	logger.Info().Dur("duration", time.Since(start)).Msg("Variant processing complete")
	return nil
}

// runOnce is a single orchestration attempt: fresh scratch path, download,
// resize matrix. The scratch download is released on every exit.
func (o *Orchestrator) runOnce(ctx context.Context, req ProcessRequest, format catalog.Extension, sizes []catalog.Size) error {
	srcPath, err := o.Arena.Allocate(req.Filename, filepath.Ext(req.Key))
	if err != nil {
		return err
	}
	defer o.Arena.Release(srcPath)

	if err := o.Downloads.Download(ctx, req.Bucket, req.Key, srcPath); err != nil {
		return err
	}

	logSourceMetadata(srcPath)

	return o.Engine.ProcessVariants(ctx, srcPath, req.Filename, format, sizes)
}

// validate checks field presence and catalog membership. It performs no
// network calls so bad payloads fail fast.
func validate(req ProcessRequest) (catalog.Extension, []catalog.Size, error) {
	for name, value := range map[string]string{
		"bucket":    req.Bucket,
		"key":       req.Key,
		"filename":  req.Filename,
		"extension": req.Extension,
	} {
		if value == "" {
			return "", nil, mediaerr.Newf(mediaerr.KindValidation, "missing required field: %s", name)
		}
	}
	if len(req.Sizes) == 0 {
		return "", nil, mediaerr.New(mediaerr.KindValidation, "sizes must be non-empty")
	}

	format, err := catalog.ParseExtension(req.Extension)
	if err != nil {
		return "", nil, err
	}

	sizes := make([]catalog.Size, 0, len(req.Sizes))
	for _, raw := range req.Sizes {
		size, err := catalog.ParseSize(raw)
		if err != nil {
			return "", nil, fmt.Errorf("size %q: %w", raw, err)
		}
		sizes = append(sizes, size)
	}
	return format, sizes, nil
}
