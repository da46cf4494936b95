// Package resize is the variant resize engine. Given one downloaded source
// image it produces every requested size in the target format, uploading
// each encoded file as soon as it is ready. Per-size units are independent
// and run on a bounded worker pool; the source is decoded exactly once and
// shared read-only across workers.
package resize

import (
	"context"
	"fmt"
	"image"
	"os"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog/log"

	"github.com/bluecollarverse/media-pipeline/internal/catalog"
	"github.com/bluecollarverse/media-pipeline/internal/mediaerr"
	"github.com/bluecollarverse/media-pipeline/internal/scratch"
	"github.com/bluecollarverse/media-pipeline/internal/storage"
)

// defaultWorkers bounds concurrent resize/encode/upload units. The units
// block on provider I/O, so the pool is sized for network throughput rather
// than CPU count.
const defaultWorkers = 5

// Uploader persists an encoded variant. Satisfied by *storage.Gateway.
type Uploader interface {
	Upload(ctx context.Context, localPath, bucket, key, contentType string) error
}

// Engine resizes one source into the requested size matrix.
type Engine struct {
	Workers  int
	Bucket   string
	Uploader Uploader
	Arena    *scratch.Arena
}

// NewEngine creates an Engine targeting the processed bucket.
func NewEngine(uploader Uploader, arena *scratch.Arena, bucket string) *Engine {
	return &Engine{
		Workers:  defaultWorkers,
		Bucket:   bucket,
		Uploader: uploader,
		Arena:    arena,
	}
}

// ProcessVariants decodes srcPath once and produces one encoded upload per
// requested size in the target format. All units are joined before return;
// the first unit error fails the whole batch. Variants uploaded before the
// failure stay in place — a rerun overwrites them at the same keys.
func (e *Engine) ProcessVariants(ctx context.Context, srcPath, filename string, format catalog.Extension, sizes []catalog.Size) error {
	if format.MediaType() == catalog.MediaTypeVideo {
		return mediaerr.Newf(mediaerr.KindNotImplemented, "video processing is not implemented")
	}
	if len(sizes) == 0 {
		return mediaerr.New(mediaerr.KindValidation, "no sizes requested")
	}

	src, err := e.decodeSource(srcPath, format)
	if err != nil {
		return err
	}

	workers := e.Workers
	if workers < 1 {
		workers = defaultWorkers
	}

	sem := make(chan struct{}, workers)
	errCh := make(chan error, len(sizes))
	var wg sync.WaitGroup

	for _, size := range sizes {
		wg.Add(1)
		go func(size catalog.Size) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := e.processOne(ctx, src, filename, format, size); err != nil {
				log.Error().Err(err).Str("filename", filename).Str("size", string(size)).Msg("Variant failed")
				errCh <- err
			}
		}(size)
	}

	wg.Wait()
	close(errCh)

	// Join-all barrier: every unit has finished; surface the first failure.
	if err := <-errCh; err != nil {
		return err
	}
	return nil
}

// source holds the shared decoded handle. Exactly one of the fields is set
// depending on whether the target format is animated.
type source struct {
	still    image.Image
	animated *animatedSource
}

// decodeSource reads the source exactly once. Decode failures are
// unsupported-image errors; no partial output is attempted.
func (e *Engine) decodeSource(srcPath string, format catalog.Extension) (*source, error) {
	if format == catalog.ExtGIF {
		anim, err := decodeAnimated(srcPath)
		if err != nil {
			return nil, err
		}
		return &source{animated: anim}, nil
	}

	img, err := imaging.Open(srcPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("open source: %w", err)
		}
		return nil, mediaerr.Wrap(mediaerr.KindUnsupportedImage, "unrecognized image format", err).
			WithLog("decode %s", srcPath)
	}
	return &source{still: img}, nil
}

// processOne runs a single size end to end: resize, encode, upload, release.
func (e *Engine) processOne(ctx context.Context, src *source, filename string, format catalog.Extension, size catalog.Size) error {
	dim, err := catalog.Dimensions(catalog.MediaTypeImage, catalog.DefaultAspectRatio, size)
	if err != nil {
		return err
	}

	outPath, err := e.Arena.Allocate(fmt.Sprintf("%s_%s", filename, size), string(format))
	if err != nil {
		return err
	}
	defer e.Arena.Release(outPath)

	if src.animated != nil {
		if err := writeResizedAnimation(src.animated, dim, outPath); err != nil {
			return err
		}
		optimizeAnimation(outPath)
	} else {
		if err := writeResizedStill(src.still, dim, outPath); err != nil {
			return err
		}
	}

	key, err := storage.ProcessedKey(filename, size, format)
	if err != nil {
		return err
	}

	log.Debug().
		Str("filename", filename).
		Str("size", string(size)).
		Int("width", dim.Width).
		Int("height", dim.Height).
		Str("key", key).
		Msg("Variant encoded, uploading")

	return e.Uploader.Upload(ctx, outPath, e.Bucket, key, format.ContentType())
}

// writeResizedStill resizes a single frame to the exact catalog dimensions
// and encodes it at outPath. The catalog already encodes the intended aspect
// ratio, so no implicit preservation is applied.
func writeResizedStill(img image.Image, dim catalog.Dimension, outPath string) error {
	resized := imaging.Resize(img, dim.Width, dim.Height, imaging.Lanczos)
	if err := imaging.Save(resized, outPath); err != nil {
		return fmt.Errorf("encode %s: %w", outPath, err)
	}
	return nil
}
