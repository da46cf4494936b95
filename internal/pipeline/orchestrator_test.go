package pipeline

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/bluecollarverse/media-pipeline/internal/catalog"
	"github.com/bluecollarverse/media-pipeline/internal/mediaerr"
	"github.com/bluecollarverse/media-pipeline/internal/retry"
	"github.com/bluecollarverse/media-pipeline/internal/scratch"
)

type fakeDownloader struct {
	mu      sync.Mutex
	calls   int
	content []byte
	// failFirst makes the first N calls fail with a transient fault.
	failFirst int
}

func (f *fakeDownloader) Download(_ context.Context, _, _, destPath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failFirst {
		return mediaerr.New(mediaerr.KindStorageAccess, "transient download fault")
	}
	return os.WriteFile(destPath, f.content, 0o644)
}

type fakeEngine struct {
	mu       sync.Mutex
	calls    int
	srcPaths []string
	format   catalog.Extension
	sizes    []catalog.Size
	err      error
}

func (f *fakeEngine) ProcessVariants(_ context.Context, srcPath, _ string, format catalog.Extension, sizes []catalog.Size) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.srcPaths = append(f.srcPaths, srcPath)
	f.format = format
	f.sizes = sizes
	return f.err
}

// fastRetry keeps test runs quick while preserving the attempt bound.
func fastRetry() retry.Policy {
	return retry.Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		MaxDelay:    2 * time.Millisecond,
		Retryable:   mediaerr.Retryable,
	}
}

func newTestOrchestrator(t *testing.T, downloads *fakeDownloader, engine *fakeEngine) *Orchestrator {
	t.Helper()
	o := New(downloads, engine, scratch.New(t.TempDir()))
	o.Retry = fastRetry()
	return o
}

func validRequest() ProcessRequest {
	return ProcessRequest{
		Bucket:    "raw-bucket",
		Key:       "alice/images/abc123",
		Filename:  "abc123",
		Extension: "jpeg",
		Sizes:     []string{"small", "medium"},
	}
}

func TestProcessSuccess(t *testing.T) {
	downloads := &fakeDownloader{content: []byte("image bytes")}
	engine := &fakeEngine{}
	o := newTestOrchestrator(t, downloads, engine)

	if err := o.Process(context.Background(), validRequest()); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if engine.calls != 1 {
		t.Errorf("engine calls = %d, want 1", engine.calls)
	}
	if engine.format != catalog.ExtJPEG {
		t.Errorf("engine format = %q, want jpeg", engine.format)
	}
	if len(engine.sizes) != 2 || engine.sizes[0] != catalog.SizeSmall || engine.sizes[1] != catalog.SizeMedium {
		t.Errorf("engine sizes = %v, want [small medium]", engine.sizes)
	}

	// Scratch download must be released after completion.
	for _, p := range engine.srcPaths {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Errorf("scratch file %s not released", p)
		}
	}
}

func TestProcessValidationFailsFast(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ProcessRequest)
	}{
		{"missing bucket", func(r *ProcessRequest) { r.Bucket = "" }},
		{"missing key", func(r *ProcessRequest) { r.Key = "" }},
		{"missing filename", func(r *ProcessRequest) { r.Filename = "" }},
		{"missing extension", func(r *ProcessRequest) { r.Extension = "" }},
		{"empty sizes", func(r *ProcessRequest) { r.Sizes = nil }},
		{"unknown extension", func(r *ProcessRequest) { r.Extension = "tiff" }},
		{"unknown size", func(r *ProcessRequest) { r.Sizes = []string{"extralarge"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			downloads := &fakeDownloader{}
			engine := &fakeEngine{}
			o := newTestOrchestrator(t, downloads, engine)

			req := validRequest()
			tt.mutate(&req)

			err := o.Process(context.Background(), req)
			if !mediaerr.IsKind(err, mediaerr.KindValidation) {
				t.Fatalf("Process error = %v, want validation", err)
			}
			if downloads.calls != 0 {
				t.Error("validation failure must not reach the network")
			}
			if engine.calls != 0 {
				t.Error("validation failure must not reach the engine")
			}
		})
	}
}

func TestProcessVideoNotImplemented(t *testing.T) {
	downloads := &fakeDownloader{}
	engine := &fakeEngine{}
	o := newTestOrchestrator(t, downloads, engine)

	req := validRequest()
	req.Extension = "mp4"

	err := o.Process(context.Background(), req)
	if !mediaerr.IsKind(err, mediaerr.KindNotImplemented) {
		t.Fatalf("Process error = %v, want not-implemented", err)
	}
	if engine.calls != 0 {
		t.Error("video request must never reach the resize engine")
	}
}

func TestProcessRetriesTransientDownload(t *testing.T) {
	downloads := &fakeDownloader{content: []byte("image"), failFirst: 2}
	engine := &fakeEngine{}
	o := newTestOrchestrator(t, downloads, engine)

	if err := o.Process(context.Background(), validRequest()); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if downloads.calls != 3 {
		t.Errorf("download calls = %d, want 3 (two transient failures then success)", downloads.calls)
	}
	if engine.calls != 1 {
		t.Errorf("engine calls = %d, want 1", engine.calls)
	}
}

func TestProcessExhaustedRetriesSurfaceStorageError(t *testing.T) {
	downloads := &fakeDownloader{failFirst: 10}
	engine := &fakeEngine{}
	o := newTestOrchestrator(t, downloads, engine)

	err := o.Process(context.Background(), validRequest())
	if !mediaerr.IsKind(err, mediaerr.KindStorageAccess) {
		t.Fatalf("Process error = %v, want storage access", err)
	}
	if downloads.calls != 3 {
		t.Errorf("download calls = %d, want bounded 3", downloads.calls)
	}
}

func TestProcessEngineUnsupportedImageNotRetried(t *testing.T) {
	downloads := &fakeDownloader{content: []byte("image")}
	engine := &fakeEngine{err: mediaerr.New(mediaerr.KindUnsupportedImage, "corrupt")}
	o := newTestOrchestrator(t, downloads, engine)

	err := o.Process(context.Background(), validRequest())
	if !mediaerr.IsKind(err, mediaerr.KindUnsupportedImage) {
		t.Fatalf("Process error = %v, want unsupported-image", err)
	}
	if engine.calls != 1 {
		t.Errorf("engine calls = %d, want 1 (processing errors are not retried)", engine.calls)
	}
}

func TestProcessIdempotentRerun(t *testing.T) {
	downloads := &fakeDownloader{content: []byte("image")}
	engine := &fakeEngine{}
	o := newTestOrchestrator(t, downloads, engine)

	req := validRequest()
	if err := o.Process(context.Background(), req); err != nil {
		t.Fatalf("first Process: %v", err)
	}
	if err := o.Process(context.Background(), req); err != nil {
		t.Fatalf("second Process: %v", err)
	}
	if engine.calls != 2 {
		t.Errorf("engine calls = %d, want 2 (rerun overwrites the same keys)", engine.calls)
	}
}
