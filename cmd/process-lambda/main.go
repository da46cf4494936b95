// Package main provides the Lambda entry point for media variant processing.
//
// This Lambda is invoked with a direct JSON payload naming a raw object and
// the variant sizes to produce. It downloads the source once, resizes every
// requested size concurrently, and uploads the results to the processed
// bucket. A failed batch is safe to re-invoke: variant uploads are
// idempotent overwrites.
//
// Container: needs gifsicle on PATH for the optional GIF optimization pass.
// Memory: 1 GB
// Timeout: 5 minutes
package main

import (
	"context"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog/log"

	"github.com/bluecollarverse/media-pipeline/internal/config"
	"github.com/bluecollarverse/media-pipeline/internal/lambdaboot"
	"github.com/bluecollarverse/media-pipeline/internal/logging"
	"github.com/bluecollarverse/media-pipeline/internal/mediaerr"
	"github.com/bluecollarverse/media-pipeline/internal/metrics"
	"github.com/bluecollarverse/media-pipeline/internal/pipeline"
	"github.com/bluecollarverse/media-pipeline/internal/resize"
	"github.com/bluecollarverse/media-pipeline/internal/scratch"
)

var coldStart = true

// Initialized at cold start.
var (
	orchestrator    *pipeline.Orchestrator
	processedBucket string
)

func init() {
	initStart := time.Now()
	logging.Init()

	awsClients := lambdaboot.InitAWS()
	gateway := lambdaboot.InitStorage(awsClients.Config)
	processedBucket = config.Require("PROCESSED_MEDIA_BUCKET")

	arena := scratch.New(os.Getenv("MEDIA_SCRATCH_DIR"))
	engine := resize.NewEngine(gateway, arena, processedBucket)
	orchestrator = pipeline.New(gateway, engine, arena)

	lambdaboot.StartupLog("process-lambda", initStart).
		S3Bucket("processedBucket", processedBucket).
		Feature("gifsicle", resize.GifsicleAvailable()).
		Log()
}

func main() {
	lambda.Start(handler)
}

// Response is the invocation result returned to the caller. Synchronous
// callers (the retrieval path) read Status; async callers ignore it.
type Response struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

func handler(ctx context.Context, req pipeline.ProcessRequest) (Response, error) {
	if coldStart {
		coldStart = false
		log.Info().Str("function", "process-lambda").Msg("Cold start — first invocation")
	}

	start := time.Now()
	if err := orchestrator.Process(ctx, req); err != nil {
		log.Error().Err(err).
			Str("filename", req.Filename).
			Str("key", req.Key).
			Msg("Processing failed")
		metrics.New("process").
			Dimension("Outcome", "error").
			Count("ProcessFailed").
			Property("filename", req.Filename).
			Property("errorKind", mediaerr.KindOf(err).String()).
			Flush()
		// Return the error so async invocations surface in the DLQ and
		// synchronous callers see the failure, but keep the message
		// client-safe.
		return Response{Status: "error", Message: mediaerr.UserMessage(err)}, err
	}

	metrics.New("process").
		Dimension("Format", req.Extension).
		Metric("ProcessingMs", float64(time.Since(start).Milliseconds()), metrics.UnitMilliseconds).
		Metric("VariantCount", float64(len(req.Sizes)), metrics.UnitCount).
		Property("filename", req.Filename).
		Flush()

	return Response{Status: "ok"}, nil
}
