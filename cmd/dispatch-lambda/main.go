// Package main provides the Lambda entry point for upload dispatch.
//
// This Lambda is triggered by S3 ObjectCreated events on the raw media
// bucket. For each uploaded object it reads the stored content type via a
// HEAD call (client-supplied types are never trusted), derives the media
// type, and asynchronously invokes the process Lambda with the full size
// matrix. Video uploads are logged and skipped until video processing
// exists; other records in the batch continue regardless.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	lambdasvc "github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/rs/zerolog/log"

	"github.com/bluecollarverse/media-pipeline/internal/catalog"
	"github.com/bluecollarverse/media-pipeline/internal/config"
	"github.com/bluecollarverse/media-pipeline/internal/lambdaboot"
	"github.com/bluecollarverse/media-pipeline/internal/logging"
	"github.com/bluecollarverse/media-pipeline/internal/mediaerr"
	"github.com/bluecollarverse/media-pipeline/internal/pipeline"
	"github.com/bluecollarverse/media-pipeline/internal/storage"
)

var coldStart = true

// Initialized at cold start.
var (
	gateway          *storage.Gateway
	lambdaClient     *lambdasvc.Client
	processLambdaARN string
)

func init() {
	initStart := time.Now()
	logging.Init()

	awsClients := lambdaboot.InitAWS()
	gateway = lambdaboot.InitStorage(awsClients.Config)
	lambdaClient = lambdaboot.InitInvoker(awsClients.Config)
	processLambdaARN = config.Require("PROCESS_LAMBDA_ARN")

	lambdaboot.StartupLog("dispatch-lambda", initStart).
		LambdaFunc("process", processLambdaARN).
		Log()
}

func main() {
	lambda.Start(handler)
}

func handler(ctx context.Context, s3Event events.S3Event) error {
	if coldStart {
		coldStart = false
		log.Info().Str("function", "dispatch-lambda").Msg("Cold start — first invocation")
	}

	for _, record := range s3Event.Records {
		bucket := record.S3.Bucket.Name
		key := record.S3.Object.Key
		if err := dispatchObject(ctx, bucket, key); err != nil {
			log.Error().Err(err).Str("bucket", bucket).Str("key", key).Msg("Failed to dispatch object")
			// Don't return — dispatch remaining records in the batch
		}
	}
	return nil
}

// dispatchObject resolves the object's true content type and fans out to
// the process Lambda for image uploads.
func dispatchObject(ctx context.Context, bucket, key string) error {
	// S3 event keys are URL-encoded ("+" for spaces).
	decodedKey, err := url.QueryUnescape(key)
	if err != nil {
		return fmt.Errorf("decode key %q: %w", key, err)
	}

	filename, err := filenameFromRawKey(decodedKey)
	if err != nil {
		log.Debug().Str("key", decodedKey).Msg("Skipping key: not in {username}/{prefix}/{filename} format")
		return nil
	}

	contentType, err := gateway.ContentType(ctx, bucket, decodedKey)
	if err != nil {
		return err
	}

	extension, err := catalog.ExtensionFromContentType(contentType)
	if err != nil {
		return err
	}

	if extension.MediaType() == catalog.MediaTypeVideo {
		log.Warn().
			Str("key", decodedKey).
			Str("contentType", contentType).
			Msg("Video processing not implemented yet, skipping upload")
		return nil
	}

	req := pipeline.ProcessRequest{
		Bucket:    bucket,
		Key:       decodedKey,
		Filename:  filename,
		Extension: string(extension),
		Sizes:     sizeStrings(catalog.ImageSizes()),
	}
	return invokeProcessAsync(ctx, req)
}

// filenameFromRawKey extracts the filename from {username}/{prefix}/{filename}.
func filenameFromRawKey(key string) (string, error) {
	parts := strings.Split(key, "/")
	if len(parts) != 3 || parts[2] == "" {
		return "", mediaerr.Newf(mediaerr.KindValidation, "unexpected raw key format: %s", key)
	}
	return parts[2], nil
}

// invokeProcessAsync sends the request to the process Lambda with
// InvocationType=Event so dispatch returns without waiting for the resize.
func invokeProcessAsync(ctx context.Context, req pipeline.ProcessRequest) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal process request: %w", err)
	}

	_, err = lambdaClient.Invoke(ctx, &lambdasvc.InvokeInput{
		FunctionName:   aws.String(processLambdaARN),
		InvocationType: lambdatypes.InvocationTypeEvent,
		Payload:        payload,
	})
	if err != nil {
		return fmt.Errorf("invoke process lambda: %w", err)
	}

	log.Info().
		Str("filename", req.Filename).
		Str("extension", req.Extension).
		Int("sizes", len(req.Sizes)).
		Msg("Process Lambda invoked asynchronously")
	return nil
}

func sizeStrings(sizes []catalog.Size) []string {
	out := make([]string, len(sizes))
	for i, s := range sizes {
		out[i] = string(s)
	}
	return out
}
