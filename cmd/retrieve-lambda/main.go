// Package main provides the Lambda entry point for media retrieval.
//
// It sits behind API Gateway (HTTP API) and redirects the caller to the
// requested variant on the media domain. A variant that does not exist yet
// is produced in-process before the redirect is returned, so the first
// request for a new size pays the resize cost and every later request is a
// single existence check.
//
// Endpoints:
//
//	GET /health            — health check
//	GET /media/{filename}  — 302 redirect to the variant URL
//	                         (query: size, extension; defaults medium/jpeg)
package main

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"
	"github.com/rs/zerolog/log"

	"github.com/bluecollarverse/media-pipeline/internal/catalog"
	"github.com/bluecollarverse/media-pipeline/internal/config"
	"github.com/bluecollarverse/media-pipeline/internal/lambdaboot"
	"github.com/bluecollarverse/media-pipeline/internal/logging"
	"github.com/bluecollarverse/media-pipeline/internal/mediaerr"
	"github.com/bluecollarverse/media-pipeline/internal/metrics"
	"github.com/bluecollarverse/media-pipeline/internal/pipeline"
	"github.com/bluecollarverse/media-pipeline/internal/resize"
	"github.com/bluecollarverse/media-pipeline/internal/resolve"
	"github.com/bluecollarverse/media-pipeline/internal/scratch"
)

// Initialized at cold start.
var resolver *resolve.Resolver

func init() {
	initStart := time.Now()
	logging.Init()

	awsClients := lambdaboot.InitAWS()
	gateway := lambdaboot.InitStorage(awsClients.Config)
	metadata := lambdaboot.InitMetadataStore(awsClients)

	rawBucket := config.Require("RAW_MEDIA_BUCKET")
	processedBucket := config.Require("PROCESSED_MEDIA_BUCKET")
	mediaDomain := config.Require("MEDIA_DOMAIN")

	arena := scratch.New(os.Getenv("MEDIA_SCRATCH_DIR"))
	engine := resize.NewEngine(gateway, arena, processedBucket)

	resolver = &resolve.Resolver{
		Objects:         gateway,
		Info:            metadata,
		Processor:       pipeline.New(gateway, engine, arena),
		RawBucket:       rawBucket,
		ProcessedBucket: processedBucket,
		MediaDomain:     mediaDomain,
	}

	lambdaboot.StartupLog("retrieve-lambda", initStart).
		S3Bucket("rawBucket", rawBucket).
		S3Bucket("processedBucket", processedBucket).
		Config("mediaDomain", mediaDomain).
		Feature("gifsicle", resize.GifsicleAvailable()).
		Log()
}

func main() {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", handleHealth)
	mux.HandleFunc("/media/", handleMedia)

	adapter := httpadapter.NewV2(mux)
	lambda.Start(adapter.ProxyWithContext)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "media-pipeline",
	})
}

// GET /media/{filename}?size=medium&extension=jpeg
func handleMedia(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	filename := strings.TrimPrefix(r.URL.Path, "/media/")
	if filename == "" || strings.Contains(filename, "/") {
		respondError(w, http.StatusBadRequest, "missing or invalid filename")
		return
	}

	size := queryOrDefault(r, "size", string(catalog.DefaultSize))
	extension := queryOrDefault(r, "extension", string(catalog.DefaultExtension))

	start := time.Now()
	url, err := resolver.Resolve(r.Context(), filename, size, extension)
	if err != nil {
		logResolveError(filename, err)
		respondError(w, mediaerr.HTTPStatus(mediaerr.KindOf(err)), mediaerr.UserMessage(err))
		return
	}

	metrics.New("resolve").
		Dimension("Size", size).
		Metric("ResolveMs", float64(time.Since(start).Milliseconds()), metrics.UnitMilliseconds).
		Count("MediaResolved").
		Property("filename", filename).
		Flush()

	w.Header().Set("Location", url)
	w.WriteHeader(http.StatusFound)
}

func queryOrDefault(r *http.Request, name, defaultVal string) string {
	if v := r.URL.Query().Get(name); v != "" {
		return v
	}
	return defaultVal
}

func logResolveError(filename string, err error) {
	evt := log.Error()
	if mediaerr.IsKind(err, mediaerr.KindNotFound) || mediaerr.IsKind(err, mediaerr.KindValidation) {
		evt = log.Warn()
	}
	evt.Err(err).Str("filename", filename).Msg("Media resolution failed")
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends a JSON error body. The message is already client-safe;
// internal detail stays in the server-side log.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"message": message})
}
