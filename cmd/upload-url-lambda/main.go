// Package main provides the Lambda entry point for presigned upload URLs.
//
// The caller arrives through API Gateway with a Cognito authorizer; the
// username comes from the verified claims, never from request input. Each
// call mints a fresh uuid filename so uploads cannot collide or overwrite
// another user's object, and returns a one-hour presigned PUT URL bound to
// the validated content type.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/bluecollarverse/media-pipeline/internal/catalog"
	"github.com/bluecollarverse/media-pipeline/internal/config"
	"github.com/bluecollarverse/media-pipeline/internal/lambdaboot"
	"github.com/bluecollarverse/media-pipeline/internal/logging"
	"github.com/bluecollarverse/media-pipeline/internal/storage"
)

// Initialized at cold start.
var (
	gateway   *storage.Gateway
	rawBucket string
)

func init() {
	initStart := time.Now()
	logging.Init()

	awsClients := lambdaboot.InitAWS()
	gateway = lambdaboot.InitStorage(awsClients.Config)
	rawBucket = config.Require("RAW_MEDIA_BUCKET")

	lambdaboot.StartupLog("upload-url-lambda", initStart).
		S3Bucket("rawBucket", rawBucket).
		Log()
}

func main() {
	lambda.Start(handler)
}

type uploadResponse struct {
	UploadURL string `json:"uploadURL"`
	Filename  string `json:"filename"`
}

func handler(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	username, err := usernameFromClaims(request)
	if err != nil {
		log.Warn().Err(err).Msg("Rejected upload URL request without verified username")
		return errorResponse(http.StatusUnauthorized, "unauthorized"), nil
	}

	contentType := request.QueryStringParameters["content_type"]
	if !catalog.AllowedContentTypes()[strings.ToLower(strings.TrimSpace(contentType))] {
		log.Warn().Str("contentType", contentType).Msg("Rejected unsupported content type")
		return errorResponse(http.StatusBadRequest, fmt.Sprintf("unsupported content type: %s (allowed: %s)", contentType, allowedContentTypesHint())), nil
	}
	contentType = strings.ToLower(strings.TrimSpace(contentType))

	extension, err := catalog.ExtensionFromContentType(contentType)
	if err != nil {
		return errorResponse(http.StatusBadRequest, "unsupported content type"), nil
	}

	filename := uuid.NewString()
	key, err := storage.RawKey(username, extension.MediaType(), filename)
	if err != nil {
		log.Error().Err(err).Msg("Failed to build raw key")
		return errorResponse(http.StatusInternalServerError, "internal error"), nil
	}

	url, err := gateway.PresignUpload(ctx, rawBucket, key, contentType)
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("Failed to presign upload URL")
		return errorResponse(http.StatusInternalServerError, "failed to generate upload URL"), nil
	}

	log.Info().
		Str("username", username).
		Str("filename", filename).
		Str("contentType", contentType).
		Msg("Upload URL issued")

	return jsonResponse(http.StatusOK, uploadResponse{UploadURL: url, Filename: filename}), nil
}

// usernameFromClaims extracts cognito:username from the authorizer claims.
// The claims map is populated by API Gateway after JWT verification, so a
// missing username means the route is misconfigured, not a forgery.
func usernameFromClaims(request events.APIGatewayProxyRequest) (string, error) {
	claims, ok := request.RequestContext.Authorizer["claims"].(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("no authorizer claims on request")
	}
	username, ok := claims["cognito:username"].(string)
	if !ok || username == "" {
		return "", fmt.Errorf("no cognito:username claim")
	}
	return username, nil
}

func jsonResponse(status int, body interface{}) events.APIGatewayProxyResponse {
	data, err := json.Marshal(body)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal response body")
		return events.APIGatewayProxyResponse{StatusCode: http.StatusInternalServerError}
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(data),
	}
}

func errorResponse(status int, message string) events.APIGatewayProxyResponse {
	return jsonResponse(status, map[string]string{"message": message})
}

// allowedContentTypesHint builds the sorted list used in validation errors.
func allowedContentTypesHint() string {
	var types []string
	for ct := range catalog.AllowedContentTypes() {
		types = append(types, ct)
	}
	sort.Strings(types)
	return strings.Join(types, ", ")
}
