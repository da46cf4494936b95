// Package lambdaboot provides shared Lambda cold-start bootstrap logic.
//
// Every Lambda in the pipeline needs some subset of: AWS config, S3, the
// Aurora Data API, Lambda-to-Lambda invocation, and startup logging. This
// package extracts the common init patterns so each Lambda's init() is a
// short composition of helpers.
package lambdaboot

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	lambdasvc "github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/rdsdata"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog/log"

	"github.com/bluecollarverse/media-pipeline/internal/config"
	"github.com/bluecollarverse/media-pipeline/internal/logging"
	"github.com/bluecollarverse/media-pipeline/internal/mediainfo"
	"github.com/bluecollarverse/media-pipeline/internal/storage"
)

// AWSClients holds the core AWS SDK clients used across Lambdas.
type AWSClients struct {
	Config aws.Config
	SSM    *ssm.Client
}

// InitAWS loads the default AWS config and returns it along with common clients.
func InitAWS() AWSClients {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load AWS config")
	}
	log.Debug().Str("region", cfg.Region).Msg("AWS config loaded")
	return AWSClients{
		Config: cfg,
		SSM:    ssm.NewFromConfig(cfg),
	}
}

// InitStorage creates the S3 gateway shared by all bucket operations.
func InitStorage(cfg aws.Config) *storage.Gateway {
	return storage.New(s3.NewFromConfig(cfg))
}

// InitMetadataStore creates the Data API metadata store from the resolved
// database configuration. Fatals if the cluster or secret ARN cannot be
// resolved.
func InitMetadataStore(awsc AWSClients) *mediainfo.DataAPIStore {
	db := config.LoadDatabase(awsc.SSM)
	return mediainfo.NewDataAPIStore(rdsdata.NewFromConfig(awsc.Config), db.ClusterARN, db.SecretARN, db.Name)
}

// InitInvoker creates a Lambda service client for function-to-function
// invocation.
func InitInvoker(cfg aws.Config) *lambdasvc.Client {
	return lambdasvc.NewFromConfig(cfg)
}

// StartupLog is a convenience wrapper for the startup logger.
func StartupLog(name string, initStart time.Time) *logging.StartupLogger {
	return logging.NewStartupLogger(name).InitDuration(time.Since(initStart))
}
