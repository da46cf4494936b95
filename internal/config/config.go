// Package config resolves runtime configuration for the Lambdas. Values come
// from environment variables first, with an SSM Parameter Store fallback for
// the ones that hold ARNs managed outside the deployment template. Missing
// required values are fatal at cold start so a misdeployed Lambda fails
// loudly instead of serving errors.
package config

import (
	"context"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog/log"
)

// Require returns the value of a required environment variable. Fatals if
// the variable is empty or unset.
func Require(envVar string) string {
	v := os.Getenv(envVar)
	if v == "" {
		log.Fatal().Str("envVar", envVar).Msg("Required environment variable is not set")
	}
	return v
}

// Optional returns the value of an environment variable, or defaultVal if
// it is empty or unset.
func Optional(envVar, defaultVal string) string {
	if v := os.Getenv(envVar); v != "" {
		return v
	}
	return defaultVal
}

// FromSSM resolves a value from the environment, falling back to an SSM
// parameter when the env var is unset. The parameter path defaults to
// defaultParam and can be overridden via the SSM_<suffix>_PARAM convention
// by passing that env var's value in paramEnvVar. Fatals if neither source
// yields a value.
func FromSSM(ssmClient *ssm.Client, envVar, paramEnvVar, defaultParam string) string {
	if v := os.Getenv(envVar); v != "" {
		return v
	}

	paramName := Optional(paramEnvVar, defaultParam)
	ssmStart := time.Now()
	result, err := ssmClient.GetParameter(context.Background(), &ssm.GetParameterInput{
		Name:           &paramName,
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		log.Fatal().Err(err).Str("envVar", envVar).Str("param", paramName).Msg("Failed to read parameter from SSM")
	}
	log.Debug().Str("param", paramName).Dur("elapsed", time.Since(ssmStart)).Msg("Parameter loaded from SSM")
	return *result.Parameter.Value
}

// Database holds the Aurora Data API coordinates for the media metadata table.
type Database struct {
	ClusterARN string
	SecretARN  string
	Name       string
}

// LoadDatabase resolves the Data API configuration. The cluster and secret
// ARNs may live in SSM when the database stack is deployed separately.
func LoadDatabase(ssmClient *ssm.Client) Database {
	return Database{
		ClusterARN: FromSSM(ssmClient, "MEDIA_DB_CLUSTER_ARN", "SSM_DB_CLUSTER_ARN_PARAM", "/media-pipeline/prod/db-cluster-arn"),
		SecretARN:  FromSSM(ssmClient, "MEDIA_DB_SECRET_ARN", "SSM_DB_SECRET_ARN_PARAM", "/media-pipeline/prod/db-secret-arn"),
		Name:       Optional("MEDIA_DB_NAME", "media"),
	}
}
