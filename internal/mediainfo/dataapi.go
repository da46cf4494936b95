package mediainfo

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rdsdata"
	rdsdatatypes "github.com/aws/aws-sdk-go-v2/service/rdsdata/types"
	"github.com/rs/zerolog/log"

	"github.com/bluecollarverse/media-pipeline/internal/mediaerr"
)

// DataAPIStore reads media metadata through the Aurora Data API. No
// connection pool to manage, which suits short-lived Lambda invocations.
type DataAPIStore struct {
	client     *rdsdata.Client
	clusterARN string
	secretARN  string
	database   string
}

// Compile-time interface check.
var _ Store = (*DataAPIStore)(nil)

// NewDataAPIStore creates a store against the given Aurora cluster.
func NewDataAPIStore(client *rdsdata.Client, clusterARN, secretARN, database string) *DataAPIStore {
	return &DataAPIStore{
		client:     client,
		clusterARN: clusterARN,
		secretARN:  secretARN,
		database:   database,
	}
}

// Lookup fetches (username, content_type) for a filename.
func (s *DataAPIStore) Lookup(ctx context.Context, filename string) (Info, error) {
	if filename == "" {
		return Info{}, mediaerr.New(mediaerr.KindValidation, "filename is required")
	}

	result, err := s.client.ExecuteStatement(ctx, &rdsdata.ExecuteStatementInput{
		ResourceArn: aws.String(s.clusterARN),
		SecretArn:   aws.String(s.secretARN),
		Database:    aws.String(s.database),
		Sql:         aws.String(`SELECT username, content_type FROM media WHERE filename = :filename LIMIT 1`),
		Parameters: []rdsdatatypes.SqlParameter{
			{Name: aws.String("filename"), Value: &rdsdatatypes.FieldMemberStringValue{Value: filename}},
		},
	})
	if err != nil {
		return Info{}, mediaerr.Wrap(mediaerr.KindStorageAccess, "metadata lookup failed", err).
			WithLog("ExecuteStatement filename=%s", filename)
	}

	if len(result.Records) == 0 {
		log.Warn().Str("filename", filename).Msg("No metadata row for filename")
		return Info{}, mediaerr.Newf(mediaerr.KindNotFound, "media not found: %s", filename)
	}

	row := result.Records[0]
	info := Info{
		Username:    stringField(row, 0),
		ContentType: stringField(row, 1),
	}
	if info.Username == "" || info.ContentType == "" {
		return Info{}, mediaerr.Newf(mediaerr.KindInternal, "incomplete metadata for %s", filename).
			WithLog("row username=%q contentType=%q", info.Username, info.ContentType)
	}

	log.Debug().Str("filename", filename).Str("username", info.Username).Str("contentType", info.ContentType).Msg("Metadata resolved")
	return info, nil
}

// stringField extracts a string column from a Data API row, tolerating
// nulls and short rows.
func stringField(row []rdsdatatypes.Field, idx int) string {
	if idx >= len(row) {
		return ""
	}
	if v, ok := row[idx].(*rdsdatatypes.FieldMemberStringValue); ok {
		return v.Value
	}
	return ""
}
