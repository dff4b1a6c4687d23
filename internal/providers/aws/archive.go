package aws

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"patchinspect/internal/models"
)

// FindingArchive stores each compliance record as a JSON object in S3.
type FindingArchive struct {
	client S3ClientAPI
	bucket string
	prefix string
}

// NewFindingArchiveWithClient creates a new FindingArchive with a provided client
func NewFindingArchiveWithClient(client S3ClientAPI, bucket, prefix string) *FindingArchive {
	if prefix == "" {
		prefix = "findings"
	}
	return &FindingArchive{client: client, bucket: bucket, prefix: prefix}
}

// ObjectKey returns the key a record is stored under:
// <prefix>/<account>/<region>/<instance>/<scan time>.json
func (a *FindingArchive) ObjectKey(record models.ComplianceRecord) string {
	scanTime := models.MissingValue
	if !record.ScanTime.IsZero() {
		scanTime = record.ScanTime.UTC().Format(time.RFC3339)
	}
	return path.Join(a.prefix, record.AccountID, record.Region, record.InstanceID, scanTime+".json")
}

// Store writes record to the bucket.
func (a *FindingArchive) Store(ctx context.Context, record models.ComplianceRecord) error {
	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("error marshaling finding: %w", err)
	}

	key := a.ObjectKey(record)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return ClassifyAWSError(err, S3ResourceType, a.bucket+"/"+key)
	}
	return nil
}
