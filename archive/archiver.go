package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"newsdigest/types"
)

// Archiver stores run reports under {prefix}runs/{yyyy}/{mm}/{dd}/{runID}.json
type Archiver struct {
	api    PutObjectAPI
	bucket string
	prefix string
}

// New connects to S3 and returns an Archiver
func New(ctx context.Context, cfg S3Config) (*Archiver, error) {
	client, err := NewS3Client(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewWithAPI(client, cfg.Bucket, cfg.Prefix), nil
}

// NewWithAPI wraps an existing client
func NewWithAPI(api PutObjectAPI, bucket, prefix string) *Archiver {
	return &Archiver{api: api, bucket: bucket, prefix: prefix}
}

// Key returns the object key for a run
func (a *Archiver) Key(report *types.RunReport) string {
	t := report.StartedAt.UTC()
	return fmt.Sprintf("%sruns/%04d/%02d/%02d/%s.json", a.prefix, t.Year(), int(t.Month()), t.Day(), report.RunID)
}

// Archive uploads the run report, articles included, and returns the object key
func (a *Archiver) Archive(ctx context.Context, report *types.RunReport) (string, error) {
	body, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode run record: %w", err)
	}

	key := a.Key(report)
	_, err = a.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("put %s: %s", key, describe(err))
	}
	return key, nil
}

// describe surfaces the S3 error code when the SDK returned one
func describe(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode() + ": " + apiErr.ErrorMessage()
	}
	return err.Error()
}
