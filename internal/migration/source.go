// Package migration loads historical workforce CSV snapshots from external
// object storage into the relational store.
package migration

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"workforce-ingest/internal/config"
	apperrors "workforce-ingest/internal/errors"
)

// Source fetches raw tabular bytes by key. A missing object surfaces as a
// not-found error; the core needs no listing or write path.
type Source interface {
	Fetch(ctx context.Context, key string) ([]byte, error)
}

// S3Source fetches migration CSVs from an S3 bucket
type S3Source struct {
	client *s3.S3
	bucket string
}

// NewS3Source creates an S3-backed migration source
func NewS3Source(cfg config.MigrationConfig) (*S3Source, error) {
	awsConfig := &aws.Config{Region: aws.String(cfg.Region)}
	if cfg.AccessKey != "" {
		awsConfig.Credentials = credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, "")
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, apperrors.NewFault("failed to create AWS session", err)
	}

	return &S3Source{
		client: s3.New(sess),
		bucket: cfg.Bucket,
	}, nil
}

// Fetch downloads an object's content
func (s *S3Source) Fetch(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if aerr, ok := err.(awserr.Error); ok && aerr.Code() == s3.ErrCodeNoSuchKey {
			return nil, apperrors.NewNotFound(key, fmt.Sprintf("object %s not found", key), err)
		}
		return nil, apperrors.NewFault(fmt.Sprintf("failed to fetch %s from S3", key), err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, apperrors.NewFault(fmt.Sprintf("failed to read %s body", key), err)
	}
	return data, nil
}
