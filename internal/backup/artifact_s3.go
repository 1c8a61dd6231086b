package backup

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"workforce-ingest/internal/config"
	apperrors "workforce-ingest/internal/errors"
)

// S3ArtifactStore keeps artifacts in an S3 bucket
type S3ArtifactStore struct {
	client *s3.S3
	bucket string
	prefix string
}

// NewS3ArtifactStore creates an S3-backed artifact store
func NewS3ArtifactStore(cfg config.S3Artifacts) (*S3ArtifactStore, error) {
	awsConfig := &aws.Config{Region: aws.String(cfg.Region)}
	if cfg.AccessKey != "" {
		awsConfig.Credentials = credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, "")
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, apperrors.NewFault("failed to create AWS session", err)
	}

	return &S3ArtifactStore{
		client: s3.New(sess),
		bucket: cfg.Bucket,
		prefix: normalizePrefix(cfg.Prefix, "backups/"),
	}, nil
}

// Put uploads a table's artifact
func (s *S3ArtifactStore) Put(ctx context.Context, table string, data []byte) error {
	key := s.prefix + artifactName(table)
	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/octet-stream"),
		Metadata: map[string]*string{
			"table": aws.String(table),
		},
	})
	if err != nil {
		return apperrors.NewFault("failed to upload artifact to S3", err).WithContext("key", key)
	}
	return nil
}

// Get downloads a table's artifact
func (s *S3ArtifactStore) Get(ctx context.Context, table string) ([]byte, error) {
	key := s.prefix + artifactName(table)
	out, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if aerr, ok := err.(awserr.Error); ok && aerr.Code() == s3.ErrCodeNoSuchKey {
			return nil, apperrors.NewNotFound(table,
				fmt.Sprintf("Backup file for table '%s' not found.", table), err)
		}
		return nil, apperrors.NewFault("failed to download artifact from S3", err).WithContext("key", key)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, apperrors.NewFault("failed to read artifact body", err).WithContext("key", key)
	}
	return data, nil
}

// normalizePrefix guarantees a trailing slash, falling back to a default
func normalizePrefix(prefix, fallback string) string {
	if prefix == "" {
		return fallback
	}
	if !strings.HasSuffix(prefix, "/") {
		return prefix + "/"
	}
	return prefix
}
