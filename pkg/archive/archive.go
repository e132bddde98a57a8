// Package archive writes JSON snapshots to S3-compatible object storage
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/skillswap/skillswap-api/pkg/logger"
	"github.com/skillswap/skillswap-api/pkg/metrics"
	"github.com/skillswap/skillswap-api/pkg/retry"
	"go.uber.org/zap"
)

// putObjectAPI is the subset of the S3 client used here
type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Client uploads JSON documents to one bucket
type Client struct {
	s3         putObjectAPI
	bucketName string
	retry      retry.Config
}

// Config holds object storage connection settings
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	Endpoint        string
	Region          string
}

// NewClient creates an archive client for an S3-compatible endpoint
func NewClient(cfg Config) (*Client, error) {
	if cfg.BucketName == "" {
		return nil, fmt.Errorf("archive bucket name is required")
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	opts := s3.Options{
		Region: cfg.Region,
		Credentials: credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"", // session token not needed
		),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}

	logger.Info("Archive storage client initialized",
		zap.String("bucket", cfg.BucketName),
		zap.String("endpoint", cfg.Endpoint),
		zap.String("region", cfg.Region),
	)

	return &Client{
		s3:         s3.New(opts),
		bucketName: cfg.BucketName,
		retry:      retry.StorageConfig(),
	}, nil
}

// PutJSON marshals v and stores it under key, retrying transient failures
func (c *Client) PutJSON(ctx context.Context, key string, v any) error {
	start := time.Now()
	operation := "putJSON"

	body, err := json.Marshal(v)
	if err != nil {
		recordMetrics(operation, "error", metrics.MeasureDuration(start))
		return fmt.Errorf("failed to encode archive document: %w", err)
	}

	err = retry.Do(ctx, c.retry, "archive.PutObject", func() error {
		_, putErr := c.s3.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(c.bucketName),
			Key:         aws.String(key),
			Body:        bytes.NewReader(body),
			ContentType: aws.String("application/json"),
		})
		return putErr
	})

	duration := metrics.MeasureDuration(start)
	if err != nil {
		recordMetrics(operation, "error", duration)
		logger.LogAPICall("object_storage", operation, "error", duration,
			zap.Error(err),
			zap.String("key", key),
		)
		return fmt.Errorf("failed to upload archive document: %w", err)
	}

	recordMetrics(operation, "success", duration)
	logger.LogAPICall("object_storage", operation, "success", duration,
		zap.String("key", key),
		zap.Int("size_bytes", len(body)),
	)
	return nil
}

func recordMetrics(operation, status string, duration float64) {
	metrics.StorageRequestDuration.WithLabelValues(operation, status).Observe(duration)
	metrics.StorageRequestTotal.WithLabelValues(operation, status).Inc()
}
