// Copyright 2025 Nadrama Pty Ltd
// SPDX-License-Identifier: Apache-2.0

package s3client

import (
	"context"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/nadrama-com/dbsession/internal/config"
)

// exportsPrefix is the key prefix, below the configured prefix, of all
// export files
const exportsPrefix = "exports"

// S3Client wraps the AWS S3 operations used for export files
type S3Client struct {
	client   *s3.Client
	uploader *manager.Uploader
	config   *config.Config
	logger   log.Logger
}

// FileInfo represents metadata about an export file in S3
type FileInfo struct {
	Key  string
	Name string
	Size int64
}

// New creates a new S3Client with the provided configuration
func New(ctx context.Context, cfg *config.Config, logger log.Logger) (*S3Client, error) {
	if !cfg.S3Enabled() {
		return nil, fmt.Errorf("S3 is not enabled")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.S3Region()))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	// Configure credentials with STS AssumeRole preference
	if cfg.S3RoleArn() != "" {
		stsClient := sts.NewFromConfig(awsCfg)
		provider := stscreds.NewAssumeRoleProvider(stsClient, cfg.S3RoleArn(), func(o *stscreds.AssumeRoleOptions) {
			o.RoleSessionName = cfg.S3RoleSessionName()
		})
		awsCfg.Credentials = aws.NewCredentialsCache(provider)
		level.Info(logger).Log("msg", "Using STS AssumeRole for S3 access", "role", cfg.S3RoleArn())
	} else if cfg.S3AccessKeyID() != "" && cfg.S3SecretAccessKey() != "" {
		awsCfg.Credentials = credentials.NewStaticCredentialsProvider(
			cfg.S3AccessKeyID(),
			cfg.S3SecretAccessKey(),
			cfg.S3SessionToken(),
		)
		level.Info(logger).Log("msg", "Using static credentials for S3 access")
	} else {
		level.Info(logger).Log("msg", "Using default AWS credential chain for S3 access")
	}

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.S3ForcePathStyle()
		// custom endpoint for MinIO, LocalStack, etc.
		if cfg.S3Endpoint() != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint())
		}
	})

	level.Debug(logger).Log("msg", "S3Client initialized", "bucket", cfg.S3BucketName(), "region", cfg.S3Region())

	return &S3Client{
		client:   s3Client,
		uploader: manager.NewUploader(s3Client),
		config:   cfg,
		logger:   logger,
	}, nil
}

// Client returns the underlying S3 client for direct API access
func (s *S3Client) Client() *s3.Client {
	return s.client
}

// exportKey returns the object key of an export file name
func exportKey(prefix, name string) string {
	if prefix == "" {
		return path.Join(exportsPrefix, name)
	}
	return path.Join(prefix, exportsPrefix, name)
}
