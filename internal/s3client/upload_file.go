// Copyright 2025 Nadrama Pty Ltd
// SPDX-License-Identifier: Apache-2.0

package s3client

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/go-kit/log/level"
)

// UploadExport uploads a local export file, keyed by its base name, and
// returns the object key.
func (s *S3Client) UploadExport(ctx context.Context, filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open file %s: %w", filePath, err)
	}
	defer file.Close()

	s3Key := exportKey(s.config.S3KeyPrefix(), filepath.Base(filePath))
	bucketName := s.config.S3BucketName()
	input := &s3.PutObjectInput{
		Bucket:       &bucketName,
		Key:          &s3Key,
		Body:         file,
		StorageClass: types.StorageClass(s.config.S3StorageClass()),
	}

	// Set server-side encryption
	switch s.config.S3Encryption() {
	case "aws:kms":
		input.ServerSideEncryption = types.ServerSideEncryptionAwsKms
		if s.config.S3KMSKeyID() != "" {
			kmsKeyID := s.config.S3KMSKeyID()
			input.SSEKMSKeyId = &kmsKeyID
		}
	case "AES256":
		input.ServerSideEncryption = types.ServerSideEncryptionAes256
	}

	level.Debug(s.logger).Log("msg", "uploading to S3", "bucket", bucketName, "key", s3Key)
	output, err := s.uploader.Upload(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to upload file to S3: %w", err)
	}

	level.Info(s.logger).Log("msg", "export uploaded to S3", "key", s3Key, "bucket", bucketName, "location", output.Location)
	return s3Key, nil
}
