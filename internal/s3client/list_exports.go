// Copyright 2025 Nadrama Pty Ltd
// SPDX-License-Identifier: Apache-2.0

package s3client

import (
	"context"
	"fmt"
	"path"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-kit/log/level"
)

// ListExports returns all export files, sorted by name
func (s *S3Client) ListExports(ctx context.Context) ([]FileInfo, error) {
	prefix := exportKey(s.config.S3KeyPrefix(), "") + "/"
	bucketName := s.config.S3BucketName()
	input := &s3.ListObjectsV2Input{
		Bucket: &bucketName,
		Prefix: &prefix,
	}

	var exports []FileInfo
	paginator := s3.NewListObjectsV2Paginator(s.client, input)
	for paginator.HasMorePages() {
		output, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list export objects: %w", err)
		}
		for _, obj := range output.Contents {
			key := aws.ToString(obj.Key)
			exports = append(exports, FileInfo{
				Key:  key,
				Name: path.Base(key),
				Size: aws.ToInt64(obj.Size),
			})
		}
	}

	sort.Slice(exports, func(i, j int) bool {
		return exports[i].Name < exports[j].Name
	})

	level.Debug(s.logger).Log("msg", "listed exports", "count", len(exports), "prefix", prefix)
	return exports, nil
}
