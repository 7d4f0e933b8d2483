package faq

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3API is the subset of the S3 client used to read FAQ documents.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

const maxDocumentBytes = 8 << 20

func (s *Service) readSource(ctx context.Context, location string) ([]byte, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, errors.New("faq: source location is required")
	}
	if !strings.HasPrefix(location, "s3://") {
		data, err := os.ReadFile(location)
		if err != nil {
			return nil, fmt.Errorf("faq: read %s: %w", location, err)
		}
		return data, nil
	}

	if s.s3 == nil {
		return nil, fmt.Errorf("faq: %s: s3 client not configured", location)
	}
	bucket, key, err := parseS3URI(location)
	if err != nil {
		return nil, err
	}
	out, err := s.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("faq: s3 get %s: %w", location, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(io.LimitReader(out.Body, maxDocumentBytes))
	if err != nil {
		return nil, fmt.Errorf("faq: s3 read %s: %w", location, err)
	}
	return data, nil
}

func parseS3URI(location string) (bucket, key string, err error) {
	u, err := url.Parse(location)
	if err != nil {
		return "", "", fmt.Errorf("faq: parse %s: %w", location, err)
	}
	bucket = u.Host
	key = strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("faq: %s: expected s3://bucket/key", location)
	}
	return bucket, key, nil
}
