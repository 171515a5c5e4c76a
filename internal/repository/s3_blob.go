package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	appConfig "github.com/mansoorceksport/cookbook-upload/internal/config"
	"github.com/mansoorceksport/cookbook-upload/internal/domain"
)

// S3BlobStore implements domain.BlobStore using AWS SDK v2
type S3BlobStore struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

// NewS3BlobStore creates a new S3 blob store
func NewS3BlobStore(ctx context.Context, cfg appConfig.S3Config) (*S3BlobStore, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	// Static keys win; otherwise fall back to the default AWS credential chain
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config, %v", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
		// S3-compatible stores disagree on flexible checksums
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
	})

	publicURL := cfg.PublicURL
	if publicURL == "" {
		publicURL = cfg.Endpoint
	}

	store := &S3BlobStore{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
	}

	if cfg.EnsureBucket {
		if err := store.ensureBucket(ctx); err != nil {
			return nil, err
		}
	}

	return store, nil
}

// Put writes content under key and returns the object URL.
// Nothing is visible under key unless PutObject succeeds.
func (r *S3BlobStore) Put(ctx context.Context, key string, content []byte, opts domain.PutOptions) (*domain.PutResult, error) {
	acl := types.ObjectCannedACLPrivate
	if opts.Access == domain.AccessPublic {
		acl = types.ObjectCannedACLPublicRead
	}

	_, err := r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(r.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(content),
		ContentLength: aws.Int64(int64(len(content))),
		ContentType:   aws.String(opts.ContentType),
		ACL:           acl,
		Metadata:      opts.Metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: put %s: %w", domain.ErrStorageFailure, key, err)
	}

	// Format: {PublicURL}/{Bucket}/{Key}
	return &domain.PutResult{URL: fmt.Sprintf("%s/%s/%s", r.publicURL, r.bucket, key)}, nil
}

// ensureBucket checks if bucket exists, creating it if necessary
func (r *S3BlobStore) ensureBucket(ctx context.Context) error {
	_, err := r.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(r.bucket),
	})
	if err == nil {
		return nil
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() != "NotFound" && apiErr.ErrorCode() != "NoSuchBucket" {
		return fmt.Errorf("failed to check bucket %s: %w", r.bucket, err)
	}

	_, err = r.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(r.bucket),
	})
	if err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", r.bucket, err)
	}
	return nil
}
