// Package s3 provides a RemoteLibrary implementation for S3 and
// S3-compatible media stores.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/jciesla/mediavault"
)

// API is the subset of the S3 client used by Library, so the client can be
// tested with a custom implementation.
type API interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Config holds the connection settings for a Library.
type Config struct {
	Endpoint        string // optional custom endpoint for S3-compatible stores
	Region          string
	Bucket          string
	Prefix          string // optional key prefix limiting the collection
	AccessKeyID     string
	SecretAccessKey string
	PageSize        int32 // listing page size; 0 uses the service default
}

// Ensure Library implements mediavault.RemoteLibrary at compile time.
var _ mediavault.RemoteLibrary = (*Library)(nil)

// Library is a RemoteLibrary backed by an S3 bucket. Objects are listed in
// key order; S3 carries no creation timestamp, so both item timestamps are
// the object's last-modified time.
type Library struct {
	client API
	cfg    Config
}

// NewLibrary creates a Library for the configured bucket.
func NewLibrary(ctx context.Context, cfg Config) (*Library, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			// Path-style addressing for S3-compatible storage.
			o.UsePathStyle = true
		}
	})

	return &Library{client: client, cfg: cfg}, nil
}

// NewLibraryWithClient creates a Library with a caller-provided client.
func NewLibraryWithClient(client API, cfg Config) *Library {
	return &Library{client: client, cfg: cfg}
}

// ListPage returns one page of objects starting at cursor.
func (l *Library) ListPage(ctx context.Context, cursor string) (*mediavault.Page, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(l.cfg.Bucket),
	}
	if l.cfg.Prefix != "" {
		input.Prefix = aws.String(l.cfg.Prefix)
	}
	if l.cfg.PageSize > 0 {
		input.MaxKeys = aws.Int32(l.cfg.PageSize)
	}
	if cursor != "" {
		input.ContinuationToken = aws.String(cursor)
	}

	resp, err := l.client.ListObjectsV2(ctx, input)
	if err != nil {
		return nil, mapError(err)
	}

	page := &mediavault.Page{}
	for _, obj := range resp.Contents {
		key := aws.ToString(obj.Key)
		item := &mediavault.MediaItem{
			ID:       key,
			Filename: strings.TrimPrefix(key, l.cfg.Prefix),
			Size:     aws.ToInt64(obj.Size),
		}
		if obj.LastModified != nil {
			item.CreatedAt = *obj.LastModified
			item.ModifiedAt = *obj.LastModified
		}
		page.Items = append(page.Items, item)
	}
	if aws.ToBool(resp.IsTruncated) {
		page.NextCursor = resp.NextContinuationToken
	}
	return page, nil
}

// Fetch downloads the content of an item.
func (l *Library) Fetch(ctx context.Context, item *mediavault.MediaItem) ([]byte, error) {
	resp, err := l.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(l.cfg.Bucket),
		Key:    aws.String(item.ID),
	})
	if err != nil {
		return nil, mapError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, mediavault.Errorf(mediavault.EUNAVAILABLE, "read object %q: %v", item.ID, err)
	}
	return data, nil
}

// Delete permanently removes an item from the bucket.
func (l *Library) Delete(ctx context.Context, item *mediavault.MediaItem) error {
	_, err := l.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(l.cfg.Bucket),
		Key:    aws.String(item.ID),
	})
	return mapError(err)
}

// mapError converts S3 faults to application error codes so the engine's
// retry classification sees a closed set of fault categories instead of
// provider error strings.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return mediavault.Errorf(mediavault.ENOTFOUND, "object not found: %v", err)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "SlowDown", "Throttling", "ThrottlingException", "RequestLimitExceeded",
			"ServiceUnavailable", "InternalError":
			return mediavault.Errorf(mediavault.EUNAVAILABLE, "remote overloaded: %v", err)
		case "OperationAborted", "PreconditionFailed", "ConditionalRequestConflict":
			return mediavault.Errorf(mediavault.ECONFLICT, "remote conflict: %v", err)
		case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch", "ExpiredToken":
			return mediavault.Errorf(mediavault.EUNAUTHORIZED, "access denied: %v", err)
		case "NoSuchKey", "NoSuchBucket", "NotFound":
			return mediavault.Errorf(mediavault.ENOTFOUND, "object not found: %v", err)
		}
	}

	return err
}
