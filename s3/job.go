package s3

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

// Scheme prefixes S3 object URIs.
const Scheme = "s3://"

// ParseURI splits s3://bucket/key into bucket and key.
func ParseURI(uri string) (bucket, key string, ok bool) {
	if !strings.HasPrefix(uri, Scheme) {
		return "", "", false
	}

	bucket, key, found := strings.Cut(strings.TrimPrefix(uri, Scheme), "/")
	if !found || bucket == "" || key == "" {
		return "", "", false
	}

	return bucket, key, true
}

// Client reads and writes whole S3 objects.
type Client struct {
	dl *s3manager.Downloader
	ul *s3manager.Uploader
}

// NewClient creates S3 client.
func NewClient(f Flags) (*Client, error) {
	if f.URL != "" && !strings.HasPrefix(f.URL, "http://") && !strings.HasPrefix(f.URL, "https://") {
		f.URL = "http://" + f.URL
	}

	if f.Region == "" {
		f.Region = "eu-central-1"
	}

	cfg := &aws.Config{
		Region: aws.String(f.Region),
	}

	if f.AccessKey != "" || f.SecretKey != "" {
		cfg.Credentials = credentials.NewStaticCredentials(
			f.AccessKey,
			f.SecretKey,
			f.SessionToken,
		)
	}

	if f.URL != "" {
		cfg.Endpoint = &f.URL
	}

	if f.PathStyle {
		cfg.S3ForcePathStyle = &f.PathStyle
	}

	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to init S3 session: %w", err)
	}

	return &Client{
		dl: s3manager.NewDownloader(sess),
		ul: s3manager.NewUploader(sess),
	}, nil
}

// Read downloads an object.
func (c *Client) Read(ctx context.Context, bucket, key string) ([]byte, error) {
	buf := aws.NewWriteAtBuffer(nil)

	_, err := c.dl.DownloadWithContext(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download s3://%s/%s: %w", bucket, key, err)
	}

	return buf.Bytes(), nil
}

// Write uploads an object.
func (c *Client) Write(ctx context.Context, bucket, key string, data []byte) error {
	_, err := c.ul.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("failed to upload s3://%s/%s: %w", bucket, key, err)
	}

	return nil
}
