// Package blob reads and writes whole files on local disk or S3.
package blob

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/vearutop/dperf/s3"
)

// Store resolves paths to local files or s3://bucket/key objects.
type Store struct {
	S3 s3.Flags

	once   sync.Once
	client *s3.Client
	err    error
}

func (s *Store) s3Client() (*s3.Client, error) {
	s.once.Do(func() {
		s.client, s.err = s3.NewClient(s.S3)
	})

	return s.client, s.err
}

// ReadFile reads the whole file.
func (s *Store) ReadFile(ctx context.Context, path string) ([]byte, error) {
	if bucket, key, ok := s3.ParseURI(path); ok {
		c, err := s.s3Client()
		if err != nil {
			return nil, err
		}

		return c.Read(ctx, bucket, key)
	}

	data, err := os.ReadFile(path) //nolint:gosec // Path is provided by user.
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	return data, nil
}

// WriteFile replaces file contents.
func (s *Store) WriteFile(ctx context.Context, path string, data []byte) error {
	if bucket, key, ok := s3.ParseURI(path); ok {
		c, err := s.s3Client()
		if err != nil {
			return err
		}

		return c.Write(ctx, bucket, key, data)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}
