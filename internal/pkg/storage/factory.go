package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	// DriverNone disables snapshots.
	DriverNone = ""
	// DriverS3 selects the AWS S3 backend.
	DriverS3 = "s3"
	// DriverMinIO selects the MinIO backend.
	DriverMinIO = "minio"
	// DriverMemory keeps snapshots in process memory.
	DriverMemory = "memory"
)

var (
	// ErrUnknownDriver indicates an unsupported storage driver.
	ErrUnknownDriver = errors.New("storage: unknown driver")

	// ErrMissingBucket indicates a remote driver was selected without a bucket.
	ErrMissingBucket = errors.New("storage: bucket is required")
)

// FactoryOptions groups configuration for storage drivers.
type FactoryOptions struct {
	// Bucket holds every snapshot object.
	Bucket string
	// S3 configures the S3 backend.
	S3 S3Options
	// MinIO configures the MinIO backend.
	MinIO MinIOOptions
}

// NewFromDriver constructs a Storage implementation by driver name. It
// returns nil, nil for DriverNone ("" or "none").
func NewFromDriver(ctx context.Context, driver string, opts FactoryOptions) (Storage, error) {
	driver = strings.ToLower(strings.TrimSpace(driver))
	if driver == DriverNone || driver == "none" {
		return nil, nil
	}

	if driver != DriverMemory && opts.Bucket == "" {
		return nil, ErrMissingBucket
	}

	switch driver {
	case DriverS3:
		return NewS3(ctx, opts.Bucket, opts.S3)
	case DriverMinIO:
		return NewMinIO(ctx, opts.Bucket, opts.MinIO)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, driver)
	}
}
