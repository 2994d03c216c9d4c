package storage

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Driver names accepted by NewFromDriver.
const (
	DriverS3     = "s3"
	DriverGCS    = "gcs"
	DriverMinIO  = "minio"
	DriverMemory = "memory" // in-process, for local runs and tests
)

var ErrUnknownDriver = errors.New("storage: unknown driver")

// FactoryOptions groups configuration for storage drivers. Only the
// options of the selected driver are read.
type FactoryOptions struct {
	S3    S3Options
	GCS   GCSOptions
	MinIO MinIOOptions
}

var drivers = map[string]func(context.Context, FactoryOptions) (Storage, error){
	DriverS3: func(ctx context.Context, o FactoryOptions) (Storage, error) {
		return NewS3(ctx, o.S3)
	},
	DriverGCS: func(ctx context.Context, o FactoryOptions) (Storage, error) {
		return NewGCS(ctx, o.GCS)
	},
	DriverMinIO: func(_ context.Context, o FactoryOptions) (Storage, error) {
		return NewMinIO(o.MinIO)
	},
	DriverMemory: func(context.Context, FactoryOptions) (Storage, error) {
		return NewMemory(), nil
	},
}

// NewFromDriver constructs the Storage named by driver (case-insensitive).
func NewFromDriver(ctx context.Context, driver string, opts FactoryOptions) (Storage, error) {
	newFn, ok := drivers[strings.ToLower(strings.TrimSpace(driver))]
	if !ok {
		return nil, fmt.Errorf("%w %q, want one of %s", ErrUnknownDriver, driver,
			strings.Join(slices.Sorted(maps.Keys(drivers)), ", "))
	}
	return newFn(ctx, opts)
}
