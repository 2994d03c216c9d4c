package storage

import (
	"bytes"
	"context"
	"crypto/md5" //nolint:gosec // etag only
	"encoding/hex"
	"io"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"
)

// Memory is an in-process Storage. Buckets are created on first write.
type Memory struct {
	mu      sync.RWMutex
	buckets map[string]map[string]memoryObject
	now     func() time.Time
}

type memoryObject struct {
	data []byte
	info ObjectInfo
}

// NewMemory constructs an empty in-process store.
func NewMemory() *Memory {
	return &Memory{
		buckets: map[string]map[string]memoryObject{},
		now:     time.Now,
	}
}

func (m *Memory) Close() error { return nil }

func (m *Memory) PutObject(ctx context.Context, bucket, key string, r io.Reader, opts PutOptions) (ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return ObjectInfo{}, err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return ObjectInfo{}, err
	}

	sum := md5.Sum(data) //nolint:gosec // etag only
	info := ObjectInfo{
		Bucket:      bucket,
		Key:         key,
		Size:        int64(len(data)),
		ETag:        hex.EncodeToString(sum[:]),
		ContentType: opts.ContentType,
		Metadata:    maps.Clone(opts.Metadata),
		UpdatedAt:   m.now(),
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.buckets[bucket] == nil {
		m.buckets[bucket] = map[string]memoryObject{}
	}
	m.buckets[bucket][key] = memoryObject{data: data, info: info}

	return info, nil
}

func (m *Memory) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, ObjectInfo, error) {
	obj, err := m.lookup(ctx, bucket, key)
	if err != nil {
		return nil, ObjectInfo{}, err
	}
	return io.NopCloser(bytes.NewReader(obj.data)), obj.info, nil
}

func (m *Memory) StatObject(ctx context.Context, bucket, key string) (ObjectInfo, error) {
	obj, err := m.lookup(ctx, bucket, key)
	if err != nil {
		return ObjectInfo{}, err
	}
	return obj.info, nil
}

// ListObjects returns objects in key order.
func (m *Memory) ListObjects(ctx context.Context, bucket, prefix string, limit int) ([]ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	objects, ok := m.buckets[bucket]
	if !ok {
		return nil, ErrObjectNotFound
	}

	keys := slices.Sorted(maps.Keys(objects))
	out := make([]ObjectInfo, 0, len(keys))
	for _, k := range keys {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		out = append(out, objects[k].info)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *Memory) lookup(ctx context.Context, bucket, key string) (memoryObject, error) {
	if err := ctx.Err(); err != nil {
		return memoryObject{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	obj, ok := m.buckets[bucket][key]
	if !ok {
		return memoryObject{}, ErrObjectNotFound
	}
	return obj, nil
}
