package storage

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
)

// Memory is a Storage kept in process memory.
type Memory struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
}

type memoryObject struct {
	data      []byte
	updatedAt time.Time
}

// NewMemory returns an empty in-memory bucket.
func NewMemory() *Memory {
	return &Memory{objects: make(map[string]memoryObject)}
}

// PutObject copies the body into memory.
func (m *Memory) PutObject(ctx context.Context, key string, r io.Reader, _ int64, _ PutOptions) (ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return ObjectInfo{}, err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return ObjectInfo{}, err
	}

	obj := memoryObject{data: data, updatedAt: time.Now()}

	m.mu.Lock()
	m.objects[key] = obj
	m.mu.Unlock()

	return ObjectInfo{Key: key, Size: int64(len(data)), UpdatedAt: obj.updatedAt}, nil
}

// GetObject returns a reader over a copy of the stored bytes.
func (m *Memory) GetObject(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	obj, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrObjectNotFound
	}

	return io.NopCloser(bytes.NewReader(bytes.Clone(obj.data))), nil
}

// ListObjects lists keys starting with prefix.
func (m *Memory) ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	objects := make([]ObjectInfo, 0, len(m.objects))
	for key, obj := range m.objects {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		objects = append(objects, ObjectInfo{Key: key, Size: int64(len(obj.data)), UpdatedAt: obj.updatedAt})
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}

// Close is a no-op.
func (m *Memory) Close() error {
	return nil
}
