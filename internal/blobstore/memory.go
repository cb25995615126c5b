package blobstore

import (
	"context"
	"sync"
)

type memObject struct {
	data        []byte
	contentType string
}

// Memory is an in-process ObjectStore for tests and local development.
type Memory struct {
	mu      sync.RWMutex
	objects map[string]memObject
}

// NewMemory creates an empty in-memory object store.
func NewMemory() *Memory {
	return &Memory{objects: make(map[string]memObject)}
}

func memKey(bucket, key string) string { return bucket + "/" + key }

// Put stores a copy of data under bucket/key.
func (m *Memory) Put(_ context.Context, bucket, key string, data []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	buf := make([]byte, len(data))
	copy(buf, data)
	m.objects[memKey(bucket, key)] = memObject{data: buf, contentType: contentType}

	return nil
}

// Get returns the stored bytes and content type, or ErrNotFound.
func (m *Memory) Get(_ context.Context, bucket, key string) ([]byte, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	obj, ok := m.objects[memKey(bucket, key)]
	if !ok {
		return nil, "", ErrNotFound
	}

	buf := make([]byte, len(obj.data))
	copy(buf, obj.data)

	return buf, obj.contentType, nil
}

// Delete removes the object, returning ErrNotFound when absent.
func (m *Memory) Delete(_ context.Context, bucket, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := memKey(bucket, key)
	if _, ok := m.objects[k]; !ok {
		return ErrNotFound
	}
	delete(m.objects, k)

	return nil
}

// Copy duplicates an object.
func (m *Memory) Copy(_ context.Context, srcBucket, srcKey, dstBucket, dstKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	src, ok := m.objects[memKey(srcBucket, srcKey)]
	if !ok {
		return ErrNotFound
	}

	buf := make([]byte, len(src.data))
	copy(buf, src.data)
	m.objects[memKey(dstBucket, dstKey)] = memObject{data: buf, contentType: src.contentType}

	return nil
}

// Attrs returns the object's stored size and content type, or ErrNotFound.
func (m *Memory) Attrs(_ context.Context, bucket, key string) (*ObjectInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	obj, ok := m.objects[memKey(bucket, key)]
	if !ok {
		return nil, ErrNotFound
	}

	return &ObjectInfo{Size: int64(len(obj.data)), ContentType: obj.contentType}, nil
}

// Exists reports whether the object is present.
func (m *Memory) Exists(_ context.Context, bucket, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.objects[memKey(bucket, key)]

	return ok, nil
}

// Len returns the number of stored objects.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.objects)
}
