package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
)

// GCS is the Google Cloud Storage implementation of ObjectStore. Credentials
// come from the environment (service-account key file or ADC).
type GCS struct {
	client *storage.Client
}

// NewGCS creates a GCS object store client.
func NewGCS(ctx context.Context) (*GCS, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}

	return &GCS{client: client}, nil
}

// Put writes data under bucket/key with the given content type.
func (g *GCS) Put(ctx context.Context, bucket, key string, data []byte, contentType string) error {
	w := g.client.Bucket(bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := w.Write(data); err != nil {
		_ = w.Close()

		return fmt.Errorf("writing object %s/%s: %w", bucket, key, err)
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("finalizing object %s/%s: %w", bucket, key, err)
	}

	return nil
}

// Get returns the object's bytes and stored content type.
func (g *GCS) Get(ctx context.Context, bucket, key string) ([]byte, string, error) {
	r, err := g.client.Bucket(bucket).Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, "", ErrNotFound
		}

		return nil, "", fmt.Errorf("opening object %s/%s: %w", bucket, key, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, "", fmt.Errorf("reading object %s/%s: %w", bucket, key, err)
	}

	return data, r.Attrs.ContentType, nil
}

// Delete removes the object. Deleting a missing object returns ErrNotFound.
func (g *GCS) Delete(ctx context.Context, bucket, key string) error {
	err := g.client.Bucket(bucket).Object(key).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("deleting object %s/%s: %w", bucket, key, err)
	}

	return nil
}

// Copy duplicates an object across buckets or prefixes.
func (g *GCS) Copy(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string) error {
	src := g.client.Bucket(srcBucket).Object(srcKey)
	dst := g.client.Bucket(dstBucket).Object(dstKey)

	if _, err := dst.CopierFrom(src).Run(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return ErrNotFound
		}

		return fmt.Errorf("copying %s/%s to %s/%s: %w", srcBucket, srcKey, dstBucket, dstKey, err)
	}

	return nil
}

// Attrs returns the object's stored size and content type.
func (g *GCS) Attrs(ctx context.Context, bucket, key string) (*ObjectInfo, error) {
	attrs, err := g.client.Bucket(bucket).Object(key).Attrs(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading attrs of %s/%s: %w", bucket, key, err)
	}

	return &ObjectInfo{Size: attrs.Size, ContentType: attrs.ContentType}, nil
}

// Exists reports whether the object is present.
func (g *GCS) Exists(ctx context.Context, bucket, key string) (bool, error) {
	_, err := g.client.Bucket(bucket).Object(key).Attrs(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking object %s/%s: %w", bucket, key, err)
	}

	return true, nil
}

// Close releases the underlying client.
func (g *GCS) Close() error {
	return g.client.Close()
}
