// Package blobstore wraps the object store holding transcript artifacts. A
// single driver URL selects the backend: gs://bucket, s3://bucket,
// file:///dir, or mem:// in tests.
package blobstore

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"
)

// Bucket is a handle on one object store bucket.
type Bucket struct {
	bucket *blob.Bucket
}

func Open(ctx context.Context, url string) (*Bucket, error) {
	bucket, err := blob.OpenBucket(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("open bucket %s: %w", url, err)
	}
	return &Bucket{bucket: bucket}, nil
}

func (b *Bucket) Close() error {
	return b.bucket.Close()
}

// List returns every object key under prefix, descending into
// pseudo-directories.
func (b *Bucket) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := b.bucket.List(&blob.ListOptions{Prefix: prefix})
	for {
		obj, err := iter.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", prefix, err)
		}
		if obj.IsDir {
			continue
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}

func (b *Bucket) Exists(ctx context.Context, key string) (bool, error) {
	return b.bucket.Exists(ctx, key)
}

func (b *Bucket) ReadAll(ctx context.Context, key string) ([]byte, error) {
	data, err := b.bucket.ReadAll(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

func (b *Bucket) WriteAll(ctx context.Context, key string, data []byte) error {
	if err := b.bucket.WriteAll(ctx, key, data, nil); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// CopyPublic copies src to dst within the bucket and, on GCS, marks the
// destination publicly readable. Other backends copy without an ACL since
// their public-access story lives in bucket policy, not per object.
func (b *Bucket) CopyPublic(ctx context.Context, src, dst string) error {
	opts := &blob.WriterOptions{
		BeforeWrite: func(asFunc func(any) bool) error {
			var w *storage.Writer
			if asFunc(&w) {
				w.PredefinedACL = "publicRead"
			}
			return nil
		},
	}
	r, err := b.bucket.NewReader(ctx, src, nil)
	if err != nil {
		return fmt.Errorf("open source %s: %w", src, err)
	}
	defer r.Close()

	w, err := b.bucket.NewWriter(ctx, dst, opts)
	if err != nil {
		return fmt.Errorf("create destination %s: %w", dst, err)
	}
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return fmt.Errorf("copy %s -> %s: %w", src, dst, err)
	}
	return w.Close()
}
