package objstore

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"cloud.google.com/go/storage"
	"github.com/rotisserie/eris"
)

// Uploader stores document files and returns a public URL for each.
type Uploader interface {
	Upload(ctx context.Context, objectName, contentType string, r io.Reader) (string, error)
}

// GCSUploader implements Uploader on a Google Cloud Storage bucket.
type GCSUploader struct {
	client *storage.Client
	bucket string
}

// NewGCS creates a GCSUploader for the given bucket using ambient credentials.
func NewGCS(ctx context.Context, bucket string) (*GCSUploader, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "objstore: create storage client")
	}
	return &GCSUploader{client: client, bucket: bucket}, nil
}

// Upload writes the reader's contents to the bucket and returns the object's
// public URL. The write is finalized only when the writer closes cleanly.
func (u *GCSUploader) Upload(ctx context.Context, objectName, contentType string, r io.Reader) (string, error) {
	writeCtx, cancel := context.WithTimeout(ctx, 50*time.Second)
	defer cancel()

	w := u.client.Bucket(u.bucket).Object(objectName).NewWriter(writeCtx)
	w.ContentType = contentType

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", eris.Wrapf(err, "objstore: write object %s", objectName)
	}
	if err := w.Close(); err != nil {
		return "", eris.Wrapf(err, "objstore: finalize object %s", objectName)
	}

	return PublicURL(u.bucket, objectName), nil
}

// Close releases the underlying storage client.
func (u *GCSUploader) Close() error {
	return u.client.Close()
}

// PublicURL returns the canonical public URL for an object in a bucket.
func PublicURL(bucket, objectName string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, url.PathEscape(objectName))
}
