// Package blobstore stores photo bytes under slash-separated paths and hands
// back public URLs for them. Photos live under three namespaces: trips/,
// journals/ and food_photos/.
package blobstore

import (
	"context"
	"io"
)

// Store is the blob store contract the services depend on.
type Store interface {
	// Upload writes body under path, replacing any existing blob.
	Upload(ctx context.Context, path string, body io.Reader, contentType string) error

	// URL returns the public download URL for path.
	URL(ctx context.Context, path string) (string, error)

	// Delete removes the blob addressed by ref, which may be a path or a URL
	// previously returned by URL. Deleting a missing blob is not an error.
	Delete(ctx context.Context, ref string) error
}
