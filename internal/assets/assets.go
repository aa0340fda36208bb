/*
Package assets reads the static files the coach is configured with (persona text,
exercise catalog) from either the local filesystem or a Cloud Storage bucket.
*/
package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"cloud.google.com/go/storage"
)

const gcsScheme = "gs://"

// ErrNotFound is returned when the location does not exist.
var ErrNotFound = errors.New("asset not found")

// Reader resolves asset locations. The storage client is created on first gs:// use.
type Reader struct {
	// BaseDirs are tried in order for relative local paths.
	BaseDirs []string

	mu  sync.Mutex
	gcs *storage.Client
}

// NewReader returns a Reader that looks up relative paths in the working
// directory first, then next to the running executable.
func NewReader() *Reader {
	dirs := []string{"."}
	if exe, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Dir(exe))
	}
	return &Reader{BaseDirs: dirs}
}

// Read returns the full contents of location.
func (r *Reader) Read(ctx context.Context, location string) ([]byte, error) {
	if location == "" {
		return nil, ErrNotFound
	}
	if strings.HasPrefix(location, gcsScheme) {
		return r.readGCS(ctx, location)
	}
	return r.readLocal(location)
}

// Close releases the storage client if one was opened.
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gcs == nil {
		return nil
	}
	err := r.gcs.Close()
	r.gcs = nil
	return err
}

func (r *Reader) readLocal(path string) ([]byte, error) {
	candidates := []string{path}
	if !filepath.IsAbs(path) && len(r.BaseDirs) > 0 {
		candidates = candidates[:0]
		for _, dir := range r.BaseDirs {
			candidates = append(candidates, filepath.Join(dir, path))
		}
	}

	var lastErr error
	for _, p := range candidates {
		data, err := os.ReadFile(p)
		if err == nil {
			return data, nil
		}
		if errors.Is(err, fs.ErrNotExist) {
			lastErr = fmt.Errorf("%w: %s", ErrNotFound, path)
			continue
		}
		return nil, fmt.Errorf("failed to read %s: %w", p, err)
	}
	return nil, lastErr
}

func (r *Reader) readGCS(ctx context.Context, location string) ([]byte, error) {
	bucket, object, err := ParseGCSLocation(location)
	if err != nil {
		return nil, err
	}

	client, err := r.storageClient(ctx)
	if err != nil {
		return nil, err
	}

	rc, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, location)
		}
		return nil, fmt.Errorf("failed to open %s: %w", location, err)
	}
	defer rc.Close()

	return io.ReadAll(rc)
}

func (r *Reader) storageClient(ctx context.Context) (*storage.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gcs != nil {
		return r.gcs, nil
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	r.gcs = client
	return client, nil
}

// ParseGCSLocation splits gs://bucket/path/to/object into bucket and object.
func ParseGCSLocation(location string) (bucket, object string, err error) {
	rest := strings.TrimPrefix(location, gcsScheme)
	bucket, object, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || object == "" {
		return "", "", fmt.Errorf("invalid Cloud Storage location %q", location)
	}
	return bucket, object, nil
}
