package blobs

import (
	"context"
	"path"
	"strings"
	"time"
)

// Store is an object store keyed by slash separated paths
type Store interface {
	Get(ctx context.Context, path string) ([]byte, error)
	Put(ctx context.Context, path string, data []byte, contentType string) error
	Delete(ctx context.Context, path string) error
	// List returns the blobs directly below prefix, nested "folders" are not descended into
	List(ctx context.Context, prefix string) ([]BlobInfo, error)
}

type BlobInfo struct {
	Name        string    `json:"name"`
	Path        string    `json:"path"`
	Size        int64     `json:"size"`
	ContentType string    `json:"contentType"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Join builds a blob path from a folder prefix and a name. An empty
// prefix addresses the root of the store.
func Join(prefix, name string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

// Name returns the last segment of a blob path
func Name(blobPath string) string {
	return path.Base(blobPath)
}

func inFolder(blobPath, prefix string) bool {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return !strings.Contains(blobPath, "/")
	}

	rest, found := strings.CutPrefix(blobPath, prefix+"/")
	return found && rest != "" && !strings.Contains(rest, "/")
}
