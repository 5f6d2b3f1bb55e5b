// Package blob stores compliance document content outside the metadata store.
package blob

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/FairForge/dctip/internal/common"
)

var (
	ErrNotFound   = fmt.Errorf("blob: object %w", common.ErrNotFound)
	ErrInvalidKey = fmt.Errorf("blob: invalid key: %w", common.ErrValidation)
)

// Store holds opaque objects by key. Content is compressed before it is written.
type Store interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// Key builds the object key for a document.
func Key(organizationID, documentID string) string {
	return organizationID + "/" + documentID
}

func cleanKey(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") {
		return "", ErrInvalidKey
	}
	cleaned := path.Clean(key)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", ErrInvalidKey
	}
	return cleaned, nil
}
