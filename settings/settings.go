package settings

import (
	"context"
	"strings"
	"time"

	"github.com/vinayprograms/recents/errors"
)

// Entry is the stored value of one setting.
type Entry struct {
	Key   string
	Value string

	// Revision increases with every write to the store.
	Revision uint64

	// Modified is when the value was written.
	Modified time.Time
}

// Store holds the latest value per key.
type Store interface {
	// Get returns the entry for key, or a NOT_FOUND error.
	Get(ctx context.Context, key string) (Entry, error)

	// Put stores value under key and returns the new revision.
	Put(ctx context.Context, key, value string) (uint64, error)

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// List returns every entry ordered by key.
	List(ctx context.Context) ([]Entry, error)

	// Close releases the store.
	Close() error
}

// ValidateKey checks that key is usable by every implementation.
func ValidateKey(key string) error {
	switch {
	case key == "":
		return errors.InvalidInput("setting key is empty")
	case len(key) > 1024:
		return errors.InvalidInput("setting key longer than 1024 bytes")
	case strings.ContainsAny(key, " \t\r\n*>"):
		return errors.InvalidInput("setting key contains whitespace or wildcards", errors.WithMetadata("key", key))
	case strings.HasPrefix(key, ".") || strings.HasSuffix(key, ".") || strings.Contains(key, ".."):
		return errors.InvalidInput("setting key has an empty segment", errors.WithMetadata("key", key))
	}
	return nil
}

func errNotFound(key string) error {
	return errors.NotFound("setting not found", errors.WithMetadata("key", key))
}

func errClosed() error {
	return errors.New(errors.ErrCodeCanceled, "settings store closed")
}
