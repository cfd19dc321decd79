package storage

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	KindMemory = "memory"
	KindSQLite = "sqlite"

	// DefaultSQLitePath is used when the sqlite kind is chosen without a path.
	DefaultSQLitePath = "batterybots.db"
)

var ErrUnsupportedStore = errors.New("unsupported store backend")

// NewStore builds the store named by kind. Kind is case-insensitive and
// empty selects the in-memory store.
func NewStore(kind, sqlitePath string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", KindMemory:
		return NewMemoryStore(), nil
	case KindSQLite:
		if strings.TrimSpace(sqlitePath) == "" {
			sqlitePath = DefaultSQLitePath
		}
		return newSQLiteStore(sqlitePath)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedStore, kind)
	}
}

// CloseIfSupported closes stores holding external resources.
func CloseIfSupported(store Store) error {
	if closer, ok := store.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
