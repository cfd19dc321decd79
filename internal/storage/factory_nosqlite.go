//go:build !sqlite

package storage

import "fmt"

func DefaultStoreKind() string {
	return KindMemory
}

func newSQLiteStore(path string) (Store, error) {
	return nil, fmt.Errorf("%w: %s (database %s); build with -tags sqlite", ErrUnsupportedStore, KindSQLite, path)
}
