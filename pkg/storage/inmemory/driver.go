// Package inmemory provides a storage.Driver that keeps every record in
// process memory. It is the default backend for tests and throwaway runs.
package inmemory

import (
	"context"
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/memdb"

	"github.com/papercomputeco/sequencer/pkg/storage"
)

var _ storage.Driver = (*Driver)(nil)

// Driver is an in-memory storage.Driver backed by a memdb database.
type Driver struct {
	db *memdb.Database
}

// NewDriver creates an empty in-memory driver.
func NewDriver() *Driver {
	return &Driver{db: memdb.New()}
}

func (d *Driver) Get(_ context.Context, key string) ([]byte, error) {
	record, err := d.db.Get([]byte(key))
	if err != nil {
		return nil, translate(err)
	}
	return record, nil
}

func (d *Driver) Put(_ context.Context, key string, record []byte) error {
	return translate(d.db.Put([]byte(key), record))
}

func (d *Driver) Delete(_ context.Context, key string) error {
	return translate(d.db.Delete([]byte(key)))
}

func (d *Driver) Close() error {
	return translate(d.db.Close())
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, database.ErrNotFound):
		return storage.ErrNotFound
	case errors.Is(err, database.ErrClosed):
		return storage.ErrClosed
	default:
		return fmt.Errorf("memdb: %w", err)
	}
}
