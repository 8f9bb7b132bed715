// Package store keeps the persistent record of the language server packages
// installed by the extension, in a bbolt database.
package store

import (
	"fmt"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
	"src.arkts.dev/pkg/logutil"
	"src.arkts.dev/pkg/store/storedefs"
)

var logger = logutil.GetLogger("[store] ")

var initDB = map[string](func(*bolt.Tx) error){}

// DBStore is a storedefs.Store backed by a database file. Operations still
// running when Close is called are waited for.
type DBStore interface {
	storedefs.Store
	Close() error
}

type dbStore struct {
	db *bolt.DB
	// Outstanding operations on the store.
	wg sync.WaitGroup
}

// How long to wait for another process to release the database lock.
// Variable for testing.
var openTimeout = time.Second

// NewStore opens the database at the given path, creating it if needed.
func NewStore(path string) (DBStore, error) {
	db, err := bolt.Open(path, 0644, &bolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, err
	}
	return NewStoreFromDB(db)
}

// NewStoreFromDB creates a new Store from a bolt DB.
func NewStoreFromDB(db *bolt.DB) (DBStore, error) {
	logger.Println("initializing store at", db.Path())
	defer logger.Println("initialized store")
	st := &dbStore{db: db}

	err := db.Update(func(tx *bolt.Tx) error {
		for name, fn := range initDB {
			if err := fn(tx); err != nil {
				return fmt.Errorf("failed to %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return st, nil
}

// Close waits for all outstanding operations to finish, and closes the
// database.
func (s *dbStore) Close() error {
	if s.db == nil {
		return nil
	}
	s.wg.Wait()
	return s.db.Close()
}
