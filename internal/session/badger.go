package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	badger "github.com/dgraph-io/badger/v4"
)

// BadgerStore keeps sessions in a local badger database. This is the
// default backend: durable across restarts, no external service needed.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore opens (or creates) the database at path. An empty path
// opens an in-memory database, useful for dev runs.
func NewBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening session db: %w", err)
	}
	log.Println("Session store: badger at", path)
	return &BadgerStore{db: db}, nil
}

func (s *BadgerStore) Save(_ context.Context, sid string, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling session: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(storeKey(sid)), data).WithTTL(TTL)
		return txn.SetEntry(entry)
	})
}

func (s *BadgerStore) Load(_ context.Context, sid string) (Record, error) {
	var rec Record
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(storeKey(sid)))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (s *BadgerStore) Delete(_ context.Context, sid string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(storeKey(sid)))
	})
}

func (s *BadgerStore) Close() error { return s.db.Close() }
