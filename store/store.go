// Package store provides client-local persistence: the session
// identity and a bounded history of transcripts.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/tylertzm/KnowledgeOS/internal/types"
)

const transcriptPrefix = "transcript/"

var sessionKey = []byte("session_id")

// Store wraps the local badger database.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) the database at dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close flushes and closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SessionID returns the persisted session identifier, generating and
// storing a fresh one on first use. The identifier is opaque to the
// client and only echoed to the backend.
func (s *Store) SessionID() (string, error) {
	var id string
	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(sessionKey)
		switch err {
		case nil:
			return item.Value(func(v []byte) error {
				id = string(v)
				return nil
			})
		case badger.ErrKeyNotFound:
			id = uuid.New().String()
			return txn.Set(sessionKey, []byte(id))
		default:
			return err
		}
	})
	if err != nil {
		return "", fmt.Errorf("session id: %w", err)
	}
	return id, nil
}

// AppendTranscript stores one transcript with the given retention.
// A zero ttl keeps the entry indefinitely.
func (s *Store) AppendTranscript(tr types.Transcript, ttl time.Duration) error {
	if tr.Timestamp == 0 {
		tr.Timestamp = time.Now().UnixMilli()
	}

	data, err := json.Marshal(tr)
	if err != nil {
		return fmt.Errorf("marshal transcript: %w", err)
	}

	// Timestamp-ordered key with a random suffix so same-millisecond
	// entries never collide.
	key := fmt.Appendf(nil, "%s%020d-%s", transcriptPrefix, tr.Timestamp, uuid.New().String())

	err = s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(key, data)
		if ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("append transcript: %w", err)
	}
	return nil
}

// RecentTranscripts returns up to n transcripts, newest first.
func (s *Store) RecentTranscripts(n int) ([]types.Transcript, error) {
	if n <= 0 {
		return nil, nil
	}

	prefix := []byte(transcriptPrefix)
	var out []types.Transcript
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration starts just past the prefix range.
		seek := append(append([]byte{}, prefix...), 0xff)
		for it.Seek(seek); it.ValidForPrefix(prefix) && len(out) < n; it.Next() {
			err := it.Item().Value(func(v []byte) error {
				var tr types.Transcript
				if err := json.Unmarshal(v, &tr); err != nil {
					return fmt.Errorf("unmarshal transcript: %w", err)
				}
				out = append(out, tr)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("recent transcripts: %w", err)
	}
	return out, nil
}
