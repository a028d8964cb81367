// RetroTrack Core
// Copyright (c) 2026 The RetroTrack Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of RetroTrack Core.
//
// RetroTrack Core is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// RetroTrack Core is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with RetroTrack Core.  If not, see <http://www.gnu.org/licenses/>.

package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/retrotrack/retrotrack-core/pkg/ra"
)

const (
	BucketDetails   = "details"
	BucketSnapshots = "snapshots"
)

var ErrNoUsername = errors.New("snapshot has no username")

// Store is the bbolt-backed key-value collaborator for details and sync
// snapshots.
type Store struct {
	bdb *bolt.DB
}

// OpenStore opens or creates the database at path.
func OpenStore(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database: %w", err)
	}
	err = db.Update(func(txn *bolt.Tx) error {
		for _, name := range []string{BucketDetails, BucketSnapshots} {
			if _, err := txn.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("failed to create bucket %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialise bolt database: %w", err)
	}
	return &Store{bdb: db}, nil
}

func (s *Store) Close() error {
	if err := s.bdb.Close(); err != nil {
		return fmt.Errorf("failed to close bolt database: %w", err)
	}
	return nil
}

func (s *Store) get(bucket, key string, v any) (bool, error) {
	found := false
	err := s.bdb.View(func(txn *bolt.Tx) error {
		b := txn.Bucket([]byte(bucket))
		if b == nil {
			return fmt.Errorf("bucket %q does not exist", bucket)
		}
		data := b.Get([]byte(key))
		if data == nil {
			return nil
		}
		found = true
		if err := json.Unmarshal(data, v); err != nil {
			return fmt.Errorf("failed to unmarshal %s/%s: %w", bucket, key, err)
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to view bolt database: %w", err)
	}
	return found, nil
}

func (s *Store) put(bucket, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s/%s: %w", bucket, key, err)
	}
	err = s.bdb.Update(func(txn *bolt.Tx) error {
		b := txn.Bucket([]byte(bucket))
		if b == nil {
			return fmt.Errorf("bucket %q does not exist", bucket)
		}
		return b.Put([]byte(key), data)
	})
	if err != nil {
		return fmt.Errorf("failed to update bolt database: %w", err)
	}
	return nil
}

// Get implements Backing. A missing key returns nil, nil.
func (s *Store) Get(key Key) (*Entry, error) {
	var e Entry
	found, err := s.get(BucketDetails, key.String(), &e)
	if err != nil || !found {
		return nil, err
	}
	return &e, nil
}

// Put implements Backing.
func (s *Store) Put(entry *Entry) error {
	return s.put(BucketDetails, entry.Key.String(), entry)
}

// Keys lists the detail keys, in byte order.
func (s *Store) Keys() ([]Key, error) {
	var keys []Key
	err := s.bdb.View(func(txn *bolt.Tx) error {
		b := txn.Bucket([]byte(BucketDetails))
		if b == nil {
			return fmt.Errorf("bucket %q does not exist", BucketDetails)
		}
		return b.ForEach(func(k, _ []byte) error {
			key, err := ParseKey(string(k))
			if err != nil {
				return err
			}
			keys = append(keys, key)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to view bolt database: %w", err)
	}
	return keys, nil
}

// PutSnapshot stores the latest sync snapshot for a user.
func (s *Store) PutSnapshot(snap *ra.Snapshot) error {
	if snap == nil || snap.Username == "" {
		return ErrNoUsername
	}
	return s.put(BucketSnapshots, normalize(Key{Username: snap.Username}).Username, snap)
}

// Snapshot returns the latest sync snapshot for a user, or nil.
func (s *Store) Snapshot(username string) (*ra.Snapshot, error) {
	var snap ra.Snapshot
	found, err := s.get(BucketSnapshots, normalize(Key{Username: username}).Username, &snap)
	if err != nil || !found {
		return nil, err
	}
	return &snap, nil
}
