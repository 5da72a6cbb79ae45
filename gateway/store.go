// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package gateway

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/luxfi/geth/common"

	"github.com/luxfi/fhevm/cache"
)

const DefaultStoreCacheSize = 1024

var (
	ErrNotFound = errors.New("ciphertext not found")

	_ Store = (*MemoryStore)(nil)
	_ Store = (*BadgerStore)(nil)
)

// Store holds the ciphertexts referenced by handles
type Store interface {
	Get(handle common.Hash) ([]byte, error)
	Put(handle common.Hash, ciphertext []byte) error
	Close() error
}

// MemoryStore keeps the most recently used ciphertexts in memory
type MemoryStore struct {
	lru *cache.LRUCache[common.Hash, []byte]
}

func NewMemoryStore(size int) (*MemoryStore, error) {
	lru, err := cache.NewLRUCache[common.Hash, []byte](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create ciphertext cache: %w", err)
	}
	return &MemoryStore{lru: lru}, nil
}

func (s *MemoryStore) Get(handle common.Hash) ([]byte, error) {
	ct, ok := s.lru.Peek(handle)
	if !ok {
		return nil, ErrNotFound
	}
	return ct, nil
}

func (s *MemoryStore) Put(handle common.Hash, ciphertext []byte) error {
	s.lru.Put(handle, common.CopyBytes(ciphertext))
	return nil
}

func (*MemoryStore) Close() error {
	return nil
}

// BadgerStore persists ciphertexts on disk, fronted by an LRU of recent reads
type BadgerStore struct {
	db     *badger.DB
	recent *cache.LRUCache[common.Hash, []byte]
}

func NewBadgerStore(dir string, cacheSize int) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open ciphertext store at %s: %w", dir, err)
	}
	recent, err := cache.NewLRUCache[common.Hash, []byte](cacheSize)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &BadgerStore{db: db, recent: recent}, nil
}

func (s *BadgerStore) Get(handle common.Hash) ([]byte, error) {
	return s.recent.Get(handle, s.load, false)
}

func (s *BadgerStore) load(handle common.Hash) ([]byte, error) {
	var ct []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(handle.Bytes())
		if err != nil {
			return err
		}
		ct, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	return ct, err
}

func (s *BadgerStore) Put(handle common.Hash, ciphertext []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(handle.Bytes(), ciphertext)
	})
	if err != nil {
		return err
	}
	s.recent.Put(handle, common.CopyBytes(ciphertext))
	return nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}
