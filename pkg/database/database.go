// Package database implements the demo "database": a single JSON document
// persisted to a file, read and rewritten in full on every operation. It
// exists for demonstration purposes only; a real app should use a real
// database.
//
// The original demos performed the read-modify-write with no locking, which
// let concurrent writers clobber each other's changes. Here every Update runs
// under an advisory file lock plus a process-wide mutex, so writers serialize
// instead of losing updates.
package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/canva-sdks/canva-connect-api-starter-kit/pkg/crypto"
)

// databaseFileName is the name of the JSON document within the store's
// root directory.
const databaseFileName = "db.json"

// lockTimeout is the maximum time to wait for the file lock.
const lockTimeout = 5 * time.Second

// lockRetryInterval is how often lock acquisition is retried.
const lockRetryInterval = 100 * time.Millisecond

// UserRecord is one stored credential: the user's id (the provider's subject
// claim) and their token pair, encrypted at rest.
type UserRecord struct {
	ID    string                  `json:"id"`
	Token crypto.EncryptedPayload `json:"token"`
}

// BaseSchema is the part of the document every demo shares. Demo variants
// embed it and add their own collections (products, properties, ...).
type BaseSchema struct {
	Users []UserRecord `json:"users"`
}

// UserRecords returns the stored credentials collection for in-place
// modification.
func (b *BaseSchema) UserRecords() *[]UserRecord {
	return &b.Users
}

// Document is any demo schema that carries the shared users collection.
type Document interface {
	UserRecords() *[]UserRecord
}

// Store persists one JSON document to disk.
type Store struct {
	rootDir string
	seed    any

	// mu serializes same-process read-modify-write cycles; the file lock
	// covers other processes sharing the document.
	mu sync.Mutex
}

// New creates a store rooted at rootDir. The seed document is written on
// first use if no database file exists yet.
func New(rootDir string, seed any) *Store {
	return &Store{
		rootDir: rootDir,
		seed:    seed,
	}
}

// Path returns the location of the database file.
func (s *Store) Path() string {
	return filepath.Join(s.rootDir, databaseFileName)
}

// init creates the database file from the seed document if one doesn't
// already exist. Callers must hold the lock.
func (s *Store) init() error {
	if _, err := os.Stat(s.Path()); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to stat database file: %w", err)
	}

	contents, err := json.Marshal(s.seed)
	if err != nil {
		return fmt.Errorf("failed to marshal seed data: %w", err)
	}
	if err := os.MkdirAll(s.rootDir, 0750); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}
	if err := os.WriteFile(s.Path(), contents, 0600); err != nil {
		return fmt.Errorf("failed to write seed data: %w", err)
	}
	return nil
}

// read loads and parses the document into out. Callers must hold the lock.
func (s *Store) read(out any) error {
	if err := s.init(); err != nil {
		return err
	}
	contents, err := os.ReadFile(s.Path())
	if err != nil {
		return fmt.Errorf("failed to read database file: %w", err)
	}
	if err := json.Unmarshal(contents, out); err != nil {
		return fmt.Errorf("failed to parse database file: %w", err)
	}
	return nil
}

// write overwrites the document. Callers must hold the lock.
func (s *Store) write(doc any) error {
	contents, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal database document: %w", err)
	}
	if err := os.WriteFile(s.Path(), contents, 0600); err != nil {
		return fmt.Errorf("failed to write database file: %w", err)
	}
	return nil
}

// withLock runs fn while holding both the process mutex and an advisory
// lock on the database file.
func (s *Store) withLock(ctx context.Context, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.rootDir, 0750); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	// Use a separate lock file for cross-platform compatibility.
	fileLock := flock.New(s.Path() + ".lock")
	lockCtx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()

	locked, err := fileLock.TryLockContext(lockCtx, lockRetryInterval)
	if err != nil {
		return fmt.Errorf("failed to acquire database lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("failed to acquire database lock: timeout after %v", lockTimeout)
	}
	defer fileLock.Unlock()

	return fn()
}

// Read loads the document into out, seeding the file first if necessary.
func (s *Store) Read(ctx context.Context, out any) error {
	return s.withLock(ctx, func() error {
		return s.read(out)
	})
}

// Update performs a locked read-modify-write cycle: the current document is
// loaded into doc, modify is applied, and the result is written back. If
// modify returns an error the document is left untouched.
func (s *Store) Update(ctx context.Context, doc any, modify func() error) error {
	return s.withLock(ctx, func() error {
		if err := s.read(doc); err != nil {
			return err
		}
		if err := modify(); err != nil {
			return err
		}
		return s.write(doc)
	})
}
