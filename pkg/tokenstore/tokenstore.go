// Package tokenstore persists one encrypted token record per user identity
// inside the demo database document. These queries exist for demonstration
// purposes only; a real application should use a proper database.
package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/canva-sdks/canva-connect-api-starter-kit/pkg/canva"
	"github.com/canva-sdks/canva-connect-api-starter-kit/pkg/crypto"
	"github.com/canva-sdks/canva-connect-api-starter-kit/pkg/database"
)

// ErrNotFound is returned when no credential is stored for a user. It is
// deliberately distinct from decryption failures: an absent token and a
// corrupt record are different failure modes.
var ErrNotFound = errors.New("no token found for user")

// Store reads and writes encrypted credentials, keyed by user id.
//
// The document schema is owned by the demo variant; newDoc supplies a fresh
// instance of it so the store can round-trip the variant's extra collections
// untouched.
type Store struct {
	db        *database.Store
	encryptor *crypto.Encryptor
	newDoc    func() database.Document
}

// New creates a Store over the given database and encryptor.
func New(db *database.Store, encryptor *crypto.Encryptor, newDoc func() database.Document) *Store {
	return &Store{
		db:        db,
		encryptor: encryptor,
		newDoc:    newDoc,
	}
}

// GetToken retrieves and decrypts the token for a user. It returns
// ErrNotFound when no record exists.
func (s *Store) GetToken(ctx context.Context, userID string) (*canva.TokenResponse, error) {
	doc := s.newDoc()
	if err := s.db.Read(ctx, doc); err != nil {
		return nil, err
	}

	for _, user := range *doc.UserRecords() {
		if user.ID != userID {
			continue
		}
		plaintext, err := s.encryptor.Decrypt(user.Token)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt stored token for user: %w", err)
		}
		var token canva.TokenResponse
		if err := json.Unmarshal([]byte(plaintext), &token); err != nil {
			return nil, fmt.Errorf("failed to parse stored token for user: %w", err)
		}
		return &token, nil
	}

	return nil, ErrNotFound
}

// SetToken encrypts and saves a user's token, replacing any existing record
// for that user. At most one record exists per user id.
func (s *Store) SetToken(ctx context.Context, token *canva.TokenResponse, userID string) error {
	plaintext, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}
	encrypted, err := s.encryptor.Encrypt(string(plaintext))
	if err != nil {
		return fmt.Errorf("failed to encrypt token: %w", err)
	}

	doc := s.newDoc()
	return s.db.Update(ctx, doc, func() error {
		users := doc.UserRecords()
		for i := range *users {
			if (*users)[i].ID == userID {
				(*users)[i].Token = encrypted
				return nil
			}
		}
		*users = append(*users, database.UserRecord{ID: userID, Token: encrypted})
		return nil
	})
}

// DeleteToken removes the record for a user. Deleting a user with no record
// is a no-op, not an error.
func (s *Store) DeleteToken(ctx context.Context, userID string) error {
	doc := s.newDoc()
	return s.db.Update(ctx, doc, func() error {
		users := doc.UserRecords()
		for i := range *users {
			if (*users)[i].ID == userID {
				*users = append((*users)[:i], (*users)[i+1:]...)
				return nil
			}
		}
		return nil
	})
}
