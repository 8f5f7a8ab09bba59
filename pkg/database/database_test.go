package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testSchema struct {
	BaseSchema
	Products []string `json:"products"`
}

func TestReadSeedsOnFirstUse(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := New(dir, testSchema{Products: []string{"mug", "shirt"}})

	var doc testSchema
	require.NoError(t, store.Read(context.Background(), &doc))
	assert.Equal(t, []string{"mug", "shirt"}, doc.Products)
	assert.Empty(t, doc.Users)

	_, err := os.Stat(filepath.Join(dir, "db.json"))
	assert.NoError(t, err)
}

func TestReadDoesNotReseedExistingFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "db.json"),
		[]byte(`{"users":[],"products":["existing"]}`),
		0600,
	))

	store := New(dir, testSchema{Products: []string{"seed"}})

	var doc testSchema
	require.NoError(t, store.Read(context.Background(), &doc))
	assert.Equal(t, []string{"existing"}, doc.Products)
}

func TestUpdateReadModifyWrite(t *testing.T) {
	t.Parallel()

	store := New(t.TempDir(), testSchema{})

	var doc testSchema
	err := store.Update(context.Background(), &doc, func() error {
		doc.Products = append(doc.Products, "added")
		return nil
	})
	require.NoError(t, err)

	var got testSchema
	require.NoError(t, store.Read(context.Background(), &got))
	assert.Equal(t, []string{"added"}, got.Products)
}

func TestUpdateErrorLeavesDocumentUntouched(t *testing.T) {
	t.Parallel()

	store := New(t.TempDir(), testSchema{Products: []string{"original"}})

	// Seed the file first.
	var doc testSchema
	require.NoError(t, store.Read(context.Background(), &doc))

	err := store.Update(context.Background(), &doc, func() error {
		doc.Products = nil
		return fmt.Errorf("modify failed")
	})
	require.Error(t, err)

	var got testSchema
	require.NoError(t, store.Read(context.Background(), &got))
	assert.Equal(t, []string{"original"}, got.Products)
}

func TestConcurrentUpdatesDoNotLoseWrites(t *testing.T) {
	t.Parallel()

	store := New(t.TempDir(), testSchema{})

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			var doc testSchema
			err := store.Update(context.Background(), &doc, func() error {
				doc.Products = append(doc.Products, fmt.Sprintf("item-%d", n))
				return nil
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	var got testSchema
	require.NoError(t, store.Read(context.Background(), &got))
	assert.Len(t, got.Products, writers)
}
