// ABOUTME: Interface definition for journal entry storage.
// ABOUTME: Defines the contract for listing, writing, updating, and deleting entries.
package storage

import (
	"github.com/2389-research/jotter/internal/models"
)

// JournalStore defines operations for journal entry persistence.
type JournalStore interface {
	// List returns the full ordered collection. It never fails; unreadable
	// storage yields an empty collection.
	List() []models.Entry

	// Get returns the entry with the given id.
	Get(id models.EntryID) (models.Entry, bool)

	// Add assigns an id and timestamp, classifies the mood if unset, and
	// prepends the entry to the collection.
	Add(partial models.Entry) (models.Entry, error)

	// Update merges patch over the entry with the given id. It returns false
	// without writing if no entry matches.
	Update(id models.EntryID, patch models.EntryPatch) (bool, error)

	// Delete removes the entry with the given id. It returns false without
	// writing if no entry matches.
	Delete(id models.EntryID) (bool, error)

	// Clear drops the whole collection from durable storage.
	Clear() bool

	// Apply runs fn over a copy of the collection and commits the result
	// through the size-checked write path. A nil result means no write.
	Apply(fn func(current []models.Entry) ([]models.Entry, error)) error

	// Search returns entries whose text contains query (case-insensitive),
	// optionally limited to one mood.
	Search(query string, mood models.Mood) []models.Entry

	// Recent returns at most n entries from the front of the collection.
	Recent(n int) []models.Entry

	// Degraded reports whether changes are only being kept in memory.
	Degraded() bool

	// Close releases any resources held by the store.
	Close() error
}
