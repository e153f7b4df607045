package catalog

import (
	"context"
	"errors"

	"librarium/internal/entity"
	"librarium/internal/platform/openlibrary"
)

var (
	ErrValidation        = errors.New("validation error")
	ErrNotFound          = errors.New("not found")
	ErrAlreadyExists     = errors.New("already exists")
	ErrLookupUnavailable = errors.New("metadata lookup unavailable")
)

// FilterAll is the sentinel that disables a filter dimension, alongside the
// empty string.
const FilterAll = "All"

// Filter narrows a book listing. Filters combine conjunctively and are
// order-independent.
type Filter struct {
	// Search matches case-insensitively against title or author.
	Search string
	// Status matches the reading status exactly.
	Status string
	// Collection matches books tagged with the collection name.
	Collection string
}

// Match reports whether the book passes every active filter dimension.
func (f Filter) Match(b entity.Book) bool {
	if f.Search != "" && !matchesSearch(b, f.Search) {
		return false
	}
	if f.Status != "" && f.Status != FilterAll && string(b.Status) != f.Status {
		return false
	}
	if f.Collection != "" && f.Collection != FilterAll && !b.InCollection(f.Collection) {
		return false
	}
	return true
}

// AddBookInput carries the fields of a new book. ISBN is a hint used to
// prefetch whatever of title, author and cover the caller left out.
// CoverData, when present, is a raw uploaded image; it wins over any
// external cover URL.
type AddBookInput struct {
	Title       string
	Author      string
	ISBN        string
	Rating      int
	Status      entity.BookStatus
	DateAdded   entity.Date
	Collections []string
	CoverData   []byte
}

// MetadataLookup resolves an ISBN to book metadata. Implementations return
// openlibrary.ErrNoRecord when the service has no data for the ISBN.
type MetadataLookup interface {
	Lookup(ctx context.Context, isbn string) (openlibrary.BookData, error)
}

// CollectionView is a collection together with its implicit members.
type CollectionView struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Books       []entity.Book `json:"books"`
}
