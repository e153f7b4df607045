package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"librarium/internal/entity"
	"librarium/internal/platform/cover"
	"librarium/internal/platform/openlibrary"
	"librarium/internal/store"
)

// Service implements the catalog operations over the credential store's
// per-user book lists and collection maps. Every mutation is a whole-document
// read-modify-write.
type Service struct {
	creds  *store.CredentialStore
	lookup MetadataLookup
	log    zerolog.Logger
	now    func() time.Time
}

// NewService creates the catalog service. lookup may be nil, which disables
// ISBN prefetch entirely.
func NewService(creds *store.CredentialStore, lookup MetadataLookup, log zerolog.Logger) *Service {
	return &Service{
		creds:  creds,
		lookup: lookup,
		log:    log,
		now:    time.Now,
	}
}

// AddBook validates and appends a new book to the user's catalog. An ISBN
// triggers a best-effort metadata prefetch filling whatever the caller left
// blank, including the external cover URL when no image was uploaded;
// prefetch failure is never fatal. An uploaded cover makes the lookup
// pointless only when title and author are also supplied.
func (s *Service) AddBook(ctx context.Context, username string, in AddBookInput) (entity.Book, error) {
	user, err := s.creds.Get(username)
	if err != nil {
		return entity.Book{}, err
	}

	var prefetched openlibrary.BookData
	if s.lookup != nil && in.ISBN != "" && (in.Title == "" || in.Author == "" || len(in.CoverData) == 0) {
		data, err := s.lookup.Lookup(ctx, in.ISBN)
		switch {
		case err == nil:
			prefetched = data
		case errors.Is(err, openlibrary.ErrNoRecord):
			s.log.Debug().Str("isbn", in.ISBN).Msg("no metadata record for isbn")
		default:
			s.log.Warn().Err(err).Str("isbn", in.ISBN).Msg("isbn metadata lookup failed")
		}
	}
	if in.Title == "" {
		in.Title = prefetched.Title
	}
	if in.Author == "" {
		in.Author = prefetched.Author
	}

	if in.Title == "" || in.Author == "" {
		return entity.Book{}, fmt.Errorf("%w: title and author are required", ErrValidation)
	}
	if in.Rating == 0 {
		in.Rating = 3
	}
	if in.Rating < 1 || in.Rating > 5 {
		return entity.Book{}, fmt.Errorf("%w: rating must be between 1 and 5", ErrValidation)
	}
	if in.Status == "" {
		in.Status = entity.StatusUnread
	}
	if !in.Status.Valid() {
		return entity.Book{}, fmt.Errorf("%w: unknown status %q", ErrValidation, in.Status)
	}
	for _, name := range in.Collections {
		if _, ok := user.Collections[name]; !ok {
			return entity.Book{}, fmt.Errorf("%w: unknown collection %q", ErrValidation, name)
		}
	}
	if in.DateAdded.IsZero() {
		in.DateAdded = entity.DateOf(s.now())
	}

	book := entity.Book{
		ID:          uuid.NewString(),
		Title:       in.Title,
		Author:      in.Author,
		ISBN:        in.ISBN,
		Rating:      in.Rating,
		Status:      in.Status,
		DateAdded:   in.DateAdded,
		Collections: in.Collections,
		PublishDate: prefetched.PublishDate,
		Publisher:   prefetched.Publisher,
	}

	// Exactly one cover representation is stored.
	if len(in.CoverData) > 0 {
		img, err := cover.Normalize(in.CoverData)
		if err != nil {
			return entity.Book{}, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		book.CoverImage = img
	} else if prefetched.CoverURL != "" {
		book.CoverURL = prefetched.CoverURL
	}

	user.Books = append(user.Books, book)
	if err := s.creds.Put(user); err != nil {
		return entity.Book{}, err
	}

	s.log.Info().Str("username", username).Str("book_id", book.ID).Str("title", book.Title).Msg("book added")
	return book, nil
}

// GetBook returns the book with the given ID, or ErrNotFound.
func (s *Service) GetBook(ctx context.Context, username, id string) (entity.Book, error) {
	user, err := s.creds.Get(username)
	if err != nil {
		return entity.Book{}, err
	}
	for _, b := range user.Books {
		if b.ID == id {
			return b, nil
		}
	}
	return entity.Book{}, fmt.Errorf("%w: book %s", ErrNotFound, id)
}

// RemoveBook deletes the book with the given ID, preserving the order of the
// remaining books. A missing book is an error, not a silent no-op.
func (s *Service) RemoveBook(ctx context.Context, username, id string) error {
	user, err := s.creds.Get(username)
	if err != nil {
		return err
	}
	idx := -1
	for i, b := range user.Books {
		if b.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: book %s", ErrNotFound, id)
	}
	user.Books = append(user.Books[:idx], user.Books[idx+1:]...)
	if err := s.creds.Put(user); err != nil {
		return err
	}

	s.log.Info().Str("username", username).Str("book_id", id).Msg("book removed")
	return nil
}

// ListBooks returns the user's books in insertion order, narrowed by the
// filter.
func (s *Service) ListBooks(ctx context.Context, username string, f Filter) ([]entity.Book, error) {
	user, err := s.creds.Get(username)
	if err != nil {
		return nil, err
	}
	out := make([]entity.Book, 0, len(user.Books))
	for _, b := range user.Books {
		if f.Match(b) {
			out = append(out, b)
		}
	}
	return out, nil
}

// CreateCollection registers a new named collection. Duplicate names are
// rejected rather than silently overwritten.
func (s *Service) CreateCollection(ctx context.Context, username, name, description string) error {
	if name == "" {
		return fmt.Errorf("%w: collection name is required", ErrValidation)
	}
	user, err := s.creds.Get(username)
	if err != nil {
		return err
	}
	if _, ok := user.Collections[name]; ok {
		return fmt.Errorf("%w: collection %q", ErrAlreadyExists, name)
	}
	if user.Collections == nil {
		user.Collections = map[string]entity.Collection{}
	}
	user.Collections[name] = entity.Collection{Description: description}
	return s.creds.Put(user)
}

// ListCollections returns every collection with its member books, sorted by
// name.
func (s *Service) ListCollections(ctx context.Context, username string) ([]CollectionView, error) {
	user, err := s.creds.Get(username)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(user.Collections))
	for name := range user.Collections {
		names = append(names, name)
	}
	sort.Strings(names)

	views := make([]CollectionView, 0, len(names))
	for _, name := range names {
		view := CollectionView{
			Name:        name,
			Description: user.Collections[name].Description,
			Books:       []entity.Book{},
		}
		for _, b := range user.Books {
			if b.InCollection(name) {
				view.Books = append(view.Books, b)
			}
		}
		views = append(views, view)
	}
	return views, nil
}

// LookupISBN resolves book metadata for form autofill.
func (s *Service) LookupISBN(ctx context.Context, isbn string) (openlibrary.BookData, error) {
	if s.lookup == nil {
		return openlibrary.BookData{}, ErrLookupUnavailable
	}
	return s.lookup.Lookup(ctx, isbn)
}

func matchesSearch(b entity.Book, query string) bool {
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(b.Title), q) ||
		strings.Contains(strings.ToLower(b.Author), q)
}
