// Package readinglist keeps the visitor's three reading collections. A book
// id lives in at most one of them.
package readinglist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"kitapsever/pkg/catalog"
	"kitapsever/pkg/domain"
	"kitapsever/pkg/storage"
)

const keyPrefix = "kitapsever_reading_list_"

var ErrInvalidListType = errors.New("invalid reading list type")

type Store struct {
	store  storage.Storage
	logger *slog.Logger
}

func New(s storage.Storage, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{store: s, logger: logger}
}

// Add puts book into list. It is a no-op when the book is already there;
// otherwise the book is first removed from every list, then appended.
func (s *Store) Add(ctx context.Context, list domain.ListType, book catalog.BookSummary) error {
	if err := s.check(list); err != nil {
		return err
	}
	books, err := s.List(ctx, list)
	if err != nil {
		return err
	}
	if indexOf(books, book.ID) >= 0 {
		return nil
	}
	if err := s.RemoveEverywhere(ctx, book.ID); err != nil {
		return err
	}
	// re-read: RemoveEverywhere rewrote this list too
	books, err = s.List(ctx, list)
	if err != nil {
		return err
	}
	return s.save(ctx, list, append(books, book))
}

// Remove drops bookID from list.
func (s *Store) Remove(ctx context.Context, list domain.ListType, bookID string) error {
	if err := s.check(list); err != nil {
		return err
	}
	books, err := s.List(ctx, list)
	if err != nil {
		return err
	}
	return s.save(ctx, list, without(books, bookID))
}

// RemoveEverywhere drops bookID from all three lists.
func (s *Store) RemoveEverywhere(ctx context.Context, bookID string) error {
	for _, list := range domain.ListTypes {
		books, err := s.List(ctx, list)
		if err != nil {
			return err
		}
		if indexOf(books, bookID) < 0 {
			continue
		}
		if err := s.save(ctx, list, without(books, bookID)); err != nil {
			return err
		}
	}
	return nil
}

// List returns the books in list in insertion order.
func (s *Store) List(ctx context.Context, list domain.ListType) ([]catalog.BookSummary, error) {
	if err := s.check(list); err != nil {
		return nil, err
	}
	raw, ok, err := s.store.Get(ctx, keyPrefix+string(list))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", list, err)
	}
	if !ok || raw == "" {
		return []catalog.BookSummary{}, nil
	}
	var books []catalog.BookSummary
	if err := json.Unmarshal([]byte(raw), &books); err != nil {
		s.logger.Warn("reading list corrupt, treating as empty", "list", list, "err", err)
		return []catalog.BookSummary{}, nil
	}
	return books, nil
}

// ListTypeFor reports which list holds bookID, if any.
func (s *Store) ListTypeFor(ctx context.Context, bookID string) (domain.ListType, bool, error) {
	for _, list := range domain.ListTypes {
		books, err := s.List(ctx, list)
		if err != nil {
			return "", false, err
		}
		if indexOf(books, bookID) >= 0 {
			return list, true, nil
		}
	}
	return "", false, nil
}

// Find returns the stored summary for bookID from whichever list holds it.
func (s *Store) Find(ctx context.Context, bookID string) (catalog.BookSummary, bool, error) {
	for _, list := range domain.ListTypes {
		books, err := s.List(ctx, list)
		if err != nil {
			return catalog.BookSummary{}, false, err
		}
		if i := indexOf(books, bookID); i >= 0 {
			return books[i], true, nil
		}
	}
	return catalog.BookSummary{}, false, nil
}

func (s *Store) check(list domain.ListType) error {
	if list.Valid() {
		return nil
	}
	s.logger.Error("invalid reading list type", "list", string(list))
	return fmt.Errorf("%w: %q", ErrInvalidListType, string(list))
}

func (s *Store) save(ctx context.Context, list domain.ListType, books []catalog.BookSummary) error {
	data, err := json.Marshal(books)
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, keyPrefix+string(list), string(data)); err != nil {
		return fmt.Errorf("save %s: %w", list, err)
	}
	return nil
}

func indexOf(books []catalog.BookSummary, id string) int {
	for i, b := range books {
		if b.ID == id {
			return i
		}
	}
	return -1
}

func without(books []catalog.BookSummary, id string) []catalog.BookSummary {
	out := make([]catalog.BookSummary, 0, len(books))
	for _, b := range books {
		if b.ID != id {
			out = append(out, b)
		}
	}
	return out
}
