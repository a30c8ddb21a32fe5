// Package review stores per-book reviews written on this device.
package review

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"kitapsever/pkg/domain"
	"kitapsever/pkg/storage"
)

const keyPrefix = "kitapsever_reviews_"

// Store is append-only; it does not validate reviews.
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

// Append adds r after the existing reviews of bookID.
func (s *Store) Append(ctx context.Context, bookID string, r domain.Review) error {
	reviews, err := s.List(ctx, bookID)
	if err != nil {
		return err
	}
	data, err := json.Marshal(append(reviews, r))
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, keyPrefix+bookID, string(data)); err != nil {
		return fmt.Errorf("save reviews: %w", err)
	}
	return nil
}

// List returns the reviews of bookID, oldest first.
func (s *Store) List(ctx context.Context, bookID string) ([]domain.Review, error) {
	raw, ok, err := s.store.Get(ctx, keyPrefix+bookID)
	if err != nil {
		return nil, fmt.Errorf("read reviews: %w", err)
	}
	if !ok || raw == "" {
		return []domain.Review{}, nil
	}
	var reviews []domain.Review
	if err := json.Unmarshal([]byte(raw), &reviews); err != nil {
		s.logger.Warn("reviews corrupt, treating as empty", "book_id", bookID, "err", err)
		return []domain.Review{}, nil
	}
	return reviews, nil
}
