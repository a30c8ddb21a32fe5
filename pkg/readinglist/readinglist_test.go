package readinglist

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"kitapsever/pkg/catalog"
	"kitapsever/pkg/domain"
	"kitapsever/pkg/storage"
)

func newStore() (*Store, *storage.MemoryStorage) {
	mem := storage.NewMemoryStorage(0)
	return New(mem, slog.New(slog.NewTextHandler(io.Discard, nil))), mem
}

func ids(books []catalog.BookSummary) []string {
	out := make([]string, len(books))
	for i, b := range books {
		out[i] = b.ID
	}
	return out
}

func TestAddMovesBetweenLists(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore()
	b := catalog.BookSummary{ID: "b1", Title: "Kürk Mantolu Madonna"}

	if err := s.Add(ctx, domain.ListWantToRead, b); err != nil {
		t.Fatalf("add want: %v", err)
	}
	if err := s.Add(ctx, domain.ListRead, b); err != nil {
		t.Fatalf("add read: %v", err)
	}

	want, _ := s.List(ctx, domain.ListWantToRead)
	read, _ := s.List(ctx, domain.ListRead)
	if len(want) != 0 {
		t.Fatalf("book must leave want-to-read, got %v", ids(want))
	}
	if len(read) != 1 || read[0].Title != "Kürk Mantolu Madonna" {
		t.Fatalf("book must be in read, got %+v", read)
	}
	list, ok, err := s.ListTypeFor(ctx, "b1")
	if err != nil || !ok || list != domain.ListRead {
		t.Fatalf("ListTypeFor = %q %v %v", list, ok, err)
	}
}

func TestAddIsIdempotentWithinList(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore()
	for _, id := range []string{"a", "b", "a"} {
		if err := s.Add(ctx, domain.ListCurrentlyReading, catalog.BookSummary{ID: id}); err != nil {
			t.Fatalf("add %s: %v", id, err)
		}
	}
	got, _ := s.List(ctx, domain.ListCurrentlyReading)
	if g := ids(got); len(g) != 2 || g[0] != "a" || g[1] != "b" {
		t.Fatalf("expected [a b], got %v", g)
	}
}

func TestExclusiveAcrossSequence(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore()
	seq := []domain.ListType{domain.ListRead, domain.ListWantToRead, domain.ListCurrentlyReading, domain.ListWantToRead}
	for _, l := range seq {
		if err := s.Add(ctx, l, catalog.BookSummary{ID: "x"}); err != nil {
			t.Fatalf("add: %v", err)
		}
		total := 0
		for _, lt := range domain.ListTypes {
			books, _ := s.List(ctx, lt)
			total += len(books)
		}
		if total != 1 {
			t.Fatalf("after adding to %s the book appears %d times", l, total)
		}
	}
}

func TestRemoveAndFind(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore()
	_ = s.Add(ctx, domain.ListRead, catalog.BookSummary{ID: "r1", Title: "Saatleri Ayarlama Enstitüsü"})

	found, ok, err := s.Find(ctx, "r1")
	if err != nil || !ok || found.Title != "Saatleri Ayarlama Enstitüsü" {
		t.Fatalf("find = %+v %v %v", found, ok, err)
	}
	if err := s.Remove(ctx, domain.ListRead, "r1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, ok, _ := s.ListTypeFor(ctx, "r1"); ok {
		t.Fatalf("book should be gone")
	}
}

func TestInvalidListTypeDoesNotMutate(t *testing.T) {
	ctx := context.Background()
	s, mem := newStore()
	err := s.Add(ctx, domain.ListType("favorites"), catalog.BookSummary{ID: "x"})
	if !errors.Is(err, ErrInvalidListType) {
		t.Fatalf("expected ErrInvalidListType, got %v", err)
	}
	if err := s.Remove(ctx, "", "x"); !errors.Is(err, ErrInvalidListType) {
		t.Fatalf("expected ErrInvalidListType on remove, got %v", err)
	}
	if keys, _ := mem.Keys(ctx); len(keys) != 0 {
		t.Fatalf("storage must be untouched, got %v", keys)
	}
}

func TestCorruptListReadsAsEmpty(t *testing.T) {
	ctx := context.Background()
	s, mem := newStore()
	_ = mem.Set(ctx, "kitapsever_reading_list_read", "{oops")
	books, err := s.List(ctx, domain.ListRead)
	if err != nil || len(books) != 0 {
		t.Fatalf("expected empty list, got %v %v", books, err)
	}
}
