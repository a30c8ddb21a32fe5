package review

import (
	"context"
	"testing"
	"time"

	"kitapsever/pkg/domain"
	"kitapsever/pkg/storage"
)

func TestAppendKeepsInsertionOrderPerBook(t *testing.T) {
	ctx := context.Background()
	s := New(storage.NewMemoryStorage(0), nil)
	when := time.Date(2025, 2, 3, 10, 0, 0, 0, time.UTC)

	_ = s.Append(ctx, "b1", domain.Review{Name: "Ayşe", Rating: 5, Text: "Harika", Date: when})
	_ = s.Append(ctx, "b1", domain.Review{Name: "Mehmet", Rating: 2, Text: "Sıkıcı", Date: when.Add(time.Hour)})
	_ = s.Append(ctx, "b2", domain.Review{Name: "Zeynep", Rating: 4, Text: "İyi", Date: when})

	got, err := s.List(ctx, "b1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].Name != "Ayşe" || got[1].Name != "Mehmet" {
		t.Fatalf("unexpected reviews %+v", got)
	}
	if !got[0].Date.Equal(when) {
		t.Fatalf("date not preserved: %v", got[0].Date)
	}
	other, _ := s.List(ctx, "b2")
	if len(other) != 1 {
		t.Fatalf("reviews leaked across books: %+v", other)
	}
	empty, _ := s.List(ctx, "none")
	if empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", empty)
	}
}
