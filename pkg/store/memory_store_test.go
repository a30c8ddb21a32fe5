package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"kitapsever/pkg/domain"
)

func TestMemoryStoreUsers(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	u := domain.User{ID: "u1", Email: "a@example.com", FirstName: "A", PasswordHash: "h"}
	if err := s.CreateUser(ctx, u); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.CreateUser(ctx, domain.User{ID: "u2", Email: "a@example.com"}); !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
	if ok, _ := s.HasUserEmail(ctx, "a@example.com"); !ok {
		t.Fatalf("expected email to exist")
	}
	got, ok, err := s.GetUserByEmail(ctx, "a@example.com")
	if err != nil || !ok || got.ID != "u1" {
		t.Fatalf("get by email = %+v %v %v", got, ok, err)
	}
	if _, ok, _ := s.GetUserByID(ctx, "u2"); ok {
		t.Fatalf("rejected user must not be stored")
	}
}

func TestMemoryStoreCommentsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	_ = s.AddComment(ctx, domain.Comment{ID: "c1", BookID: "b", CreatedAt: base})
	_ = s.AddComment(ctx, domain.Comment{ID: "c2", BookID: "b", CreatedAt: base.Add(time.Minute)})
	_ = s.AddComment(ctx, domain.Comment{ID: "c3", BookID: "b", CreatedAt: base.Add(time.Minute)})
	_ = s.AddComment(ctx, domain.Comment{ID: "x", BookID: "other", CreatedAt: base})

	got, err := s.ListCommentsByBook(ctx, "b")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 3 || got[0].ID != "c3" || got[1].ID != "c2" || got[2].ID != "c1" {
		t.Fatalf("unexpected order %+v", got)
	}
}

func TestCommentModelConversionKeepsOptionalUser(t *testing.T) {
	anon := commentFromModel(commentToModel(domain.Comment{ID: "c", BookID: "b"}))
	if anon.UserID != "" {
		t.Fatalf("anonymous comment gained a user id: %q", anon.UserID)
	}
	owned := commentToModel(domain.Comment{ID: "c", UserID: "u1"})
	if owned.UserID == nil || *owned.UserID != "u1" {
		t.Fatalf("user id not mapped: %+v", owned)
	}
}
