package prefs

import (
	"context"
	"testing"

	"kitapsever/pkg/domain"
	"kitapsever/pkg/storage"
)

func TestSessionRoundTripAndClear(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemoryStorage(0)
	p := New(mem)

	if _, ok, err := p.Session(ctx); err != nil || ok {
		t.Fatalf("expected no session, got ok=%v err=%v", ok, err)
	}
	want := Session{Token: "tok", User: domain.Profile{ID: "u1", FirstName: "Ayşe", Email: "ayse@example.com"}}
	if err := p.SaveSession(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	if raw, _, _ := mem.Get(ctx, "token"); raw != "tok" {
		t.Fatalf("token stored as %q", raw)
	}
	got, ok, err := p.Session(ctx)
	if err != nil || !ok {
		t.Fatalf("session: ok=%v err=%v", ok, err)
	}
	if got != want {
		t.Fatalf("got %+v want %+v", got, want)
	}
	if err := p.ClearSession(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok, _ := p.Session(ctx); ok {
		t.Fatalf("session should be gone")
	}
}

func TestCorruptUserIsLoggedOut(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemoryStorage(0)
	_ = mem.Set(ctx, "token", "tok")
	_ = mem.Set(ctx, "user", "{not json")
	if _, ok, err := New(mem).Session(ctx); ok || err != nil {
		t.Fatalf("expected logged out, got ok=%v err=%v", ok, err)
	}
}

func TestDarkMode(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemoryStorage(0)
	p := New(mem)
	if on, err := p.DarkMode(ctx); err != nil || on {
		t.Fatalf("default dark mode: %v %v", on, err)
	}
	if err := p.SetDarkMode(ctx, true); err != nil {
		t.Fatalf("set: %v", err)
	}
	if raw, _, _ := mem.Get(ctx, "kitapsever_dark_mode"); raw != "true" {
		t.Fatalf("stored %q", raw)
	}
	if on, _ := p.DarkMode(ctx); !on {
		t.Fatalf("expected dark mode on")
	}
}
