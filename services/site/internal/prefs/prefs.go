// Package prefs keeps the site's session and display preferences in the
// same storage keys the web client used.
package prefs

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"kitapsever/pkg/domain"
	"kitapsever/pkg/storage"
)

const (
	keyToken    = "token"
	keyUser     = "user"
	keyDarkMode = "kitapsever_dark_mode"
)

// Session is a logged-in visitor as remembered by the client.
type Session struct {
	Token string
	User  domain.Profile
}

type Prefs struct {
	store storage.Storage
}

func New(s storage.Storage) *Prefs {
	return &Prefs{store: s}
}

// Session returns the stored session. A token without a readable profile
// counts as logged out.
func (p *Prefs) Session(ctx context.Context) (Session, bool, error) {
	token, ok, err := p.store.Get(ctx, keyToken)
	if err != nil || !ok || token == "" {
		return Session{}, false, err
	}
	raw, ok, err := p.store.Get(ctx, keyUser)
	if err != nil || !ok {
		return Session{}, false, err
	}
	var user domain.Profile
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return Session{}, false, nil
	}
	return Session{Token: token, User: user}, true, nil
}

func (p *Prefs) SaveSession(ctx context.Context, s Session) error {
	raw, err := json.Marshal(s.User)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	if err := p.store.Set(ctx, keyToken, s.Token); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	if err := p.store.Set(ctx, keyUser, string(raw)); err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func (p *Prefs) ClearSession(ctx context.Context) error {
	if err := p.store.Remove(ctx, keyToken); err != nil {
		return err
	}
	return p.store.Remove(ctx, keyUser)
}

// DarkMode reports the stored flag; anything but "true" is off.
func (p *Prefs) DarkMode(ctx context.Context) (bool, error) {
	v, ok, err := p.store.Get(ctx, keyDarkMode)
	if err != nil || !ok {
		return false, err
	}
	on, _ := strconv.ParseBool(v)
	return on, nil
}

func (p *Prefs) SetDarkMode(ctx context.Context, on bool) error {
	return p.store.Set(ctx, keyDarkMode, strconv.FormatBool(on))
}
