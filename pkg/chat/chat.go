// Package chat keeps the site's chat logs: one global room and, optionally,
// one room per book.
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"kitapsever/pkg/domain"
	"kitapsever/pkg/storage"
)

// MaxMessages is the number of most recent messages a room keeps.
const MaxMessages = 100

const (
	globalKey     = "kitapsever_chat_messages"
	bookKeyPrefix = "kitapsever_book_chat_"

	GlobalWelcome = "Kitapsever sohbete hoş geldiniz! Kitaplar hakkında konuşmak için mesaj yazabilirsiniz."
	BookWelcome   = "Bu kitap hakkında sohbet başlatın! Düşüncelerinizi, sorularınızı veya yorumlarınızı paylaşın."
)

type Store struct {
	store  storage.Storage
	now    func() time.Time
	logger *slog.Logger
}

func New(s storage.Storage, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{store: s, now: time.Now, logger: logger}
}

// Room returns the global room for an empty bookID, otherwise that book's room.
func (s *Store) Room(bookID string) *Room {
	if bookID == "" {
		return &Room{s: s, key: globalKey, welcome: GlobalWelcome}
	}
	return &Room{s: s, key: bookKeyPrefix + bookID, welcome: BookWelcome, bookID: bookID}
}

// UserMessage stamps text as sent by the visitor now.
func (s *Store) UserMessage(text string) domain.ChatMessage {
	return domain.ChatMessage{Sender: domain.SenderUser, Text: text, Time: s.now().UTC()}
}

// SystemMessage stamps text as a system reply now.
func (s *Store) SystemMessage(text string) domain.ChatMessage {
	return domain.ChatMessage{Sender: domain.SenderSystem, Text: text, Time: s.now().UTC()}
}

type Room struct {
	s       *Store
	key     string
	welcome string
	bookID  string
}

func (r *Room) BookID() string { return r.bookID }

// Open returns the room's log. An empty room first gets its welcome message,
// which is stored like any other message and ages out the same way.
func (r *Room) Open(ctx context.Context) ([]domain.ChatMessage, error) {
	msgs, err := r.Messages(ctx)
	if err != nil {
		return nil, err
	}
	if len(msgs) > 0 {
		return msgs, nil
	}
	return r.Append(ctx, r.s.SystemMessage(r.welcome))
}

// Append adds msg and returns the log truncated to the last MaxMessages.
func (r *Room) Append(ctx context.Context, msg domain.ChatMessage) ([]domain.ChatMessage, error) {
	msgs, err := r.Messages(ctx)
	if err != nil {
		return nil, err
	}
	msgs = append(msgs, msg)
	if len(msgs) > MaxMessages {
		msgs = msgs[len(msgs)-MaxMessages:]
	}
	data, err := json.Marshal(msgs)
	if err != nil {
		return nil, err
	}
	if err := r.s.store.Set(ctx, r.key, string(data)); err != nil {
		return nil, fmt.Errorf("save chat: %w", err)
	}
	return msgs, nil
}

// Messages returns the stored log without adding a welcome message.
func (r *Room) Messages(ctx context.Context) ([]domain.ChatMessage, error) {
	raw, ok, err := r.s.store.Get(ctx, r.key)
	if err != nil {
		return nil, fmt.Errorf("read chat: %w", err)
	}
	if !ok || raw == "" {
		return nil, nil
	}
	var msgs []domain.ChatMessage
	if err := json.Unmarshal([]byte(raw), &msgs); err != nil {
		r.s.logger.Warn("chat log corrupt, starting over", "key", r.key, "err", err)
		return nil, nil
	}
	return msgs, nil
}
