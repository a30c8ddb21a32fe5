package store

import (
	"time"

	"kitapsever/pkg/domain"
)

// GORM models used for persistence.
type UserModel struct {
	ID           string    `gorm:"primaryKey"`
	FirstName    string    `gorm:"not null"`
	LastName     string    `gorm:"not null"`
	Email        string    `gorm:"uniqueIndex;not null"`
	PasswordHash string    `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
}

type CommentModel struct {
	ID        string    `gorm:"primaryKey"`
	BookID    string    `gorm:"not null;index:idx_comment_book_created,priority:1"`
	Username  string    `gorm:"not null"`
	Rating    int       `gorm:"not null"`
	Text      string    `gorm:"type:text;not null"`
	UserID    *string   `gorm:"index"`
	CreatedAt time.Time `gorm:"not null;index:idx_comment_book_created,priority:2,sort:desc"`
}

func userToModel(u domain.User) UserModel {
	return UserModel{
		ID:           u.ID,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
	}
}

func userFromModel(m UserModel) domain.User {
	return domain.User{
		ID:           m.ID,
		FirstName:    m.FirstName,
		LastName:     m.LastName,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		CreatedAt:    m.CreatedAt,
	}
}

func commentToModel(c domain.Comment) CommentModel {
	m := CommentModel{
		ID:        c.ID,
		BookID:    c.BookID,
		Username:  c.Username,
		Rating:    c.Rating,
		Text:      c.Text,
		CreatedAt: c.CreatedAt,
	}
	if c.UserID != "" {
		uid := c.UserID
		m.UserID = &uid
	}
	return m
}

func commentFromModel(m CommentModel) domain.Comment {
	c := domain.Comment{
		ID:        m.ID,
		BookID:    m.BookID,
		Username:  m.Username,
		Rating:    m.Rating,
		Text:      m.Text,
		CreatedAt: m.CreatedAt,
	}
	if m.UserID != nil {
		c.UserID = *m.UserID
	}
	return c
}
