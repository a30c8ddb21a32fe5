package domain

import "time"

// ListType names one of the three reading collections.
type ListType string

const (
	ListWantToRead       ListType = "want-to-read"
	ListCurrentlyReading ListType = "currently-reading"
	ListRead             ListType = "read"
)

// ListTypes is the fixed display order of the reading collections.
var ListTypes = []ListType{ListWantToRead, ListCurrentlyReading, ListRead}

func (l ListType) Valid() bool {
	switch l {
	case ListWantToRead, ListCurrentlyReading, ListRead:
		return true
	}
	return false
}

// DisplayName returns the Turkish label shown for the collection.
func (l ListType) DisplayName() string {
	switch l {
	case ListWantToRead:
		return "Okumak İstiyorum"
	case ListCurrentlyReading:
		return "Şu Anda Okuyorum"
	case ListRead:
		return "Okudum"
	}
	return string(l)
}

type User struct {
	ID           string    `json:"id"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Profile is the public part of a user, as returned to clients and kept in sessions.
type Profile struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

func (u User) Profile() Profile {
	return Profile{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName, Email: u.Email}
}

func (p Profile) DisplayName() string {
	switch {
	case p.FirstName != "" && p.LastName != "":
		return p.FirstName + " " + p.LastName
	case p.FirstName != "":
		return p.FirstName
	}
	return p.LastName
}

// Comment is a server-persisted review.
type Comment struct {
	ID        string    `json:"id"`
	BookID    string    `json:"bookId"`
	Username  string    `json:"username"`
	Rating    int       `json:"rating"`
	Text      string    `json:"text"`
	UserID    string    `json:"userId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Review is a locally persisted review.
type Review struct {
	Name   string    `json:"name"`
	Rating int       `json:"rating"`
	Text   string    `json:"text"`
	Date   time.Time `json:"date"`
}

type ChatSender string

const (
	SenderUser   ChatSender = "user"
	SenderSystem ChatSender = "system"
)

type ChatMessage struct {
	Sender ChatSender `json:"sender"`
	Text   string     `json:"text"`
	Time   time.Time  `json:"time"`
}
