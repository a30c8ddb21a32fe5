package view

import "kitapsever/pkg/domain"

// Intent is something the visitor asked for.
type Intent interface {
	intent()
}

type (
	GoHome struct{}

	Search struct{ Query string }

	// HeroSearch is the home page search box; repeated submissions within
	// the debounce delay collapse into the last one.
	HeroSearch struct{ Query string }

	SelectCategory struct{ Category string }

	// LoadMore appends the next page of the current listing. Debounced.
	LoadMore struct{}

	OpenBook struct{ ID string }

	Back struct{}

	ToggleChat struct{}

	// OpenBookChat opens the chat room of the book on screen.
	OpenBookChat struct{}

	SendChat struct{ Text string }

	SubmitReview struct {
		Name   string
		Rating int
		Text   string
	}

	// ToggleList moves the book on screen into List, or takes it out when it
	// is already there.
	ToggleList struct{ List domain.ListType }

	RemoveFromList struct {
		List   domain.ListType
		BookID string
	}

	ShowReadingLists struct{}

	ToggleDarkMode struct{}

	Login struct {
		Email    string
		Password string
	}

	Register struct {
		FirstName string
		LastName  string
		Email     string
		Password  string
	}

	Logout struct{}
)

func (GoHome) intent()           {}
func (Search) intent()           {}
func (HeroSearch) intent()       {}
func (SelectCategory) intent()   {}
func (LoadMore) intent()         {}
func (OpenBook) intent()         {}
func (Back) intent()             {}
func (ToggleChat) intent()       {}
func (OpenBookChat) intent()     {}
func (SendChat) intent()         {}
func (SubmitReview) intent()     {}
func (ToggleList) intent()       {}
func (RemoveFromList) intent()   {}
func (ShowReadingLists) intent() {}
func (ToggleDarkMode) intent()   {}
func (Login) intent()            {}
func (Register) intent()         {}
func (Logout) intent()           {}
