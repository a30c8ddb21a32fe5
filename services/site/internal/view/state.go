package view

import (
	"kitapsever/pkg/catalog"
	"kitapsever/pkg/domain"
)

// PageSize is the number of results a search page or "load more" adds.
const PageSize = catalog.DefaultPageSize

// Section is the top-level area of the site currently on screen.
type Section int

const (
	SectionHome Section = iota
	SectionSearchResults
	SectionBookDetails
	SectionChat
	SectionReadingList
)

func (s Section) String() string {
	switch s {
	case SectionHome:
		return "home"
	case SectionSearchResults:
		return "search-results"
	case SectionBookDetails:
		return "book-details"
	case SectionChat:
		return "chat"
	case SectionReadingList:
		return "reading-list"
	}
	return "unknown"
}

type ToastKind string

const (
	ToastSuccess ToastKind = "success"
	ToastInfo    ToastKind = "info"
	ToastWarning ToastKind = "warning"
	ToastDanger  ToastKind = "danger"
)

// Toast is a transient notification shown with the next render only.
type Toast struct {
	Kind ToastKind
	Text string
}

type HomeState struct {
	Featured []catalog.BookSummary
	Loading  bool
	Error    string
}

// ResultsState is the current search or category listing. Exactly one of
// Query and Category is set once a listing has been requested.
type ResultsState struct {
	Title       string
	Query       string
	Category    string
	Books       []catalog.BookSummary
	Total       int
	Offset      int
	Loading     bool
	LoadingMore bool
	Error       string
}

// HasContext reports whether there is a listing to go back to. A chosen
// category counts even when it came back empty; a search needs results.
func (r ResultsState) HasContext() bool {
	if r.Category != "" {
		return true
	}
	return r.Query != "" && len(r.Books) > 0
}

// BookState is the details page with its reviews.
type BookState struct {
	ID      string
	Book    *catalog.BookSummary
	Loading bool
	Error   string

	ListType domain.ListType
	InList   bool

	Reviews []domain.Review

	// Server comments replace local reviews when enabled.
	ServerComments  bool
	Comments        []domain.Comment
	CommentsLoading bool
	CommentsError   string
	CommentPending  bool

	ReviewName    string
	LoginRequired bool
}

type ChatState struct {
	BookID   string
	Title    string
	Messages []domain.ChatMessage
	Error    string
}

// ReadingList is one collection as displayed on the reading list page.
type ReadingList struct {
	Type  domain.ListType
	Name  string
	Books []catalog.BookSummary
}

type ListsState struct {
	Lists []ReadingList
	Error string
}

type AuthState struct {
	Available bool
	Pending   bool
	Error     string
}

// State is everything the controller shows. It is owned by the controller's
// event loop and copied into a View for rendering.
type State struct {
	Section  Section
	DarkMode bool
	User     *domain.Profile

	Home    HomeState
	Results ResultsState
	Book    BookState
	Chat    ChatState
	Lists   ListsState
	Auth    AuthState
}

// View is a render snapshot: the state plus the toasts raised since the
// previous render and a few derived values.
type View struct {
	State
	Toasts []Toast

	ShowLoadMore  bool
	LoadMoreLabel string
}

func (s State) view(toasts []Toast) View {
	v := View{State: s, Toasts: toasts}
	r := s.Results
	v.ShowLoadMore = s.Section == SectionSearchResults && !r.Loading && r.Error == "" &&
		(r.LoadingMore || r.Total > r.Offset+PageSize)
	v.LoadMoreLabel = "Daha Fazla Göster"
	if r.LoadingMore {
		v.LoadMoreLabel = "Yükleniyor..."
	}
	return v
}
