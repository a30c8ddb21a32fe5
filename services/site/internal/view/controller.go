// Package view is the site's controller: it owns the page state, turns
// visitor intents into store and catalog calls, and hands render snapshots
// to a Renderer.
package view

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"kitapsever/pkg/catalog"
	"kitapsever/pkg/chat"
	"kitapsever/pkg/domain"
	"kitapsever/pkg/readinglist"
	"kitapsever/pkg/review"
	"kitapsever/services/site/internal/accountclient"
	"kitapsever/services/site/internal/prefs"
)

const (
	msgFieldsRequired  = "Lütfen tüm alanları doldurun."
	msgReviewAdded     = "Yorumunuz başarıyla eklendi."
	msgRemovedFromList = "Kitap okuma listenizden çıkarıldı."
	msgLoginRequired   = "Bu işlem için giriş yapmanız gerekiyor"
	msgNoAccounts      = "Hesap hizmeti yapılandırılmamış."
	msgLoggedOut       = "Çıkış yapıldı."
	msgLoginFailed     = "Giriş yapılırken bir hata oluştu"
	msgRegisterFailed  = "Kayıt sırasında bir hata oluştu"
	msgStorageFailed   = "Veriler kaydedilemedi: "

	errSearch       = "Arama sırasında bir hata oluştu: "
	errCategory     = "Kategori kitapları yüklenirken bir hata oluştu: "
	errMoreSearch   = "Daha fazla sonuç yüklenirken hata oluştu: "
	errMoreCategory = "Daha fazla kitap yüklenirken hata oluştu: "
	errDetails      = "Kitap detayları yüklenirken bir hata oluştu: "
	errFeatured     = "Öne çıkan kitaplar yüklenirken bir hata oluştu: "
	errComments     = "Yorumlar getirilirken bir hata oluştu: "

	searchTitle = "Arama Sonuçları"
	chatTitle   = "Kitapsever Sohbet"
	bookChat    = "Kitap Sohbeti: "
)

// Catalog is the part of the catalog client the controller needs.
type Catalog interface {
	SearchByQuery(ctx context.Context, query string, offset, limit int) (catalog.VolumeList, error)
	SearchByCategory(ctx context.Context, category string, offset, limit int) (catalog.VolumeList, error)
	GetByID(ctx context.Context, id string) (catalog.Volume, error)
	GetFeatured(ctx context.Context, limit int) (catalog.VolumeList, error)
}

// Accounts is the part of the account service client the controller needs.
type Accounts interface {
	Register(ctx context.Context, req accountclient.RegisterRequest) (accountclient.AuthResult, error)
	Login(ctx context.Context, email, password string) (accountclient.AuthResult, error)
	Me(ctx context.Context, token string) (domain.Profile, error)
	Logout(ctx context.Context, token string) error
	AddComment(ctx context.Context, token string, req accountclient.CommentRequest) (domain.Comment, error)
	Comments(ctx context.Context, bookID string) ([]domain.Comment, error)
}

type Renderer interface {
	Render(View)
}

// Config wires the controller. Accounts may be nil, which disables login
// and server-side comments.
type Config struct {
	Catalog   Catalog
	Lists     *readinglist.Store
	Reviews   *review.Store
	Chat      *chat.Store
	Responder chat.Responder
	Accounts  Accounts
	Prefs     *prefs.Prefs
	Renderer  Renderer
	Logger    *slog.Logger

	ServerComments bool
	BookChat       bool
	FeaturedLimit  int
	DebounceDelay  time.Duration
	ReplyDelay     time.Duration
	Now            func() time.Time
}

// Controller is a single-threaded event loop over State. Intents and fetch
// results arrive on one channel; only Run's goroutine touches the state.
type Controller struct {
	cfg    Config
	logger *slog.Logger
	now    func() time.Time

	events   chan any
	hero     *Debouncer
	loadMore *Debouncer

	state   State
	toasts  []Toast
	session prefs.Session
	// gen identifies the current listing so answers for a replaced search
	// are dropped.
	gen int
}

func New(cfg Config) (*Controller, error) {
	switch {
	case cfg.Catalog == nil:
		return nil, errors.New("catalog is required")
	case cfg.Lists == nil || cfg.Reviews == nil || cfg.Chat == nil:
		return nil, errors.New("reading list, review and chat stores are required")
	case cfg.Prefs == nil:
		return nil, errors.New("prefs are required")
	case cfg.Renderer == nil:
		return nil, errors.New("renderer is required")
	}
	if cfg.ServerComments && cfg.Accounts == nil {
		return nil, errors.New("server comments need an account client")
	}
	if cfg.Responder == nil {
		cfg.Responder = chat.DefaultResponder()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.FeaturedLimit <= 0 {
		cfg.FeaturedLimit = catalog.DefaultFeaturedLimit
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	c := &Controller{
		cfg:      cfg,
		logger:   cfg.Logger,
		now:      cfg.Now,
		events:   make(chan any, 64),
		hero:     NewDebouncer(cfg.DebounceDelay),
		loadMore: NewDebouncer(cfg.DebounceDelay),
	}
	c.state.Auth.Available = cfg.Accounts != nil
	return c, nil
}

// Dispatch queues an intent for the event loop.
func (c *Controller) Dispatch(ctx context.Context, in Intent) error {
	select {
	case c.events <- in:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run restores preferences, shows the home page and processes events until
// ctx is done.
func (c *Controller) Run(ctx context.Context) error {
	defer c.hero.Stop()
	defer c.loadMore.Stop()
	c.start(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-c.events:
			c.handle(ctx, ev)
		}
	}
}

func (c *Controller) start(ctx context.Context) {
	dark, err := c.cfg.Prefs.DarkMode(ctx)
	if err != nil {
		c.logger.Warn("read dark mode preference failed", "err", err)
	}
	c.state.DarkMode = dark

	sess, ok, err := c.cfg.Prefs.Session(ctx)
	if err != nil {
		c.logger.Warn("read session failed", "err", err)
	}
	if ok {
		c.session = sess
		user := sess.User
		c.state.User = &user
		if c.cfg.Accounts != nil {
			token := sess.Token
			c.spawn(ctx, func(ctx context.Context) any {
				p, err := c.cfg.Accounts.Me(ctx, token)
				return meLoaded{token: token, profile: p, err: err}
			})
		}
	}
	c.goHome(ctx)
}

// internal events

type (
	featuredLoaded struct {
		list catalog.VolumeList
		err  error
	}
	resultsLoaded struct {
		gen    int
		more   bool
		offset int
		list   catalog.VolumeList
		err    error
	}
	bookLoaded struct {
		id  string
		vol catalog.Volume
		err error
	}
	commentsLoaded struct {
		bookID   string
		comments []domain.Comment
		err      error
	}
	commentPosted struct {
		bookID  string
		comment domain.Comment
		err     error
	}
	chatReply struct {
		bookID string
		text   string
	}
	authDone struct {
		register bool
		result   accountclient.AuthResult
		err      error
	}
	meLoaded struct {
		token   string
		profile domain.Profile
		err     error
	}
	loadMoreNow struct{}
)

func (c *Controller) handle(ctx context.Context, ev any) {
	switch ev := ev.(type) {
	case GoHome:
		c.goHome(ctx)
	case Search:
		c.search(ctx, ev.Query, "")
	case HeroSearch:
		q := ev.Query
		c.hero.Trigger(func() { c.post(ctx, Search{Query: q}) })
	case SelectCategory:
		c.search(ctx, "", ev.Category)
	case LoadMore:
		c.loadMore.Trigger(func() { c.post(ctx, loadMoreNow{}) })
	case loadMoreNow:
		c.nextPage(ctx)
	case OpenBook:
		c.openBook(ctx, ev.ID)
	case Back:
		c.back(ctx)
	case ToggleChat:
		c.toggleChat(ctx)
	case OpenBookChat:
		c.openBookChat(ctx)
	case SendChat:
		c.sendChat(ctx, ev.Text)
	case SubmitReview:
		c.submitReview(ctx, ev)
	case ToggleList:
		c.toggleList(ctx, ev.List)
	case RemoveFromList:
		c.removeFromList(ctx, ev.List, ev.BookID)
	case ShowReadingLists:
		c.showReadingLists(ctx)
	case ToggleDarkMode:
		c.toggleDarkMode(ctx)
	case Login:
		c.login(ctx, ev)
	case Register:
		c.register(ctx, ev)
	case Logout:
		c.logout(ctx)

	case featuredLoaded:
		c.onFeatured(ev)
	case resultsLoaded:
		c.onResults(ev)
	case bookLoaded:
		c.onBook(ctx, ev)
	case commentsLoaded:
		c.onComments(ev)
	case commentPosted:
		c.onCommentPosted(ev)
	case chatReply:
		c.onChatReply(ctx, ev)
	case authDone:
		c.onAuth(ctx, ev)
	case meLoaded:
		c.onMe(ctx, ev)
	default:
		c.logger.Warn("unhandled event", "type", fmt.Sprintf("%T", ev))
	}
}

// spawn runs fn off the loop and posts its result back.
func (c *Controller) spawn(ctx context.Context, fn func(context.Context) any) {
	go func() {
		c.post(ctx, fn(ctx))
	}()
}

func (c *Controller) post(ctx context.Context, ev any) {
	select {
	case c.events <- ev:
	case <-ctx.Done():
	}
}

func (c *Controller) render() {
	toasts := c.toasts
	c.toasts = nil
	c.cfg.Renderer.Render(c.state.view(toasts))
}

func (c *Controller) toast(kind ToastKind, text string) {
	c.toasts = append(c.toasts, Toast{Kind: kind, Text: text})
}

// home

func (c *Controller) goHome(ctx context.Context) {
	c.state.Section = SectionHome
	if len(c.state.Home.Featured) == 0 && !c.state.Home.Loading {
		c.state.Home = HomeState{Loading: true}
		limit := c.cfg.FeaturedLimit
		c.spawn(ctx, func(ctx context.Context) any {
			list, err := c.cfg.Catalog.GetFeatured(ctx, limit)
			return featuredLoaded{list: list, err: err}
		})
	}
	c.render()
}

func (c *Controller) onFeatured(ev featuredLoaded) {
	c.state.Home.Loading = false
	if ev.err != nil {
		c.logger.Error("featured books failed", "err", ev.err)
		c.state.Home.Error = errFeatured + errorText(ev.err)
	} else {
		c.state.Home.Error = ""
		c.state.Home.Featured = catalog.FormatBooks(ev.list.Items)
	}
	if c.state.Section == SectionHome {
		c.render()
	}
}

// search and category listings

func (c *Controller) search(ctx context.Context, query, category string) {
	query = strings.TrimSpace(query)
	category = strings.TrimSpace(category)
	if query == "" && category == "" {
		return
	}
	c.gen++
	title := searchTitle
	if category != "" {
		title = catalog.CategoryTitle(category)
	}
	c.state.Results = ResultsState{Title: title, Query: query, Category: category, Loading: true}
	c.state.Section = SectionSearchResults
	c.render()
	c.fetchPage(ctx, 0, false)
}

func (c *Controller) nextPage(ctx context.Context) {
	r := &c.state.Results
	if c.state.Section != SectionSearchResults || r.Loading || r.LoadingMore || r.Error != "" {
		return
	}
	if r.Total <= r.Offset+PageSize {
		return
	}
	r.Offset += PageSize
	r.LoadingMore = true
	c.render()
	c.fetchPage(ctx, r.Offset, true)
}

func (c *Controller) fetchPage(ctx context.Context, offset int, more bool) {
	gen, query, category := c.gen, c.state.Results.Query, c.state.Results.Category
	c.spawn(ctx, func(ctx context.Context) any {
		var (
			list catalog.VolumeList
			err  error
		)
		if category != "" {
			list, err = c.cfg.Catalog.SearchByCategory(ctx, category, offset, PageSize)
		} else {
			list, err = c.cfg.Catalog.SearchByQuery(ctx, query, offset, PageSize)
		}
		return resultsLoaded{gen: gen, more: more, offset: offset, list: list, err: err}
	})
}

func (c *Controller) onResults(ev resultsLoaded) {
	if ev.gen != c.gen {
		c.logger.Debug("dropping results of a replaced listing", "gen", ev.gen)
		return
	}
	r := &c.state.Results
	category := r.Category != ""
	if !ev.more {
		r.Loading = false
		if ev.err != nil {
			c.logger.Error("listing failed", "query", r.Query, "category", r.Category, "err", ev.err)
			prefix := errSearch
			if category {
				prefix = errCategory
			}
			r.Error = prefix + errorText(ev.err)
		} else {
			r.Books = catalog.FormatBooks(ev.list.Items)
			r.Total = ev.list.TotalItems
		}
	} else {
		r.LoadingMore = false
		if ev.err != nil {
			c.logger.Error("load more failed", "offset", ev.offset, "err", ev.err)
			r.Offset = ev.offset - PageSize
			prefix := errMoreSearch
			if category {
				prefix = errMoreCategory
			}
			c.toast(ToastDanger, prefix+errorText(ev.err))
		} else {
			r.Books = append(r.Books, catalog.FormatBooks(ev.list.Items)...)
			r.Total = ev.list.TotalItems
		}
	}
	if c.state.Section == SectionSearchResults {
		c.render()
	}
}

// book details and reviews

func (c *Controller) openBook(ctx context.Context, id string) {
	id = strings.TrimSpace(id)
	if id == "" {
		return
	}
	c.state.Book = BookState{ID: id, Loading: true, ServerComments: c.cfg.ServerComments}
	if c.state.User != nil {
		c.state.Book.ReviewName = c.state.User.DisplayName()
	}
	c.state.Section = SectionBookDetails
	c.render()
	c.spawn(ctx, func(ctx context.Context) any {
		vol, err := c.cfg.Catalog.GetByID(ctx, id)
		return bookLoaded{id: id, vol: vol, err: err}
	})
}

func (c *Controller) onBook(ctx context.Context, ev bookLoaded) {
	if ev.id != c.state.Book.ID {
		return
	}
	b := &c.state.Book
	b.Loading = false
	if ev.err != nil {
		c.logger.Error("book details failed", "book_id", ev.id, "err", ev.err)
		b.Error = errDetails + errorText(ev.err)
	} else {
		summary := catalog.FormatBookData(ev.vol)
		b.Book = &summary
		c.refreshBookList(ctx)
		c.loadReviews(ctx)
	}
	if c.state.Section == SectionBookDetails {
		c.render()
	}
}

func (c *Controller) loadReviews(ctx context.Context) {
	b := &c.state.Book
	if c.cfg.ServerComments {
		b.CommentsLoading = true
		id := b.ID
		c.spawn(ctx, func(ctx context.Context) any {
			comments, err := c.cfg.Accounts.Comments(ctx, id)
			return commentsLoaded{bookID: id, comments: comments, err: err}
		})
		return
	}
	reviews, err := c.cfg.Reviews.List(ctx, b.ID)
	if err != nil {
		c.logger.Error("read reviews failed", "book_id", b.ID, "err", err)
	}
	b.Reviews = reviews
}

func (c *Controller) onComments(ev commentsLoaded) {
	if ev.bookID != c.state.Book.ID {
		return
	}
	b := &c.state.Book
	b.CommentsLoading = false
	if ev.err != nil {
		c.logger.Error("comments failed", "book_id", ev.bookID, "err", ev.err)
		b.CommentsError = errComments + errorText(ev.err)
	} else {
		b.CommentsError = ""
		b.Comments = ev.comments
	}
	if c.state.Section == SectionBookDetails {
		c.render()
	}
}

func (c *Controller) submitReview(ctx context.Context, in SubmitReview) {
	b := &c.state.Book
	if c.state.Section != SectionBookDetails || b.ID == "" {
		return
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = b.ReviewName
	}
	text := strings.TrimSpace(in.Text)
	if name == "" || text == "" || in.Rating <= 0 || in.Rating > 5 {
		c.toast(ToastWarning, msgFieldsRequired)
		c.render()
		return
	}

	if c.cfg.ServerComments {
		if b.CommentPending {
			return
		}
		b.CommentPending = true
		c.render()
		id, token := b.ID, c.session.Token
		req := accountclient.CommentRequest{BookID: id, Username: name, Rating: in.Rating, Text: text}
		c.spawn(ctx, func(ctx context.Context) any {
			comment, err := c.cfg.Accounts.AddComment(ctx, token, req)
			return commentPosted{bookID: id, comment: comment, err: err}
		})
		return
	}

	r := domain.Review{Name: name, Rating: in.Rating, Text: text, Date: c.now().UTC()}
	if err := c.cfg.Reviews.Append(ctx, b.ID, r); err != nil {
		c.logger.Error("save review failed", "book_id", b.ID, "err", err)
		c.toast(ToastDanger, msgStorageFailed+err.Error())
		c.render()
		return
	}
	c.loadReviews(ctx)
	c.toast(ToastSuccess, msgReviewAdded)
	c.render()
}

func (c *Controller) onCommentPosted(ev commentPosted) {
	b := &c.state.Book
	if ev.bookID == b.ID {
		b.CommentPending = false
	}
	switch {
	case accountclient.IsUnauthorized(ev.err):
		c.toast(ToastWarning, msgLoginRequired)
		if ev.bookID == b.ID {
			b.LoginRequired = true
		}
	case ev.err != nil:
		c.logger.Error("post comment failed", "book_id", ev.bookID, "err", ev.err)
		c.toast(ToastDanger, errorText(ev.err))
	default:
		if ev.bookID == b.ID {
			b.Comments = append([]domain.Comment{ev.comment}, b.Comments...)
			b.LoginRequired = false
		}
		c.toast(ToastSuccess, msgReviewAdded)
	}
	c.render()
}

// navigation

func (c *Controller) back(ctx context.Context) {
	if c.state.Results.HasContext() {
		c.state.Section = SectionSearchResults
		c.render()
		return
	}
	c.goHome(ctx)
}

// chat

func (c *Controller) toggleChat(ctx context.Context) {
	if c.state.Section == SectionChat {
		c.goHome(ctx)
		return
	}
	c.openChat(ctx, "", chatTitle)
}

func (c *Controller) openBookChat(ctx context.Context) {
	b := c.state.Book
	if !c.cfg.BookChat || c.state.Section != SectionBookDetails || b.Book == nil {
		c.openChat(ctx, "", chatTitle)
		return
	}
	c.openChat(ctx, b.ID, bookChat+b.Book.Title)
}

func (c *Controller) openChat(ctx context.Context, bookID, title string) {
	c.state.Chat = ChatState{BookID: bookID, Title: title}
	msgs, err := c.cfg.Chat.Room(bookID).Open(ctx)
	if err != nil {
		c.logger.Error("open chat failed", "book_id", bookID, "err", err)
		c.state.Chat.Error = msgStorageFailed + err.Error()
	}
	c.state.Chat.Messages = msgs
	c.state.Section = SectionChat
	c.render()
}

func (c *Controller) sendChat(ctx context.Context, text string) {
	text = strings.TrimSpace(text)
	if text == "" || c.state.Section != SectionChat {
		return
	}
	bookID := c.state.Chat.BookID
	msgs, err := c.cfg.Chat.Room(bookID).Append(ctx, c.cfg.Chat.UserMessage(text))
	if err != nil {
		c.logger.Error("save chat message failed", "book_id", bookID, "err", err)
		c.toast(ToastDanger, msgStorageFailed+err.Error())
		c.render()
		return
	}
	c.state.Chat.Messages = msgs
	c.render()

	delay, responder := c.cfg.ReplyDelay, c.cfg.Responder
	go func() {
		if delay > 0 {
			t := time.NewTimer(delay)
			defer t.Stop()
			select {
			case <-t.C:
			case <-ctx.Done():
				return
			}
		}
		c.post(ctx, chatReply{bookID: bookID, text: responder.Reply(ctx, text)})
	}()
}

func (c *Controller) onChatReply(ctx context.Context, ev chatReply) {
	msgs, err := c.cfg.Chat.Room(ev.bookID).Append(ctx, c.cfg.Chat.SystemMessage(ev.text))
	if err != nil {
		c.logger.Error("save chat reply failed", "book_id", ev.bookID, "err", err)
		return
	}
	if c.state.Section == SectionChat && c.state.Chat.BookID == ev.bookID {
		c.state.Chat.Messages = msgs
		c.render()
	}
}

// reading lists

// currentBook is the book on the details page, falling back to the listing
// and the reading lists when its details could not be fetched.
func (c *Controller) currentBook(ctx context.Context) (catalog.BookSummary, bool) {
	b := c.state.Book
	if b.Book != nil {
		return *b.Book, true
	}
	for _, s := range c.state.Results.Books {
		if s.ID == b.ID {
			return s, true
		}
	}
	s, ok, err := c.cfg.Lists.Find(ctx, b.ID)
	if err != nil {
		c.logger.Error("find book in reading lists failed", "book_id", b.ID, "err", err)
	}
	return s, ok
}

func (c *Controller) refreshBookList(ctx context.Context) {
	b := &c.state.Book
	lt, ok, err := c.cfg.Lists.ListTypeFor(ctx, b.ID)
	if err != nil {
		c.logger.Error("read reading lists failed", "book_id", b.ID, "err", err)
	}
	b.ListType, b.InList = lt, ok
}

func (c *Controller) toggleList(ctx context.Context, list domain.ListType) {
	if c.state.Section != SectionBookDetails || c.state.Book.ID == "" {
		return
	}
	book, ok := c.currentBook(ctx)
	if !ok {
		return
	}
	b := &c.state.Book
	if b.InList && b.ListType == list {
		if err := c.cfg.Lists.Remove(ctx, list, book.ID); err != nil {
			c.logger.Error("remove from reading list failed", "book_id", book.ID, "err", err)
			return
		}
		c.toast(ToastInfo, msgRemovedFromList)
	} else {
		err := c.cfg.Lists.Add(ctx, list, book)
		switch {
		case errors.Is(err, readinglist.ErrInvalidListType):
			return
		case err != nil:
			c.logger.Error("add to reading list failed", "book_id", book.ID, "err", err)
			c.toast(ToastDanger, msgStorageFailed+err.Error())
			c.render()
			return
		}
		c.toast(ToastSuccess, "Kitap \""+list.DisplayName()+"\" listenize eklendi.")
	}
	c.refreshBookList(ctx)
	c.render()
}

func (c *Controller) removeFromList(ctx context.Context, list domain.ListType, bookID string) {
	if err := c.cfg.Lists.Remove(ctx, list, bookID); err != nil {
		if !errors.Is(err, readinglist.ErrInvalidListType) {
			c.logger.Error("remove from reading list failed", "book_id", bookID, "err", err)
		}
		return
	}
	c.toast(ToastInfo, msgRemovedFromList)
	if c.state.Book.ID == bookID {
		c.refreshBookList(ctx)
	}
	if c.state.Section == SectionReadingList {
		c.loadLists(ctx)
	}
	c.render()
}

func (c *Controller) showReadingLists(ctx context.Context) {
	c.loadLists(ctx)
	c.state.Section = SectionReadingList
	c.render()
}

func (c *Controller) loadLists(ctx context.Context) {
	c.state.Lists = ListsState{}
	for _, lt := range domain.ListTypes {
		books, err := c.cfg.Lists.List(ctx, lt)
		if err != nil {
			c.logger.Error("read reading list failed", "list", lt, "err", err)
			c.state.Lists.Error = msgStorageFailed + err.Error()
		}
		c.state.Lists.Lists = append(c.state.Lists.Lists, ReadingList{Type: lt, Name: lt.DisplayName(), Books: books})
	}
}

// preferences and account

func (c *Controller) toggleDarkMode(ctx context.Context) {
	c.state.DarkMode = !c.state.DarkMode
	if err := c.cfg.Prefs.SetDarkMode(ctx, c.state.DarkMode); err != nil {
		c.logger.Warn("save dark mode failed", "err", err)
	}
	c.render()
}

func (c *Controller) login(ctx context.Context, in Login) {
	if !c.authReady() {
		return
	}
	email, password := strings.TrimSpace(in.Email), in.Password
	if email == "" || password == "" {
		c.toast(ToastWarning, msgFieldsRequired)
		c.render()
		return
	}
	c.state.Auth.Pending, c.state.Auth.Error = true, ""
	c.render()
	c.spawn(ctx, func(ctx context.Context) any {
		res, err := c.cfg.Accounts.Login(ctx, email, password)
		return authDone{result: res, err: err}
	})
}

func (c *Controller) register(ctx context.Context, in Register) {
	if !c.authReady() {
		return
	}
	req := accountclient.RegisterRequest{
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Email:     strings.TrimSpace(in.Email),
		Password:  in.Password,
	}
	if req.FirstName == "" || req.LastName == "" || req.Email == "" || req.Password == "" {
		c.toast(ToastWarning, msgFieldsRequired)
		c.render()
		return
	}
	c.state.Auth.Pending, c.state.Auth.Error = true, ""
	c.render()
	c.spawn(ctx, func(ctx context.Context) any {
		res, err := c.cfg.Accounts.Register(ctx, req)
		return authDone{register: true, result: res, err: err}
	})
}

func (c *Controller) authReady() bool {
	if c.cfg.Accounts == nil {
		c.toast(ToastWarning, msgNoAccounts)
		c.render()
		return false
	}
	return !c.state.Auth.Pending
}

func (c *Controller) onAuth(ctx context.Context, ev authDone) {
	c.state.Auth.Pending = false
	if ev.err != nil {
		msg := msgLoginFailed
		if ev.register {
			msg = msgRegisterFailed
		}
		var apiErr *accountclient.APIError
		if errors.As(ev.err, &apiErr) && apiErr.Message != "" {
			msg = apiErr.Message
		} else {
			c.logger.Error("account request failed", "register", ev.register, "err", ev.err)
		}
		c.state.Auth.Error = msg
		c.toast(ToastDanger, msg)
		c.render()
		return
	}
	c.setSession(ctx, prefs.Session{Token: ev.result.Token, User: ev.result.User})
	c.toast(ToastSuccess, ev.result.Message)
	c.render()
}

func (c *Controller) onMe(ctx context.Context, ev meLoaded) {
	if ev.token != c.session.Token {
		return
	}
	switch {
	case accountclient.IsUnauthorized(ev.err):
		c.logger.Info("stored session rejected, logging out")
		c.clearSession(ctx)
	case ev.err != nil:
		c.logger.Warn("session check failed, keeping stored profile", "err", ev.err)
		return
	default:
		c.setSession(ctx, prefs.Session{Token: ev.token, User: ev.profile})
	}
	c.render()
}

func (c *Controller) logout(ctx context.Context) {
	if c.state.User == nil {
		return
	}
	if token := c.session.Token; token != "" && c.cfg.Accounts != nil {
		accounts, logger := c.cfg.Accounts, c.logger
		go func() {
			if err := accounts.Logout(ctx, token); err != nil {
				logger.Warn("server logout failed", "err", err)
			}
		}()
	}
	c.clearSession(ctx)
	c.toast(ToastInfo, msgLoggedOut)
	c.render()
}

func (c *Controller) setSession(ctx context.Context, s prefs.Session) {
	if err := c.cfg.Prefs.SaveSession(ctx, s); err != nil {
		c.logger.Error("save session failed", "err", err)
	}
	c.session = s
	user := s.User
	c.state.User = &user
	c.state.Auth.Error = ""
	c.state.Book.LoginRequired = false
	if c.state.Book.ReviewName == "" {
		c.state.Book.ReviewName = user.DisplayName()
	}
}

func (c *Controller) clearSession(ctx context.Context) {
	if err := c.cfg.Prefs.ClearSession(ctx); err != nil {
		c.logger.Error("clear session failed", "err", err)
	}
	c.session = prefs.Session{}
	c.state.User = nil
}

// errorText is the user-facing part of a fetch or API error.
func errorText(err error) string {
	var fe *catalog.FetchError
	if errors.As(err, &fe) && fe.Message != "" {
		return fe.Message
	}
	var apiErr *accountclient.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	return err.Error()
}
