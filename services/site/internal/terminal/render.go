// Package terminal is the site's line-oriented front end: it prints view
// snapshots and turns typed commands into controller intents.
package terminal

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"kitapsever/pkg/catalog"
	"kitapsever/pkg/domain"
	"kitapsever/services/site/internal/view"
)

var turkishMonths = [...]string{"Ocak", "Şubat", "Mart", "Nisan", "Mayıs", "Haziran",
	"Temmuz", "Ağustos", "Eylül", "Ekim", "Kasım", "Aralık"}

// item is a numbered book in the last rendered page.
type item struct {
	id   string
	list domain.ListType
}

// Renderer prints views as text. It remembers the numbering of the last
// page so commands can refer to books by number.
type Renderer struct {
	mu    sync.Mutex
	out   io.Writer
	last  view.View
	items []item
}

func NewRenderer(w io.Writer) *Renderer {
	return &Renderer{out: w}
}

// Item returns the book numbered n (1-based) on the last page.
func (r *Renderer) Item(n int) (id string, list domain.ListType, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n < 1 || n > len(r.items) {
		return "", "", false
	}
	it := r.items[n-1]
	return it.id, it.list, true
}

// Last returns the most recently rendered view.
func (r *Renderer) Last() view.View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

func (r *Renderer) Render(v view.View) {
	p := &page{dark: v.DarkMode}
	p.header(v)
	for _, t := range v.Toasts {
		p.line("[%s] %s", toastLabel(t.Kind), t.Text)
	}
	switch v.Section {
	case view.SectionHome:
		p.home(v.Home)
	case view.SectionSearchResults:
		p.results(v)
	case view.SectionBookDetails:
		p.book(v.Book)
	case view.SectionChat:
		p.chat(v.Chat)
	case view.SectionReadingList:
		p.lists(v.Lists)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.last = v
	r.items = p.items
	_, _ = io.WriteString(r.out, p.b.String())
}

type page struct {
	b     strings.Builder
	dark  bool
	items []item
}

func (p *page) line(format string, args ...any) {
	fmt.Fprintf(&p.b, format, args...)
	p.b.WriteByte('\n')
}

func (p *page) heading(text string) {
	if p.dark {
		p.line("\x1b[1;96m%s\x1b[0m", text)
		return
	}
	p.line("\x1b[1m%s\x1b[0m", text)
}

func (p *page) numbered(b catalog.BookSummary, list domain.ListType) {
	p.items = append(p.items, item{id: b.ID, list: list})
	p.line("%3d. %s - %s %s", len(p.items), b.Title, b.Authors, stars(b.AverageRating))
}

func (p *page) header(v view.View) {
	p.b.WriteByte('\n')
	user := "Giriş yapılmadı"
	if v.User != nil {
		user = "Merhaba, " + v.User.DisplayName()
	}
	p.heading("Kitapsever | " + user)
	if v.Auth.Pending {
		p.line("Yükleniyor...")
	}
	if v.Auth.Error != "" {
		p.line("! %s", v.Auth.Error)
	}
}

func (p *page) home(h view.HomeState) {
	p.heading("Öne Çıkan Kitaplar")
	switch {
	case h.Loading:
		p.line("Yükleniyor...")
	case h.Error != "":
		p.line("! %s", h.Error)
	default:
		for _, b := range h.Featured {
			p.numbered(b, "")
		}
	}
}

func (p *page) results(v view.View) {
	r := v.Results
	title := r.Title
	if r.Query != "" {
		title += ": " + r.Query
	}
	p.heading(title)
	switch {
	case r.Loading:
		p.line("Yükleniyor...")
		return
	case r.Error != "":
		p.line("! %s", r.Error)
		return
	case len(r.Books) == 0:
		p.line("Sonuç bulunamadı")
		p.line("Lütfen farklı anahtar kelimelerle tekrar arayın.")
		return
	}
	for _, b := range r.Books {
		p.numbered(b, "")
	}
	if v.ShowLoadMore {
		if r.LoadingMore {
			p.line("[%s]", v.LoadMoreLabel)
		} else {
			p.line("[daha] %s", v.LoadMoreLabel)
		}
	}
}

func (p *page) book(b view.BookState) {
	switch {
	case b.Loading:
		p.line("Yükleniyor...")
		return
	case b.Error != "":
		p.line("! %s", b.Error)
	}
	if s := b.Book; s != nil {
		p.heading(s.Title)
		p.line("Yazar: %s", s.Authors)
		p.line("%s %.1f/5 (%d değerlendirme)", stars(s.AverageRating), s.AverageRating, s.RatingsCount)
		p.heading("Açıklama")
		p.line("%s", catalog.PlainText(s.Description))
		p.heading("Detaylar")
		p.line("Yayın Tarihi: %s", s.PublishedDate)
		p.line("Yayıncı: %s", s.Publisher)
		p.line("Sayfa Sayısı: %s", s.PageCount)
		p.line("Kategoriler: %s", s.Categories)
		p.line("Dil: %s", catalog.LanguageName(s.Language))
		if s.PreviewLink != "" {
			p.line("Önizleme: %s", s.PreviewLink)
		}
		p.heading("Okuma Listesi")
		for i, lt := range domain.ListTypes {
			mark := " "
			if b.InList && b.ListType == lt {
				mark = "x"
			}
			p.line("  [%s] %d. %s", mark, i+1, lt.DisplayName())
		}
	}
	p.heading("Yorumlar")
	if b.ServerComments {
		p.comments(b)
	} else if len(b.Reviews) == 0 {
		p.line("Bu kitap için henüz yorum yapılmamış. İlk yorumu siz yapın!")
	} else {
		for _, r := range b.Reviews {
			p.line("%s | %s | %s", r.Name, formatDate(r.Date), stars(float64(r.Rating)))
			p.line("  %s", r.Text)
		}
	}
	if b.LoginRequired {
		p.line("Yorum yapabilmek için giriş yapmalısınız.")
	}
}

func (p *page) comments(b view.BookState) {
	switch {
	case b.CommentsLoading:
		p.line("Yükleniyor...")
	case b.CommentsError != "":
		p.line("! %s", b.CommentsError)
	case len(b.Comments) == 0:
		p.line("Bu kitap için henüz yorum yapılmamış. İlk yorumu siz yapın!")
	default:
		for _, c := range b.Comments {
			p.line("%s | %s | %s", c.Username, formatDate(c.CreatedAt), stars(float64(c.Rating)))
			p.line("  %s", c.Text)
		}
	}
	if b.CommentPending {
		p.line("Gönderiliyor...")
	}
}

func (p *page) chat(c view.ChatState) {
	p.heading(c.Title)
	if c.Error != "" {
		p.line("! %s", c.Error)
	}
	for _, m := range c.Messages {
		who := "Kitapsever"
		if m.Sender == domain.SenderUser {
			who = "Sen"
		}
		p.line("[%s] %s: %s", m.Time.Local().Format("15:04"), who, m.Text)
	}
}

func (p *page) lists(l view.ListsState) {
	p.heading("Okuma Listem")
	if l.Error != "" {
		p.line("! %s", l.Error)
	}
	for _, rl := range l.Lists {
		p.heading(fmt.Sprintf("%s (%d)", rl.Name, len(rl.Books)))
		if len(rl.Books) == 0 {
			p.line("Bu listede henüz kitap yok.")
			continue
		}
		for _, b := range rl.Books {
			p.numbered(b, rl.Type)
		}
	}
}

func toastLabel(k view.ToastKind) string {
	switch k {
	case view.ToastSuccess:
		return "başarılı"
	case view.ToastWarning:
		return "uyarı"
	case view.ToastDanger:
		return "hata"
	}
	return "bilgi"
}

func stars(rating float64) string {
	full, half, empty := catalog.Stars(rating)
	return strings.Repeat("★", full) + strings.Repeat("½", half) + strings.Repeat("☆", empty)
}

// formatDate renders t like "1 Mart 2025".
func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	t = t.Local()
	return fmt.Sprintf("%d %s %d", t.Day(), turkishMonths[t.Month()-1], t.Year())
}
