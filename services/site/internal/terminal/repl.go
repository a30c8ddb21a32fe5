package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/term"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"kitapsever/pkg/catalog"
	"kitapsever/pkg/domain"
	"kitapsever/services/site/internal/view"
)

const helpText = `Komutlar:
  ana                     ana sayfa
  ara <sorgu>             kitap ara
  hızlı <sorgu>           ana sayfa arama kutusu
  kategori [ad]           kategorileri listele veya seç
  daha                    daha fazla sonuç
  kitap <no|id>           kitap detayları
  geri                    önceki sayfa
  sohbet                  sohbeti aç/kapat
  kitap-sohbet            açık kitabın sohbet odası
  mesaj <metin>           sohbete yaz (sohbette komutsuz satırlar da gönderilir)
  yorum                   açık kitaba yorum yaz
  liste <1|2|3>           açık kitabı okuma listesine ekle/çıkar
  listeler                okuma listem
  çıkar <no>              okuma listesinden çıkar
  tema                    karanlık modu aç/kapat
  giriş | kayıt | çıkış   hesap işlemleri
  çık                     programdan çık`

// Dispatcher receives intents; *view.Controller implements it.
type Dispatcher interface {
	Dispatch(ctx context.Context, in view.Intent) error
}

type lineResult struct {
	line string
	err  error
}

// REPL reads commands and dispatches the matching intents.
type REPL struct {
	in           *bufio.Reader
	out          io.Writer
	d            Dispatcher
	r            *Renderer
	readPassword func() (string, error)
	lower        cases.Caser

	once sync.Once
	want chan struct{}
	got  chan lineResult
}

type Option func(*REPL)

// WithPasswordReader replaces the hidden password prompt.
func WithPasswordReader(fn func() (string, error)) Option {
	return func(p *REPL) { p.readPassword = fn }
}

func New(in io.Reader, out io.Writer, d Dispatcher, r *Renderer, opts ...Option) *REPL {
	p := &REPL{
		in:    bufio.NewReader(in),
		out:   out,
		d:     d,
		r:     r,
		lower: cases.Lower(language.Turkish),
		want:  make(chan struct{}),
		got:   make(chan lineResult, 1),
	}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fd := int(f.Fd())
		p.readPassword = func() (string, error) {
			b, err := term.ReadPassword(fd)
			fmt.Fprintln(out)
			return string(b), err
		}
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run processes commands until "çık", end of input or ctx is done.
func (p *REPL) Run(ctx context.Context) error {
	fmt.Fprintln(p.out, "Kitapsever'e hoş geldiniz. Komutlar için 'yardım' yazın.")
	for {
		line, err := p.readLine(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		quit, err := p.exec(ctx, line)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if quit {
			return nil
		}
	}
}

// readLine reads on a helper goroutine so a pending read does not block
// shutdown. The helper only reads when asked, which leaves the terminal free
// for password prompts in between.
func (p *REPL) readLine(ctx context.Context) (string, error) {
	p.once.Do(func() {
		go func() {
			for range p.want {
				line, err := p.in.ReadString('\n')
				if err != nil && line != "" {
					err = nil
				}
				p.got <- lineResult{line: strings.TrimRight(line, "\r\n"), err: err}
			}
		}()
	})
	select {
	case p.want <- struct{}{}:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	select {
	case res := <-p.got:
		return res.line, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (p *REPL) prompt(ctx context.Context, label string) (string, error) {
	fmt.Fprint(p.out, label)
	line, err := p.readLine(ctx)
	return strings.TrimSpace(line), err
}

func (p *REPL) promptPassword(ctx context.Context) (string, error) {
	fmt.Fprint(p.out, "Şifre: ")
	if p.readPassword != nil {
		return p.readPassword()
	}
	return p.readLine(ctx)
}

func (p *REPL) exec(ctx context.Context, line string) (quit bool, err error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false, nil
	}
	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	var in view.Intent
	switch p.lower.String(cmd) {
	case "yardım", "yardim", "help", "?":
		fmt.Fprintln(p.out, helpText)
	case "ana", "home":
		in = view.GoHome{}
	case "ara", "search":
		if rest == "" {
			fmt.Fprintln(p.out, "Kullanım: ara <sorgu>")
			break
		}
		in = view.Search{Query: rest}
	case "hızlı", "hizli":
		in = view.HeroSearch{Query: rest}
	case "kategori", "kategoriler":
		if rest == "" {
			for _, c := range catalog.Categories {
				fmt.Fprintf(p.out, "  %-12s %s\n", c, catalog.CategoryTitle(c))
			}
			break
		}
		in = view.SelectCategory{Category: rest}
	case "daha", "more":
		in = view.LoadMore{}
	case "kitap", "book":
		id, _, ok := p.resolve(rest)
		if !ok {
			fmt.Fprintln(p.out, "Kullanım: kitap <no|id>")
			break
		}
		in = view.OpenBook{ID: id}
	case "geri", "back":
		in = view.Back{}
	case "sohbet", "chat":
		in = view.ToggleChat{}
	case "kitap-sohbet":
		in = view.OpenBookChat{}
	case "mesaj", "msg":
		in = view.SendChat{Text: rest}
	case "yorum", "review":
		in, err = p.reviewForm(ctx)
	case "liste", "list":
		lt, ok := parseListType(rest)
		if !ok {
			fmt.Fprintln(p.out, "Kullanım: liste <1|2|3>")
			break
		}
		in = view.ToggleList{List: lt}
	case "listeler", "lists":
		in = view.ShowReadingLists{}
	case "çıkar", "cikar", "remove":
		id, lt, ok := p.resolve(rest)
		if !ok || lt == "" {
			fmt.Fprintln(p.out, "Kullanım: çıkar <no> (okuma listem sayfasındaki numara)")
			break
		}
		in = view.RemoveFromList{List: lt, BookID: id}
	case "tema", "theme":
		in = view.ToggleDarkMode{}
	case "giriş", "giris", "login":
		in, err = p.loginForm(ctx)
	case "kayıt", "kayit", "register":
		in, err = p.registerForm(ctx)
	case "çıkış", "cikis", "logout":
		in = view.Logout{}
	case "çık", "cik", "q", "quit", "exit":
		return true, nil
	default:
		if p.r.Last().Section == view.SectionChat {
			in = view.SendChat{Text: line}
			break
		}
		fmt.Fprintf(p.out, "Bilinmeyen komut: %s. Komutlar için 'yardım' yazın.\n", cmd)
	}
	if err != nil || in == nil {
		return false, err
	}
	return false, p.d.Dispatch(ctx, in)
}

// resolve maps a page number to its book, or passes an id through.
func (p *REPL) resolve(arg string) (string, domain.ListType, bool) {
	if arg == "" {
		return "", "", false
	}
	if n, err := strconv.Atoi(arg); err == nil {
		return p.r.Item(n)
	}
	return arg, "", true
}

func parseListType(arg string) (domain.ListType, bool) {
	if n, err := strconv.Atoi(arg); err == nil {
		if n < 1 || n > len(domain.ListTypes) {
			return "", false
		}
		return domain.ListTypes[n-1], true
	}
	lt := domain.ListType(arg)
	return lt, lt.Valid()
}

func (p *REPL) reviewForm(ctx context.Context) (view.Intent, error) {
	label := "Adınız: "
	prefill := p.r.Last().Book.ReviewName
	if prefill != "" {
		label = fmt.Sprintf("Adınız [%s]: ", prefill)
	}
	name, err := p.prompt(ctx, label)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = prefill
	}
	rawRating, err := p.prompt(ctx, "Puan (1-5): ")
	if err != nil {
		return nil, err
	}
	rating, _ := strconv.Atoi(rawRating)
	text, err := p.prompt(ctx, "Yorumunuz: ")
	if err != nil {
		return nil, err
	}
	return view.SubmitReview{Name: name, Rating: rating, Text: text}, nil
}

func (p *REPL) loginForm(ctx context.Context) (view.Intent, error) {
	email, err := p.prompt(ctx, "E-posta: ")
	if err != nil {
		return nil, err
	}
	password, err := p.promptPassword(ctx)
	if err != nil {
		return nil, err
	}
	return view.Login{Email: email, Password: password}, nil
}

func (p *REPL) registerForm(ctx context.Context) (view.Intent, error) {
	var in view.Register
	var err error
	if in.FirstName, err = p.prompt(ctx, "Ad: "); err != nil {
		return nil, err
	}
	if in.LastName, err = p.prompt(ctx, "Soyad: "); err != nil {
		return nil, err
	}
	if in.Email, err = p.prompt(ctx, "E-posta: "); err != nil {
		return nil, err
	}
	if in.Password, err = p.promptPassword(ctx); err != nil {
		return nil, err
	}
	return in, nil
}
