package catalog

import (
	"math"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

var turkishNames = display.Languages(language.Turkish)

// LanguageName renders a language code the way the site shows it, e.g.
// "en" as "İngilizce". Unknown codes are returned unchanged.
func LanguageName(code string) string {
	code = strings.TrimSpace(code)
	if code == "" || code == placeholderUnknown {
		return placeholderUnknown
	}
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if name := turkishNames.Name(tag); name != "" {
		return name
	}
	return code
}

var categoryTitles = map[string]string{
	"fiction":    "Kurgu Kitapları",
	"nonfiction": "Kurgu Dışı Kitaplar",
	"science":    "Bilim Kitapları",
	"history":    "Tarih Kitapları",
	"biography":  "Biyografi Kitapları",
	"fantasy":    "Fantastik Kitaplar",
	"mystery":    "Gizem Kitapları",
	"romance":    "Romantik Kitaplar",
}

// Categories lists the browseable categories in menu order.
var Categories = []string{"fiction", "nonfiction", "science", "history", "biography", "fantasy", "mystery", "romance"}

// CategoryTitle is the section heading for a category.
func CategoryTitle(category string) string {
	if t, ok := categoryTitles[strings.ToLower(strings.TrimSpace(category))]; ok {
		return t
	}
	return "Kitaplar"
}

// PlainText strips the HTML markup the catalog puts in descriptions and
// collapses whitespace. Block-level breaks become newlines.
func PlainText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	for {
		switch z.Next() {
		case html.ErrorToken:
			return collapse(b.String())
		case html.TextToken:
			b.Write(z.Text())
		case html.StartTagToken, html.SelfClosingTagToken, html.EndTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "br", "p", "div", "li":
				b.WriteByte('\n')
			}
		}
	}
}

func collapse(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, l := range lines {
		if l = strings.Join(strings.Fields(l), " "); l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}

// Stars splits a 0..5 rating into full, half and empty star counts.
func Stars(rating float64) (full, half, empty int) {
	if rating < 0 || math.IsNaN(rating) {
		rating = 0
	}
	if rating > 5 {
		rating = 5
	}
	full = int(math.Floor(rating))
	if rating-float64(full) >= 0.5 {
		half = 1
	}
	empty = 5 - full - half
	return full, half, empty
}
