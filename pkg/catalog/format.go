package catalog

import (
	"strconv"
	"strings"
)

const (
	PlaceholderCover       = "https://via.placeholder.com/128x192?text=No+Cover"
	placeholderTitle       = "Başlık Yok"
	placeholderAuthors     = "Yazar Bilinmiyor"
	placeholderDescription = "Bu kitap için açıklama bulunmamaktadır."
	placeholderDate        = "Yayın tarihi bilinmiyor"
	placeholderPublisher   = "Yayıncı bilinmiyor"
	placeholderUnknown     = "Bilinmiyor"
	placeholderCategories  = "Kategori bilinmiyor"
)

// FormatBookData projects a raw volume into display form, substituting the
// Turkish placeholders for missing fields.
func FormatBookData(v Volume) BookSummary {
	info := v.VolumeInfo
	s := BookSummary{
		ID:            v.ID,
		Title:         orDefault(info.Title, placeholderTitle),
		Authors:       joinOrDefault(info.Authors, placeholderAuthors),
		Description:   orDefault(info.Description, placeholderDescription),
		CoverURL:      CoverURL(info.ImageLinks),
		LargeCoverURL: CoverURL(info.ImageLinks),
		PublishedDate: orDefault(info.PublishedDate, placeholderDate),
		Publisher:     orDefault(info.Publisher, placeholderPublisher),
		PageCount:     placeholderUnknown,
		Categories:    joinOrDefault(info.Categories, placeholderCategories),
		Language:      orDefault(info.Language, placeholderUnknown),
		PreviewLink:   info.PreviewLink,
		AverageRating: info.AverageRating,
		RatingsCount:  info.RatingsCount,
	}
	if info.PageCount > 0 {
		s.PageCount = strconv.Itoa(info.PageCount)
	}
	return s
}

// FormatBooks projects a result page, skipping nothing.
func FormatBooks(vols []Volume) []BookSummary {
	out := make([]BookSummary, 0, len(vols))
	for _, v := range vols {
		out = append(out, FormatBookData(v))
	}
	return out
}

// CoverURL returns the thumbnail upgraded to https, or the placeholder image.
func CoverURL(links *ImageLinks) string {
	if links == nil || links.Thumbnail == "" {
		return PlaceholderCover
	}
	return strings.Replace(links.Thumbnail, "http://", "https://", 1)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func joinOrDefault(vs []string, def string) string {
	if len(vs) == 0 {
		return def
	}
	return strings.Join(vs, ", ")
}
