package catalog

// Volume is a catalog record as returned by the volumes endpoints. Only the
// fields the site reads are declared; the cache stores whatever was decoded.
type Volume struct {
	ID         string     `json:"id"`
	VolumeInfo VolumeInfo `json:"volumeInfo"`
}

type VolumeInfo struct {
	Title         string      `json:"title,omitempty"`
	Authors       []string    `json:"authors,omitempty"`
	Description   string      `json:"description,omitempty"`
	Publisher     string      `json:"publisher,omitempty"`
	PublishedDate string      `json:"publishedDate,omitempty"`
	PageCount     int         `json:"pageCount,omitempty"`
	Categories    []string    `json:"categories,omitempty"`
	Language      string      `json:"language,omitempty"`
	PreviewLink   string      `json:"previewLink,omitempty"`
	AverageRating float64     `json:"averageRating,omitempty"`
	RatingsCount  int         `json:"ratingsCount,omitempty"`
	ImageLinks    *ImageLinks `json:"imageLinks,omitempty"`
}

type ImageLinks struct {
	SmallThumbnail string `json:"smallThumbnail,omitempty"`
	Thumbnail      string `json:"thumbnail,omitempty"`
	Small          string `json:"small,omitempty"`
	Medium         string `json:"medium,omitempty"`
	Large          string `json:"large,omitempty"`
}

// VolumeList is a page of search results.
type VolumeList struct {
	TotalItems int      `json:"totalItems"`
	Items      []Volume `json:"items,omitempty"`
}

// BookSummary is the display projection of a Volume. It is also the shape
// persisted in reading lists.
type BookSummary struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	Authors       string  `json:"authors"`
	Description   string  `json:"description"`
	CoverURL      string  `json:"coverUrl"`
	LargeCoverURL string  `json:"largeCoverUrl"`
	PublishedDate string  `json:"publishedDate"`
	Publisher     string  `json:"publisher"`
	PageCount     string  `json:"pageCount"`
	Categories    string  `json:"categories"`
	Language      string  `json:"language"`
	PreviewLink   string  `json:"previewLink"`
	AverageRating float64 `json:"averageRating"`
	RatingsCount  int     `json:"ratingsCount"`
}
