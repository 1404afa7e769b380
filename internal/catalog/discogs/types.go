package discogs

// Discogs API response types.

// SearchResponse is the top-level response from the database search endpoint.
type SearchResponse struct {
	Results    []SearchResult `json:"results"`
	Pagination Pagination     `json:"pagination"`
}

// SearchResult represents a single search hit. Year and label are only
// populated for master/release hits.
type SearchResult struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Type        string   `json:"type"` // "artist", "master" or "release"
	Year        string   `json:"year"`
	Label       []string `json:"label"`
	Genre       []string `json:"genre"`
	Thumb       string   `json:"thumb"`
	CoverImage  string   `json:"cover_image"`
	ResourceURL string   `json:"resource_url"`
}

// Pagination holds pagination info.
type Pagination struct {
	Page    int `json:"page"`
	Pages   int `json:"pages"`
	PerPage int `json:"per_page"`
	Items   int `json:"items"`
}

// ArtistDetail is the full artist response.
type ArtistDetail struct {
	ID          int         `json:"id"`
	Name        string      `json:"name"`
	Realname    string      `json:"realname"`
	Profile     string      `json:"profile"`
	URLs        []string    `json:"urls"`
	Images      []Image     `json:"images"`
	Members     []ArtistRef `json:"members"`
	DataQuality string      `json:"data_quality"`
}

// ArtistRef is a reference to another artist.
type ArtistRef struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Active      bool   `json:"active"`
	ResourceURL string `json:"resource_url"`
}

// ReleaseDetail is the shared shape of the master and release detail
// endpoints. Labels and notes only appear on releases.
type ReleaseDetail struct {
	ID        int          `json:"id"`
	Title     string       `json:"title"`
	Year      int          `json:"year"`
	Genres    []string     `json:"genres"`
	Styles    []string     `json:"styles"`
	Labels    []LabelRef   `json:"labels"`
	Notes     string       `json:"notes"`
	Images    []Image      `json:"images"`
	Artists   []ArtistRef  `json:"artists"`
	Tracklist []TrackEntry `json:"tracklist"`
}

// LabelRef is a record label reference on a release.
type LabelRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// TrackEntry is one tracklist row. Duration is a clock string ("4:37").
type TrackEntry struct {
	Position string `json:"position"`
	Title    string `json:"title"`
	Duration string `json:"duration"`
}

// ArtistReleasesResponse is the listing of an artist's releases.
type ArtistReleasesResponse struct {
	Releases   []ReleaseRef `json:"releases"`
	Pagination Pagination   `json:"pagination"`
}

// ReleaseRef is one entry in an artist's release listing.
type ReleaseRef struct {
	ID          int    `json:"id"`
	Type        string `json:"type"` // "master" or "release"
	Title       string `json:"title"`
	Year        int    `json:"year"`
	Artist      string `json:"artist"`
	Role        string `json:"role"`
	MainRelease int    `json:"main_release"`
	Thumb       string `json:"thumb"`
}

// Image represents a Discogs image.
type Image struct {
	Type   string `json:"type"` // "primary" or "secondary"
	URI    string `json:"uri"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}
