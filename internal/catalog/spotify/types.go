package spotify

// Spotify Web API response types.

// SearchResponse is the top-level response from the search endpoint. Only the
// sections matching the requested types are present.
type SearchResponse struct {
	Artists *ArtistPage `json:"artists"`
	Albums  *AlbumPage  `json:"albums"`
	Tracks  *TrackPage  `json:"tracks"`
}

// ArtistPage is one page of artist results.
type ArtistPage struct {
	Items []ArtistObject `json:"items"`
	Total int            `json:"total"`
}

// AlbumPage is one page of album results.
type AlbumPage struct {
	Items []AlbumObject `json:"items"`
	Total int           `json:"total"`
}

// TrackPage is one page of track results.
type TrackPage struct {
	Items []TrackObject `json:"items"`
	Total int           `json:"total"`
}

// ArtistObject is an artist as returned by search and detail endpoints.
type ArtistObject struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Genres       []string          `json:"genres"`
	Images       []ImageObject     `json:"images"`
	Popularity   int               `json:"popularity"`
	ExternalURLs map[string]string `json:"external_urls"`
}

// ArtistRef is the simplified artist reference embedded in albums and tracks.
type ArtistRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// AlbumObject is an album. Search and artist-album listings return the
// simplified form; the album detail endpoint additionally carries label,
// genres and the track listing.
type AlbumObject struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Images      []ImageObject `json:"images"`
	ReleaseDate string        `json:"release_date"`
	TotalTracks int           `json:"total_tracks"`
	Label       string        `json:"label"`
	Genres      []string      `json:"genres"`
	Artists     []ArtistRef   `json:"artists"`
	Tracks      *TrackPage    `json:"tracks"`
}

// TrackObject is a track. The detail endpoint includes the containing album.
type TrackObject struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	DurationMS int          `json:"duration_ms"`
	PreviewURL string       `json:"preview_url"`
	Artists    []ArtistRef  `json:"artists"`
	Album      *AlbumObject `json:"album"`
}

// ImageObject is an image reference.
type ImageObject struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}
