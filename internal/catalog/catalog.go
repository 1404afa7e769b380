package catalog

import "fmt"

// Source uniquely identifies a catalog vendor.
type Source string

// Known catalog sources.
const (
	SourceSpotify Source = "spotify"
	SourceDiscogs Source = "discogs"
)

// AllSources returns the known sources in display order.
func AllSources() []Source {
	return []Source{SourceSpotify, SourceDiscogs}
}

// ParseSource maps a string to a known Source. The second return value
// reports whether the name was recognized.
func ParseSource(name string) (Source, bool) {
	switch Source(name) {
	case SourceSpotify:
		return SourceSpotify, true
	case SourceDiscogs:
		return SourceDiscogs, true
	default:
		return "", false
	}
}

// DisplayName returns a human-readable name for the source.
func (s Source) DisplayName() string {
	switch s {
	case SourceSpotify:
		return "Spotify"
	case SourceDiscogs:
		return "Discogs"
	default:
		return string(s)
	}
}

// AccessTier classifies a source's access model.
type AccessTier string

// Access tier constants.
const (
	TierClientKey   AccessTier = "client_key"   // Client-credentials pair, short-lived bearer token
	TierPersonalKey AccessTier = "personal_key" // Long-lived personal access token
)

// RateLimitInfo documents the known rate limits for a source.
type RateLimitInfo struct {
	RequestsPerSecond float64 `json:"requests_per_second,omitempty"`
	RequestsPerDay    int     `json:"requests_per_day,omitempty"` // 0 = unknown/unlimited
}

// SourceCapability describes a source's access model and documented rate limits.
type SourceCapability struct {
	Tier      AccessTier     `json:"tier"`
	HelpURL   string         `json:"help_url,omitempty"`
	RateLimit *RateLimitInfo `json:"rate_limit,omitempty"`
}

// SourceCapabilities returns the known capability metadata for each source.
func SourceCapabilities() map[Source]SourceCapability {
	return map[Source]SourceCapability{
		SourceSpotify: {
			Tier:      TierClientKey,
			HelpURL:   "https://developer.spotify.com/dashboard",
			RateLimit: &RateLimitInfo{RequestsPerSecond: 5},
		},
		SourceDiscogs: {
			Tier:      TierPersonalKey,
			HelpURL:   "https://www.discogs.com/settings/developers",
			RateLimit: &RateLimitInfo{RequestsPerSecond: 1, RequestsPerDay: 1000},
		},
	}
}

// EntityKind classifies the kind of catalog entity.
type EntityKind string

// Known entity kinds.
const (
	KindArtist EntityKind = "artist"
	KindAlbum  EntityKind = "album"
	KindTrack  EntityKind = "track"
)

// Artist is the schema-complete normalized artist record for one source.
// Every field is always present; nil pointers and empty slices mark absence,
// so consumers only ever need null checks, never existence checks.
type Artist struct {
	Name        *string  `json:"name"`
	ID          *string  `json:"id"`
	Images      []string `json:"images"`
	Genres      []string `json:"genres"`
	Website     *string  `json:"website"`
	Description *string  `json:"description"`
	Birth       *string  `json:"birth"`
	Death       *string  `json:"death"`
	Popularity  *int     `json:"popularity"`
	Members     []string `json:"members"`
}

// Album is the schema-complete normalized album record for one source.
type Album struct {
	Title       *string  `json:"title"`
	ID          *string  `json:"id"`
	Image       *string  `json:"image"`
	Genres      []string `json:"genres"`
	ReleaseDate *string  `json:"release_date"`
	Label       *string  `json:"label"`
	Description *string  `json:"description"`
	TrackTotal  *int     `json:"track_total"`
	ArtistName  *string  `json:"artist_name"`
}

// Track is the schema-complete normalized track record for one source.
type Track struct {
	Title      *string  `json:"title"`
	ID         *string  `json:"id"`
	DurationMS *int     `json:"duration_ms"`
	Genres     []string `json:"genres"`
	PreviewURL *string  `json:"preview_url"`
}

// Record bundles the three normalized entities one resolver produced.
type Record struct {
	Artist Artist `json:"artist"`
	Album  Album  `json:"album"`
	Track  Track  `json:"track"`
}

// EmptyRecord returns a Record with every field absent and every list empty.
func EmptyRecord() Record {
	r := Record{}
	r.Normalize()
	return r
}

// Normalize replaces nil slices with empty ones so the schema invariant
// (lists are never null) holds no matter which resolution path produced the record.
func (r *Record) Normalize() {
	if r.Artist.Images == nil {
		r.Artist.Images = []string{}
	}
	if r.Artist.Genres == nil {
		r.Artist.Genres = []string{}
	}
	if r.Artist.Members == nil {
		r.Artist.Members = []string{}
	}
	if r.Album.Genres == nil {
		r.Album.Genres = []string{}
	}
	if r.Track.Genres == nil {
		r.Track.Genres = []string{}
	}
}

// String returns a new *string, or nil for the empty string.
func String(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Int returns a new *int.
func Int(n int) *int { return &n }

// ErrSourceUnavailable indicates a transient failure (network error,
// non-2xx response, malformed body).
type ErrSourceUnavailable struct {
	Source Source
	Cause  error
}

func (e *ErrSourceUnavailable) Error() string {
	return fmt.Sprintf("catalog %s unavailable: %v", e.Source, e.Cause)
}

func (e *ErrSourceUnavailable) Unwrap() error { return e.Cause }

// ErrNotFound indicates the source has no data for the requested ID.
type ErrNotFound struct {
	Source Source
	Kind   EntityKind
	ID     string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("catalog %s: %s %s not found", e.Source, e.Kind, e.ID)
}

// ErrAuthRequired indicates the source needs credentials but none are configured.
type ErrAuthRequired struct {
	Source Source
}

func (e *ErrAuthRequired) Error() string {
	return fmt.Sprintf("catalog %s: credentials not configured", e.Source)
}
