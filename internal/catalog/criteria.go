package catalog

import "strings"

// Criteria holds the free-text search inputs. Fields are trimmed on
// construction; an empty string means the field was not provided.
type Criteria struct {
	Artist string `json:"artist"`
	Album  string `json:"album"`
	Track  string `json:"track"`
}

// NewCriteria builds a Criteria from raw text inputs, trimming surrounding
// whitespace so whitespace-only input counts as absent.
func NewCriteria(artist, album, track string) Criteria {
	return Criteria{
		Artist: strings.TrimSpace(artist),
		Album:  strings.TrimSpace(album),
		Track:  strings.TrimSpace(track),
	}
}

// Empty reports whether no field is populated.
func (c Criteria) Empty() bool {
	return c.Artist == "" && c.Album == "" && c.Track == ""
}

// ResolutionCase identifies which input combination drives the resolution chain.
type ResolutionCase int

// Resolution cases, one per input combination. The numbering mirrors the
// documented priority order; the combinations are mutually exclusive, so
// selection is a total function of which inputs are present.
const (
	CaseNone ResolutionCase = iota
	CaseTrackOnly
	CaseAlbumOnly
	CaseArtistOnly
	CaseArtistAlbum
	CaseArtistTrack
	CaseAlbumTrack
	CaseArtistAlbumTrack
)

// Case returns the resolution case for this criteria.
func (c Criteria) Case() ResolutionCase {
	hasArtist := c.Artist != ""
	hasAlbum := c.Album != ""
	hasTrack := c.Track != ""

	switch {
	case !hasArtist && !hasAlbum && hasTrack:
		return CaseTrackOnly
	case !hasArtist && hasAlbum && !hasTrack:
		return CaseAlbumOnly
	case hasArtist && !hasAlbum && !hasTrack:
		return CaseArtistOnly
	case hasArtist && hasAlbum && !hasTrack:
		return CaseArtistAlbum
	case hasArtist && !hasAlbum && hasTrack:
		return CaseArtistTrack
	case !hasArtist && hasAlbum && hasTrack:
		return CaseAlbumTrack
	case hasArtist && hasAlbum && hasTrack:
		return CaseArtistAlbumTrack
	default:
		return CaseNone
	}
}

// TitlesEqual is the disambiguation rule used when resolving a candidate from
// a vendor list: case-insensitive equality on the display title, nothing
// fuzzier. "live" matches "Live" but not "Live (Deluxe)".
func TitlesEqual(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
