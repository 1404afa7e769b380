package catalog

// SourcePair holds one field's value from each source. Both keys are always
// present in the JSON form, even when a source contributed nothing; this is
// the contract consumers rely on for per-field source selection.
type SourcePair struct {
	Spotify any `json:"spotify"`
	Discogs any `json:"discogs"`
}

// MergedEntity maps each schema field to its provenance-tagged value pair.
type MergedEntity map[string]SourcePair

// MergedRecord is the full provenance-tagged result of one search.
type MergedRecord struct {
	Artist MergedEntity `json:"artist"`
	Album  MergedEntity `json:"album"`
	Track  MergedEntity `json:"track"`
}

// Declared schema fields per entity kind. Merge output always carries exactly
// these keys, in this order of declaration.
var (
	artistFields = []string{
		"name", "id", "images", "genres", "website",
		"description", "birth", "death", "popularity", "members",
	}
	albumFields = []string{
		"title", "id", "image", "genres", "release_date",
		"label", "description", "track_total", "artist_name",
	}
	trackFields = []string{
		"title", "id", "duration_ms", "genres", "preview_url",
	}
)

// MergeRecords combines the two normalized records into one provenance-tagged
// structure. No precedence is applied; both values are preserved verbatim.
func MergeRecords(spotify, discogs Record) MergedRecord {
	return MergedRecord{
		Artist: MergeArtists(spotify.Artist, discogs.Artist),
		Album:  MergeAlbums(spotify.Album, discogs.Album),
		Track:  MergeTracks(spotify.Track, discogs.Track),
	}
}

// MergeArtists merges two normalized artist entities field by field.
func MergeArtists(spotify, discogs Artist) MergedEntity {
	return mergeFields(artistFields, artistValues(spotify), artistValues(discogs))
}

// MergeAlbums merges two normalized album entities field by field.
func MergeAlbums(spotify, discogs Album) MergedEntity {
	return mergeFields(albumFields, albumValues(spotify), albumValues(discogs))
}

// MergeTracks merges two normalized track entities field by field.
func MergeTracks(spotify, discogs Track) MergedEntity {
	return mergeFields(trackFields, trackValues(spotify), trackValues(discogs))
}

func mergeFields(fields []string, spotify, discogs map[string]any) MergedEntity {
	merged := make(MergedEntity, len(fields))
	for _, f := range fields {
		merged[f] = SourcePair{Spotify: spotify[f], Discogs: discogs[f]}
	}
	return merged
}

func artistValues(a Artist) map[string]any {
	return map[string]any{
		"name":        scalar(a.Name),
		"id":          scalar(a.ID),
		"images":      list(a.Images),
		"genres":      list(a.Genres),
		"website":     scalar(a.Website),
		"description": scalar(a.Description),
		"birth":       scalar(a.Birth),
		"death":       scalar(a.Death),
		"popularity":  scalarInt(a.Popularity),
		"members":     list(a.Members),
	}
}

func albumValues(a Album) map[string]any {
	return map[string]any{
		"title":        scalar(a.Title),
		"id":           scalar(a.ID),
		"image":        scalar(a.Image),
		"genres":       list(a.Genres),
		"release_date": scalar(a.ReleaseDate),
		"label":        scalar(a.Label),
		"description":  scalar(a.Description),
		"track_total":  scalarInt(a.TrackTotal),
		"artist_name":  scalar(a.ArtistName),
	}
}

func trackValues(t Track) map[string]any {
	return map[string]any{
		"title":       scalar(t.Title),
		"id":          scalar(t.ID),
		"duration_ms": scalarInt(t.DurationMS),
		"genres":      list(t.Genres),
		"preview_url": scalar(t.PreviewURL),
	}
}

// scalar unwraps a pointer field to its value, or nil when absent.
func scalar(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func scalarInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

// list guarantees list-typed fields merge to an empty slice, never null, so
// consumers doing a length check never hit a type mismatch.
func list(values []string) any {
	if values == nil {
		return []string{}
	}
	return values
}
