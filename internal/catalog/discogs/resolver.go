package discogs

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/arnarpall/musicsearch/internal/catalog"
)

// Resolver implements the free-text resolution chain for the Discogs catalog.
// Discogs has no first-class track entity, so track steps resolve through
// master/release tracklists; a matched track carries the title and duration
// from its tracklist row and the genres of the containing release.
type Resolver struct {
	client *Client
	logger *slog.Logger
}

// NewResolver creates a Resolver over the given client.
func NewResolver(client *Client, logger *slog.Logger) *Resolver {
	return &Resolver{
		client: client,
		logger: logger.With(slog.String("catalog", "discogs")),
	}
}

// Source returns the catalog source this resolver serves.
func (r *Resolver) Source() catalog.Source { return catalog.SourceDiscogs }

// Resolve runs the resolution chain for the criteria's input combination.
// A missing personal access token leaves the whole record empty.
func (r *Resolver) Resolve(ctx context.Context, crit catalog.Criteria) (catalog.Record, error) {
	rec := catalog.EmptyRecord()
	if crit.Empty() {
		return rec, nil
	}

	switch crit.Case() {
	case catalog.CaseTrackOnly:
		r.resolveTrackOnly(ctx, crit.Track, &rec)
	case catalog.CaseAlbumOnly:
		r.resolveAlbumOnly(ctx, crit.Album, &rec)
	case catalog.CaseArtistOnly:
		r.resolveArtistOnly(ctx, crit.Artist, &rec)
	case catalog.CaseArtistAlbum:
		r.resolveArtistAlbum(ctx, crit.Artist, crit.Album, &rec)
	case catalog.CaseArtistTrack:
		r.resolveArtistTrack(ctx, crit.Artist, crit.Track, &rec)
	case catalog.CaseAlbumTrack:
		r.resolveAlbumTrack(ctx, crit.Album, crit.Track, &rec)
	case catalog.CaseArtistAlbumTrack:
		r.resolveAll(ctx, crit.Artist, crit.Album, crit.Track, &rec)
	}

	if ctx.Err() != nil {
		return catalog.EmptyRecord(), ctx.Err()
	}

	rec.Normalize()
	return rec, nil
}

// Case 1: track text only. The release found by track search doubles as the
// album; the track itself must be an exact tracklist match or the whole
// chain dead-ends.
func (r *Resolver) resolveTrackOnly(ctx context.Context, trackText string, rec *catalog.Record) {
	hit := r.searchOne(ctx, trackText, "release")
	if hit == nil {
		return
	}
	release := r.fetchRelease(ctx, hit)
	if release == nil {
		return
	}
	entry := findTrack(release.Tracklist, trackText)
	if entry == nil {
		return
	}
	rec.Track = mapTrack(entry, release)
	rec.Album = mapAlbum(release, hit)
	r.fillArtistFromRelease(ctx, release, rec)
}

// Case 2: album text only.
func (r *Resolver) resolveAlbumOnly(ctx context.Context, albumText string, rec *catalog.Record) {
	hit := r.searchOne(ctx, albumText, "master")
	if hit == nil {
		return
	}
	release := r.fetchRelease(ctx, hit)
	if release == nil {
		return
	}
	rec.Album = mapAlbum(release, hit)
	r.fillArtistFromRelease(ctx, release, rec)
}

// Case 3: artist text only.
func (r *Resolver) resolveArtistOnly(ctx context.Context, artistText string, rec *catalog.Record) {
	hit := r.searchOne(ctx, artistText, "artist")
	if hit == nil {
		return
	}
	artist := r.fetchArtist(ctx, strconv.Itoa(hit.ID))
	if artist != nil {
		rec.Artist = mapArtist(artist)
	}
}

// Case 4: artist + album, matched against the artist's release listing by
// exact title.
func (r *Resolver) resolveArtistAlbum(ctx context.Context, artistText, albumText string, rec *catalog.Record) {
	artist := r.resolveArtistByText(ctx, artistText, rec)
	if artist == nil {
		return
	}
	ref := r.findReleaseByTitle(ctx, artist.ID, albumText)
	if ref == nil {
		return
	}
	release := r.fetchReleaseRef(ctx, ref)
	if release != nil {
		rec.Album = mapAlbum(release, nil)
	}
}

// Case 5: artist + track. Each release's tracklist is scanned until the
// first exact title match; the album is whichever release contained it.
func (r *Resolver) resolveArtistTrack(ctx context.Context, artistText, trackText string, rec *catalog.Record) {
	artist := r.resolveArtistByText(ctx, artistText, rec)
	if artist == nil {
		return
	}
	for _, ref := range r.listArtistReleases(ctx, artist.ID) {
		release := r.fetchReleaseRef(ctx, &ref)
		if release == nil {
			continue
		}
		if entry := findTrack(release.Tracklist, trackText); entry != nil {
			rec.Track = mapTrack(entry, release)
			rec.Album = mapAlbum(release, nil)
			return
		}
	}
}

// Case 6: album + track, no artist. The artist comes from the matched
// album's primary artist credit.
func (r *Resolver) resolveAlbumTrack(ctx context.Context, albumText, trackText string, rec *catalog.Record) {
	hit := r.searchOne(ctx, albumText, "master")
	if hit == nil {
		return
	}
	release := r.fetchRelease(ctx, hit)
	if release == nil {
		return
	}
	rec.Album = mapAlbum(release, hit)

	if entry := findTrack(release.Tracklist, trackText); entry != nil {
		rec.Track = mapTrack(entry, release)
	}

	r.fillArtistFromRelease(ctx, release, rec)
}

// Case 7: all three inputs.
func (r *Resolver) resolveAll(ctx context.Context, artistText, albumText, trackText string, rec *catalog.Record) {
	artist := r.resolveArtistByText(ctx, artistText, rec)
	if artist == nil {
		return
	}
	ref := r.findReleaseByTitle(ctx, artist.ID, albumText)
	if ref == nil {
		return
	}
	release := r.fetchReleaseRef(ctx, ref)
	if release == nil {
		return
	}
	rec.Album = mapAlbum(release, nil)

	if entry := findTrack(release.Tracklist, trackText); entry != nil {
		rec.Track = mapTrack(entry, release)
	}
}

func (r *Resolver) resolveArtistByText(ctx context.Context, artistText string, rec *catalog.Record) *ArtistDetail {
	hit := r.searchOne(ctx, artistText, "artist")
	if hit == nil {
		return nil
	}
	artist := r.fetchArtist(ctx, strconv.Itoa(hit.ID))
	if artist == nil {
		return nil
	}
	rec.Artist = mapArtist(artist)
	return artist
}

// findReleaseByTitle scans the artist's main releases for a case-insensitive
// exact title match; first qualifying match wins.
func (r *Resolver) findReleaseByTitle(ctx context.Context, artistID int, title string) *ReleaseRef {
	for _, ref := range r.listArtistReleases(ctx, artistID) {
		if catalog.TitlesEqual(ref.Title, title) {
			return &ref
		}
	}
	return nil
}

func (r *Resolver) listArtistReleases(ctx context.Context, artistID int) []ReleaseRef {
	refs, err := r.client.ArtistReleases(ctx, strconv.Itoa(artistID))
	if err != nil {
		r.logger.Debug("artist releases fetch failed",
			slog.Int("id", artistID), slog.String("error", err.Error()))
		return nil
	}
	// Skip appearance credits; they would match compilation tracks the
	// artist is merely featured on.
	main := refs[:0]
	for _, ref := range refs {
		if ref.Role == "" || ref.Role == "Main" {
			main = append(main, ref)
		}
	}
	return main
}

// searchOne returns the first search hit, or nil on miss or failure.
func (r *Resolver) searchOne(ctx context.Context, query, resultType string) *SearchResult {
	resp, err := r.client.Search(ctx, query, resultType)
	if err != nil {
		var authErr *catalog.ErrAuthRequired
		if errors.As(err, &authErr) {
			r.logger.Debug("skipping search, access token not configured")
		} else {
			r.logger.Warn("search failed",
				slog.String("type", resultType),
				slog.String("error", err.Error()))
		}
		return nil
	}
	if len(resp.Results) == 0 {
		return nil
	}
	return &resp.Results[0]
}

func (r *Resolver) fetchArtist(ctx context.Context, id string) *ArtistDetail {
	artist, err := r.client.Artist(ctx, id)
	if err != nil {
		r.logger.Debug("artist fetch failed", slog.String("id", id), slog.String("error", err.Error()))
		return nil
	}
	return artist
}

// fetchRelease fetches detail for a search hit, choosing the master or
// release endpoint to match the hit's type.
func (r *Resolver) fetchRelease(ctx context.Context, hit *SearchResult) *ReleaseDetail {
	id := strconv.Itoa(hit.ID)
	var (
		detail *ReleaseDetail
		err    error
	)
	if hit.Type == "release" {
		detail, err = r.client.Release(ctx, id)
	} else {
		detail, err = r.client.Master(ctx, id)
	}
	if err != nil {
		r.logger.Debug("release fetch failed", slog.String("id", id), slog.String("error", err.Error()))
		return nil
	}
	return detail
}

func (r *Resolver) fetchReleaseRef(ctx context.Context, ref *ReleaseRef) *ReleaseDetail {
	id := strconv.Itoa(ref.ID)
	var (
		detail *ReleaseDetail
		err    error
	)
	if ref.Type == "master" {
		detail, err = r.client.Master(ctx, id)
	} else {
		detail, err = r.client.Release(ctx, id)
	}
	if err != nil {
		r.logger.Debug("release fetch failed", slog.String("id", id), slog.String("error", err.Error()))
		return nil
	}
	return detail
}

func (r *Resolver) fillArtistFromRelease(ctx context.Context, release *ReleaseDetail, rec *catalog.Record) {
	if len(release.Artists) == 0 {
		return
	}
	artist := r.fetchArtist(ctx, strconv.Itoa(release.Artists[0].ID))
	if artist != nil {
		rec.Artist = mapArtist(artist)
	}
}

// findTrack scans a tracklist for a case-insensitive exact title match.
func findTrack(tracklist []TrackEntry, title string) *TrackEntry {
	for i := range tracklist {
		if catalog.TitlesEqual(tracklist[i].Title, title) {
			return &tracklist[i]
		}
	}
	return nil
}

// mapArtist normalizes a Discogs artist. Discogs has no structured life
// dates, genres or popularity on artists, so those fields are always null.
func mapArtist(d *ArtistDetail) catalog.Artist {
	images := make([]string, 0, len(d.Images))
	for _, img := range d.Images {
		images = append(images, img.URI)
	}
	members := make([]string, 0, len(d.Members))
	for _, m := range d.Members {
		members = append(members, m.Name)
	}
	var website *string
	if len(d.URLs) > 0 {
		website = catalog.String(d.URLs[0])
	}
	return catalog.Artist{
		Name:        catalog.String(d.Name),
		ID:          catalog.String(strconv.Itoa(d.ID)),
		Images:      images,
		Genres:      []string{},
		Website:     website,
		Description: catalog.String(strings.TrimSpace(d.Profile)),
		Birth:       nil,
		Death:       nil,
		Popularity:  nil,
		Members:     members,
	}
}

// mapAlbum normalizes a master/release detail. The search hit, when the
// chain started from one, supplies the label that master details omit.
func mapAlbum(d *ReleaseDetail, hit *SearchResult) catalog.Album {
	var image *string
	for _, img := range d.Images {
		if img.Type == "primary" {
			image = catalog.String(img.URI)
			break
		}
	}
	if image == nil && len(d.Images) > 0 {
		image = catalog.String(d.Images[0].URI)
	}
	if image == nil && hit != nil {
		image = catalog.String(hit.CoverImage)
	}

	var label *string
	if len(d.Labels) > 0 {
		label = catalog.String(d.Labels[0].Name)
	} else if hit != nil && len(hit.Label) > 0 {
		label = catalog.String(hit.Label[0])
	}

	var year *string
	if d.Year > 0 {
		year = catalog.String(strconv.Itoa(d.Year))
	} else if hit != nil {
		year = catalog.String(hit.Year)
	}

	var trackTotal *int
	if len(d.Tracklist) > 0 {
		trackTotal = catalog.Int(len(d.Tracklist))
	}

	var artistName *string
	if len(d.Artists) > 0 {
		artistName = catalog.String(d.Artists[0].Name)
	}

	genres := d.Genres
	if genres == nil {
		genres = []string{}
	}

	return catalog.Album{
		Title:       catalog.String(d.Title),
		ID:          catalog.String(strconv.Itoa(d.ID)),
		Image:       image,
		Genres:      genres,
		ReleaseDate: year,
		Label:       label,
		Description: catalog.String(strings.TrimSpace(d.Notes)),
		TrackTotal:  trackTotal,
		ArtistName:  artistName,
	}
}

// mapTrack normalizes a tracklist row. Discogs tracks have no id or preview;
// genres come from the containing release.
func mapTrack(entry *TrackEntry, release *ReleaseDetail) catalog.Track {
	genres := release.Genres
	if genres == nil {
		genres = []string{}
	}
	return catalog.Track{
		Title:      catalog.String(entry.Title),
		ID:         nil,
		DurationMS: parseDuration(entry.Duration),
		Genres:     genres,
		PreviewURL: nil,
	}
}

// parseDuration converts a clock string ("4:37", "1:02:10") to milliseconds.
// Returns nil for empty or malformed values.
func parseDuration(clock string) *int {
	clock = strings.TrimSpace(clock)
	if clock == "" {
		return nil
	}
	parts := strings.Split(clock, ":")
	if len(parts) > 3 {
		return nil
	}
	total := 0
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 {
			return nil
		}
		total = total*60 + n
	}
	return catalog.Int(total * 1000)
}
