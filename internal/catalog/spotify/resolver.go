package spotify

import (
	"context"
	"errors"
	"log/slog"

	"github.com/arnarpall/musicsearch/internal/catalog"
)

// Resolver implements the free-text resolution chain for the Spotify catalog.
// Vendor failures are absorbed into empty entities; a missing id anywhere in
// a chain leaves everything downstream of it empty.
type Resolver struct {
	client *Client
	logger *slog.Logger
}

// NewResolver creates a Resolver over the given client.
func NewResolver(client *Client, logger *slog.Logger) *Resolver {
	return &Resolver{
		client: client,
		logger: logger.With(slog.String("catalog", "spotify")),
	}
}

// Source returns the catalog source this resolver serves.
func (r *Resolver) Source() catalog.Source { return catalog.SourceSpotify }

// Resolve runs the resolution chain for the criteria's input combination.
// The bearer token is exchanged once per call; if credentials are missing or
// the exchange fails, the whole record stays empty.
func (r *Resolver) Resolve(ctx context.Context, crit catalog.Criteria) (catalog.Record, error) {
	rec := catalog.EmptyRecord()
	if crit.Empty() {
		return rec, nil
	}

	token, err := r.client.AccessToken(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return rec, ctx.Err()
		}
		var authErr *catalog.ErrAuthRequired
		if errors.As(err, &authErr) {
			r.logger.Debug("skipping search, credentials not configured")
		} else {
			r.logger.Warn("token exchange failed", slog.String("error", err.Error()))
		}
		return rec, nil
	}

	switch crit.Case() {
	case catalog.CaseTrackOnly:
		r.resolveTrackOnly(ctx, token, crit.Track, &rec)
	case catalog.CaseAlbumOnly:
		r.resolveAlbumOnly(ctx, token, crit.Album, &rec)
	case catalog.CaseArtistOnly:
		r.resolveArtistOnly(ctx, token, crit.Artist, &rec)
	case catalog.CaseArtistAlbum:
		r.resolveArtistAlbum(ctx, token, crit.Artist, crit.Album, &rec)
	case catalog.CaseArtistTrack:
		r.resolveArtistTrack(ctx, token, crit.Artist, crit.Track, &rec)
	case catalog.CaseAlbumTrack:
		r.resolveAlbumTrack(ctx, token, crit.Album, crit.Track, &rec)
	case catalog.CaseArtistAlbumTrack:
		r.resolveAll(ctx, token, crit.Artist, crit.Album, crit.Track, &rec)
	}

	if ctx.Err() != nil {
		return catalog.EmptyRecord(), ctx.Err()
	}

	rec.Normalize()
	return rec, nil
}

// Case 1: track text only. Track search seeds the chain; the album comes from
// the track and the artist from the album.
func (r *Resolver) resolveTrackOnly(ctx context.Context, token, trackText string, rec *catalog.Record) {
	hit := r.searchOne(ctx, token, trackText, catalog.KindTrack)
	if hit == "" {
		return
	}
	track := r.fetchTrack(ctx, token, hit)
	if track == nil {
		return
	}
	rec.Track = mapTrack(track)

	var albumID string
	if track.Album != nil {
		albumID = track.Album.ID
	}
	album := r.fetchAlbum(ctx, token, albumID)
	if album == nil {
		return
	}
	rec.Album = mapAlbum(album)

	artist := r.fetchArtist(ctx, token, primaryArtistID(album.Artists))
	if artist != nil {
		rec.Artist = mapArtist(artist)
	}
}

// Case 2: album text only.
func (r *Resolver) resolveAlbumOnly(ctx context.Context, token, albumText string, rec *catalog.Record) {
	hit := r.searchOne(ctx, token, albumText, catalog.KindAlbum)
	if hit == "" {
		return
	}
	album := r.fetchAlbum(ctx, token, hit)
	if album == nil {
		return
	}
	rec.Album = mapAlbum(album)

	artist := r.fetchArtist(ctx, token, primaryArtistID(album.Artists))
	if artist != nil {
		rec.Artist = mapArtist(artist)
	}
}

// Case 3: artist text only.
func (r *Resolver) resolveArtistOnly(ctx context.Context, token, artistText string, rec *catalog.Record) {
	hit := r.searchOne(ctx, token, artistText, catalog.KindArtist)
	if hit == "" {
		return
	}
	artist := r.fetchArtist(ctx, token, hit)
	if artist != nil {
		rec.Artist = mapArtist(artist)
	}
}

// Case 4: artist + album. The album must exactly match one of the artist's
// known albums by title; no match leaves the album empty.
func (r *Resolver) resolveArtistAlbum(ctx context.Context, token, artistText, albumText string, rec *catalog.Record) {
	artist := r.resolveArtistByText(ctx, token, artistText, rec)
	if artist == nil {
		return
	}
	match := r.findAlbumByTitle(ctx, token, artist.ID, albumText)
	if match == nil {
		return
	}
	album := r.fetchAlbum(ctx, token, match.ID)
	if album != nil {
		rec.Album = mapAlbum(album)
	}
}

// Case 5: artist + track. Every album's track listing is scanned until the
// first exact title match; the album is whichever one contained the match.
func (r *Resolver) resolveArtistTrack(ctx context.Context, token, artistText, trackText string, rec *catalog.Record) {
	artist := r.resolveArtistByText(ctx, token, artistText, rec)
	if artist == nil {
		return
	}
	albums := r.listArtistAlbums(ctx, token, artist.ID)
	for _, a := range albums {
		album := r.fetchAlbum(ctx, token, a.ID)
		if album == nil || album.Tracks == nil {
			continue
		}
		for _, item := range album.Tracks.Items {
			if !catalog.TitlesEqual(item.Name, trackText) {
				continue
			}
			track := r.fetchTrack(ctx, token, item.ID)
			if track != nil {
				rec.Track = mapTrack(track)
				rec.Album = mapAlbum(album)
			}
			return
		}
	}
}

// Case 6: album + track, no artist. The artist is derived from the matched
// album's primary artist reference, never inferred from the track text.
func (r *Resolver) resolveAlbumTrack(ctx context.Context, token, albumText, trackText string, rec *catalog.Record) {
	hit := r.searchOne(ctx, token, albumText, catalog.KindAlbum)
	if hit == "" {
		return
	}
	album := r.fetchAlbum(ctx, token, hit)
	if album == nil {
		return
	}
	rec.Album = mapAlbum(album)

	if album.Tracks != nil {
		for _, item := range album.Tracks.Items {
			if catalog.TitlesEqual(item.Name, trackText) {
				if track := r.fetchTrack(ctx, token, item.ID); track != nil {
					rec.Track = mapTrack(track)
				}
				break
			}
		}
	}

	artist := r.fetchArtist(ctx, token, primaryArtistID(album.Artists))
	if artist != nil {
		rec.Artist = mapArtist(artist)
	}
}

// Case 7: all three inputs.
func (r *Resolver) resolveAll(ctx context.Context, token, artistText, albumText, trackText string, rec *catalog.Record) {
	artist := r.resolveArtistByText(ctx, token, artistText, rec)
	if artist == nil {
		return
	}
	match := r.findAlbumByTitle(ctx, token, artist.ID, albumText)
	if match == nil {
		return
	}
	album := r.fetchAlbum(ctx, token, match.ID)
	if album == nil {
		return
	}
	rec.Album = mapAlbum(album)

	if album.Tracks == nil {
		return
	}
	for _, item := range album.Tracks.Items {
		if catalog.TitlesEqual(item.Name, trackText) {
			if track := r.fetchTrack(ctx, token, item.ID); track != nil {
				rec.Track = mapTrack(track)
			}
			return
		}
	}
}

// resolveArtistByText searches for the artist, fetches its detail and fills
// the record. Returns nil when the chain dead-ends.
func (r *Resolver) resolveArtistByText(ctx context.Context, token, artistText string, rec *catalog.Record) *ArtistObject {
	hit := r.searchOne(ctx, token, artistText, catalog.KindArtist)
	if hit == "" {
		return nil
	}
	artist := r.fetchArtist(ctx, token, hit)
	if artist == nil {
		return nil
	}
	rec.Artist = mapArtist(artist)
	return artist
}

// findAlbumByTitle scans the artist's album listing for a case-insensitive
// exact title match; first qualifying match wins.
func (r *Resolver) findAlbumByTitle(ctx context.Context, token, artistID, title string) *AlbumObject {
	for _, a := range r.listArtistAlbums(ctx, token, artistID) {
		if catalog.TitlesEqual(a.Name, title) {
			return &a
		}
	}
	return nil
}

// searchOne returns the id of the first search hit, or "" on miss or failure.
func (r *Resolver) searchOne(ctx context.Context, token, query string, kind catalog.EntityKind) string {
	resp, err := r.client.Search(ctx, token, query, kind)
	if err != nil {
		r.logger.Warn("search failed",
			slog.String("kind", string(kind)),
			slog.String("error", err.Error()))
		return ""
	}
	switch kind {
	case catalog.KindArtist:
		if resp.Artists != nil && len(resp.Artists.Items) > 0 {
			return resp.Artists.Items[0].ID
		}
	case catalog.KindAlbum:
		if resp.Albums != nil && len(resp.Albums.Items) > 0 {
			return resp.Albums.Items[0].ID
		}
	case catalog.KindTrack:
		if resp.Tracks != nil && len(resp.Tracks.Items) > 0 {
			return resp.Tracks.Items[0].ID
		}
	}
	return ""
}

func (r *Resolver) fetchArtist(ctx context.Context, token, id string) *ArtistObject {
	artist, err := r.client.Artist(ctx, token, id)
	if err != nil {
		r.logger.Debug("artist fetch failed", slog.String("id", id), slog.String("error", err.Error()))
		return nil
	}
	return artist
}

func (r *Resolver) fetchAlbum(ctx context.Context, token, id string) *AlbumObject {
	album, err := r.client.Album(ctx, token, id)
	if err != nil {
		r.logger.Debug("album fetch failed", slog.String("id", id), slog.String("error", err.Error()))
		return nil
	}
	return album
}

func (r *Resolver) fetchTrack(ctx context.Context, token, id string) *TrackObject {
	track, err := r.client.Track(ctx, token, id)
	if err != nil {
		r.logger.Debug("track fetch failed", slog.String("id", id), slog.String("error", err.Error()))
		return nil
	}
	return track
}

func (r *Resolver) listArtistAlbums(ctx context.Context, token, artistID string) []AlbumObject {
	albums, err := r.client.ArtistAlbums(ctx, token, artistID)
	if err != nil {
		r.logger.Debug("artist albums fetch failed", slog.String("id", artistID), slog.String("error", err.Error()))
		return nil
	}
	return albums
}

func primaryArtistID(refs []ArtistRef) string {
	if len(refs) == 0 {
		return ""
	}
	return refs[0].ID
}

// mapArtist normalizes a Spotify artist. Spotify carries no biography or
// life dates and no member listing, so those fields are always null here.
func mapArtist(a *ArtistObject) catalog.Artist {
	images := make([]string, 0, len(a.Images))
	for _, img := range a.Images {
		images = append(images, img.URL)
	}
	genres := a.Genres
	if genres == nil {
		genres = []string{}
	}
	return catalog.Artist{
		Name:        catalog.String(a.Name),
		ID:          catalog.String(a.ID),
		Images:      images,
		Genres:      genres,
		Website:     catalog.String(a.ExternalURLs["spotify"]),
		Description: nil,
		Birth:       nil,
		Death:       nil,
		Popularity:  catalog.Int(a.Popularity),
		Members:     []string{},
	}
}

func mapAlbum(a *AlbumObject) catalog.Album {
	var image *string
	if len(a.Images) > 0 {
		image = catalog.String(a.Images[0].URL)
	}
	genres := a.Genres
	if genres == nil {
		genres = []string{}
	}
	var artistName *string
	if len(a.Artists) > 0 {
		artistName = catalog.String(a.Artists[0].Name)
	}
	var trackTotal *int
	if a.TotalTracks > 0 {
		trackTotal = catalog.Int(a.TotalTracks)
	}
	return catalog.Album{
		Title:       catalog.String(a.Name),
		ID:          catalog.String(a.ID),
		Image:       image,
		Genres:      genres,
		ReleaseDate: catalog.String(a.ReleaseDate),
		Label:       catalog.String(a.Label),
		Description: nil,
		TrackTotal:  trackTotal,
		ArtistName:  artistName,
	}
}

// mapTrack normalizes a Spotify track. Spotify attaches genres to artists and
// albums, never tracks, so the genres list is always empty here.
func mapTrack(t *TrackObject) catalog.Track {
	var duration *int
	if t.DurationMS > 0 {
		duration = catalog.Int(t.DurationMS)
	}
	return catalog.Track{
		Title:      catalog.String(t.Name),
		ID:         catalog.String(t.ID),
		DurationMS: duration,
		Genres:     []string{},
		PreviewURL: catalog.String(t.PreviewURL),
	}
}
