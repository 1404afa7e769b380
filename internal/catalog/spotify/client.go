// Package spotify resolves search criteria against the token-based streaming
// catalog (Spotify Web API).
package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2/clientcredentials"

	"github.com/arnarpall/musicsearch/internal/catalog"
	"github.com/arnarpall/musicsearch/internal/settings"
)

const (
	defaultBaseURL  = "https://api.spotify.com/v1"
	defaultTokenURL = "https://accounts.spotify.com/api/token"

	searchLimit = 5
)

// Client is a thin transport wrapper around the Spotify search and detail
// endpoints. It owns the client-credentials token exchange; all other methods
// take the bearer token obtained for the current search sequence.
type Client struct {
	client   *http.Client
	limiter  *catalog.RateLimiterMap
	settings *settings.Service
	logger   *slog.Logger
	baseURL  string
	tokenURL string
}

// NewClient creates a Spotify client with the default endpoints.
func NewClient(limiter *catalog.RateLimiterMap, settings *settings.Service, logger *slog.Logger) *Client {
	return NewClientWithBaseURL(limiter, settings, logger, defaultBaseURL, defaultTokenURL)
}

// NewClientWithBaseURL creates a Spotify client with custom endpoints (for testing).
func NewClientWithBaseURL(limiter *catalog.RateLimiterMap, settings *settings.Service, logger *slog.Logger, baseURL, tokenURL string) *Client {
	return &Client{
		client:   &http.Client{Timeout: 10 * time.Second},
		limiter:  limiter,
		settings: settings,
		logger:   logger.With(slog.String("catalog", "spotify")),
		baseURL:  strings.TrimRight(baseURL, "/"),
		tokenURL: tokenURL,
	}
}

// AccessToken exchanges the configured client id/secret for a short-lived
// bearer token. Returns ErrAuthRequired when no credentials are configured
// and ErrSourceUnavailable when the exchange fails; callers treat either as
// "skip this source", not as a fatal error.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	clientID, clientSecret, err := c.settings.SpotifyCredentials(ctx)
	if err != nil {
		return "", fmt.Errorf("reading credentials: %w", err)
	}
	if clientID == "" || clientSecret == "" {
		return "", &catalog.ErrAuthRequired{Source: catalog.SourceSpotify}
	}

	conf := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     c.tokenURL,
	}
	token, err := conf.Token(ctx)
	if err != nil {
		return "", &catalog.ErrSourceUnavailable{Source: catalog.SourceSpotify, Cause: err}
	}
	return token.AccessToken, nil
}

// Search queries the search endpoint for the given entity kind.
func (c *Client) Search(ctx context.Context, token, query string, kind catalog.EntityKind) (*SearchResponse, error) {
	params := url.Values{
		"q":     {query},
		"type":  {string(kind)},
		"limit": {strconv.Itoa(searchLimit)},
	}
	body, err := c.doRequest(ctx, token, c.baseURL+"/search?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var resp SearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing search response: %w", err)
	}
	return &resp, nil
}

// Artist fetches artist detail by id. A nil result with nil error means the
// id was empty and no call was made.
func (c *Client) Artist(ctx context.Context, token, id string) (*ArtistObject, error) {
	if id == "" {
		return nil, nil
	}
	body, err := c.doRequest(ctx, token, c.baseURL+"/artists/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}
	var artist ArtistObject
	if err := json.Unmarshal(body, &artist); err != nil {
		return nil, fmt.Errorf("parsing artist response: %w", err)
	}
	return &artist, nil
}

// Album fetches album detail by id, including its track listing.
func (c *Client) Album(ctx context.Context, token, id string) (*AlbumObject, error) {
	if id == "" {
		return nil, nil
	}
	body, err := c.doRequest(ctx, token, c.baseURL+"/albums/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}
	var album AlbumObject
	if err := json.Unmarshal(body, &album); err != nil {
		return nil, fmt.Errorf("parsing album response: %w", err)
	}
	return &album, nil
}

// Track fetches track detail by id.
func (c *Client) Track(ctx context.Context, token, id string) (*TrackObject, error) {
	if id == "" {
		return nil, nil
	}
	body, err := c.doRequest(ctx, token, c.baseURL+"/tracks/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}
	var track TrackObject
	if err := json.Unmarshal(body, &track); err != nil {
		return nil, fmt.Errorf("parsing track response: %w", err)
	}
	return &track, nil
}

// ArtistAlbums lists an artist's known albums (simplified album objects).
func (c *Client) ArtistAlbums(ctx context.Context, token, id string) ([]AlbumObject, error) {
	if id == "" {
		return nil, nil
	}
	params := url.Values{
		"include_groups": {"album,single,compilation"},
		"limit":          {"50"},
	}
	body, err := c.doRequest(ctx, token, c.baseURL+"/artists/"+url.PathEscape(id)+"/albums?"+params.Encode())
	if err != nil {
		return nil, err
	}
	var page AlbumPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("parsing artist albums response: %w", err)
	}
	return page.Items, nil
}

// TestConnection verifies the configured credentials by performing a token
// exchange and a minimal search.
func (c *Client) TestConnection(ctx context.Context) error {
	token, err := c.AccessToken(ctx)
	if err != nil {
		return err
	}
	_, err = c.Search(ctx, token, "test", catalog.KindArtist)
	return err
}

func (c *Client) doRequest(ctx context.Context, token, reqURL string) ([]byte, error) {
	if err := c.limiter.Wait(ctx, catalog.SourceSpotify); err != nil {
		return nil, &catalog.ErrSourceUnavailable{
			Source: catalog.SourceSpotify,
			Cause:  fmt.Errorf("rate limiter: %w", err),
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("requesting", slog.String("url", reqURL))

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &catalog.ErrSourceUnavailable{Source: catalog.SourceSpotify, Cause: err}
	}
	defer resp.Body.Close() //nolint:errcheck

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, &catalog.ErrNotFound{Source: catalog.SourceSpotify, ID: reqURL}
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &catalog.ErrAuthRequired{Source: catalog.SourceSpotify}
	case resp.StatusCode != http.StatusOK:
		return nil, &catalog.ErrSourceUnavailable{
			Source: catalog.SourceSpotify,
			Cause:  fmt.Errorf("HTTP %d", resp.StatusCode),
		}
	}

	return io.ReadAll(resp.Body)
}
