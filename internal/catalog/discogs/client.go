// Package discogs resolves search criteria against the personal-token
// discography catalog (Discogs database API).
package discogs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/arnarpall/musicsearch/internal/catalog"
	"github.com/arnarpall/musicsearch/internal/settings"
)

const (
	defaultBaseURL = "https://api.discogs.com"
	userAgent      = "musicsearch/1.0"
	searchLimit    = 5
)

// Client is a thin transport wrapper around the Discogs search and detail
// endpoints. The personal access token is sent as an Authorization header,
// never as a query parameter, so it stays out of request logs.
type Client struct {
	client   *http.Client
	limiter  *catalog.RateLimiterMap
	settings *settings.Service
	logger   *slog.Logger
	baseURL  string
}

// NewClient creates a Discogs client with the default base URL.
func NewClient(limiter *catalog.RateLimiterMap, settings *settings.Service, logger *slog.Logger) *Client {
	return NewClientWithBaseURL(limiter, settings, logger, defaultBaseURL)
}

// NewClientWithBaseURL creates a Discogs client with a custom base URL (for testing).
func NewClientWithBaseURL(limiter *catalog.RateLimiterMap, settings *settings.Service, logger *slog.Logger, baseURL string) *Client {
	return &Client{
		client:   &http.Client{Timeout: 10 * time.Second},
		limiter:  limiter,
		settings: settings,
		logger:   logger.With(slog.String("catalog", "discogs")),
		baseURL:  strings.TrimRight(baseURL, "/"),
	}
}

// Search queries the database search endpoint for one result type
// ("artist", "master" or "release").
func (c *Client) Search(ctx context.Context, query, resultType string) (*SearchResponse, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}
	params := url.Values{
		"q":        {query},
		"type":     {resultType},
		"per_page": {fmt.Sprintf("%d", searchLimit)},
	}
	body, err := c.doRequest(ctx, token, c.baseURL+"/database/search?"+params.Encode())
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
func (c *Client) Artist(ctx context.Context, id string) (*ArtistDetail, error) {
	if id == "" {
		return nil, nil
	}
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}
	body, err := c.doRequest(ctx, token, c.baseURL+"/artists/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}
	var detail ArtistDetail
	if err := json.Unmarshal(body, &detail); err != nil {
		return nil, fmt.Errorf("parsing artist response: %w", err)
	}
	return &detail, nil
}

// Master fetches master release detail by id.
func (c *Client) Master(ctx context.Context, id string) (*ReleaseDetail, error) {
	return c.releaseDetail(ctx, "/masters/", id)
}

// Release fetches release detail by id.
func (c *Client) Release(ctx context.Context, id string) (*ReleaseDetail, error) {
	return c.releaseDetail(ctx, "/releases/", id)
}

func (c *Client) releaseDetail(ctx context.Context, prefix, id string) (*ReleaseDetail, error) {
	if id == "" {
		return nil, nil
	}
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}
	body, err := c.doRequest(ctx, token, c.baseURL+prefix+url.PathEscape(id))
	if err != nil {
		return nil, err
	}
	var detail ReleaseDetail
	if err := json.Unmarshal(body, &detail); err != nil {
		return nil, fmt.Errorf("parsing release response: %w", err)
	}
	return &detail, nil
}

// ArtistReleases lists an artist's releases.
func (c *Client) ArtistReleases(ctx context.Context, id string) ([]ReleaseRef, error) {
	if id == "" {
		return nil, nil
	}
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}
	params := url.Values{
		"sort":     {"year"},
		"per_page": {"50"},
	}
	body, err := c.doRequest(ctx, token, c.baseURL+"/artists/"+url.PathEscape(id)+"/releases?"+params.Encode())
	if err != nil {
		return nil, err
	}
	var resp ArtistReleasesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing artist releases response: %w", err)
	}
	return resp.Releases, nil
}

// TestConnection verifies the personal access token is valid.
func (c *Client) TestConnection(ctx context.Context) error {
	_, err := c.Search(ctx, "test", "artist")
	return err
}

func (c *Client) token(ctx context.Context) (string, error) {
	token, err := c.settings.DiscogsToken(ctx)
	if err != nil {
		return "", fmt.Errorf("reading access token: %w", err)
	}
	if token == "" {
		return "", &catalog.ErrAuthRequired{Source: catalog.SourceDiscogs}
	}
	return token, nil
}

func (c *Client) doRequest(ctx context.Context, token, reqURL string) ([]byte, error) {
	if err := c.limiter.Wait(ctx, catalog.SourceDiscogs); err != nil {
		return nil, &catalog.ErrSourceUnavailable{
			Source: catalog.SourceDiscogs,
			Cause:  fmt.Errorf("rate limiter: %w", err),
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Discogs token="+token)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("requesting", slog.String("url", reqURL))

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &catalog.ErrSourceUnavailable{Source: catalog.SourceDiscogs, Cause: err}
	}
	defer resp.Body.Close() //nolint:errcheck

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, &catalog.ErrNotFound{Source: catalog.SourceDiscogs, ID: reqURL}
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &catalog.ErrAuthRequired{Source: catalog.SourceDiscogs}
	case resp.StatusCode != http.StatusOK:
		return nil, &catalog.ErrSourceUnavailable{
			Source: catalog.SourceDiscogs,
			Cause:  fmt.Errorf("HTTP %d", resp.StatusCode),
		}
	}

	return io.ReadAll(resp.Body)
}
