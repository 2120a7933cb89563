// Package spotify is the HTTP implementation of the catalog adapter,
// backed by the Spotify Web API with the client-credentials flow.
package spotify

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/everettsouthwick/songacronymbot/pkg/acrobot/catalog"
	"github.com/everettsouthwick/songacronymbot/pkg/acrobot/retry"
)

const (
	defaultAPIBaseURL = "https://api.spotify.com/v1"
	defaultTokenURL   = "https://accounts.spotify.com/api/token"
	defaultMarket     = "US"
	tokenExpirySlack  = 30 * time.Second
)

// Client calls the Spotify Web API and implements catalog.Client.
type Client struct {
	ClientID     string
	ClientSecret string

	// BaseURL and TokenURL override the live endpoints in tests.
	BaseURL  string
	TokenURL string
	Market   string

	HTTPClient *http.Client

	mu      sync.Mutex
	token   string
	expires time.Time
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type artistPayload struct {
	Name string `json:"name"`
}

type albumPayload struct {
	ID                   string          `json:"id"`
	Name                 string          `json:"name"`
	AlbumType            string          `json:"album_type"`
	ReleaseDate          string          `json:"release_date"`
	ReleaseDatePrecision string          `json:"release_date_precision"`
	Artists              []artistPayload `json:"artists"`
}

type albumsPage struct {
	Items []albumPayload `json:"items"`
	Total int            `json:"total"`
}

type trackPayload struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []artistPayload `json:"artists"`
	Album      *albumPayload   `json:"album"`
	Popularity int             `json:"popularity"`
}

type albumDetailPayload struct {
	albumPayload
	Tracks struct {
		Items []trackPayload `json:"items"`
	} `json:"tracks"`
}

type searchPayload struct {
	Tracks  *struct{ Items []trackPayload }  `json:"tracks"`
	Albums  *struct{ Items []albumPayload }  `json:"albums"`
	Artists *struct{ Items []artistPayload } `json:"artists"`
}

// Discography implements catalog.Client.
func (c *Client) Discography(ctx context.Context, artistID string, group catalog.Group, offset, limit int) (catalog.Page, error) {
	q := url.Values{}
	q.Set("include_groups", string(group))
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(limit))

	var payload albumsPage
	path := fmt.Sprintf("/artists/%s/albums?%s", url.PathEscape(artistID), q.Encode())
	if err := c.get(ctx, path, &payload); err != nil {
		return catalog.Page{}, err
	}

	page := catalog.Page{Total: payload.Total}
	for _, item := range payload.Items {
		page.Items = append(page.Items, toAlbum(item))
	}
	return page, nil
}

// Album implements catalog.Client.
func (c *Client) Album(ctx context.Context, id string) (catalog.AlbumDetail, error) {
	var payload albumDetailPayload
	if err := c.get(ctx, "/albums/"+url.PathEscape(id), &payload); err != nil {
		return catalog.AlbumDetail{}, err
	}

	detail := catalog.AlbumDetail{Album: toAlbum(payload.albumPayload)}
	for _, t := range payload.Tracks.Items {
		detail.Tracks = append(detail.Tracks, catalog.Track{ID: t.ID, Name: t.Name})
	}
	return detail, nil
}

// Search implements catalog.Client.
func (c *Client) Search(ctx context.Context, query string, kind catalog.SearchKind, limit int) ([]catalog.SearchResult, error) {
	if limit <= 0 {
		limit = 5
	}
	q := url.Values{}
	q.Set("q", query)
	q.Set("type", string(kind))
	q.Set("limit", strconv.Itoa(limit))
	q.Set("market", c.market())

	var payload searchPayload
	if err := c.get(ctx, "/search?"+q.Encode(), &payload); err != nil {
		return nil, err
	}

	var results []catalog.SearchResult
	switch {
	case payload.Tracks != nil:
		for _, t := range payload.Tracks.Items {
			r := catalog.SearchResult{
				Kind:       catalog.SearchTrack,
				Name:       t.Name,
				Popularity: t.Popularity,
			}
			for _, a := range t.Artists {
				r.ArtistNames = append(r.ArtistNames, a.Name)
			}
			if t.Album != nil {
				r.AlbumName = t.Album.Name
				r.AlbumType = t.Album.AlbumType
				r.ReleaseDate = t.Album.ReleaseDate
				r.ReleaseDatePrecision = t.Album.ReleaseDatePrecision
			}
			results = append(results, r)
		}
	case payload.Albums != nil:
		for _, a := range payload.Albums.Items {
			results = append(results, catalog.SearchResult{
				Kind:                 catalog.SearchAlbum,
				Name:                 a.Name,
				ArtistNames:          artistNames(a.Artists),
				AlbumType:            a.AlbumType,
				ReleaseDate:          a.ReleaseDate,
				ReleaseDatePrecision: a.ReleaseDatePrecision,
			})
		}
	case payload.Artists != nil:
		for _, a := range payload.Artists.Items {
			results = append(results, catalog.SearchResult{
				Kind: catalog.SearchArtist,
				Name: a.Name,
			})
		}
	}
	return results, nil
}

func toAlbum(p albumPayload) catalog.Album {
	return catalog.Album{
		ID:                   p.ID,
		Name:                 p.Name,
		Type:                 p.AlbumType,
		ReleaseDate:          p.ReleaseDate,
		ReleaseDatePrecision: p.ReleaseDatePrecision,
		ArtistNames:          artistNames(p.Artists),
	}
}

func artistNames(artists []artistPayload) []string {
	var names []string
	for _, a := range artists {
		names = append(names, a.Name)
	}
	return names
}

// get performs an authenticated GET and decodes the JSON body. Responses
// are mapped so callers can retry: 429 carries the server's Retry-After,
// 5xx and an expired token are transient, everything else is permanent.
func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL()+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return &retry.Transient{Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return decodeJSON(resp.Body, out)
	case resp.StatusCode == http.StatusTooManyRequests:
		return &retry.RateLimited{Hint: retryAfter(resp)}
	case resp.StatusCode == http.StatusUnauthorized:
		// Token expired mid-flight; drop it so the retry re-authenticates.
		c.mu.Lock()
		c.token = ""
		c.mu.Unlock()
		return &retry.Transient{Err: fmt.Errorf("spotify: token rejected")}
	case resp.StatusCode >= 500:
		return &retry.Transient{Err: fmt.Errorf("spotify: status %d", resp.StatusCode)}
	default:
		return fmt.Errorf("spotify: status %d for %s", resp.StatusCode, path)
	}
}

func retryAfter(resp *http.Response) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return 0
}

// accessToken returns a cached client-credentials token, fetching a new
// one when the cached token is missing or near expiry.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.expires.Add(-tokenExpirySlack)) {
		return c.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL(), strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	basic := base64.StdEncoding.EncodeToString([]byte(c.ClientID + ":" + c.ClientSecret))
	req.Header.Set("Authorization", "Basic "+basic)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return "", &retry.Transient{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("spotify: token request failed with status %d", resp.StatusCode)
	}

	var payload tokenResponse
	if err := decodeJSON(resp.Body, &payload); err != nil {
		return "", err
	}
	if payload.AccessToken == "" {
		return "", fmt.Errorf("spotify: empty access token")
	}

	c.token = payload.AccessToken
	c.expires = time.Now().Add(time.Duration(payload.ExpiresIn) * time.Second)
	return c.token, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 15 * time.Second}
}

func (c *Client) baseURL() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return defaultAPIBaseURL
}

func (c *Client) tokenURL() string {
	if c.TokenURL != "" {
		return c.TokenURL
	}
	return defaultTokenURL
}

func (c *Client) market() string {
	if c.Market != "" {
		return c.Market
	}
	return defaultMarket
}

func decodeJSON(r io.Reader, out interface{}) error {
	return json.NewDecoder(r).Decode(out)
}
