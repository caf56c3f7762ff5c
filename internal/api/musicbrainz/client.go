package musicbrainz

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"tagfix/internal/shared"
)

// 1. Constants and types
const (
	defaultBaseURL      = "https://musicbrainz.org/ws/2/"
	defaultTimeout      = 30 * time.Second
	defaultRateLimit    = time.Second // MusicBrainz asks for at most 1 request per second
	defaultBurstLimit   = 1
	defaultMaxRetries   = 3
	defaultInitialDelay = 2 * time.Second
	defaultMaxDelay     = 60 * time.Second
)

// Config holds configuration for the MusicBrainz API client
type Config struct {
	BaseURL      string        `json:"base_url"`
	UserAgent    string        `json:"user_agent"`
	Timeout      time.Duration `json:"timeout"`
	MaxRetries   int           `json:"max_retries"`
	InitialDelay time.Duration `json:"initial_delay"`
	MaxDelay     time.Duration `json:"max_delay"`
	RateLimit    time.Duration `json:"rate_limit"`
	BurstLimit   int           `json:"burst_limit"`
	Debug        bool          `json:"debug"`
}

// Client represents a MusicBrainz API client. The rate limiter lives on the
// client, so one client shared across batch runs throttles the whole
// process.
type Client struct {
	httpClient  *http.Client
	config      Config
	rateLimiter *rate.Limiter
}

// 2. Constructor and configuration

// DefaultConfig returns sensible defaults for the MusicBrainz API client
func DefaultConfig() Config {
	return Config{
		BaseURL:      defaultBaseURL,
		UserAgent:    shared.UserAgent,
		Timeout:      defaultTimeout,
		MaxRetries:   defaultMaxRetries,
		InitialDelay: defaultInitialDelay,
		MaxDelay:     defaultMaxDelay,
		RateLimit:    defaultRateLimit,
		BurstLimit:   defaultBurstLimit,
		Debug:        false,
	}
}

// NewClient creates a new MusicBrainz API client with default configuration
func NewClient() *Client {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates a new MusicBrainz API client with custom configuration
func NewClientWithConfig(config Config) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		config:      config,
		rateLimiter: rate.NewLimiter(rate.Every(config.RateLimit), config.BurstLimit),
	}
}

// NewClientWithDebug creates a new MusicBrainz API client with debug mode enabled
func NewClientWithDebug(debug bool) *Client {
	config := DefaultConfig()
	config.Debug = debug
	return NewClientWithConfig(config)
}

// GetConfig returns the current client configuration
func (c *Client) GetConfig() Config {
	return c.config
}

// SetDebug enables or disables debug logging for the client
func (c *Client) SetDebug(debug bool) {
	c.config.Debug = debug
}

// 3. Core HTTP methods (private)

// makeRequest creates and executes an HTTP request with proper headers
func (c *Client) makeRequest(ctx context.Context, path string) (*http.Response, error) {
	reqURL, err := url.Parse(c.config.BaseURL + path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	return c.httpClient.Do(req)
}

// get makes a single GET request to the MusicBrainz API
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	resp, err := c.makeRequest(ctx, path)
	if err != nil {
		if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
			return nil, &shared.HTTPError{
				StatusCode: http.StatusGatewayTimeout,
				Status:     "Gateway Timeout",
				Message:    err.Error(),
			}
		}
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		message := string(body)
		if len(message) > 200 {
			message = message[:200] + "..."
		}
		return nil, &shared.HTTPError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Message:    message,
		}
	}

	return body, nil
}

// getWithRetry makes a GET request with retry logic
func (c *Client) getWithRetry(ctx context.Context, path string) ([]byte, error) {
	var result []byte
	var err error

	retryErr := shared.RetryWithBackoffForHTTPWithDebug(
		c.config.MaxRetries,
		c.config.InitialDelay,
		c.config.MaxDelay,
		func() error {
			result, err = c.get(ctx, path)
			return err
		},
		c.config.Debug,
	)

	if retryErr != nil {
		return nil, retryErr
	}
	return result, nil
}

// 4. Public API methods

// SearchRelease searches for a release by artist and album. A release with
// status "Official" wins over any other status; otherwise the first result
// is taken. Returns (nil, nil) when nothing matched.
func (c *Client) SearchRelease(ctx context.Context, artist, album string) (*Release, error) {
	if artist == "" || album == "" {
		return nil, fmt.Errorf("artist and album cannot be empty")
	}

	query := fmt.Sprintf("artist:%q AND release:%q", artist, album)
	path := fmt.Sprintf("release?query=%s&limit=5", url.QueryEscape(query))

	body, err := c.getWithRetry(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to search release: %w", err)
	}

	var searchResult struct {
		Releases []Release `json:"releases"`
	}
	if err := json.Unmarshal(body, &searchResult); err != nil {
		return nil, fmt.Errorf("failed to unmarshal release search result: %w", err)
	}

	return PickRelease(searchResult.Releases), nil
}

// PickRelease applies the official-first selection policy.
func PickRelease(releases []Release) *Release {
	if len(releases) == 0 {
		return nil
	}
	for i := range releases {
		if releases[i].Status == "Official" {
			return &releases[i]
		}
	}
	return &releases[0]
}

// LookupRelease fetches the full track listing plus genre information for
// a release by MBID.
func (c *Client) LookupRelease(ctx context.Context, mbid string) (*Release, error) {
	if mbid == "" {
		return nil, fmt.Errorf("MBID cannot be empty")
	}

	path := fmt.Sprintf("release/%s?inc=recordings+genres+release-groups+artist-credits", mbid)
	body, err := c.getWithRetry(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch release %s: %w", mbid, err)
	}

	var release Release
	if err := json.Unmarshal(body, &release); err != nil {
		return nil, fmt.Errorf("failed to unmarshal release: %w", err)
	}
	return &release, nil
}

// MatchTrack scans the release's track listing in disc-major, track-minor
// order and returns the first track whose title matches under normalized
// comparison. Returns nil when nothing matches.
func (c *Client) MatchTrack(release *Release, title string) *MediaTrack {
	if release == nil || title == "" {
		return nil
	}
	for m := range release.Media {
		for t := range release.Media[m].Tracks {
			track := &release.Media[m].Tracks[t]
			if TitlesMatch(track.Title, title) {
				track.DiscNumber = release.Media[m].Position
				if track.DiscNumber == 0 {
					track.DiscNumber = m + 1
				}
				return track
			}
		}
	}
	return nil
}

// ResolveGenres walks the fallback chain: track genres, then release
// genres, then release-group tags, then primary-artist tags. Each level is
// only queried when the previous one yielded nothing; lookup failures fall
// through to the next level. At most the top 3 tags by count are returned.
func (c *Client) ResolveGenres(ctx context.Context, release *Release, track *MediaTrack) []string {
	if track != nil {
		if names := topTagNames(track.Recording.Genres, track.Recording.Tags); len(names) > 0 {
			return names
		}
	}
	if release == nil {
		return nil
	}
	if names := topTagNames(release.Genres, release.Tags); len(names) > 0 {
		return names
	}

	if release.ReleaseGroup.ID != "" {
		if names := c.lookupTags(ctx, "release-group", release.ReleaseGroup.ID); len(names) > 0 {
			return names
		}
	}

	if len(release.ArtistCredit) > 0 && release.ArtistCredit[0].Artist.ID != "" {
		if names := c.lookupTags(ctx, "artist", release.ArtistCredit[0].Artist.ID); len(names) > 0 {
			return names
		}
	}
	return nil
}

func (c *Client) lookupTags(ctx context.Context, entity, mbid string) []string {
	path := fmt.Sprintf("%s/%s?inc=genres+tags", entity, mbid)
	body, err := c.getWithRetry(ctx, path)
	if err != nil {
		shared.DebugPrint(c.config.Debug, "tag lookup for %s %s failed: %v", entity, mbid, err)
		return nil
	}

	var result struct {
		Genres []TagCount `json:"genres"`
		Tags   []TagCount `json:"tags"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil
	}
	return topTagNames(result.Genres, result.Tags)
}

// Data types

// TagCount is a genre or folksonomy tag with its vote count
type TagCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Artist represents a MusicBrainz artist
type Artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ArtistCredit represents artist credit information
type ArtistCredit struct {
	Name   string `json:"name"`
	Artist Artist `json:"artist"`
}

// Recording carries the recording-level data of a media track
type Recording struct {
	ID     string     `json:"id"`
	Title  string     `json:"title"`
	Genres []TagCount `json:"genres"`
	Tags   []TagCount `json:"tags"`
}

// MediaTrack represents a track within release media. DiscNumber is filled
// in by MatchTrack.
type MediaTrack struct {
	ID        string    `json:"id"`
	Number    string    `json:"number"`
	Position  int       `json:"position"`
	Title     string    `json:"title"`
	Length    int       `json:"length"`
	Recording Recording `json:"recording"`

	DiscNumber int `json:"-"`
}

// Media represents one disc of a release
type Media struct {
	Position   int          `json:"position"`
	Format     string       `json:"format"`
	TrackCount int          `json:"track-count"`
	Tracks     []MediaTrack `json:"tracks"`
}

// ReleaseGroup represents a MusicBrainz release group
type ReleaseGroup struct {
	ID string `json:"id"`
}

// Release represents a MusicBrainz release (album)
type Release struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Status       string         `json:"status"`
	Date         string         `json:"date"`
	Country      string         `json:"country"`
	ArtistCredit []ArtistCredit `json:"artist-credit"`
	Media        []Media        `json:"media"`
	ReleaseGroup ReleaseGroup   `json:"release-group"`
	Genres       []TagCount     `json:"genres"`
	Tags         []TagCount     `json:"tags"`
}

// DiscCount returns the number of discs in the release
func (r *Release) DiscCount() int {
	return len(r.Media)
}

// Year extracts the four-digit year from the release date
func (r *Release) Year() string {
	if len(r.Date) >= 4 {
		return r.Date[:4]
	}
	return ""
}

// SearchReleaseGroupID finds the release-group MBID for an artist/album
// pair. Returns an empty string when nothing matched.
func (c *Client) SearchReleaseGroupID(ctx context.Context, artist, album string) (string, error) {
	if artist == "" || album == "" {
		return "", fmt.Errorf("artist and album cannot be empty")
	}

	query := fmt.Sprintf("artist:%q AND releasegroup:%q", artist, album)
	path := fmt.Sprintf("release-group?query=%s&limit=1", url.QueryEscape(query))

	body, err := c.getWithRetry(ctx, path)
	if err != nil {
		return "", fmt.Errorf("failed to search release group: %w", err)
	}

	var searchResult struct {
		ReleaseGroups []ReleaseGroup `json:"release-groups"`
	}
	if err := json.Unmarshal(body, &searchResult); err != nil {
		return "", fmt.Errorf("failed to unmarshal release group search result: %w", err)
	}
	if len(searchResult.ReleaseGroups) == 0 {
		return "", nil
	}
	return searchResult.ReleaseGroups[0].ID, nil
}
