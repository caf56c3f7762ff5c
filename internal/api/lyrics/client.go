package lyrics

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tagfix/internal/shared"
)

const (
	defaultBaseURL      = "https://lrclib.net"
	defaultTimeout      = 15 * time.Second
	defaultMaxRetries   = 3
	defaultInitialDelay = 2 * time.Second
	defaultMaxDelay     = 30 * time.Second
)

// Config holds configuration for the lrclib client
type Config struct {
	BaseURL      string        `json:"base_url"`
	UserAgent    string        `json:"user_agent"`
	Timeout      time.Duration `json:"timeout"`
	MaxRetries   int           `json:"max_retries"`
	InitialDelay time.Duration `json:"initial_delay"`
	MaxDelay     time.Duration `json:"max_delay"`
	Debug        bool          `json:"debug"`
}

// DefaultConfig returns sensible defaults for the lrclib client
func DefaultConfig() Config {
	return Config{
		BaseURL:      defaultBaseURL,
		UserAgent:    shared.UserAgent,
		Timeout:      defaultTimeout,
		MaxRetries:   defaultMaxRetries,
		InitialDelay: defaultInitialDelay,
		MaxDelay:     defaultMaxDelay,
	}
}

// Client queries lrclib.net for plain and time-synced lyrics
type Client struct {
	httpClient *http.Client
	config     Config
}

// NewClient creates a lyrics client with default configuration
func NewClient() *Client {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates a lyrics client with custom configuration
func NewClientWithConfig(config Config) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: config.Timeout},
		config:     config,
	}
}

// Candidate is one lyrics suggestion returned by the service
type Candidate struct {
	Artist   string
	Title    string
	Album    string
	Duration float64 // seconds
	Plain    string
	Synced   string
}

// IsSynced reports whether the candidate carries time-synced lyrics
func (c Candidate) IsSynced() bool {
	return strings.TrimSpace(c.Synced) != ""
}

// Text returns the synced lyrics when present, otherwise the plain text
func (c Candidate) Text() string {
	if c.IsSynced() {
		return c.Synced
	}
	return c.Plain
}

type lrclibResult struct {
	TrackName    string  `json:"trackName"`
	ArtistName   string  `json:"artistName"`
	AlbumName    string  `json:"albumName"`
	Duration     float64 `json:"duration"`
	Instrumental bool    `json:"instrumental"`
	PlainLyrics  string  `json:"plainLyrics"`
	SyncedLyrics string  `json:"syncedLyrics"`
}

// Search queries the service by artist and title and returns every usable
// candidate in service order.
func (c *Client) Search(ctx context.Context, artist, title string) ([]Candidate, error) {
	if title == "" {
		return nil, fmt.Errorf("title cannot be empty")
	}

	query := strings.TrimSpace(artist + " " + title)
	reqURL := fmt.Sprintf("%s/api/search?q=%s", c.config.BaseURL, url.QueryEscape(query))

	var body []byte
	err := shared.RetryWithBackoffForHTTPWithDebug(
		c.config.MaxRetries,
		c.config.InitialDelay,
		c.config.MaxDelay,
		func() error {
			var fetchErr error
			body, fetchErr = c.get(ctx, reqURL)
			return fetchErr
		},
		c.config.Debug,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search lyrics: %w", err)
	}

	var results []lrclibResult
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("failed to unmarshal lyrics search result: %w", err)
	}

	candidates := make([]Candidate, 0, len(results))
	for _, r := range results {
		if r.Instrumental || (r.PlainLyrics == "" && r.SyncedLyrics == "") {
			continue
		}
		candidates = append(candidates, Candidate{
			Artist:   r.ArtistName,
			Title:    r.TrackName,
			Album:    r.AlbumName,
			Duration: r.Duration,
			Plain:    r.PlainLyrics,
			Synced:   r.SyncedLyrics,
		})
	}
	return candidates, nil
}

func (c *Client) get(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.config.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &shared.HTTPError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Message:    "lyrics search failed",
		}
	}
	return io.ReadAll(resp.Body)
}

// Best selects the candidate to embed. Synced candidates strictly dominate
// plain ones; within a kind the smallest duration distance to the file's
// actual duration wins. With an unknown file duration every distance ties
// and the first candidate of the preferred kind is taken.
func Best(candidates []Candidate, fileDuration int) *Candidate {
	var best *Candidate
	bestDist := math.MaxFloat64

	pick := func(pool []Candidate, synced bool) {
		for i := range pool {
			c := &pool[i]
			if c.IsSynced() != synced {
				continue
			}
			dist := math.MaxFloat64
			if fileDuration > 0 && c.Duration > 0 {
				dist = math.Abs(c.Duration - float64(fileDuration))
			}
			if best == nil || dist < bestDist {
				best = c
				bestDist = dist
			}
		}
	}

	pick(candidates, true)
	if best == nil {
		pick(candidates, false)
	}
	return best
}
