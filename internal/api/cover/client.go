package cover

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"tagfix/internal/api/musicbrainz"
	"tagfix/internal/shared"
	"tagfix/internal/tag"
)

const (
	defaultITunesBaseURL  = "https://itunes.apple.com"
	defaultArchiveBaseURL = "https://coverartarchive.org"
	defaultTimeout        = 20 * time.Second
	defaultMaxRetries     = 3
	defaultInitialDelay   = 2 * time.Second
	defaultMaxDelay       = 30 * time.Second
)

// Config holds configuration for the cover art client
type Config struct {
	ITunesBaseURL  string        `json:"itunes_base_url"`
	ArchiveBaseURL string        `json:"archive_base_url"`
	UserAgent      string        `json:"user_agent"`
	Timeout        time.Duration `json:"timeout"`
	MaxRetries     int           `json:"max_retries"`
	InitialDelay   time.Duration `json:"initial_delay"`
	MaxDelay       time.Duration `json:"max_delay"`
	Debug          bool          `json:"debug"`
}

// DefaultConfig returns sensible defaults for the cover art client
func DefaultConfig() Config {
	return Config{
		ITunesBaseURL:  defaultITunesBaseURL,
		ArchiveBaseURL: defaultArchiveBaseURL,
		UserAgent:      shared.UserAgent,
		Timeout:        defaultTimeout,
		MaxRetries:     defaultMaxRetries,
		InitialDelay:   defaultInitialDelay,
		MaxDelay:       defaultMaxDelay,
	}
}

// Candidate is one cover art suggestion: a URL plus its provenance
type Candidate struct {
	URL    string
	Source string // "iTunes" or "Cover Art Archive"
	Size   string // approximate, informational only
}

// Client queries the iTunes Search API and the Cover Art Archive. The
// MusicBrainz client is reused for the release-group lookup so the shared
// rate limit applies.
type Client struct {
	httpClient *http.Client
	config     Config
	mb         *musicbrainz.Client
}

// NewClient creates a cover art client with default configuration
func NewClient(mb *musicbrainz.Client) *Client {
	return NewClientWithConfig(DefaultConfig(), mb)
}

// NewClientWithConfig creates a cover art client with custom configuration
func NewClientWithConfig(config Config, mb *musicbrainz.Client) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: config.Timeout},
		config:     config,
		mb:         mb,
	}
}

// Search returns a combined candidate list, iTunes results first and the
// archive second. Provider failures degrade to fewer candidates, never to
// an error, as long as one provider answered.
func (c *Client) Search(ctx context.Context, artist, album string) ([]Candidate, error) {
	if artist == "" && album == "" {
		return nil, fmt.Errorf("artist and album cannot both be empty")
	}

	var itunesCandidates, archiveCandidates []Candidate
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		itunesCandidates = c.searchITunes(gctx, artist, album)
		return nil
	})
	g.Go(func() error {
		archiveCandidates = c.searchArchive(gctx, artist, album)
		return nil
	})
	_ = g.Wait()

	combined := append(itunesCandidates, archiveCandidates...)
	if len(combined) == 0 {
		return nil, nil
	}
	return combined, nil
}

type itunesResult struct {
	CollectionName string `json:"collectionName"`
	ArtistName     string `json:"artistName"`
	ArtworkURL100  string `json:"artworkUrl100"`
}

func (c *Client) searchITunes(ctx context.Context, artist, album string) []Candidate {
	term := strings.TrimSpace(artist + " " + album)
	reqURL := fmt.Sprintf("%s/search?term=%s&media=music&entity=album&limit=5",
		c.config.ITunesBaseURL, url.QueryEscape(term))

	body, err := c.get(ctx, reqURL)
	if err != nil {
		shared.DebugPrint(c.config.Debug, "iTunes search failed: %v", err)
		return nil
	}

	var parsed struct {
		Results []itunesResult `json:"results"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil
	}

	var candidates []Candidate
	for _, r := range parsed.Results {
		if r.ArtworkURL100 == "" {
			continue
		}
		candidates = append(candidates, Candidate{
			URL:    strings.Replace(r.ArtworkURL100, "100x100bb", "1000x1000bb", 1),
			Source: "iTunes",
			Size:   "1000x1000",
		})
	}
	return candidates
}

func (c *Client) searchArchive(ctx context.Context, artist, album string) []Candidate {
	if c.mb == nil {
		return nil
	}
	groupID, err := c.mb.SearchReleaseGroupID(ctx, artist, album)
	if err != nil || groupID == "" {
		shared.DebugPrint(c.config.Debug, "release group lookup failed: %v", err)
		return nil
	}
	return []Candidate{{
		URL:    fmt.Sprintf("%s/release-group/%s/front", c.config.ArchiveBaseURL, groupID),
		Source: "Cover Art Archive",
		Size:   "original",
	}}
}

// Download fetches a candidate and normalizes it to the embedded cover
// shape (bounded square JPEG).
func (c *Client) Download(ctx context.Context, candidate Candidate) ([]byte, error) {
	var body []byte
	err := shared.RetryWithBackoffForHTTPWithDebug(
		c.config.MaxRetries,
		c.config.InitialDelay,
		c.config.MaxDelay,
		func() error {
			var fetchErr error
			body, fetchErr = c.get(ctx, candidate.URL)
			return fetchErr
		},
		c.config.Debug,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to download cover from %s: %w", candidate.Source, err)
	}
	return tag.NormalizeCover(body)
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
			Message:    "cover request failed",
		}
	}
	return io.ReadAll(resp.Body)
}
