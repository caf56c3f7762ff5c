package musicbrainz

import (
	"context"
	"testing"
	"time"
)

// CreateTestClient creates a client configured for testing
func CreateTestClient() *Client {
	config := DefaultConfig()
	config.Debug = true
	config.Timeout = 10 * time.Second
	config.MaxRetries = 2
	return NewClientWithConfig(config)
}

// CreateMockClient creates a client with mock configuration for unit tests
func CreateMockClient() *Client {
	config := Config{
		BaseURL:      "http://localhost:8080/ws/2/",
		UserAgent:    "test-client/1.0",
		Timeout:      5 * time.Second,
		MaxRetries:   1,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     1 * time.Second,
		RateLimit:    10 * time.Millisecond,
		BurstLimit:   10,
		Debug:        true,
	}
	return NewClientWithConfig(config)
}

func TestNewClient(t *testing.T) {
	client := NewClient()
	if client == nil {
		t.Fatal("NewClient() returned nil")
	}

	config := client.GetConfig()
	if config.BaseURL != defaultBaseURL {
		t.Errorf("Expected BaseURL %s, got %s", defaultBaseURL, config.BaseURL)
	}
	if config.RateLimit != time.Second {
		t.Errorf("Expected 1 req/s rate limit, got %v", config.RateLimit)
	}
}

func TestClientConfiguration(t *testing.T) {
	customConfig := Config{
		BaseURL:      "https://test.musicbrainz.org/ws/2/",
		UserAgent:    "test-agent/1.0",
		Timeout:      15 * time.Second,
		MaxRetries:   3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		RateLimit:    500 * time.Millisecond,
		BurstLimit:   3,
		Debug:        true,
	}

	client := NewClientWithConfig(customConfig)
	retrievedConfig := client.GetConfig()

	if retrievedConfig.BaseURL != customConfig.BaseURL {
		t.Errorf("Expected BaseURL %s, got %s", customConfig.BaseURL, retrievedConfig.BaseURL)
	}
	if retrievedConfig.Debug != customConfig.Debug {
		t.Errorf("Expected Debug %v, got %v", customConfig.Debug, retrievedConfig.Debug)
	}
}

func TestPickReleasePrefersOfficial(t *testing.T) {
	releases := []Release{
		{ID: "a", Status: "Bootleg"},
		{ID: "b", Status: "Official"},
		{ID: "c", Status: "Official"},
	}
	if got := PickRelease(releases); got.ID != "b" {
		t.Errorf("PickRelease = %s, want b", got.ID)
	}
}

func TestPickReleaseFallsBackToFirst(t *testing.T) {
	releases := []Release{
		{ID: "a", Status: "Bootleg"},
		{ID: "b", Status: "Promotion"},
	}
	if got := PickRelease(releases); got.ID != "a" {
		t.Errorf("PickRelease = %s, want a", got.ID)
	}
	if got := PickRelease(nil); got != nil {
		t.Error("PickRelease(nil) should be nil")
	}
}

func TestReleaseYear(t *testing.T) {
	r := &Release{Date: "1968-08-26"}
	if got := r.Year(); got != "1968" {
		t.Errorf("Year = %q, want 1968", got)
	}
	if got := (&Release{Date: "19"}).Year(); got != "" {
		t.Errorf("short date Year = %q, want empty", got)
	}
}

func BenchmarkClientCreation(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = NewClient()
	}
}

// Integration test helper
func TestIntegrationSearchRelease(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	client := CreateTestClient()
	ctx := context.Background()

	release, err := client.SearchRelease(ctx, "The Beatles", "Abbey Road")
	if err != nil {
		t.Fatalf("SearchRelease failed: %v", err)
	}
	if release == nil {
		t.Fatal("Expected a release for a well-known album")
	}
	if release.Title == "" {
		t.Error("Expected release title to be non-empty")
	}
}
