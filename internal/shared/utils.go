package shared

import (
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"strings"
	"time"
)

// Constants
const (
	DefaultMaxRetries = 3
	UserAgent         = "tagfix/1.0 (https://github.com/tagfix/tagfix)"
)

// HTTPError represents an HTTP error with status code
type HTTPError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s - %s", e.StatusCode, e.Status, e.Message)
}

// IsRetryableHTTPError checks if an HTTP error should be retried
func IsRetryableHTTPError(err error) bool {
	for err != nil {
		if httpErr, ok := err.(*HTTPError); ok {
			switch httpErr.StatusCode {
			case http.StatusServiceUnavailable, // 503
				http.StatusTooManyRequests, // 429
				http.StatusBadGateway,      // 502
				http.StatusGatewayTimeout:  // 504
				return true
			}
		}
		if unwrapped, ok := err.(interface{ Unwrap() error }); ok {
			err = unwrapped.Unwrap()
		} else {
			break
		}
	}
	return false
}

// RetryWithBackoffForHTTP retries HTTP requests with smart error handling
func RetryWithBackoffForHTTP(maxRetries int, initialDelay time.Duration, maxDelay time.Duration, fn func() error) error {
	return RetryWithBackoffForHTTPWithDebug(maxRetries, initialDelay, maxDelay, fn, false)
}

// RetryWithBackoffForHTTPWithDebug retries HTTP requests with smart error handling and optional debug logging
func RetryWithBackoffForHTTPWithDebug(maxRetries int, initialDelay time.Duration, maxDelay time.Duration, fn func() error, debug bool) error {
	var lastErr error

	if maxRetries == 0 {
		return fn()
	}

	for attempt := 0; attempt < maxRetries; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if !IsRetryableHTTPError(lastErr) {
			return lastErr
		}

		if attempt == maxRetries-1 {
			break
		}

		delay := initialDelay * time.Duration(1<<uint(attempt))
		if delay > maxDelay {
			delay = maxDelay
		}

		// ±25% jitter
		jitter := time.Duration(rand.Int63n(int64(delay/2))) - delay/4
		finalDelay := delay + jitter
		if finalDelay < 0 {
			finalDelay = delay
		}

		if debug {
			DebugPrint(true, "HTTP request failed (attempt %d/%d): %v. Retrying in %v",
				attempt+1, maxRetries, lastErr, finalDelay)
		}

		time.Sleep(finalDelay)
	}

	return fmt.Errorf("failed after %d attempts: %w", maxRetries, lastErr)
}

// SanitizeFileName cleans a string to make it safe for use as a file name
func SanitizeFileName(name string) string {
	invalidChars := []string{"<", ">", ":", `"`, `/`, `\`, `|`, `?`, `*`, "\x00"}
	result := name
	for _, char := range invalidChars {
		result = strings.ReplaceAll(result, char, "_")
	}
	// Remove leading/trailing spaces and periods
	result = strings.Trim(result, " .")
	if len(result) > 255 {
		result = result[:255]
	}
	if result == "" {
		result = "unknown"
	}
	return result
}

// FileExists checks if a file exists at the given path
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// TruncateString truncates a string to the specified length, adding ellipsis if truncated.
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// CreateDirIfNotExists creates a directory if it doesn't exist
func CreateDirIfNotExists(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}
