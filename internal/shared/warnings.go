package shared

import (
	"fmt"
	"sort"
	"strings"
)

// WarningType represents different types of warnings
type WarningType int

const (
	ReleaseLookupWarning WarningType = iota
	TrackMatchWarning
	GenreLookupWarning
	LyricsLookupWarning
	CoverDownloadWarning
	SidecarWriteWarning
)

// Warning represents a single warning with context
type Warning struct {
	Type    WarningType
	Message string
	Context string // File/Album context
	Details string // Additional details like error message
}

// WarningCollector collects warnings during batch operations
type WarningCollector struct {
	warnings []Warning
	enabled  bool
}

// NewWarningCollector creates a new warning collector
func NewWarningCollector(enabled bool) *WarningCollector {
	return &WarningCollector{
		warnings: make([]Warning, 0),
		enabled:  enabled,
	}
}

// AddWarning adds a warning to the collector
func (wc *WarningCollector) AddWarning(warningType WarningType, context, message, details string) {
	if !wc.enabled {
		return
	}

	wc.warnings = append(wc.warnings, Warning{
		Type:    warningType,
		Message: message,
		Context: context,
		Details: details,
	})
}

// AddReleaseLookupWarning adds a release lookup warning
func (wc *WarningCollector) AddReleaseLookupWarning(artist, album, details string) {
	context := fmt.Sprintf("%s - %s", artist, album)
	wc.AddWarning(ReleaseLookupWarning, context, "Failed to find release", details)
}

// AddTrackMatchWarning adds a track match warning
func (wc *WarningCollector) AddTrackMatchWarning(artist, title, details string) {
	context := fmt.Sprintf("%s - %s", artist, title)
	wc.AddWarning(TrackMatchWarning, context, "Failed to match track", details)
}

// AddGenreLookupWarning adds a genre lookup warning
func (wc *WarningCollector) AddGenreLookupWarning(artist, album, details string) {
	context := fmt.Sprintf("%s - %s", artist, album)
	wc.AddWarning(GenreLookupWarning, context, "Could not resolve genres", details)
}

// AddLyricsLookupWarning adds a lyrics lookup warning
func (wc *WarningCollector) AddLyricsLookupWarning(artist, title, details string) {
	context := fmt.Sprintf("%s - %s", artist, title)
	wc.AddWarning(LyricsLookupWarning, context, "Could not find lyrics", details)
}

// AddCoverDownloadWarning adds a cover art download warning
func (wc *WarningCollector) AddCoverDownloadWarning(album, details string) {
	wc.AddWarning(CoverDownloadWarning, album, "Could not download cover art", details)
}

// AddSidecarWriteWarning adds a sidecar write warning
func (wc *WarningCollector) AddSidecarWriteWarning(path, details string) {
	wc.AddWarning(SidecarWriteWarning, path, "Could not write sidecar file", details)
}

// HasWarnings returns true if there are any warnings
func (wc *WarningCollector) HasWarnings() bool {
	return len(wc.warnings) > 0
}

// GetWarningCount returns the total number of warnings
func (wc *WarningCollector) GetWarningCount() int {
	return len(wc.warnings)
}

// GetWarningsByType returns warnings grouped by type
func (wc *WarningCollector) GetWarningsByType() map[WarningType][]Warning {
	grouped := make(map[WarningType][]Warning)
	for _, warning := range wc.warnings {
		grouped[warning.Type] = append(grouped[warning.Type], warning)
	}
	return grouped
}

// PrintSummary prints a formatted summary of all warnings
func (wc *WarningCollector) PrintSummary() {
	if !wc.HasWarnings() {
		return
	}

	ColorWarning.Printf("\nWarning Summary (%d warnings):\n", len(wc.warnings))
	ColorWarning.Println(strings.Repeat("-", 50))

	grouped := wc.GetWarningsByType()

	var types []WarningType
	for warningType := range grouped {
		types = append(types, warningType)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	for _, warningType := range types {
		wc.printWarningTypeSection(warningType, grouped[warningType])
	}
}

func (wc *WarningCollector) printWarningTypeSection(warningType WarningType, warnings []Warning) {
	if len(warnings) == 0 {
		return
	}

	ColorWarning.Printf("\n%s (%d):\n", wc.getWarningTypeTitle(warningType), len(warnings))

	// Group identical contexts to avoid repetition
	contextCounts := make(map[string]int)
	for _, warning := range warnings {
		contextCounts[warning.Context]++
	}

	var contexts []string
	for context := range contextCounts {
		contexts = append(contexts, context)
	}
	sort.Strings(contexts)

	for _, context := range contexts {
		count := contextCounts[context]
		if count > 1 {
			ColorWarning.Printf("  - %s (x%d)\n", context, count)
		} else {
			ColorWarning.Printf("  - %s\n", context)
		}
	}
}

func (wc *WarningCollector) getWarningTypeTitle(warningType WarningType) string {
	switch warningType {
	case ReleaseLookupWarning:
		return "Release Lookup Failures"
	case TrackMatchWarning:
		return "Track Match Failures"
	case GenreLookupWarning:
		return "Genre Lookup Failures"
	case LyricsLookupWarning:
		return "Lyrics Lookup Failures"
	case CoverDownloadWarning:
		return "Cover Art Download Failures"
	case SidecarWriteWarning:
		return "Sidecar Write Failures"
	default:
		return "Other Warnings"
	}
}
