package utils

import (
	"regexp"
	"strings"
)

var (
	// Characters invalid in filenames on most filesystems
	invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	// Runs of whitespace, dashes and dots collapse into one separator
	separatorRuns = regexp.MustCompile(`[\s.\-_]+`)
)

// maxSlugLength leaves room for an id, a uuid and an extension within the
// usual 255 byte filename limit.
const maxSlugLength = 64

// Slug turns a label such as an entity type into a lowercase filename
// fragment: invalid characters are dropped and separators become "_".
// An empty result falls back to "record".
func Slug(label string) string {
	label = invalidFilenameChars.ReplaceAllString(label, "")
	label = strings.ToLower(strings.TrimSpace(label))
	label = separatorRuns.ReplaceAllString(label, "_")
	label = strings.Trim(label, "_")

	if len(label) > maxSlugLength {
		label = strings.TrimRight(label[:maxSlugLength], "_")
	}
	if label == "" {
		return "record"
	}
	return label
}
