// Package directive extracts in-band report-update markers from assistant
// output. The assistant embeds control tokens in its own prose; this package
// separates those tokens from the text shown to the user.
package directive

import (
	"regexp"
	"strings"
)

// Marker grammar, case-insensitive. NEW_CONTENT may span lines and is
// captured non-greedily so trailing prose is not swallowed.
var (
	updateRe  = regexp.MustCompile(`(?i)\[UPDATE_REPORT:(true|false)\]`)
	contentRe = regexp.MustCompile(`(?is)\[NEW_CONTENT:(.*?)\]`)
	endRe     = regexp.MustCompile(`(?i)\[END_UPDATE\]`)
)

// Result is the outcome of parsing one assistant message.
type Result struct {
	// CleanText is the message with all marker spans removed and trimmed.
	// It is produced whether or not an update triggers.
	CleanText string

	// ShouldUpdate is true only when all three markers are present, the
	// boolean payload is "true", and NewContent is non-empty after trimming.
	ShouldUpdate bool

	// NewContent is the replacement report content. Empty unless
	// ShouldUpdate is true.
	NewContent string
}

// Parse extracts report-update markers from raw assistant text. It never
// fails: malformed or partial marker sets degrade to "no update requested",
// and any fragments they leave behind stay in CleanText.
func Parse(raw string) Result {
	updateMatch := updateRe.FindStringSubmatch(raw)
	contentMatch := contentRe.FindStringSubmatch(raw)
	endPresent := endRe.MatchString(raw)

	clean := updateRe.ReplaceAllString(raw, "")
	clean = contentRe.ReplaceAllString(clean, "")
	clean = endRe.ReplaceAllString(clean, "")
	clean = strings.TrimSpace(clean)

	result := Result{CleanText: clean}

	if updateMatch == nil || contentMatch == nil || !endPresent {
		return result
	}
	if !strings.EqualFold(updateMatch[1], "true") {
		return result
	}

	content := strings.TrimSpace(contentMatch[1])
	if content == "" {
		return result
	}

	result.ShouldUpdate = true
	result.NewContent = content
	return result
}
