package service

import (
	"regexp"
	"strings"

	"github.com/Harshitk-cp/maestro/internal/domain"
)

// Markers a child agent emits in its draft when it wants a tool run. Matching
// is case-insensitive; the text after the first marker names the tool.
var toolIntentMarkers = []string{
	"USE_TOOL:",
	"EXECUTE_TOOL:",
	"TOOL_NEEDED:",
	"QUERY_DATA:",
}

var (
	phoneRe = regexp.MustCompile(`\+?\d[\d\s().-]{7,}\d`)
	emailRe = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	dateRe  = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2}|\d{1,2}/\d{1,2}/\d{2,4})\b`)
	timeRe  = regexp.MustCompile(`\b\d{1,2}:\d{2}(\s?[APap][Mm])?\b`)

	nonWordRe = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
)

// detectToolIntent reports whether the draft contains any tool intent marker
// and, if so, returns the raw tool reference following the first one found.
func detectToolIntent(draft string) (string, bool) {
	upper := strings.ToUpper(draft)
	best := -1
	bestMarker := ""
	for _, marker := range toolIntentMarkers {
		if idx := strings.Index(upper, marker); idx >= 0 && (best == -1 || idx < best) {
			best = idx
			bestMarker = marker
		}
	}
	if best == -1 {
		return "", false
	}

	rest := draft[best+len(bestMarker):]
	if nl := strings.IndexAny(rest, "\n\r"); nl >= 0 {
		rest = rest[:nl]
	}
	return strings.TrimSpace(rest), true
}

// matchTool resolves a tool reference from a draft against the agent's active
// tools. Exact name match wins; otherwise the first tool whose name appears in
// the reference (or vice versa), case-insensitively.
func matchTool(reference string, tools []domain.AgentTool) *domain.AgentTool {
	ref := strings.ToLower(strings.TrimSpace(reference))
	if ref == "" {
		return nil
	}
	for i := range tools {
		if !tools[i].Active || tools[i].Tool == nil {
			continue
		}
		if strings.ToLower(tools[i].Tool.Name) == ref {
			return &tools[i]
		}
	}
	for i := range tools {
		if !tools[i].Active || tools[i].Tool == nil {
			continue
		}
		name := strings.ToLower(tools[i].Tool.Name)
		if strings.Contains(ref, name) || strings.Contains(name, ref) {
			return &tools[i]
		}
	}
	return nil
}

// resolveTool matches the marker-line reference first and, when that resolves
// nothing, scans the whole draft for any attached tool's name.
func resolveTool(reference, draft string, tools []domain.AgentTool) *domain.AgentTool {
	if at := matchTool(reference, tools); at != nil {
		return at
	}
	return matchTool(draft, tools)
}

// fieldPattern resolves a required-field name to its extraction pattern.
// Names match by substring so table-specific prefixes like customer_phone or
// delivery_date still resolve. Date wins over time for combined names.
func fieldPattern(name string) *regexp.Regexp {
	n := strings.ToLower(name)
	switch {
	case strings.Contains(n, "phone") || strings.Contains(n, "telephone"):
		return phoneRe
	case strings.Contains(n, "email"):
		return emailRe
	case strings.Contains(n, "date"):
		return dateRe
	case strings.Contains(n, "time"):
		return timeRe
	}
	return nil
}

// extractFields pulls structured values out of the user message for the named
// required fields. Fields with no known pattern, or whose pattern finds
// nothing, stay absent.
func extractFields(message string, required []string) map[string]string {
	fields := make(map[string]string, len(required))
	for _, name := range required {
		re := fieldPattern(name)
		if re == nil {
			continue
		}
		if m := re.FindString(message); m != "" {
			fields[name] = strings.TrimSpace(m)
		}
	}
	return fields
}

// Words too generic to anchor a database search.
var searchStopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "of": {}, "for": {},
	"to": {}, "in": {}, "on": {}, "is": {}, "are": {}, "i": {}, "you": {},
	"me": {}, "my": {}, "please": {}, "want": {}, "need": {}, "can": {},
	"could": {}, "would": {}, "about": {}, "with": {}, "have": {}, "do": {},
	"what": {}, "how": {}, "show": {},
}

// extractSearchTerm reduces a user message to the longest meaningful token
// for DATABASE search tools. Empty when the message is all stopwords.
func extractSearchTerm(message string) string {
	clean := nonWordRe.ReplaceAllString(message, " ")
	best := ""
	for _, word := range strings.Fields(clean) {
		if _, skip := searchStopwords[strings.ToLower(word)]; skip {
			continue
		}
		if len(word) > len(best) {
			best = word
		}
	}
	return best
}
