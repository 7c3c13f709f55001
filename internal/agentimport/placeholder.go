package agentimport

import (
	"regexp"
)

// PlaceholderToken marks a value that must be supplied before import.
const PlaceholderToken = "<TO_CONFIG>"

var (
	placeholderPattern = regexp.MustCompile(`^<TO_CONFIG:(.+)>$`)
	hintLinkPattern    = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
)

// IsPlaceholder reports whether v is a string holding a <TO_CONFIG> marker.
func IsPlaceholder(v any) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	return s == PlaceholderToken || placeholderPattern.MatchString(s)
}

// PlaceholderHint returns the hint captured from "<TO_CONFIG:hint>".
// The bare token and non-placeholder values have no hint.
func PlaceholderHint(s string) (string, bool) {
	m := placeholderPattern.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// HintSegment is a run of hint text. Segments with a URL are links.
type HintSegment struct {
	Text string `json:"text"`
	URL  string `json:"url,omitempty"`
}

// IsLink reports whether the segment should render as a hyperlink.
func (s HintSegment) IsLink() bool { return s.URL != "" }

// HintSegments splits hint text on Markdown-style [label](url) links.
func HintSegments(hint string) []HintSegment {
	if hint == "" {
		return nil
	}
	var out []HintSegment
	last := 0
	for _, loc := range hintLinkPattern.FindAllStringSubmatchIndex(hint, -1) {
		if loc[0] > last {
			out = append(out, HintSegment{Text: hint[last:loc[0]]})
		}
		out = append(out, HintSegment{Text: hint[loc[2]:loc[3]], URL: hint[loc[4]:loc[5]]})
		last = loc[1]
	}
	if last < len(hint) {
		out = append(out, HintSegment{Text: hint[last:]})
	}
	return out
}
