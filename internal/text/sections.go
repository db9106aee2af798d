package text

import (
	"regexp"
	"strings"
)

// Section is one header-delimited slice of a markdown document. Body may be
// empty (a bare header); callers decide whether to skip those.
type Section struct {
	Title string
	Body  string
}

var headerSplitRe = regexp.MustCompile(`\n#+\s+`)

// SplitSections divides a markdown document at header markers. Each fragment
// after a header contributes its first line as the section title and the
// rest as body. Any content before the first header becomes a section with
// an empty title.
func SplitSections(markdown string) []Section {
	fragments := headerSplitRe.Split(markdown, -1)

	var sections []Section
	for i, frag := range fragments {
		frag = strings.TrimSpace(frag)
		if frag == "" {
			continue
		}

		var title, body string
		if i == 0 && !strings.HasPrefix(markdown, "#") {
			body = frag
		} else {
			title = frag
			if i == 0 {
				// Document opens with a header; strip the marker itself.
				title = strings.TrimLeft(frag, "# ")
			}
			if idx := strings.IndexByte(title, '\n'); idx >= 0 {
				body = strings.TrimSpace(title[idx+1:])
				title = strings.TrimSpace(title[:idx])
			}
		}

		sections = append(sections, Section{Title: title, Body: body})
	}

	return sections
}
