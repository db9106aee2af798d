package transcript

import (
	"fmt"
	"regexp"
	"strings"

	"lectura/internal/content"
	"lectura/internal/metrics"
)

// Transcript markdown convention, produced by the transcription export:
//
//	**Video ID**: abc123
//	**Created**: 2024-09-01T10:00:00Z
//	**Duration**: 0:45:12.50
//	**Keywords**: `graphs`, `induction`
//	**Topics**: `discrete mathematics`
//	**[0:00:01.03]** first spoken line
//	**[0:00:06.40]** second spoken line
//
// Headers (#) and any other lines are ignored here; only the bold metadata
// lines and bold bracketed timestamp markers matter.
var (
	metaLineRe  = regexp.MustCompile(`(?m)^\*\*([A-Za-z ]+)\*\*:\s*(.+)$`)
	timestampRe = regexp.MustCompile(`(?m)^\*\*\[([^\]]+)\]\*\*\s+(.+)$`)
	backtickRe  = regexp.MustCompile("`([^`]*)`")
)

// rawSegmentConfidence is assigned to every parsed segment; the markdown
// export does not carry per-line confidence.
const rawSegmentConfidence = 0.9

// lenientSegmentSeconds caps the last segment when the transcript declares
// no usable total duration.
const lenientSegmentSeconds = 5.0

type Video struct {
	ID          string
	CreatedDate string
	Duration    float64
	Keywords    []string
	Topics      []string
	Segments    []RawSegment
}

// ParseOptions controls how convention drift is treated. Strict parsing
// (the default) reports ErrMalformedInput; lenient parsing falls back to
// zero-value defaults and counts each fallback.
type ParseOptions struct {
	Lenient bool
	// FallbackID identifies the video when the markdown carries no Video ID
	// line (lenient mode only); usually the file's base name.
	FallbackID string
}

// ParseVideoMarkdown extracts the video's identity, metadata, and ordered
// raw transcript segments from a transcript markdown file. Each segment's
// end is the next segment's start; the last segment ends at the declared
// total duration.
func ParseVideoMarkdown(md string, opts ParseOptions) (*Video, error) {
	meta := map[string]string{}
	for _, m := range metaLineRe.FindAllStringSubmatch(md, -1) {
		key := strings.ToLower(strings.TrimSpace(m[1]))
		if _, seen := meta[key]; !seen {
			meta[key] = strings.TrimSpace(m[2])
		}
	}

	v := &Video{
		ID:          meta["video id"],
		CreatedDate: meta["created"],
		Keywords:    splitBacktickList(meta["keywords"]),
		Topics:      splitBacktickList(meta["topics"]),
	}

	if v.ID == "" {
		if !opts.Lenient {
			return nil, fmt.Errorf("%w: missing Video ID metadata line", content.ErrMalformedInput)
		}
		v.ID = opts.FallbackID
	}

	if raw, ok := meta["duration"]; ok {
		d, err := ParseTimestamp(raw)
		if err != nil && !opts.Lenient {
			return nil, err
		}
		if err == nil {
			v.Duration = d
		}
	}

	marks := timestampRe.FindAllStringSubmatch(md, -1)
	starts := make([]float64, len(marks))
	for i, m := range marks {
		s, err := ParseTimestamp(m[1])
		if err != nil {
			if !opts.Lenient {
				return nil, err
			}
			metrics.LenientTimestampDefaults.Inc()
			s = 0
		}
		starts[i] = s
	}

	// The last segment ends at the declared total duration; timestamp marks
	// without a usable Duration line would give it an end before its start.
	if len(marks) > 0 && v.Duration <= 0 {
		if !opts.Lenient {
			return nil, fmt.Errorf("%w: timestamp marks without a usable Duration metadata line", content.ErrMalformedInput)
		}
		metrics.LenientTimestampDefaults.Inc()
		v.Duration = starts[len(starts)-1] + lenientSegmentSeconds
	}

	for i, m := range marks {
		end := v.Duration
		if i+1 < len(marks) {
			end = starts[i+1]
		}
		v.Segments = append(v.Segments, RawSegment{
			Text:         strings.TrimSpace(m[2]),
			StartTime:    m[1],
			StartSeconds: starts[i],
			EndSeconds:   end,
			Confidence:   rawSegmentConfidence,
		})
	}

	return v, nil
}

// splitBacktickList parses a metadata value like "`a`, `b c`, `d`". Values
// without backticks degrade to a plain comma split.
func splitBacktickList(value string) []string {
	if value == "" {
		return nil
	}
	var items []string
	if matches := backtickRe.FindAllStringSubmatch(value, -1); len(matches) > 0 {
		for _, m := range matches {
			if item := strings.TrimSpace(m[1]); item != "" {
				items = append(items, item)
			}
		}
		return items
	}
	for _, part := range strings.Split(value, ",") {
		if item := strings.TrimSpace(part); item != "" {
			items = append(items, item)
		}
	}
	return items
}
