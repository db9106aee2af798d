package transcript

// RawSegment is one transcript line as the transcription service emitted it:
// typically a few seconds of speech. Consumed once by the normalizer.
type RawSegment struct {
	Text         string
	StartTime    string
	StartSeconds float64
	EndSeconds   float64
	Confidence   float64
}

// Segment is a duration-bounded merge of consecutive raw segments.
type Segment struct {
	Text         string
	StartTime    string
	EndTime      string
	StartSeconds float64
	EndSeconds   float64
	Duration     float64
	Confidence   float64
}

// MergeSegmentsByDuration greedily accumulates consecutive raw segments into
// segments of at most maxDuration seconds. A raw segment is absorbed when the
// accumulated span (its end minus the accumulator's start) stays within
// budget; otherwise the accumulator is flushed and the segment starts a new
// one. A single raw segment longer than the budget is still emitted whole —
// the normalizer never drops or splits input.
//
// Confidence is a running pairwise average, not duration-weighted. That
// matches the upstream transcription pipeline's behavior.
func MergeSegmentsByDuration(segments []RawSegment, maxDuration float64) []Segment {
	if len(segments) == 0 {
		return []Segment{}
	}

	merged := make([]Segment, 0, len(segments))
	var cur *Segment

	for _, seg := range segments {
		if cur == nil {
			cur = newSegment(seg)
			continue
		}

		candidate := seg.EndSeconds - cur.StartSeconds
		if candidate <= maxDuration {
			cur.Text += " " + seg.Text
			cur.EndSeconds = seg.EndSeconds
			cur.EndTime = FormatTimestamp(seg.EndSeconds)
			cur.Duration = cur.EndSeconds - cur.StartSeconds
			cur.Confidence = (cur.Confidence + seg.Confidence) / 2
		} else {
			merged = append(merged, *cur)
			cur = newSegment(seg)
		}
	}

	merged = append(merged, *cur)
	return merged
}

func newSegment(seg RawSegment) *Segment {
	return &Segment{
		Text:         seg.Text,
		StartTime:    seg.StartTime,
		EndTime:      FormatTimestamp(seg.EndSeconds),
		StartSeconds: seg.StartSeconds,
		EndSeconds:   seg.EndSeconds,
		Duration:     seg.EndSeconds - seg.StartSeconds,
		Confidence:   seg.Confidence,
	}
}
