package transcript

import (
	"fmt"
	"strconv"
	"strings"

	"lectura/internal/content"
)

// ParseTimestamp converts "h:mm:ss.ss" (or "mm:ss.ss", or bare seconds) into
// seconds. Transcript markers use the long form; durations sometimes omit
// the hour part.
func ParseTimestamp(ts string) (float64, error) {
	parts := strings.Split(strings.TrimSpace(ts), ":")
	switch len(parts) {
	case 3:
		h, err1 := strconv.ParseFloat(parts[0], 64)
		m, err2 := strconv.ParseFloat(parts[1], 64)
		s, err3 := strconv.ParseFloat(parts[2], 64)
		if err1 != nil || err2 != nil || err3 != nil {
			return 0, fmt.Errorf("%w: invalid timestamp %q", content.ErrMalformedInput, ts)
		}
		return h*3600 + m*60 + s, nil
	case 2:
		m, err1 := strconv.ParseFloat(parts[0], 64)
		s, err2 := strconv.ParseFloat(parts[1], 64)
		if err1 != nil || err2 != nil {
			return 0, fmt.Errorf("%w: invalid timestamp %q", content.ErrMalformedInput, ts)
		}
		return m*60 + s, nil
	case 1:
		s, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return 0, fmt.Errorf("%w: invalid timestamp %q", content.ErrMalformedInput, ts)
		}
		return s, nil
	default:
		return 0, fmt.Errorf("%w: invalid timestamp %q", content.ErrMalformedInput, ts)
	}
}

// FormatTimestamp renders seconds as "h:mm:ss.ss", the same shape the
// transcript markers use.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	h := int(seconds) / 3600
	m := (int(seconds) % 3600) / 60
	s := seconds - float64(h*3600+m*60)
	return fmt.Sprintf("%d:%02d:%05.2f", h, m, s)
}
