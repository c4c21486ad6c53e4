// Package fragment converts a time range and tier name to and from the URI
// fragment used by comment records, e.g. "t=0.960/1.960;tier=Speaker1".
//
// Times are carried as milliseconds; -1 means "unset". The fragment renders
// them as seconds with millisecond precision.
package fragment

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

var (
	ErrInvalidURI      = errors.New("invalid uri")
	ErrInvalidFragment = errors.New("invalid fragment")
)

const (
	timePrefix = "t="
	tierPrefix = "tier="
	separator  = ";"
)

// Descriptor is the decoded form of a fragment.
type Descriptor struct {
	Start int64
	End   int64
	Tier  string
}

// Encode renders start, end and tier as a fragment string. The time part is
// omitted when start is unset; the end is omitted when it equals start or is
// unset.
func Encode(start, end int64, tier string) string {
	var b strings.Builder

	if start >= 0 {
		b.WriteString(timePrefix)
		b.WriteString(FormatTime(start))
		if end >= 0 && end != start {
			b.WriteByte('/')
			b.WriteString(FormatTime(end))
		}
	}

	if tier != "" {
		if b.Len() > 0 {
			b.WriteString(separator)
		}
		b.WriteString(tierPrefix)
		b.WriteString(Escape(tier))
	}

	return b.String()
}

// Decode parses a fragment. Segments it does not know are skipped. A missing
// time segment yields Start and End of -1.
func Decode(frag string) (Descriptor, error) {
	d := Descriptor{Start: -1, End: -1}

	for _, part := range strings.Split(frag, separator) {
		switch {
		case strings.HasPrefix(part, timePrefix):
			startStr, endStr, hasEnd := strings.Cut(part[len(timePrefix):], "/")

			start, err := ParseTime(startStr)
			if err != nil {
				return d, err
			}
			end := start
			if hasEnd {
				if end, err = ParseTime(endStr); err != nil {
					return d, err
				}
			}
			d.Start, d.End = start, end

		case strings.HasPrefix(part, tierPrefix):
			tier, err := url.PathUnescape(part[len(tierPrefix):])
			if err != nil {
				return d, fmt.Errorf("%w: tier %q: %v", ErrInvalidFragment, part, err)
			}
			d.Tier = tier
		}
	}

	return d, nil
}

// Escape percent-encodes s. Spaces become %20, never '+'.
func Escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// EscapeForCache encodes a fragment for use as a path segment of a cached
// representation URL. The server and its container each decode the path
// once more, so a fragment that needs escaping at all is escaped three
// times.
func EscapeForCache(frag string) string {
	enc := Escape(frag)
	if enc == frag {
		return enc
	}
	return Escape(Escape(enc))
}

// SplitURI validates uri and splits it at the first '#'.
func SplitURI(uri string) (base, frag string, err error) {
	if _, err := url.Parse(uri); err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidURI, err)
	}
	base, frag, _ = strings.Cut(uri, "#")
	if base == "" {
		return "", "", fmt.Errorf("%w: %q has no base", ErrInvalidURI, uri)
	}
	return base, frag, nil
}

// FormatTime renders milliseconds as seconds with three decimals: 960 -> "0.960".
func FormatTime(ms int64) string {
	sign := ""
	if ms < 0 {
		sign = "-"
		ms = -ms
	}
	return fmt.Sprintf("%s%d.%03d", sign, ms/1000, ms%1000)
}

// ParseTime is the inverse of FormatTime. It also accepts whole seconds and
// colon separated forms such as "1:02.500" and "1:00:02.500". Digits past the
// millisecond are dropped.
func ParseTime(s string) (int64, error) {
	s = strings.TrimSpace(s)
	whole, frac, _ := strings.Cut(s, ".")

	var ms int64
	if frac != "" {
		if len(frac) > 3 {
			frac = frac[:3]
		}
		frac += strings.Repeat("0", 3-len(frac))
		v, err := strconv.ParseUint(frac, 10, 16)
		if err != nil {
			return 0, fmt.Errorf("%w: time %q", ErrInvalidFragment, s)
		}
		ms = int64(v)
	}

	var secs int64
	for _, p := range strings.Split(whole, ":") {
		v, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			return 0, fmt.Errorf("%w: time %q", ErrInvalidFragment, s)
		}
		secs = secs*60 + int64(v)
	}

	return secs*1000 + ms, nil
}
