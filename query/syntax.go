// Package query implements search query parsing and fan-out, porting
// original_source/search_syntax.rs's SearchSyntaxParser and
// commands.rs's per-volume search dispatch.
package query

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Filters is the parsed shape of a query string: each recognized token is
// extracted and stripped from the free-text name pattern, mirroring
// search_syntax.rs's SearchFilters.
type Filters struct {
	Ext         []string // lower-cased, without leading dot; empty means unset
	SizeMin     int64    // exclusive lower bound (size:>N); -1 means unset
	SizeMax     int64    // exclusive upper bound (size:<N); -1 means unset
	ModAfter    time.Time
	HasModAfter bool
	Path        string
	NamePattern string
}

var (
	extPattern  = regexp.MustCompile(`(?i)\bext:([a-z0-9]+(?:,[a-z0-9]+)*)\b`)
	sizePattern = regexp.MustCompile(`(?i)\bsize:([<>])(\d+)(kb|mb|gb)?\b`)
	datePattern = regexp.MustCompile(`(?i)\bdm:(today|yesterday|week|month|year|\d+[dhm])\b`)
	quotedPathPattern = regexp.MustCompile(`(?i)\bpath:"([^"]+)"`)
	pathPattern       = regexp.MustCompile(`(?i)\bpath:(\S+)\b`)
	namePattern = regexp.MustCompile(`(?i)\bname:(\S+)\b`)
)

// ParseQuery parses raw per search_syntax.rs's chain of
// extract_ext/extract_size/extract_date/extract_path/extract_name: each
// extraction both records the filter and removes the matched token from
// the text, so whatever's left over becomes the free-text name pattern.
func ParseQuery(raw string) Filters {
	f := Filters{SizeMin: -1, SizeMax: -1}
	text := raw

	if m := extPattern.FindStringSubmatch(text); m != nil {
		for _, e := range strings.Split(m[1], ",") {
			f.Ext = append(f.Ext, strings.ToLower(e))
		}
		text = extPattern.ReplaceAllString(text, "")
	}

	if m := sizePattern.FindStringSubmatch(text); m != nil {
		n, _ := strconv.ParseInt(m[2], 10, 64)
		bytes := applySizeUnit(n, m[3])
		if m[1] == ">" {
			f.SizeMin = bytes
		} else {
			f.SizeMax = bytes
		}
		text = sizePattern.ReplaceAllString(text, "")
	}

	if m := datePattern.FindStringSubmatch(text); m != nil {
		if t, ok := resolveDateToken(m[1]); ok {
			f.ModAfter = t
			f.HasModAfter = true
		}
		text = datePattern.ReplaceAllString(text, "")
	}

	// path:"QUOTED STRING" is checked before the bare path:TOKEN pattern,
	// the same order search_syntax.rs's extract_path uses, since a quoted
	// path routinely contains spaces (e.g. path:"Program Files") that the
	// bare \S+ pattern would otherwise split on.
	if m := quotedPathPattern.FindStringSubmatch(text); m != nil {
		f.Path = m[1]
		text = quotedPathPattern.ReplaceAllString(text, "")
	} else if m := pathPattern.FindStringSubmatch(text); m != nil {
		f.Path = m[1]
		text = pathPattern.ReplaceAllString(text, "")
	}

	if m := namePattern.FindStringSubmatch(text); m != nil {
		f.NamePattern = m[1]
		text = namePattern.ReplaceAllString(text, "")
	}

	text = strings.TrimSpace(text)
	if text != "" {
		if f.NamePattern != "" {
			f.NamePattern = f.NamePattern + " " + text
		} else {
			f.NamePattern = text
		}
	}

	return f
}

// applySizeUnit converts n in the given unit (kb/mb/gb, case-insensitive,
// empty meaning bytes) to a byte count, per search_syntax.rs's parse_size.
func applySizeUnit(n int64, unit string) int64 {
	switch strings.ToLower(unit) {
	case "kb":
		return n * 1024
	case "mb":
		return n * 1024 * 1024
	case "gb":
		return n * 1024 * 1024 * 1024
	default:
		return n
	}
}

// resolveDateToken turns a dm: token into the earliest ModTime that should
// match, relative to now. today/yesterday/week/month/year are calendar-ish
// buckets; NUMd/NUMh/NUMm are relative durations, both ported from
// search_syntax.rs's date extraction.
func resolveDateToken(token string) (time.Time, bool) {
	now := time.Now()
	lower := strings.ToLower(token)

	switch lower {
	case "today":
		return startOfDay(now), true
	case "yesterday":
		return startOfDay(now.AddDate(0, 0, -1)), true
	case "week":
		return now.AddDate(0, 0, -7), true
	case "month":
		return now.AddDate(0, -1, 0), true
	case "year":
		return now.AddDate(-1, 0, 0), true
	}

	if len(lower) < 2 {
		return time.Time{}, false
	}
	unit := lower[len(lower)-1]
	n, err := strconv.Atoi(lower[:len(lower)-1])
	if err != nil {
		return time.Time{}, false
	}
	switch unit {
	case 'd':
		return now.AddDate(0, 0, -n), true
	case 'h':
		return now.Add(-time.Duration(n) * time.Hour), true
	case 'm':
		return now.Add(-time.Duration(n) * time.Minute), true
	}
	return time.Time{}, false
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// containsFold reports whether ext case-insensitively matches any entry in
// exts, used to test an item's extension against an ext:a,b,c filter list.
func containsFold(exts []string, ext string) bool {
	for _, e := range exts {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

// Match reports whether item matches every filter f has set, mirroring
// search_syntax.rs's apply_filters/match_item.
func (f Filters) Match(name string, ext string, size int64, isDir bool, modTime time.Time, path string) bool {
	if len(f.Ext) > 0 && !containsFold(f.Ext, ext) {
		return false
	}
	if f.SizeMin >= 0 && size <= f.SizeMin {
		return false
	}
	if f.SizeMax >= 0 && size >= f.SizeMax {
		return false
	}
	if f.HasModAfter && modTime.Before(f.ModAfter) {
		return false
	}
	if f.Path != "" && !strings.Contains(strings.ToLower(path), strings.ToLower(f.Path)) {
		return false
	}
	if f.NamePattern != "" && !strings.Contains(strings.ToLower(name), strings.ToLower(f.NamePattern)) {
		return false
	}
	return true
}
