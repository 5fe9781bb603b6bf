package extractor

import (
	"regexp"
	"strconv"
	"time"

	"github.com/araddon/dateparse"
)

var chineseDateTimePattern = regexp.MustCompile(`(\d{4})年(\d{1,2})月(\d{1,2})日\s*(\d{1,2}):(\d{2})`)
var chineseDatePattern = regexp.MustCompile(`(\d{4})年(\d{1,2})月(\d{1,2})日`)
var relativeMinutesPattern = regexp.MustCompile(`(\d+)\s*分钟前`)
var relativeHoursPattern = regexp.MustCompile(`(\d+)\s*小时前`)
var urlDatePattern = regexp.MustCompile(`/(\d{4})[-/]?(\d{2})[-/]?(\d{2})/`)

// ParsePublishTime tries a prioritized list of publish-time formats
// against raw (as found by a source's date selector): ISO-ish formats
// via dateparse, "YYYY年MM月DD日 HH:MM", relative "N分钟前"/"N小时前", then
// falls back to deriving a date from the article URL. It returns
// (time, true) on success or (zero, false) when nothing matched.
func ParsePublishTime(raw string, articleURL string, now time.Time) (time.Time, bool) {
	if t, ok := parseISOish(raw); ok {
		return t, true
	}
	if t, ok := parseChineseAbsolute(raw); ok {
		return t, true
	}
	if t, ok := parseRelative(raw, now); ok {
		return t, true
	}
	if t, ok := parseFromURL(articleURL); ok {
		return t, true
	}
	return time.Time{}, false
}

func parseISOish(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	t, err := dateparse.ParseAny(raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func parseChineseAbsolute(raw string) (time.Time, bool) {
	if m := chineseDateTimePattern.FindStringSubmatch(raw); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		hour, _ := strconv.Atoi(m[4])
		minute, _ := strconv.Atoi(m[5])
		return time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.UTC), true
	}
	if m := chineseDatePattern.FindStringSubmatch(raw); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}

func parseRelative(raw string, now time.Time) (time.Time, bool) {
	if m := relativeMinutesPattern.FindStringSubmatch(raw); m != nil {
		n, _ := strconv.Atoi(m[1])
		return now.Add(-time.Duration(n) * time.Minute), true
	}
	if m := relativeHoursPattern.FindStringSubmatch(raw); m != nil {
		n, _ := strconv.Atoi(m[1])
		return now.Add(-time.Duration(n) * time.Hour), true
	}
	return time.Time{}, false
}

func parseFromURL(articleURL string) (time.Time, bool) {
	m := urlDatePattern.FindStringSubmatch(articleURL)
	if m == nil {
		return time.Time{}, false
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	if year < 2000 || month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
}
