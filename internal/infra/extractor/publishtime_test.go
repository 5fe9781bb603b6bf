package extractor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePublishTime_ISOish(t *testing.T) {
	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	got, ok := ParsePublishTime("2026-07-30T08:15:00Z", "https://example.com/a", now)
	require.True(t, ok)
	assert.Equal(t, 2026, got.Year())
	assert.Equal(t, time.July, got.Month())
	assert.Equal(t, 30, got.Day())
}

func TestParsePublishTime_ChineseAbsoluteWithTime(t *testing.T) {
	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	got, ok := ParsePublishTime("2026年7月30日 08:15", "https://example.com/a", now)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 7, 30, 8, 15, 0, 0, time.UTC), got)
}

func TestParsePublishTime_ChineseAbsoluteDateOnly(t *testing.T) {
	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	got, ok := ParsePublishTime("发布于2026年7月30日", "https://example.com/a", now)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC), got)
}

func TestParsePublishTime_RelativeMinutes(t *testing.T) {
	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	got, ok := ParsePublishTime("30分钟前", "https://example.com/a", now)
	require.True(t, ok)
	assert.Equal(t, now.Add(-30*time.Minute), got)
}

func TestParsePublishTime_RelativeHours(t *testing.T) {
	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	got, ok := ParsePublishTime("2小时前", "https://example.com/a", now)
	require.True(t, ok)
	assert.Equal(t, now.Add(-2*time.Hour), got)
}

func TestParsePublishTime_FallsBackToURL(t *testing.T) {
	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	got, ok := ParsePublishTime("", "https://news.example.com/2026-07-29/article-123.html", now)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 7, 29, 0, 0, 0, 0, time.UTC), got)
}

func TestParsePublishTime_URLWithoutSeparators(t *testing.T) {
	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	got, ok := ParsePublishTime("", "https://news.example.com/20260729/article-123.html", now)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 7, 29, 0, 0, 0, 0, time.UTC), got)
}

func TestParsePublishTime_NothingMatches(t *testing.T) {
	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	_, ok := ParsePublishTime("未知日期", "https://example.com/no-date-here", now)
	assert.False(t, ok)
}

func TestParsePublishTime_PrefersISOOverChinese(t *testing.T) {
	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	got, ok := ParsePublishTime("2026-01-02", "https://example.com/2026年7月30日", now)
	require.True(t, ok)
	assert.Equal(t, 1, int(got.Month()))
}
