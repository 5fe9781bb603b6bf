package textnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractKeywords_Empty(t *testing.T) {
	assert.Nil(t, ExtractKeywords("", 5))
	assert.Nil(t, ExtractKeywords("some text", 0))
}

func TestExtractKeywords_OrdersByFrequencyThenFirstOccurrence(t *testing.T) {
	text := "股市上涨股市上涨股市上涨经济增长经济增长"
	got := ExtractKeywords(text, 2)
	assert.Len(t, got, 2)
	assert.Equal(t, "股市", got[0])
}

func TestExtractKeywords_DropsStopwords(t *testing.T) {
	text := "记者报道的消息称股市上涨股市上涨"
	got := ExtractKeywords(text, 10)
	for _, k := range got {
		assert.False(t, isStopword(k))
	}
}

func TestExtractKeywords_RespectsK(t *testing.T) {
	text := "股市上涨经济增长企业盈利市场行情"
	got := ExtractKeywords(text, 3)
	assert.LessOrEqual(t, len(got), 3)
}
