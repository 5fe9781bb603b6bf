package textnorm

import "strings"

// Sentiment mirrors entity.Sentiment without importing the domain
// package, keeping textnorm a leaf package with no internal dependencies.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// ClassifySentiment scores text against a curated positive/negative
// lexicon and returns the majority label. Ties and texts with no lexicon
// hits are neutral.
func ClassifySentiment(text string) Sentiment {
	if text == "" {
		return SentimentNeutral
	}

	positive, negative := 0, 0
	for _, word := range positiveLexicon {
		positive += strings.Count(text, word)
	}
	for _, word := range negativeLexicon {
		negative += strings.Count(text, word)
	}

	switch {
	case positive > negative:
		return SentimentPositive
	case negative > positive:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}
