package textnorm

// stopwords is a small, curated list of high-frequency Chinese function
// words and punctuation-adjacent tokens that carry no topical signal and
// are excluded from keyword extraction.
var stopwords = map[string]bool{
	"的": true, "了": true, "和": true, "是": true, "在": true,
	"与": true, "及": true, "对": true, "也": true, "就": true,
	"都": true, "而": true, "等": true, "之": true, "将": true,
	"从": true, "到": true, "为": true, "这": true, "那": true,
	"一个": true, "我们": true, "他们": true, "记者": true, "报道": true,
	"表示": true, "称": true, "据悉": true, "今日": true, "消息": true,
}

func isStopword(token string) bool {
	return stopwords[token]
}
