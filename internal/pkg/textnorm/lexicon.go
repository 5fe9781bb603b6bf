package textnorm

// positiveLexicon and negativeLexicon are small curated sentiment word
// lists tuned for Chinese financial news; this is deliberately a
// lexicon/frequency approach, not a trained model (see
// ClassifySentiment), and a future swap-in must preserve its signature.
var positiveLexicon = []string{
	"上涨", "增长", "盈利", "利好", "涨停", "突破", "回暖", "扩张",
	"创新高", "反弹", "增持", "看好", "复苏", "提振", "稳健", "超预期",
}

var negativeLexicon = []string{
	"下跌", "亏损", "利空", "跌停", "暴跌", "违约", "裁员", "萎缩",
	"创新低", "抛售", "减持", "看空", "衰退", "拖累", "风险", "不及预期",
}
