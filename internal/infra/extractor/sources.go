package extractor

import "newslook/internal/domain/entity"

// DefaultSourceConfigs returns the built-in entity.SourceConfig set for
// every source in entity.KnownSources. Operators may override any entry
// via the YAML config layer; these are the shipped defaults.
func DefaultSourceConfigs() []entity.SourceConfig {
	return []entity.SourceConfig{
		sinaConfig(),
		eastmoneyConfig(),
		tencentConfig(),
		neteaseConfig(),
		ifengConfig(),
	}
}

func sinaConfig() entity.SourceConfig {
	return entity.SourceConfig{
		Source:      entity.SourceSina,
		DisplayName: "新浪财经",
		BaseURL:     "https://finance.sina.com.cn",
		CategoryListURLs: map[string]string{
			"stock":   "https://finance.sina.com.cn/stock/",
			"macro":   "https://finance.sina.com.cn/china/",
			"company": "https://finance.sina.com.cn/roll/",
		},
		Selectors: entity.Selectors{
			Title:         "h1.main-title, h1#artibodyTitle",
			PublishTime:   ".date-source .date, .titer .time-source",
			Author:        ".date-source .source, .source",
			Content:       "#artibody, .article",
			Images:        "#artibody img, .article img",
			CategoryCrumb: ".crumb .item:last-child, .path a:last-child",
			ArticleLink:   "a[href*='finance.sina.com.cn']",
		},
		URLPattern: `finance\.sina\.com\.cn/.+/\d{4}-\d{2}-\d{2}/.+\.s?html?`,
		AdFilters: []entity.AdFilter{
			{ContentKeyword: "责任编辑", Hard: false},
			{URLPattern: `/zt_d/`, Hard: true},
		},
		Active: true,
	}
}

func eastmoneyConfig() entity.SourceConfig {
	return entity.SourceConfig{
		Source:      entity.SourceEastmoney,
		DisplayName: "东方财富网",
		BaseURL:     "https://www.eastmoney.com",
		CategoryListURLs: map[string]string{
			"stock": "https://stock.eastmoney.com/",
			"macro": "https://finance.eastmoney.com/a/cgspl.html",
		},
		Selectors: entity.Selectors{
			Title:         "div.newsContent h1, h1.title",
			PublishTime:   ".time, .Info .time",
			Author:        ".source, .Info .source",
			Content:       "div.newsContent div.Body, #ContentBody",
			Images:        "div.newsContent img, #ContentBody img",
			CategoryCrumb: ".crumbs a:last-child",
			ArticleLink:   "a[href*='eastmoney.com']",
		},
		URLPattern: `eastmoney\.com/a/\d+.+\.html`,
		AdFilters: []entity.AdFilter{
			{ContentKeyword: "开户", Hard: false},
			{ContentKeyword: "扫一扫下载", Hard: true},
		},
		Active: true,
	}
}

func tencentConfig() entity.SourceConfig {
	return entity.SourceConfig{
		Source:      entity.SourceTencent,
		DisplayName: "腾讯财经",
		BaseURL:     "https://new.qq.com",
		CategoryListURLs: map[string]string{
			"finance": "https://new.qq.com/ch/finance",
		},
		Selectors: entity.Selectors{
			Title:         "h1.LEFT, .qq_articleTitle",
			PublishTime:   ".a_time, .article-time",
			Author:        ".a_source, .article-source",
			Content:       ".content-article, #Cnt-Main-Article-QQ",
			Images:        ".content-article img",
			CategoryCrumb: ".kw a:last-child",
			ArticleLink:   "a[href*='new.qq.com']",
		},
		URLPattern: `new\.qq\.com/rain/a/\d+`,
		AdFilters: []entity.AdFilter{
			{ContentKeyword: "广告", Hard: false},
		},
		Active: true,
	}
}

func neteaseConfig() entity.SourceConfig {
	return entity.SourceConfig{
		Source:      entity.SourceNetease,
		DisplayName: "网易财经",
		BaseURL:     "https://money.163.com",
		CategoryListURLs: map[string]string{
			"stock": "https://money.163.com/stock/",
			"macro": "https://money.163.com/domestic/",
		},
		Selectors: entity.Selectors{
			Title:         "h1.post_title, h1.title",
			PublishTime:   ".post_time_source, .post_info",
			Author:        ".post_time_source, .ep-source",
			Content:       "#endText, .post_body",
			Images:        "#endText img",
			CategoryCrumb: ".post_crumb a:last-child",
			ArticleLink:   "a[href*='money.163.com']",
		},
		URLPattern: `money\.163\.com/\d{2}/\d{4}/\d{2}/.+\.html`,
		AdFilters: []entity.AdFilter{
			{ContentKeyword: "网易新闻客户端", Hard: false},
		},
		Active: true,
	}
}

func ifengConfig() entity.SourceConfig {
	return entity.SourceConfig{
		Source:      entity.SourceIfeng,
		DisplayName: "凤凰财经",
		BaseURL:     "https://finance.ifeng.com",
		CategoryListURLs: map[string]string{
			"stock": "https://finance.ifeng.com/shuju/",
			"macro": "https://finance.ifeng.com/macro/",
		},
		FeedURL: "https://rss.ifeng.com/finance",
		Selectors: entity.Selectors{
			Title:         "h1.article-title, h1",
			PublishTime:   ".article-info .time, .time-source",
			Author:        ".article-info .source, .ss03",
			Content:       ".article-content, #main_content",
			Images:        ".article-content img",
			CategoryCrumb: ".crumb a:last-child",
			ArticleLink:   "a[href*='ifeng.com']",
		},
		URLPattern: `ifeng\.com/c/\w+`,
		AdFilters: []entity.AdFilter{
			{ContentKeyword: "凤凰网财经公众号", Hard: false},
			{URLPattern: `/ad/`, Hard: true},
		},
		Active: true,
	}
}
