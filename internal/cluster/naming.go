package cluster

import "strings"

// Topic labels returned by name().
const (
	labelGeneric = "Trending topic"
	labelUnknown = "Unknown topic"
)

// category is one row of the ordered naming rule table. The first category
// whose keyword set matches the primary cluster keyword wins; adding a
// category is a table edit, not a control-flow change.
type category struct {
	label    string
	keywords []string
}

var categories = []category{
	{label: "Tech trends", keywords: []string{"ai", "人工智慧", "科技", "技術", "軟體", "程式", "數據"}},
	{label: "Finance", keywords: []string{"投資", "股票", "金融", "經濟", "市場", "價格", "利率"}},
	{label: "Social issues", keywords: []string{"社會", "政治", "新聞", "事件", "討論", "觀點"}},
	{label: "Lifestyle", keywords: []string{"生活", "健康", "美食", "旅行", "娛樂", "電影", "音樂"}},
}

// name labels a topic from its ranked keywords. Clusters without keywords
// are dropped before naming, so the empty case rarely fires.
func name(keywords []string) string {
	if len(keywords) == 0 {
		return labelUnknown
	}

	primary := keywords[0]
	for _, cat := range categories {
		for _, kw := range cat.keywords {
			if strings.Contains(primary, kw) {
				return cat.label + " - " + primary
			}
		}
	}
	return labelGeneric + " - " + primary
}
