package textfeat

import "strings"

// Stopword tables are read-only configuration assembled once per process.

var chineseStopwords = []string{
	"的", "了", "在", "是", "我", "有", "和", "就", "不", "人", "都", "一", "這", "上", "也", "很", "到",
	"說", "要", "去", "你", "會", "著", "沒有", "看", "好", "自己", "這個", "現在", "可以", "沒", "就是",
	"還", "把", "從", "給", "對", "時候", "那", "來", "因為", "什麼", "那個", "他", "她", "它", "我們",
	"你們", "他們", "這樣", "那樣", "怎麼", "為什麼", "多少", "哪裡", "什麼時候", "怎樣", "多麼",
	"非常", "最", "更", "太", "特別", "真的", "確實", "當然", "或者", "但是", "然而", "所以", "因此",
	"如果", "雖然", "儘管", "不過", "而且", "另外", "此外", "總之", "首先", "其次", "最後", "另一方面",
}

var englishStopwords = []string{
	"a", "an", "the", "and", "or", "but", "if", "then", "else", "when",
	"at", "by", "for", "with", "about", "against", "between", "into",
	"through", "during", "before", "after", "above", "below", "to", "from",
	"up", "down", "in", "out", "on", "off", "over", "under", "again",
	"further", "once", "here", "there", "where", "why", "how", "all", "any",
	"both", "each", "few", "more", "most", "other", "some", "such", "no",
	"nor", "not", "only", "own", "same", "so", "than", "too", "very", "can",
	"will", "just", "should", "now", "i", "me", "my", "myself", "we", "our",
	"ours", "you", "your", "yours", "he", "him", "his", "she", "her", "hers",
	"it", "its", "they", "them", "their", "theirs", "what", "which", "who",
	"whom", "this", "that", "these", "those", "am", "is", "are", "was",
	"were", "be", "been", "being", "have", "has", "had", "having", "do",
	"does", "did", "doing", "would", "could", "ought", "of", "as", "until",
	"while", "because",
}

// Platform names, generic engagement verbs, and URL fragments that carry no
// topical signal on a social feed.
var socialMediaStopwords = []string{
	"threads", "instagram", "meta", "facebook", "twitter", "x",
	"like", "follow", "share", "comment", "post", "thread",
	"http", "https", "www", "com", "html", "jpg", "png", "gif",
}

func defaultStopwords() map[string]struct{} {
	stop := make(map[string]struct{},
		len(chineseStopwords)+len(englishStopwords)+len(socialMediaStopwords))
	for _, set := range [][]string{chineseStopwords, englishStopwords, socialMediaStopwords} {
		for _, w := range set {
			stop[strings.ToLower(w)] = struct{}{}
		}
	}
	return stop
}
