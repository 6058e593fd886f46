// 文件: pkg/decision/sentiment.go
// 第四层：舆情否决/加分 - 关键词词典逐条移植自 stock_analyzer.py 的
// _check_sentiment_filter，严重度标签、分值与否决条件不变。

package decision

import (
	"fmt"
	"strings"
)

// keywordEntry is one (keyword, severity) pair. Keywords are kept in a
// fixed-order slice rather than a map so that scan results (and the risk
// lines built from them) are deterministic across runs — map iteration
// order in Go is randomized and would otherwise break the "same input
// yields identical output" guarantee (spec §4.9, §8 property 5).
type keywordEntry struct {
	keyword  string
	severity string
}

// negativeKeywords is the bearish keyword dictionary in scan order.
var negativeKeywords = []keywordEntry{
	{"造假", "严重"}, {"财务造假", "严重"}, {"虚增利润", "严重"}, {"财务违规", "严重"},
	{"亏损", "中等"}, {"业绩下滑", "中等"}, {"业绩暴雷", "严重"},
	{"债务", "中等"}, {"债务违约", "严重"}, {"资不抵债", "严重"},

	{"调查", "严重"}, {"立案", "严重"}, {"立案调查", "严重"},
	{"处罚", "中等"}, {"罚款", "中等"}, {"监管", "轻微"},
	{"退市", "严重"}, {"退市风险", "严重"}, {"ST", "严重"},
	{"违规", "中等"}, {"违规担保", "严重"}, {"内幕交易", "严重"},

	{"诉讼", "中等"}, {"起诉", "中等"}, {"被诉", "中等"},
	{"官司", "轻微"}, {"纠纷", "轻微"},

	{"停产", "严重"}, {"停产整顿", "严重"},
	{"倒闭", "严重"}, {"破产", "严重"}, {"破产重整", "严重"},
	{"裁员", "中等"}, {"裁员风波", "中等"},

	{"政策", "轻微"}, {"政策风险", "中等"},
	{"监管收紧", "中等"}, {"加强监管", "中等"},

	{"暴跌", "中等"}, {"大跌", "轻微"},
	{"风险", "轻微"}, {"警示", "轻微"}, {"风险提示", "轻微"},
}

// positiveKeywords is the bullish keyword dictionary in scan order.
var positiveKeywords = []keywordEntry{
	{"增长", "轻微"}, {"业绩增长", "中等"}, {"业绩超预期", "强"},
	{"大增", "中等"}, {"暴增", "强"}, {"大涨", "中等"},

	{"回购", "强"}, {"股份回购", "强"}, {"增持", "强"},
	{"重大合同", "中等"}, {"中标", "中等"}, {"订单", "轻微"},

	{"获批", "中等"}, {"认证", "中等"}, {"突破", "中等"},
	{"独家", "中等"}, {"首发", "中等"}, {"首创", "中等"},

	{"分红", "轻微"}, {"派息", "轻微"}, {"高送转", "中等"},

	{"调研", "轻微"}, {"机构调研", "中等"},
}

const (
	severityServe    = "严重"
	severityModerate = "中等"

	strengthStrong   = "强"
	strengthModerate = "中等"
)

type sentimentInfo struct {
	result  string
	score   int
	reasons []string
	risks   []string
}

// checkSentiment scans newsContext for the canonical keyword dictionaries
// and returns whether the position survives (pass=false => hard veto to
// WAIT) plus the informational detail to attach to the result. A single
// severe keyword, or three or more total negative hits of any severity,
// vetoes outright.
func checkSentiment(newsContext string) (pass bool, info sentimentInfo) {
	var negFound, posFound []keywordEntry

	for _, e := range negativeKeywords {
		if strings.Contains(newsContext, e.keyword) {
			negFound = append(negFound, e)
		}
	}
	for _, e := range positiveKeywords {
		if strings.Contains(newsContext, e.keyword) {
			posFound = append(posFound, e)
		}
	}

	hasSevere := false
	for _, h := range negFound {
		if h.severity == severityServe {
			hasSevere = true
			break
		}
	}
	hasMany := len(negFound) >= 3

	if hasSevere || hasMany {
		info = sentimentInfo{result: "重大利空", risks: []string{"舆情过滤：发现重大利空新闻"}}
		for _, h := range negFound {
			if h.severity == severityServe {
				info.risks = append(info.risks, fmt.Sprintf("%s（%s）", h.keyword, h.severity))
			}
		}
		return false, info
	}

	if len(posFound) > 0 {
		strongCount := 0
		for _, h := range posFound {
			if h.severity == strengthStrong || h.severity == strengthModerate {
				strongCount++
			}
		}
		switch {
		case strongCount >= 2:
			return true, sentimentInfo{result: "明显利好", score: 5, reasons: []string{"舆情加分：多条利好消息"}}
		case strongCount >= 1:
			return true, sentimentInfo{result: "轻微利好", score: 2, reasons: []string{"舆情加分：有利好消息"}}
		}
	}

	if len(negFound) > 0 {
		return true, sentimentInfo{result: "中性偏空", risks: []string{"舆情提示：发现轻微负面消息"}}
	}
	return true, sentimentInfo{result: "中性"}
}
