// 文件: pkg/fetcher/market.go
// 股票代码市场判别与各数据源方言转换

package fetcher

import "strings"

// Market 是推断出的交易市场类型。
type Market int

const (
	MarketShanghai Market = iota
	MarketShenzhen
	MarketHongKong
)

func (m Market) String() string {
	switch m {
	case MarketShanghai:
		return "上海"
	case MarketShenzhen:
		return "深圳"
	default:
		return "港股"
	}
}

// IsAShare 报告该市场是否属于 A 股（沪深两市）。
func (m Market) IsAShare() bool { return m == MarketShanghai || m == MarketShenzhen }

var (
	shanghaiPrefixes  = []string{"600", "601", "603", "688"}
	shenzhenPrefixes  = []string{"000", "002", "300"}
)

// DetectMarket applies the first-three-digits rule for A-shares, falling
// back to Hong Kong for anything else.
func DetectMarket(code string) Market {
	bare := strings.TrimSuffix(strings.TrimSuffix(strings.ToUpper(code), ".HK"), "HK")
	if len(bare) >= 3 {
		prefix := bare[:3]
		for _, p := range shanghaiPrefixes {
			if prefix == p {
				return MarketShanghai
			}
		}
		for _, p := range shenzhenPrefixes {
			if prefix == p {
				return MarketShenzhen
			}
		}
	}
	return MarketHongKong
}

// ToDialect translates a canonical code into one data source's native
// spelling: "tushare" -> 600519.SH, "sina" -> sh.600519, "sino" -> 600519.SS.
// HK symbols pass through unchanged.
func ToDialect(code string, dialect string) string {
	m := DetectMarket(code)
	if !m.IsAShare() {
		return code
	}

	exchange := "SZ"
	sinaPrefix := "sz"
	if m == MarketShanghai {
		exchange = "SH"
		sinaPrefix = "sh"
	}

	switch dialect {
	case "tushare":
		return code + "." + exchange
	case "sina":
		return sinaPrefix + "." + code
	case "sino":
		ex := "SS"
		if m == MarketShenzhen {
			ex = "SZ"
		}
		return code + "." + ex
	default:
		return code
	}
}
