// 文件: cmd/analyzer/fetchers.go
// 具体数据源适配器 - AkShare 与 Tushare 两个 Fetcher 实现
//
// 两者都遵循 pkg/fetcher.Fetcher 接口：FetchRaw 只负责取回原生行情行，
// Normalize 只负责字段映射，清洗与指标计算交给公共模板方法 GetDaily。
// HTTP 客户端复用 notifier 渠道同款的 go-retryablehttp，限速调用
// pkg/ratelimit 的 Registry。

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/MINGCHOW/intelligent-stock-decision/pkg/bar"
	"github.com/MINGCHOW/intelligent-stock-decision/pkg/cache"
	"github.com/MINGCHOW/intelligent-stock-decision/pkg/fetcher"
	"github.com/MINGCHOW/intelligent-stock-decision/pkg/ratelimit"
)

// cacheKey identifies one fetch window for one source, so a repeated
// analyzer run within the TTL window skips the outbound call entirely.
func cacheKey(source, symbol string, start, end time.Time) string {
	return fmt.Sprintf("%s:%s:%s:%s", source, symbol, start.Format("20060102"), end.Format("20060102"))
}

func loadCachedRows(c *cache.Manager, key string) ([]fetcher.RawRow, bool) {
	if c == nil {
		return nil, false
	}
	raw, ok := c.Get(key)
	if !ok {
		return nil, false
	}
	var rows []fetcher.RawRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, false
	}
	return rows, true
}

func storeCachedRows(c *cache.Manager, key string, rows []fetcher.RawRow, ttl time.Duration) {
	if c == nil {
		return
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return
	}
	_ = c.Set(key, data, ttl)
}

const fetchCacheTTL = 15 * time.Minute

func newFetchHTTPClient() *retryablehttp.Client {
	c := retryablehttp.NewClient()
	c.RetryMax = 2
	c.Logger = nil
	c.HTTPClient.Timeout = 10 * time.Second
	return c
}

// akshareRow is the JSON shape returned by the AkShare-compatible endpoint.
type akshareRow struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
	Amount float64 `json:"amount"`
	PctChg float64 `json:"pct_chg"`
}

// AkShareFetcher is the priority-1 data source: free, no token, but
// tightly rate-limited by jitter sleep only (no declared per-minute quota).
type AkShareFetcher struct {
	BaseURL string
	Limiter *ratelimit.Registry
	Cache   *cache.Manager
	client  *retryablehttp.Client
}

// NewAkShareFetcher builds an AkShare-compatible fetcher. cache may be nil,
// in which case every call hits the network.
func NewAkShareFetcher(baseURL string, limiter *ratelimit.Registry, c *cache.Manager) *AkShareFetcher {
	return &AkShareFetcher{BaseURL: baseURL, Limiter: limiter, Cache: c, client: newFetchHTTPClient()}
}

func (f *AkShareFetcher) Name() string  { return "akshare" }
func (f *AkShareFetcher) Priority() int { return 1 }

func (f *AkShareFetcher) FetchRaw(ctx context.Context, symbol string, start, end time.Time) ([]fetcher.RawRow, error) {
	key := cacheKey(f.Name(), symbol, start, end)
	if rows, ok := loadCachedRows(f.Cache, key); ok {
		return rows, nil
	}

	if err := f.Limiter.Pace(ctx, f.Name()); err != nil {
		return nil, fmt.Errorf("akshare: %w", err)
	}

	dialectCode := fetcher.ToDialect(symbol, "sina")
	url := fmt.Sprintf("%s/daily?symbol=%s&start=%s&end=%s",
		f.BaseURL, dialectCode, start.Format("20060102"), end.Format("20060102"))

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("akshare: unexpected status %d", resp.StatusCode)
	}

	var rows []akshareRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("akshare: decode response: %w", err)
	}

	out := make([]fetcher.RawRow, 0, len(rows))
	for _, r := range rows {
		d, err := time.Parse("2006-01-02", r.Date)
		if err != nil {
			continue
		}
		out = append(out, fetcher.RawRow{
			Date: d, Open: r.Open, High: r.High, Low: r.Low, Close: r.Close,
			Volume: r.Volume, Amount: r.Amount, PctChg: r.PctChg,
		})
	}
	storeCachedRows(f.Cache, key, out, fetchCacheTTL)
	return out, nil
}

func (f *AkShareFetcher) Normalize(raw []fetcher.RawRow, symbol string) ([]bar.Bar, error) {
	out := make([]bar.Bar, 0, len(raw))
	for _, r := range raw {
		out = append(out, bar.Bar{
			Symbol: symbol, Date: r.Date,
			Open: r.Open, High: r.High, Low: r.Low, Close: r.Close,
			Volume: r.Volume, Amount: r.Amount, PctChg: r.PctChg,
		})
	}
	return out, nil
}

// tushareResponse mirrors Tushare's generic {data:{fields, items}} envelope.
type tushareResponse struct {
	Data struct {
		Fields []string        `json:"fields"`
		Items  [][]interface{} `json:"items"`
	} `json:"data"`
}

// TushareFetcher is the priority-2 fallback source: token-authenticated,
// quota-limited (declared requests/minute, enforced by the registry).
type TushareFetcher struct {
	APIURL  string
	Token   string
	Limiter *ratelimit.Registry
	Cache   *cache.Manager
	client  *retryablehttp.Client
}

// NewTushareFetcher builds a Tushare fetcher bound to an API token. cache
// may be nil, in which case every call hits the network.
func NewTushareFetcher(apiURL, token string, limiter *ratelimit.Registry, c *cache.Manager) *TushareFetcher {
	return &TushareFetcher{APIURL: apiURL, Token: token, Limiter: limiter, Cache: c, client: newFetchHTTPClient()}
}

func (f *TushareFetcher) Name() string  { return "tushare" }
func (f *TushareFetcher) Priority() int { return 2 }

func (f *TushareFetcher) FetchRaw(ctx context.Context, symbol string, start, end time.Time) ([]fetcher.RawRow, error) {
	key := cacheKey(f.Name(), symbol, start, end)
	if rows, ok := loadCachedRows(f.Cache, key); ok {
		return rows, nil
	}

	if err := f.Limiter.Pace(ctx, f.Name()); err != nil {
		return nil, fmt.Errorf("tushare: %w", err)
	}

	payload := map[string]any{
		"api_name": "daily",
		"token":    f.Token,
		"params": map[string]string{
			"ts_code":    fetcher.ToDialect(symbol, "tushare"),
			"start_date": start.Format("20060102"),
			"end_date":   end.Format("20060102"),
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, f.APIURL, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tushare: unexpected status %d", resp.StatusCode)
	}

	var tr tushareResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, fmt.Errorf("tushare: decode response: %w", err)
	}

	idx := fieldIndex(tr.Data.Fields)
	out := make([]fetcher.RawRow, 0, len(tr.Data.Items))
	for _, item := range tr.Data.Items {
		d, err := time.Parse("20060102", asString(item, idx["trade_date"]))
		if err != nil {
			continue
		}
		out = append(out, fetcher.RawRow{
			Date:   d,
			Open:   asFloat(item, idx["open"]),
			High:   asFloat(item, idx["high"]),
			Low:    asFloat(item, idx["low"]),
			Close:  asFloat(item, idx["close"]),
			Volume: asFloat(item, idx["vol"]),
			Amount: asFloat(item, idx["amount"]),
			PctChg: asFloat(item, idx["pct_chg"]),
		})
	}
	storeCachedRows(f.Cache, key, out, fetchCacheTTL)
	return out, nil
}

func (f *TushareFetcher) Normalize(raw []fetcher.RawRow, symbol string) ([]bar.Bar, error) {
	out := make([]bar.Bar, 0, len(raw))
	for _, r := range raw {
		out = append(out, bar.Bar{
			Symbol: symbol, Date: r.Date,
			Open: r.Open, High: r.High, Low: r.Low, Close: r.Close,
			Volume: r.Volume, Amount: r.Amount, PctChg: r.PctChg,
		})
	}
	return out, nil
}

func fieldIndex(fields []string) map[string]int {
	idx := make(map[string]int, len(fields))
	for i, name := range fields {
		idx[name] = i
	}
	return idx
}

func asFloat(item []interface{}, i int) float64 {
	if i < 0 || i >= len(item) {
		return 0
	}
	switch v := item[i].(type) {
	case float64:
		return v
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	default:
		return 0
	}
}

func asString(item []interface{}, i int) string {
	if i < 0 || i >= len(item) {
		return ""
	}
	switch v := item[i].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', 0, 64)
	default:
		return ""
	}
}
