// 文件: pkg/notifier/channels.go
// 各渠道的具体协议封装 - 每种渠道一个结构体，实现 Channel 接口。
//
// HTTP 类渠道各自持有一个按同一配置构造的 retryablehttp.Client
// （10s 超时，2xx 视为成功）；
// 该依赖不在 teacher 的 stack 里，按 DESIGN.md 记录，取自同批参考仓库
// NimbleMarkets-dbn-go 对 hashicorp/go-retryablehttp 的使用。

package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

const httpTimeout = 10 * time.Second

func newHTTPClient() *retryablehttp.Client {
	c := retryablehttp.NewClient()
	c.RetryMax = 1
	c.Logger = nil
	c.HTTPClient.Timeout = httpTimeout
	return c
}

func postJSON(ctx context.Context, client *retryablehttp.Client, urlStr string, body any, bearer string) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("notifier: marshal payload: %w", err)
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, urlStr, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("notifier: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	return doAndCheck(client, req)
}

func postForm(ctx context.Context, client *retryablehttp.Client, urlStr string, form url.Values) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, urlStr, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("notifier: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return doAndCheck(client, req)
}

func doAndCheck(client *retryablehttp.Client, req *retryablehttp.Request) error {
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("notifier: request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notifier: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// WeChatWorkChannel posts a markdown message to a WeChat Work webhook.
type WeChatWorkChannel struct {
	WebhookURL string
	MaxBytesN  int
	client     *retryablehttp.Client
}

// NewWeChatWorkChannel builds a WeChat Work webhook channel.
func NewWeChatWorkChannel(webhookURL string, maxBytes int) *WeChatWorkChannel {
	return &WeChatWorkChannel{WebhookURL: webhookURL, MaxBytesN: maxBytes, client: newHTTPClient()}
}

func (c *WeChatWorkChannel) Name() string   { return "wechat" }
func (c *WeChatWorkChannel) MaxBytes() int  { return c.MaxBytesN }
func (c *WeChatWorkChannel) Send(ctx context.Context, report Report) error {
	content := truncateUTF8(report.Body, c.MaxBytesN)
	payload := map[string]any{
		"msgtype":  "markdown",
		"markdown": map[string]string{"content": content},
	}
	return postJSON(ctx, c.client, c.WebhookURL, payload, "")
}

// FeishuChannel posts a plain-text message to a Feishu custom-bot webhook.
type FeishuChannel struct {
	WebhookURL string
	MaxBytesN  int
	client     *retryablehttp.Client
}

// NewFeishuChannel builds a Feishu webhook channel.
func NewFeishuChannel(webhookURL string, maxBytes int) *FeishuChannel {
	return &FeishuChannel{WebhookURL: webhookURL, MaxBytesN: maxBytes, client: newHTTPClient()}
}

func (c *FeishuChannel) Name() string  { return "feishu" }
func (c *FeishuChannel) MaxBytes() int { return c.MaxBytesN }
func (c *FeishuChannel) Send(ctx context.Context, report Report) error {
	text := truncateUTF8(report.Body, c.MaxBytesN)
	payload := map[string]any{
		"msg_type": "text",
		"content":  map[string]string{"text": text},
	}
	return postJSON(ctx, c.client, c.WebhookURL, payload, "")
}

// TelegramChannel posts to the Telegram Bot API sendMessage endpoint.
type TelegramChannel struct {
	BotToken  string
	ChatID    string
	MaxBytesN int
	client    *retryablehttp.Client
}

// NewTelegramChannel builds a Telegram bot channel.
func NewTelegramChannel(botToken, chatID string, maxBytes int) *TelegramChannel {
	return &TelegramChannel{BotToken: botToken, ChatID: chatID, MaxBytesN: maxBytes, client: newHTTPClient()}
}

func (c *TelegramChannel) Name() string  { return "telegram" }
func (c *TelegramChannel) MaxBytes() int { return c.MaxBytesN }
func (c *TelegramChannel) Send(ctx context.Context, report Report) error {
	text := truncateUTF8(report.Body, c.MaxBytesN)
	urlStr := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", c.BotToken)
	payload := map[string]any{
		"chat_id":    c.ChatID,
		"text":       text,
		"parse_mode": "Markdown",
	}
	return postJSON(ctx, c.client, urlStr, payload, "")
}

// PushoverChannel form-POSTs to the Pushover messages API.
type PushoverChannel struct {
	UserKey   string
	AppToken  string
	MaxBytesN int
	client    *retryablehttp.Client
}

// NewPushoverChannel builds a Pushover channel.
func NewPushoverChannel(userKey, appToken string, maxBytes int) *PushoverChannel {
	return &PushoverChannel{UserKey: userKey, AppToken: appToken, MaxBytesN: maxBytes, client: newHTTPClient()}
}

func (c *PushoverChannel) Name() string  { return "pushover" }
func (c *PushoverChannel) MaxBytes() int { return c.MaxBytesN }
func (c *PushoverChannel) Send(ctx context.Context, report Report) error {
	form := url.Values{
		"user":    {c.UserKey},
		"token":   {c.AppToken},
		"message": {truncateUTF8(report.Body, c.MaxBytesN)},
		"title":   {report.Title},
	}
	return postForm(ctx, c.client, "https://api.pushover.net/1/messages.json", form)
}

// WebhookChannel posts {"message": ...} to an arbitrary custom webhook,
// with an optional bearer token.
type WebhookChannel struct {
	URL         string
	BearerToken string
	MaxBytesN   int
	client      *retryablehttp.Client
}

// NewWebhookChannel builds a generic webhook channel.
func NewWebhookChannel(urlStr, bearerToken string, maxBytes int) *WebhookChannel {
	return &WebhookChannel{URL: urlStr, BearerToken: bearerToken, MaxBytesN: maxBytes, client: newHTTPClient()}
}

func (c *WebhookChannel) Name() string  { return "custom-webhook" }
func (c *WebhookChannel) MaxBytes() int { return c.MaxBytesN }
func (c *WebhookChannel) Send(ctx context.Context, report Report) error {
	payload := map[string]string{"message": truncateUTF8(report.Body, c.MaxBytesN)}
	return postJSON(ctx, c.client, c.URL, payload, c.BearerToken)
}
