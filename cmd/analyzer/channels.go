// 文件: cmd/analyzer/channels.go
// 按配置凭据是否非空决定启用哪些通知渠道（spec §3 "nonempty credentials
// = enabled"），每个渠道的具体实现都在 pkg/notifier 里。

package main

import "github.com/MINGCHOW/intelligent-stock-decision/pkg/notifier"

func buildChannels(cfg Config) []notifier.Channel {
	var channels []notifier.Channel

	if cfg.WeChatWebhook != "" {
		channels = append(channels, notifier.NewWeChatWorkChannel(cfg.WeChatWebhook, cfg.ChannelMaxBytes))
	}
	if cfg.FeishuWebhook != "" {
		channels = append(channels, notifier.NewFeishuChannel(cfg.FeishuWebhook, cfg.ChannelMaxBytes))
	}
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != "" {
		channels = append(channels, notifier.NewTelegramChannel(cfg.TelegramBotToken, cfg.TelegramChatID, cfg.ChannelMaxBytes))
	}
	if cfg.PushoverUserKey != "" && cfg.PushoverAppToken != "" {
		channels = append(channels, notifier.NewPushoverChannel(cfg.PushoverUserKey, cfg.PushoverAppToken, cfg.ChannelMaxBytes))
	}
	if cfg.WebhookURL != "" {
		channels = append(channels, notifier.NewWebhookChannel(cfg.WebhookURL, cfg.WebhookBearer, cfg.ChannelMaxBytes))
	}
	if cfg.EmailFrom != "" && cfg.EmailTo != "" {
		channels = append(channels, notifier.NewEmailChannel(cfg.EmailFrom, cfg.EmailTo, cfg.EmailUsername, cfg.EmailPassword, cfg.ChannelMaxBytes))
	}

	return channels
}
