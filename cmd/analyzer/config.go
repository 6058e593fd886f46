// 文件: cmd/analyzer/config.go
// 配置加载 - 外部协作方（非核心）：从环境变量读取一小撮配置项，
// 其余留给调用方在入口处以字面量方式拼装，不引入 viper/koanf 之类的
// 配置库（教师仓库 cmd/simulation/main.go 同样是 main 内直接拼装结构体）。

package main

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config bundles everything the analyzer entrypoint needs to wire the
// core pipeline together. loadConfig overlays environment variables on
// the defaults set in defaultConfig; unset keys keep those defaults.
// CacheMaxBytes and NameCacheFile have no environment override and always
// take their defaults.
type Config struct {
	Symbols        []string
	MaxConcurrency int
	DaysOfHistory  int

	TushareToken string

	MySQLDSN string

	CacheDir      string
	CacheMaxBytes int64

	AkshareSleepMin time.Duration
	AkshareSleepMax time.Duration
	TushareRPM      int

	MaxRetries      int
	RetryBaseDelay  time.Duration
	RetryMaxDelay   time.Duration

	NameCacheFile string

	WeChatWebhook     string
	FeishuWebhook     string
	TelegramBotToken  string
	TelegramChatID    string
	PushoverUserKey   string
	PushoverAppToken  string
	WebhookURL        string
	WebhookBearer     string
	EmailFrom         string
	EmailTo           string
	EmailUsername     string
	EmailPassword     string
	ChannelMaxBytes   int

	KafkaBrokers []string
	NatsURL      string

	SnowflakeNodeID int64
}

func defaultConfig() Config {
	return Config{
		Symbols:         []string{"600519", "000001", "00700.HK"},
		MaxConcurrency:  3,
		DaysOfHistory:   120,
		MySQLDSN:        "analyzer:analyzer@tcp(127.0.0.1:3306)/stock_analyzer?charset=utf8mb4&parseTime=True&loc=Local",
		CacheDir:        "./data/cache",
		CacheMaxBytes:   100 * 1024 * 1024,
		AkshareSleepMin: 500 * time.Millisecond,
		AkshareSleepMax: 1500 * time.Millisecond,
		TushareRPM:      80,
		MaxRetries:      3,
		RetryBaseDelay:  time.Second,
		RetryMaxDelay:   30 * time.Second,
		NameCacheFile:   "./data/cache/stock_names.json",
		ChannelMaxBytes: 4000,
		SnowflakeNodeID: 0,
	}
}

// loadConfig starts from the defaults and overlays any environment
// variables that are set.
func loadConfig() Config {
	cfg := defaultConfig()

	if v := os.Getenv("ANALYZER_SYMBOLS"); v != "" {
		cfg.Symbols = strings.Split(v, ",")
	}
	if v := envInt("ANALYZER_MAX_CONCURRENCY"); v > 0 {
		cfg.MaxConcurrency = v
	}
	if v := envInt("ANALYZER_DAYS"); v > 0 {
		cfg.DaysOfHistory = v
	}
	cfg.TushareToken = os.Getenv("TUSHARE_TOKEN")
	if v := os.Getenv("MYSQL_DSN"); v != "" {
		cfg.MySQLDSN = v
	}
	if v := os.Getenv("CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}
	if v := envInt("TUSHARE_RATE_LIMIT_PER_MINUTE"); v > 0 {
		cfg.TushareRPM = v
	}
	if v := envDuration("AKSHARE_SLEEP_MIN"); v > 0 {
		cfg.AkshareSleepMin = v
	}
	if v := envDuration("AKSHARE_SLEEP_MAX"); v > 0 {
		cfg.AkshareSleepMax = v
	}
	if v := envInt("MAX_RETRIES"); v > 0 {
		cfg.MaxRetries = v
	}
	if v := envDuration("RETRY_BASE_DELAY"); v > 0 {
		cfg.RetryBaseDelay = v
	}
	if v := envDuration("RETRY_MAX_DELAY"); v > 0 {
		cfg.RetryMaxDelay = v
	}

	cfg.WeChatWebhook = os.Getenv("WECHAT_WEBHOOK_URL")
	cfg.FeishuWebhook = os.Getenv("FEISHU_WEBHOOK_URL")
	cfg.TelegramBotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	cfg.TelegramChatID = os.Getenv("TELEGRAM_CHAT_ID")
	cfg.PushoverUserKey = os.Getenv("PUSHOVER_USER_KEY")
	cfg.PushoverAppToken = os.Getenv("PUSHOVER_APP_TOKEN")
	cfg.WebhookURL = os.Getenv("CUSTOM_WEBHOOK_URL")
	cfg.WebhookBearer = os.Getenv("CUSTOM_WEBHOOK_TOKEN")
	cfg.EmailFrom = os.Getenv("EMAIL_FROM")
	cfg.EmailTo = os.Getenv("EMAIL_TO")
	cfg.EmailUsername = os.Getenv("EMAIL_USERNAME")
	cfg.EmailPassword = os.Getenv("EMAIL_PASSWORD")
	if v := envInt("CHANNEL_MAX_BYTES"); v > 0 {
		cfg.ChannelMaxBytes = v
	}

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.KafkaBrokers = strings.Split(v, ",")
	}
	cfg.NatsURL = os.Getenv("NATS_URL")

	if v := envInt64("SNOWFLAKE_NODE_ID"); v >= 0 {
		cfg.SnowflakeNodeID = v
	}

	return cfg
}

func envInt(key string) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return 0
	}
	return v
}

func envInt64(key string) int64 {
	s := os.Getenv(key)
	if s == "" {
		return -1
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return -1
	}
	return v
}

func envDuration(key string) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return 0
	}
	return v
}
