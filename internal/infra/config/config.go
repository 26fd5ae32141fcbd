package config

import (
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig описывает конфигурацию сервисов.
type AppConfig struct {
	AppEnv   string `envconfig:"APP_ENV" default:"dev"`
	TZ       string `envconfig:"TZ" default:"America/Argentina/Buenos_Aires"`
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`

	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9090"`

	WhatsApp struct {
		OperatorJID string `envconfig:"OPERATOR_JID" default:"5491126320824@s.whatsapp.net"`
		TriggerWord string `envconfig:"TRIGGER_WORD" default:"start"`
	} `envconfig:""`

	Google struct {
		CredentialsFile string `envconfig:"GOOGLE_CREDENTIALS_FILE" default:"credentials.json"`
		TokenFile       string `envconfig:"GOOGLE_TOKEN_FILE" default:"token.json"`
		CalendarID      string `envconfig:"CALENDAR_ID" default:"primary"`
		SenderFallback  string `envconfig:"SENDER_FALLBACK_NAME" default:"Matias"`
	} `envconfig:""`

	Calendar struct {
		Source        string `envconfig:"CALENDAR_SOURCE" default:"google"`
		ICSURL        string `envconfig:"ICS_URL"`
		LookaheadDays int    `envconfig:"LOOKAHEAD_DAYS" default:"7"`
	} `envconfig:""`

	Store struct {
		Backend         string `envconfig:"STORE_BACKEND" default:"file"`
		LedgerFile      string `envconfig:"LEDGER_FILE" default:"contactedUsers.json"`
		UnreachableFile string `envconfig:"UNREACHABLE_FILE" default:"unregisteredNumbers.json"`
	} `envconfig:""`

	PGDSN string `envconfig:"PG_DSN"`

	RedisAddr   string `envconfig:"REDIS_ADDR"`
	RedisPrefix string `envconfig:"REDIS_PREFIX" default:"notifier"`

	CatalogFile string `envconfig:"CATALOG_FILE"`

	Queues struct {
		Runs         string        `envconfig:"RUN_QUEUE_KEY" default:"notify_runs"`
		ScheduleCron string        `envconfig:"SCHEDULE_CRON"`
		DedupTTL     time.Duration `envconfig:"SCHEDULE_DEDUP_TTL" default:"2m"`
	} `envconfig:""`

	Telegram struct {
		Token          string `envconfig:"TG_BOT_TOKEN"`
		OperatorChatID int64  `envconfig:"TG_OPERATOR_CHAT_ID"`
	} `envconfig:""`
}

// Load загружает конфиг из окружения.
func Load() AppConfig {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("не удалось загрузить конфиг: %v", err)
	}
	return cfg
}

// Location возвращает часовой пояс сервера, а при ошибке UTC.
func (c AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.TZ)
	if err != nil {
		return time.UTC
	}
	return loc
}
