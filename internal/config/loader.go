package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix — префикс переменных окружения.
const EnvPrefix = "DISCHARGE"

// ConfigPathEnv — переменная с путём к файлу конфигурации.
const ConfigPathEnv = EnvPrefix + "_CONFIG_PATH"

// Ошибки конфигурации.
var (
	ErrMissingValue = errors.New("missing configuration value")
	ErrInvalidValue = errors.New("invalid configuration value")
)

// Короткие имена переменных окружения, принятые на рабочих станциях.
var envAliases = map[string]string{
	"database.record_dsn": "DB_URL",
	"database.rpa_dsn":    "RPA_DB_URL",
	"rabbitmq.url":        "RABBITMQ_URL",
	"dashboard.url":       "DASHBOARD_API_URL",
	"dashboard.api_key":   "API_ADMIN_TOKEN",
}

// Loader загружает конфигурацию через Viper.
type Loader struct {
	v *viper.Viper
}

// NewLoader создаёт Loader со значениями DefaultConfig и привязкой
// переменных окружения.
func NewLoader() *Loader {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, DefaultConfig())

	for key, alias := range envAliases {
		_ = v.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), alias)
	}

	return &Loader{v: v}
}

// Load ищет файл конфигурации и загружает его. Без файла используются
// значения по умолчанию и переменные окружения.
func (l *Loader) Load() (*Config, error) {
	if path := os.Getenv(ConfigPathEnv); path != "" {
		return l.LoadFromFile(path)
	}

	for _, path := range searchPaths() {
		if _, err := os.Stat(path); err == nil {
			return l.LoadFromFile(path)
		}
	}

	return l.unmarshal()
}

// LoadFromFile загружает конфигурацию из файла.
func (l *Loader) LoadFromFile(path string) (*Config, error) {
	l.v.SetConfigFile(path)
	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	return l.unmarshal()
}

// Viper возвращает экземпляр Viper (для вывода эффективной конфигурации).
func (l *Loader) Viper() *viper.Viper {
	return l.v
}

func (l *Loader) unmarshal() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}

func searchPaths() []string {
	paths := []string{"discharge.yaml"}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "discharge", "discharge.yaml"))
	}
	return paths
}

// setDefaults регистрирует значения по умолчанию для всех ключей.
// Без них AutomaticEnv не видит ключи при Unmarshal.
func setDefaults(v *viper.Viper, d *Config) {
	defaults := map[string]any{
		"database.record_dsn": d.Database.RecordDSN,
		"database.rpa_dsn":    d.Database.RPADSN,

		"rabbitmq.url": d.RabbitMQ.URL,

		"dashboard.url":          d.Dashboard.URL,
		"dashboard.api_key":      d.Dashboard.APIKey,
		"dashboard.process_name": d.Dashboard.ProcessName,
		"dashboard.step_name":    d.Dashboard.StepName,

		"portal.cdp_url":            d.Portal.CDPURL,
		"portal.tab_url":            d.Portal.TabURL,
		"portal.sent_messages_url":  d.Portal.SentMessagesURL,
		"portal.create_journal_url": d.Portal.CreateJournalURL,
		"portal.open_delay":         d.Portal.OpenDelay,

		"bridge.url":          d.Bridge.URL,
		"bridge.call_timeout": d.Bridge.CallTimeout,

		"paths.tmp_dir":       d.Paths.TmpDir,
		"paths.downloads_dir": d.Paths.DownloadsDir,
		"paths.lock_file":     d.Paths.LockFile,

		"timeouts.poll_interval": d.Timeouts.PollInterval,
		"timeouts.default_wait":  d.Timeouts.DefaultWait,
		"timeouts.upload":        d.Timeouts.Upload,
		"timeouts.receipt":       d.Timeouts.Receipt,
		"timeouts.drain":         d.Timeouts.Drain,

		"retry.max_attempts":   d.Retry.MaxAttempts,
		"retry.base_delay":     d.Retry.BaseDelay,
		"retry.backoff_factor": d.Retry.BackoffFactor,

		"idempotency.window": d.Idempotency.Window,

		"texts.journal_continuation":             d.Texts.JournalContinuation,
		"texts.journal_continuation_replacement": d.Texts.JournalContinuationReplacement,
		"texts.admin_note":                       d.Texts.AdminNote,
		"texts.admin_note_lookup":                d.Texts.AdminNoteLookup,
		"texts.discharge_document_type":          d.Texts.DischargeDocumentType,
		"texts.phone_not_set":                    d.Texts.PhoneNotSet,

		"server.metrics_addr": d.Server.MetricsAddr,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}
