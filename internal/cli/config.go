package cli

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shaiso/discharge/internal/config"
)

// ConfigFunc загружает конфигурацию. Вызывается после разбора флагов.
type ConfigFunc func() (*config.Config, error)

// LoadConfig возвращает ConfigFunc для файла path. Пустой path —
// поиск файла по правилам config.Loader.
func LoadConfig(path *string) ConfigFunc {
	return func() (*config.Config, error) {
		loader := config.NewLoader()
		if *path != "" {
			return loader.LoadFromFile(*path)
		}
		return loader.Load()
	}
}

// NewConfigCmd создаёт команду вывода эффективной конфигурации.
// Секреты маскируются.
func NewConfigCmd(configFn ConfigFunc, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFn()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				outputFn().Error(err.Error())
			}

			masked := maskConfig(cfg)
			outputFn().Print([]string{"KEY", "VALUE"}, configRows(masked), masked)
			return nil
		},
	}
}

// maskConfig возвращает копию конфигурации без паролей и ключей.
func maskConfig(cfg *config.Config) *config.Config {
	c := *cfg
	c.Database.RecordDSN = maskURL(c.Database.RecordDSN)
	c.Database.RPADSN = maskURL(c.Database.RPADSN)
	c.RabbitMQ.URL = maskURL(c.RabbitMQ.URL)
	if c.Dashboard.APIKey != "" {
		c.Dashboard.APIKey = "****"
	}
	return &c
}

// maskURL заменяет пароль в URL звёздочками.
func maskURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	if _, ok := u.User.Password(); !ok {
		return raw
	}
	u.User = url.UserPassword(u.User.Username(), "xxxxx")
	return strings.Replace(u.String(), "xxxxx", "****", 1)
}

func configRows(c *config.Config) [][]string {
	values := map[string]any{
		"database.record_dsn":           c.Database.RecordDSN,
		"database.rpa_dsn":              c.RPADSN(),
		"rabbitmq.url":                  c.RabbitMQ.URL,
		"dashboard.url":                 c.Dashboard.URL,
		"dashboard.api_key":             c.Dashboard.APIKey,
		"dashboard.process_name":        c.Dashboard.ProcessName,
		"dashboard.step_name":           c.Dashboard.StepName,
		"portal.cdp_url":                c.Portal.CDPURL,
		"portal.tab_url":                c.Portal.TabURL,
		"portal.open_delay":             c.Portal.OpenDelay,
		"bridge.url":                    c.Bridge.URL,
		"bridge.call_timeout":           c.Bridge.CallTimeout,
		"paths.tmp_dir":                 c.Paths.TmpDir,
		"paths.downloads_dir":           c.Paths.DownloadsDir,
		"paths.lock_file":               c.Paths.LockFile,
		"timeouts.poll_interval":        c.Timeouts.PollInterval,
		"timeouts.default_wait":         c.Timeouts.DefaultWait,
		"timeouts.upload":               c.Timeouts.Upload,
		"timeouts.receipt":              c.Timeouts.Receipt,
		"retry.max_attempts":            c.Retry.MaxAttempts,
		"retry.base_delay":              c.Retry.BaseDelay,
		"retry.backoff_factor":          c.Retry.BackoffFactor,
		"idempotency.window":            c.Idempotency.Window,
		"texts.admin_note":              c.Texts.AdminNote,
		"texts.discharge_document_type": c.Texts.DischargeDocumentType,
		"server.metrics_addr":           c.Server.MetricsAddr,
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([][]string, len(keys))
	for i, k := range keys {
		rows[i] = []string{k, fmt.Sprint(values[k])}
	}
	return rows
}
