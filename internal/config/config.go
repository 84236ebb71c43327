package config

import (
	"errors"
	"fmt"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v10"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	homedir "github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"

	"DealSentinel/internal/model"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token" env:"TELEGRAM_BOT_TOKEN"`
		ChatID   string `yaml:"chat_id" env:"TELEGRAM_CHAT_ID"`
	} `yaml:"telegram"`
	Storage struct {
		Backend string `yaml:"backend" env:"DEAL_STORE_BACKEND" validate:"oneof=file pebble memory"`
		DataDir string `yaml:"data_dir" env:"DEAL_DATA_DIR" validate:"required_unless=Backend memory"`
	} `yaml:"storage"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path" env:"SQLITE_PATH"`
	} `yaml:"database"`
	Schedule struct {
		ExpiryCron      string `yaml:"expiry_cron" env:"CRON_EXPIRY"`
		FlushCron       string `yaml:"flush_cron" env:"CRON_FLUSH"`
		SummaryCron     string `yaml:"summary_cron" env:"CRON_SUMMARY"`
		ExpireAfterDays int    `yaml:"expire_after_days" env:"EXPIRE_AFTER_DAYS" validate:"gte=1"`
	} `yaml:"schedule"`
	Alerts struct {
		QuietStart string `yaml:"quiet_start" env:"QUIET_START" validate:"datetime=15:04"`
		QuietEnd   string `yaml:"quiet_end" env:"QUIET_END" validate:"datetime=15:04"`
		Timezone   string `yaml:"timezone" env:"ALERT_TIMEZONE" validate:"timezone"`
	} `yaml:"alerts"`
	Server struct {
		Addr string `yaml:"addr" env:"HTTP_ADDR"`
	} `yaml:"server"`
	Traveler struct {
		FamilySize int `yaml:"family_size" env:"FAMILY_SIZE" validate:"gte=1"`
	} `yaml:"traveler"`
	Budget struct {
		TargetTotal  float64 `yaml:"target_total" env:"TARGET_BUDGET" validate:"gte=0"`
		MaxTotalCash float64 `yaml:"max_total_cash" env:"MAX_BUDGET" validate:"gtefield=TargetTotal"`
	} `yaml:"budget"`
	ValueCalc struct {
		BaselineCPP map[string]float64 `yaml:"baseline_cpp"`
		TargetCPP   map[string]float64 `yaml:"target_cpp"`
		MinCPP      map[string]float64 `yaml:"min_cpp"`
		Loyalty     model.Loyalty      `yaml:"diamond_benefits"`
	} `yaml:"value_calc"`
	Proxy    string `yaml:"proxy" env:"HTTPS_PROXY"`
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" validate:"omitempty,oneof=debug info warn error"`
}

var validate = validator.New(validator.WithRequiredStructEnabled()) //nolint:gochecknoglobals // skip

// Load reads config from a YAML file, then a .env file if present, then
// applies environment variable overrides and fills defaults. A missing file
// is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		expanded, err := homedir.Expand(path)
		if err != nil {
			return nil, fmt.Errorf("expand config path: %w", err)
		}
		data, err := os.ReadFile(expanded)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	_ = godotenv.Load()

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("env.Parse: %w", err)
	}

	cfg.applyDefaults()

	for _, p := range []*string{&cfg.Storage.DataDir, &cfg.Database.SQLitePath} {
		if *p == "" {
			continue
		}
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return nil, fmt.Errorf("expand %q: %w", *p, err)
		}
		*p = expanded
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Storage.Backend == "" {
		c.Storage.Backend = "file"
	}
	if c.Storage.DataDir == "" {
		c.Storage.DataDir = "data"
	}
	if c.Schedule.ExpiryCron == "" {
		c.Schedule.ExpiryCron = "0 0 3 * * *"
	}
	if c.Schedule.FlushCron == "" {
		c.Schedule.FlushCron = "0 */15 * * * *"
	}
	if c.Schedule.SummaryCron == "" {
		c.Schedule.SummaryCron = "0 0 8 * * *"
	}
	if c.Schedule.ExpireAfterDays == 0 {
		c.Schedule.ExpireAfterDays = 7
	}
	if c.Alerts.QuietStart == "" {
		c.Alerts.QuietStart = "22:00"
	}
	if c.Alerts.QuietEnd == "" {
		c.Alerts.QuietEnd = "07:00"
	}
	if c.Alerts.Timezone == "" {
		c.Alerts.Timezone = "America/Chicago"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	def := model.DefaultValueConfig()
	if c.Traveler.FamilySize == 0 {
		c.Traveler.FamilySize = def.FamilySize
	}
	if c.Budget.TargetTotal == 0 {
		c.Budget.TargetTotal = def.TargetBudget
	}
	if c.Budget.MaxTotalCash == 0 {
		c.Budget.MaxTotalCash = def.MaxBudget
	}
	l := &c.ValueCalc.Loyalty
	if l.Carrier == "" {
		l.Carrier = def.Loyalty.Carrier
	}
	if l.UpgradeProbability == 0 {
		l.UpgradeProbability = def.Loyalty.UpgradeProbability
	}
	if l.UpgradeMultiplier == 0 {
		l.UpgradeMultiplier = def.Loyalty.UpgradeMultiplier
	}
	if l.CompanionCertValue == 0 {
		l.CompanionCertValue = def.Loyalty.CompanionCertValue
	}
	if len(c.ValueCalc.BaselineCPP) == 0 && len(c.ValueCalc.TargetCPP) == 0 && len(c.ValueCalc.MinCPP) == 0 {
		c.ValueCalc.BaselineCPP = map[string]float64{}
		c.ValueCalc.TargetCPP = map[string]float64{}
		c.ValueCalc.MinCPP = map[string]float64{}
		for k, t := range def.Currencies {
			c.ValueCalc.BaselineCPP[k] = t.Baseline
			c.ValueCalc.TargetCPP[k] = t.Target
			c.ValueCalc.MinCPP[k] = t.Min
		}
	}
}

// Validate checks field formats and the valuation thresholds. Telegram
// credentials are optional; without them alerts are only logged.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) && len(ve) > 0 {
			return fmt.Errorf("config: %s failed %s", ve[0].Namespace(), ve[0].Tag())
		}
		return fmt.Errorf("config: %w", err)
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return errors.New("telegram.bot_token and telegram.chat_id must be set together")
	}
	return model.ValidateValueConfig(c.ValueConfig())
}

// TelegramEnabled reports whether alerts can be delivered.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// Location resolves the alert time zone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Alerts.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ValueConfig converts the YAML valuation section into the policy value
// passed to the valuation engine. A currency missing from one of the three
// maps takes the value of target_cpp or min_cpp.
func (c *Config) ValueConfig() model.ValueConfig {
	names := map[string]struct{}{}
	for _, m := range []map[string]float64{c.ValueCalc.BaselineCPP, c.ValueCalc.TargetCPP, c.ValueCalc.MinCPP} {
		for k := range m {
			names[k] = struct{}{}
		}
	}
	currencies := make(map[string]model.PointsThresholds, len(names))
	for k := range names {
		t := model.PointsThresholds{
			Min:      c.ValueCalc.MinCPP[k],
			Target:   c.ValueCalc.TargetCPP[k],
			Baseline: c.ValueCalc.BaselineCPP[k],
		}
		if _, ok := c.ValueCalc.TargetCPP[k]; !ok {
			t.Target = t.Min
		}
		if _, ok := c.ValueCalc.MinCPP[k]; !ok {
			t.Min = t.Target
		}
		currencies[k] = t
	}
	return model.ValueConfig{
		Currencies:   currencies,
		FamilySize:   c.Traveler.FamilySize,
		TargetBudget: c.Budget.TargetTotal,
		MaxBudget:    c.Budget.MaxTotalCash,
		Loyalty:      c.ValueCalc.Loyalty,
	}
}
