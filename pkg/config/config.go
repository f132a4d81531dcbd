package config

import (
	"fmt"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"SessionEdge/pkg/util"
)

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"required"`
	Logging     struct {
		Level      string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
		Format     string `yaml:"format" default:"json" validate:"oneof=json console"`
		Output     string `yaml:"output" default:"stdout"`
		TimeFormat string `yaml:"time_format"`
	} `yaml:"logging"`
	Data struct {
		Source      string `yaml:"source" default:"csv" validate:"oneof=csv clickhouse"`
		Symbol      string `yaml:"symbol" default:"NIFTY50" validate:"required"`
		FinePath    string `yaml:"fine_path" default:"data/nifty50_minute_complete-5min.csv"`
		PatternPath string `yaml:"pattern_path" default:"data/nifty50_minute_complete-30min.csv"`
		TrendPath   string `yaml:"trend_path" default:"data/nifty50_minute_complete-120min.csv"`
		Timezone    string `yaml:"timezone" default:"Asia/Kolkata"`
	} `yaml:"data"`
	Analysis struct {
		Trend struct {
			Rule           string  `yaml:"rule" default:"close_vs_ema" validate:"oneof=slope_gated close_vs_ema"`
			FastSpan       int     `yaml:"fast_span" default:"11" validate:"gte=1"`
			SlowSpan       int     `yaml:"slow_span" default:"21" validate:"gte=1"`
			SlopeLookback  int     `yaml:"slope_lookback" default:"1" validate:"gte=1"`
			SlopeThreshold float64 `yaml:"slope_threshold" default:"10" validate:"gte=0"`
			SessionOpen    string  `yaml:"session_open" default:"09:15"`
		} `yaml:"trend"`
		SessionClose    string    `yaml:"session_close" default:"15:25"`
		GapThreshold    float64   `yaml:"gap_threshold" default:"50" validate:"gt=0"`
		Offsets         []float64 `yaml:"offsets" default:"[10]" validate:"dive,gte=0"`
		StrongWickRatio float64   `yaml:"strong_wick_ratio" default:"0.1" validate:"gt=0,lte=1"`
		Window          struct {
			Start   int `yaml:"start" default:"15" validate:"gte=1"`
			End     int `yaml:"end" default:"19" validate:"gte=1"`
			MinBars int `yaml:"min_bars" default:"20" validate:"gte=1"`
		} `yaml:"window"`
		PatternBars     int           `yaml:"pattern_bars" default:"3" validate:"gte=1,lte=8"`
		GapPatterns     []PatternSpec `yaml:"gap_patterns" default:"[{\"bars\":3},{\"bars\":6},{\"bars\":3,\"skip\":1}]" validate:"dive"`
		StrongTrendBars int           `yaml:"strong_trend_bars" validate:"gte=0"`
		MaxBarIndex     int           `yaml:"max_bar_index" default:"75" validate:"gte=0"`
		Workers         int           `yaml:"workers" default:"4" validate:"gte=1,lte=64"`
	} `yaml:"analysis"`
	TradeIdeas struct {
		DefaultATR float64 `yaml:"default_atr" default:"100" validate:"gt=0"`
	} `yaml:"trade_ideas"`
	Output struct {
		Dir       string   `yaml:"dir" default:"output" validate:"required"`
		Formats   []string `yaml:"formats" default:"[\"csv\",\"markdown\"]" validate:"dive,oneof=csv markdown json"`
		Decimals  int      `yaml:"decimals" default:"2" validate:"gte=-1,lte=10"`
		TotalsRow bool     `yaml:"totals_row" default:"true"`
	} `yaml:"output"`
	Server struct {
		Port            int           `yaml:"port" default:"8080" validate:"gte=1,lte=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		RunRatePerMin   float64       `yaml:"run_rate_per_min" default:"6" validate:"gt=0"`
		RunBurst        int           `yaml:"run_burst" default:"2" validate:"gte=1"`
	} `yaml:"server"`
	Metrics struct {
		Enabled   bool   `yaml:"enabled"`
		Path      string `yaml:"path" default:"/metrics"`
		Namespace string `yaml:"namespace" default:"sessionedge"`
	} `yaml:"metrics"`
	Redis struct {
		Enabled  bool          `yaml:"enabled"`
		Addr     string        `yaml:"addr" default:"localhost:6379"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db"`
		Prefix   string        `yaml:"prefix" default:"sessionedge"`
		TTL      time.Duration `yaml:"ttl" default:"24h"`
		LockTTL  time.Duration `yaml:"lock_ttl" default:"15m"`
	} `yaml:"redis"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic" default:"sessionedge.runs"`
		LogsKey      string   `yaml:"logs_key" default:"logs"`
		RequiredAcks int      `yaml:"required_acks" default:"-1" validate:"oneof=-1 0 1"`
		Compression  string   `yaml:"compression" default:"snappy" validate:"oneof=none gzip snappy lz4 zstd"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3" validate:"gte=1"`
			BatchTimeout time.Duration `yaml:"batch_timeout" default:"50ms"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"market"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		Table            string        `yaml:"table" default:"bars"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"30s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
	} `yaml:"clickhouse"`
}

// PatternSpec selects bars skip+1 .. skip+bars of the pattern series for a
// gap-split pattern table.
type PatternSpec struct {
	Bars int `yaml:"bars" json:"bars" validate:"gte=1,lte=8"`
	Skip int `yaml:"skip" json:"skip" validate:"gte=0"`
}

var validate = validator.New()

// Default returns a configuration made only of defaults.
func Default() (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	return &c, nil
}

func parse(path string) (*Config, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return c, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return c, nil
}

// Load reads a YAML file over the defaults and validates it. An empty path
// yields the defaults.
func Load(path string) (*Config, error) {
	c, err := parse(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := parse(path)
	if err != nil {
		return nil, err
	}
	c.applyEnv(os.Getenv)
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	set := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	set("SE_ENV", &c.Environment)
	set("SE_DATA_FINE", &c.Data.FinePath)
	set("SE_DATA_PATTERN", &c.Data.PatternPath)
	set("SE_DATA_TREND", &c.Data.TrendPath)
	set("SE_TREND_RULE", &c.Analysis.Trend.Rule)
	set("SE_OUTPUT_DIR", &c.Output.Dir)
	set("SE_LOG_LEVEL", &c.Logging.Level)
	set("KAFKA_TOPIC", &c.Kafka.Topic)
	set("REDIS_ADDR", &c.Redis.Addr)
	set("CLICKHOUSE_HOST", &c.ClickHouse.Host)
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = util.SplitList(v)
	}
	if v := getenv("SE_OFFSETS"); v != "" {
		if offsets, err := util.ParseFloatList(v); err == nil {
			c.Analysis.Offsets = offsets
		}
	}
	c.Analysis.Workers = util.ParseIntDefault(getenv("SE_WORKERS"), c.Analysis.Workers)
}

// Validate checks tags and the rules that span several fields.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	a := c.Analysis
	if a.Trend.FastSpan >= a.Trend.SlowSpan {
		return fmt.Errorf("analysis.trend.fast_span (%d) must be below slow_span (%d)", a.Trend.FastSpan, a.Trend.SlowSpan)
	}
	if _, _, err := util.ParseClock(a.Trend.SessionOpen); err != nil {
		return fmt.Errorf("analysis.trend.session_open: %w", err)
	}
	if _, _, err := util.ParseClock(a.SessionClose); err != nil {
		return fmt.Errorf("analysis.session_close: %w", err)
	}
	if a.Window.End < a.Window.Start {
		return fmt.Errorf("analysis.window.end (%d) before start (%d)", a.Window.End, a.Window.Start)
	}
	if a.Window.MinBars < a.Window.End {
		return fmt.Errorf("analysis.window.min_bars (%d) shorter than end (%d)", a.Window.MinBars, a.Window.End)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("data.timezone: %w", err)
	}
	switch c.Data.Source {
	case "csv":
		if c.Data.FinePath == "" || c.Data.PatternPath == "" || c.Data.TrendPath == "" {
			return fmt.Errorf("data: fine_path, pattern_path and trend_path are required for csv")
		}
	case "clickhouse":
		if c.ClickHouse.Host == "" {
			return fmt.Errorf("clickhouse.host is required when data.source is clickhouse")
		}
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required when redis is enabled")
	}
	return nil
}

// Location resolves data.timezone; empty means UTC.
func (c *Config) Location() (*time.Location, error) {
	if c.Data.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Data.Timezone)
}

// HasFormat reports whether output.formats lists f.
func (c *Config) HasFormat(f string) bool {
	for _, v := range c.Output.Formats {
		if v == f {
			return true
		}
	}
	return false
}
