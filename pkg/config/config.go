package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"log"`
	AlphaVantage struct {
		BaseURL    string        `yaml:"base_url"`
		APIKey     string        `yaml:"api_key"`
		OutputSize string        `yaml:"output_size"`
		Timeout    time.Duration `yaml:"timeout"`
		MaxRetries int           `yaml:"max_retries"`
		BaseDelay  time.Duration `yaml:"base_delay"`
	} `yaml:"alphavantage"`
	Twitter struct {
		BaseURL    string        `yaml:"base_url"`
		Token      string        `yaml:"token"`
		PageSize   int           `yaml:"page_size"`
		TweetCap   int           `yaml:"tweet_cap"`
		Timeout    time.Duration `yaml:"timeout"`
		MaxRetries int           `yaml:"max_retries"`
		BaseDelay  time.Duration `yaml:"base_delay"`
	} `yaml:"twitter"`
	Sentiment struct {
		ServiceURL string        `yaml:"service_url"`
		Timeout    time.Duration `yaml:"timeout"`
		BatchSize  int           `yaml:"batch_size"`
	} `yaml:"sentiment"`
	Pipeline struct {
		Symbols      []string `yaml:"symbols"`
		MaxWorkers   int      `yaml:"max_workers"`
		RunOnStartup bool     `yaml:"run_on_startup"`
	} `yaml:"pipeline"`
	Indicators struct {
		SMAWindow       int `yaml:"sma_window"`
		RSIWindow       int `yaml:"rsi_window"`
		MACDFast        int `yaml:"macd_fast"`
		MACDSlow        int `yaml:"macd_slow"`
		MACDSignal      int `yaml:"macd_signal"`
		BollingerWindow int `yaml:"bollinger_window"`
	} `yaml:"indicators"`
	Market struct {
		Timezone  string   `yaml:"timezone"`
		CloseHour int      `yaml:"close_hour"`
		Holidays  []string `yaml:"holidays"` // YYYY-MM-DD
	} `yaml:"market"`
	RateLimit struct {
		Capacity     float64 `yaml:"capacity"`
		RefillPerSec float64 `yaml:"refill_per_sec"`
	} `yaml:"rate_limit"`
	Cache struct {
		TTL   time.Duration `yaml:"ttl"`
		Redis struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Kafka struct {
		Enabled      bool          `yaml:"enabled"`
		Brokers      []string      `yaml:"brokers"`
		Topic        string        `yaml:"topic"`
		RequiredAcks int           `yaml:"required_acks"`
		Compression  string        `yaml:"compression"`
		MaxAttempts  int           `yaml:"max_attempts"`
		BatchSize    int           `yaml:"batch_size"`
		Linger       time.Duration `yaml:"linger"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
	} `yaml:"kafka"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("ALPHAVANTAGE_API_KEY"); v != "" {
		c.AlphaVantage.APIKey = v
	}
	if v := os.Getenv("TWITTER_BEARER_TOKEN"); v != "" {
		c.Twitter.Token = v
	}
	if v := os.Getenv("SYMBOLS"); v != "" {
		c.Pipeline.Symbols = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
		c.Kafka.Enabled = true
	}
	if v := os.Getenv("SENTIMENT_SERVICE_URL"); v != "" {
		c.Sentiment.ServiceURL = v
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.AlphaVantage.MaxRetries == 0 {
		c.AlphaVantage.MaxRetries = 5
	}
	if c.AlphaVantage.BaseDelay == 0 {
		c.AlphaVantage.BaseDelay = time.Second
	}
	if c.AlphaVantage.Timeout == 0 {
		c.AlphaVantage.Timeout = 30 * time.Second
	}
	if c.AlphaVantage.OutputSize == "" {
		c.AlphaVantage.OutputSize = "compact"
	}
	if c.Twitter.MaxRetries == 0 {
		c.Twitter.MaxRetries = 5
	}
	if c.Twitter.BaseDelay == 0 {
		c.Twitter.BaseDelay = time.Second
	}
	if c.Twitter.Timeout == 0 {
		c.Twitter.Timeout = 30 * time.Second
	}
	if c.Twitter.PageSize == 0 {
		c.Twitter.PageSize = 100
	}
	if c.Twitter.TweetCap == 0 {
		c.Twitter.TweetCap = 100
	}
	if c.Sentiment.BatchSize == 0 {
		c.Sentiment.BatchSize = 50
	}
	if c.Pipeline.MaxWorkers == 0 {
		c.Pipeline.MaxWorkers = 4
	}
	if c.Indicators.SMAWindow == 0 {
		c.Indicators.SMAWindow = 20
	}
	if c.Indicators.RSIWindow == 0 {
		c.Indicators.RSIWindow = 14
	}
	if c.Indicators.MACDFast == 0 {
		c.Indicators.MACDFast = 12
	}
	if c.Indicators.MACDSlow == 0 {
		c.Indicators.MACDSlow = 26
	}
	if c.Indicators.MACDSignal == 0 {
		c.Indicators.MACDSignal = 9
	}
	if c.Indicators.BollingerWindow == 0 {
		c.Indicators.BollingerWindow = 20
	}
	if c.Market.Timezone == "" {
		c.Market.Timezone = "America/New_York"
	}
	if c.Market.CloseHour == 0 {
		c.Market.CloseHour = 16
	}
	if c.RateLimit.Capacity == 0 {
		c.RateLimit.Capacity = 5
	}
	if c.RateLimit.RefillPerSec == 0 {
		c.RateLimit.RefillPerSec = 1
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = 15 * time.Minute
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if c.Log.Output == "" {
		c.Log.Output = "stdout"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if len(c.Pipeline.Symbols) == 0 {
		return fmt.Errorf("pipeline.symbols cannot be empty")
	}
	if c.AlphaVantage.APIKey == "" {
		return fmt.Errorf("alphavantage.api_key is required")
	}
	if c.AlphaVantage.OutputSize != "compact" && c.AlphaVantage.OutputSize != "full" {
		return fmt.Errorf("alphavantage.output_size must be 'compact' or 'full', got '%s'", c.AlphaVantage.OutputSize)
	}
	if c.Twitter.Token == "" {
		return fmt.Errorf("twitter.token is required")
	}
	if c.Market.CloseHour < 0 || c.Market.CloseHour > 23 {
		return fmt.Errorf("market.close_hour must be in [0,23], got %d", c.Market.CloseHour)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka.enabled")
	}
	for _, h := range c.Market.Holidays {
		if _, err := time.Parse("2006-01-02", h); err != nil {
			return fmt.Errorf("market.holidays entry '%s' is not YYYY-MM-DD", h)
		}
	}
	return nil
}

// Holidays parses the configured holiday dates into a set keyed by
// YYYY-MM-DD. Validate guarantees entries parse.
func (c *Config) Holidays() map[string]struct{} {
	set := make(map[string]struct{}, len(c.Market.Holidays))
	for _, h := range c.Market.Holidays {
		set[h] = struct{}{}
	}
	return set
}
