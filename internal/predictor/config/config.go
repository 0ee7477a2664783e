package config

import (
	"time"

	"stock-movement-predictor/pkg/config"
)

// Store holds the flat-file dataset store configuration.
type Store struct {
	// DataDir holds the per-symbol full dataset CSVs.
	DataDir string `mapstructure:"data_dir"`
	// SnapshotDir, when set, receives the engineered feature table after
	// each run as a debugging artifact.
	SnapshotDir string `mapstructure:"snapshot_dir"`
}

// Model holds the classifier artifact configuration.
type Model struct {
	Dir      string        `mapstructure:"dir"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// Prediction holds serving-side options.
type Prediction struct {
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// AlphaVantage holds the configuration for the Alpha Vantage API.
type AlphaVantage struct {
	BaseURL             string `mapstructure:"base_url"`
	APIKey              string `mapstructure:"api_key"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
}

// Finnhub holds the configuration for the Finnhub company-news API.
type Finnhub struct {
	BaseURL             string `mapstructure:"base_url"`
	APIKey              string `mapstructure:"api_key"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
}

// News selects and tunes the news source.
type News struct {
	// Source is "finnhub" or "rss".
	Source      string `mapstructure:"source"`
	RSSBaseURL  string `mapstructure:"rss_base_url"`
	MaxArticles int    `mapstructure:"max_articles"`
}

// Gemini holds the configuration for the Gemini API.
type Gemini struct {
	APIKey              string `mapstructure:"api_key"`
	Model               string `mapstructure:"model"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
	MaxTokenPerMinute   int    `mapstructure:"max_token_per_minute"`
}

// AI holds configuration for sentiment providers.
type AI struct {
	// Provider is "gemini" or "lexicon".
	Provider string `mapstructure:"provider"`
}

// Telegram holds configuration for the Telegram notifier.
type Telegram struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
}

// Scheduler holds the daily refresh job configuration.
type Scheduler struct {
	Enabled      bool     `mapstructure:"enabled"`
	RefreshCron  string   `mapstructure:"refresh_cron"`
	Symbols      []string `mapstructure:"symbols"`
	TrailingDays int      `mapstructure:"trailing_days"`
}

// Config holds the full configuration for the prediction service.
type Config struct {
	App          config.App    `mapstructure:"app"`
	Logger       config.Logger `mapstructure:"logger"`
	Redis        config.Redis  `mapstructure:"redis"`
	API          config.API    `mapstructure:"api"`
	Store        Store         `mapstructure:"store"`
	Model        Model         `mapstructure:"model"`
	Prediction   Prediction    `mapstructure:"prediction"`
	AlphaVantage AlphaVantage  `mapstructure:"alpha_vantage"`
	Finnhub      Finnhub       `mapstructure:"finnhub"`
	News         News          `mapstructure:"news"`
	Gemini       Gemini        `mapstructure:"gemini"`
	AI           AI            `mapstructure:"ai"`
	Telegram     Telegram      `mapstructure:"telegram"`
	Scheduler    Scheduler     `mapstructure:"scheduler"`
}

// Load loads the prediction service configuration from the given path.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
