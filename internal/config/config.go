package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config stores all configuration for the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	Arbitrage ArbitrageConfig           `mapstructure:"arbitrage"`
	Database  DatabaseConfig            `mapstructure:"database"`
	Exchanges map[string]ExchangeConfig `mapstructure:"exchanges"`
}

// ArbitrageConfig defines the thresholds and sizing for opportunity
// evaluation. All percentage values are plain percent, not fractions.
type ArbitrageConfig struct {
	CapitalUSD            float64 `mapstructure:"capital_usd"`
	MinProfitThresholdPct float64 `mapstructure:"min_profit_threshold_pct"`
	MaxProfitThresholdPct float64 `mapstructure:"max_profit_threshold_pct"`
	MinVolumeUSD          float64 `mapstructure:"min_volume_usd"`
	OrderBookDepth        int     `mapstructure:"order_book_depth"`
	MaxSlippagePct        float64 `mapstructure:"max_slippage_pct"`
	MinROIPct             float64 `mapstructure:"min_roi_pct"`
	OpportunityTTLSeconds int     `mapstructure:"opportunity_ttl_seconds"`
	TopN                  int     `mapstructure:"top_n"`
	MinExchangesForPair   int     `mapstructure:"min_exchanges_for_pair"`
	SlippageFactor        float64 `mapstructure:"slippage_factor"`
	ReferenceVolumeUSD    float64 `mapstructure:"reference_volume_usd"`
	ScanIntervalSeconds   int     `mapstructure:"scan_interval_seconds"`
	CallTimeoutSeconds    int     `mapstructure:"call_timeout_seconds"`
}

// OpportunityTTL returns the configured opportunity TTL as a duration.
func (a ArbitrageConfig) OpportunityTTL() time.Duration {
	return time.Duration(a.OpportunityTTLSeconds) * time.Second
}

// ScanInterval returns the configured scan interval as a duration.
func (a ArbitrageConfig) ScanInterval() time.Duration {
	return time.Duration(a.ScanIntervalSeconds) * time.Second
}

// CallTimeout returns the per-exchange call timeout as a duration.
func (a ArbitrageConfig) CallTimeout() time.Duration {
	return time.Duration(a.CallTimeoutSeconds) * time.Second
}

// DatabaseConfig defines the database connection settings.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

// DSN renders the postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s", d.User, d.Password, d.Host, d.Port, d.DBName)
}

// ExchangeConfig defines settings for a specific exchange.
type ExchangeConfig struct {
	TakerFeePercent  float64 `mapstructure:"taker_fee_percent"`
	MakerFeePercent  float64 `mapstructure:"maker_fee_percent"`
	SymbolConvention string  `mapstructure:"symbol_convention"`
}

// LoadConfig reads configuration from file or environment variables and
// applies defaults for anything not set.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	if err = viper.Unmarshal(&config); err != nil {
		return
	}

	err = config.Validate()
	return
}

func setDefaults() {
	viper.SetDefault("arbitrage.capital_usd", 1000.0)
	viper.SetDefault("arbitrage.min_profit_threshold_pct", 0.5)
	viper.SetDefault("arbitrage.max_profit_threshold_pct", 100.0)
	viper.SetDefault("arbitrage.min_volume_usd", 100000.0)
	viper.SetDefault("arbitrage.order_book_depth", 20)
	viper.SetDefault("arbitrage.max_slippage_pct", 5.0)
	viper.SetDefault("arbitrage.min_roi_pct", 1.0)
	viper.SetDefault("arbitrage.opportunity_ttl_seconds", 300)
	viper.SetDefault("arbitrage.top_n", 10)
	viper.SetDefault("arbitrage.min_exchanges_for_pair", 2)
	viper.SetDefault("arbitrage.slippage_factor", 0.001)
	viper.SetDefault("arbitrage.reference_volume_usd", 100000.0)
	viper.SetDefault("arbitrage.scan_interval_seconds", 60)
	viper.SetDefault("arbitrage.call_timeout_seconds", 10)
}

// Validate rejects configurations that would make the evaluation pipeline
// silently misbehave.
func (c Config) Validate() error {
	a := c.Arbitrage
	if a.CapitalUSD <= 0 {
		return fmt.Errorf("config: capital_usd must be positive, got %v", a.CapitalUSD)
	}
	if a.MinProfitThresholdPct < 0 {
		return fmt.Errorf("config: min_profit_threshold_pct must not be negative, got %v", a.MinProfitThresholdPct)
	}
	if a.MaxProfitThresholdPct <= a.MinProfitThresholdPct {
		return fmt.Errorf("config: max_profit_threshold_pct (%v) must exceed min_profit_threshold_pct (%v)",
			a.MaxProfitThresholdPct, a.MinProfitThresholdPct)
	}
	if a.OrderBookDepth <= 0 {
		return fmt.Errorf("config: order_book_depth must be positive, got %d", a.OrderBookDepth)
	}
	if a.TopN <= 0 {
		return fmt.Errorf("config: top_n must be positive, got %d", a.TopN)
	}
	if a.MinExchangesForPair < 2 {
		return fmt.Errorf("config: min_exchanges_for_pair must be at least 2, got %d", a.MinExchangesForPair)
	}
	for name, ex := range c.Exchanges {
		if ex.TakerFeePercent < 0 || ex.TakerFeePercent > 10 {
			return fmt.Errorf("config: exchange %s taker_fee_percent out of range: %v", name, ex.TakerFeePercent)
		}
		switch ex.SymbolConvention {
		case "", "concatenated", "dash", "underscore":
		default:
			return fmt.Errorf("config: exchange %s has unknown symbol_convention %q", name, ex.SymbolConvention)
		}
	}
	return nil
}
