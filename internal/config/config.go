package config

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig `mapstructure:"server"`
	DB     DBConfig     `mapstructure:"db"`
	Data   DataConfig   `mapstructure:"data"`
	Report ReportConfig `mapstructure:"report"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type DBConfig struct {
	DSN          string `mapstructure:"dsn"`
	MaxOpenConns int    `mapstructure:"maxOpenConns"`
}

// DataConfig points at the four raw CSV snapshots. Dir is the base directory,
// the file names default to the conventional snapshot names.
type DataConfig struct {
	Dir       string `mapstructure:"dir"`
	WebOrders string `mapstructure:"web_orders"`
	AppOrders string `mapstructure:"app_orders"`
	Items     string `mapstructure:"items"`
	Channels  string `mapstructure:"channels"`
}

type ReportConfig struct {
	Output string `mapstructure:"output"`
}

// WebOrdersPath returns the full path of the web-channel orders snapshot.
func (d *DataConfig) WebOrdersPath() string { return filepath.Join(d.Dir, d.WebOrders) }

// AppOrdersPath returns the full path of the app-channel orders snapshot.
func (d *DataConfig) AppOrdersPath() string { return filepath.Join(d.Dir, d.AppOrders) }

// ItemsPath returns the full path of the line-item detail snapshot.
func (d *DataConfig) ItemsPath() string { return filepath.Join(d.Dir, d.Items) }

// ChannelsPath returns the full path of the channel lookup snapshot.
func (d *DataConfig) ChannelsPath() string { return filepath.Join(d.Dir, d.Channels) }

// LoadConfig loads configuration from config.yaml and environment variables
func LoadConfig() (*Config, error) {
	v := viper.New()

	// Set config file locations
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./deploy/")
	v.AddConfigPath("./")
	v.AddConfigPath("$HOME/.ordersight/")
	v.AddConfigPath("/etc/ordersight/")

	// Enable environment variable override with ORDERSIGHT_ prefix
	v.SetEnvPrefix("ORDERSIGHT")
	v.AutomaticEnv()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("data.dir", ".")
	v.SetDefault("data.web_orders", "orders_web.csv")
	v.SetDefault("data.app_orders", "orders_app.csv")
	v.SetDefault("data.items", "items.csv")
	v.SetDefault("data.channels", "channels.csv")
	v.SetDefault("report.output", "orders_report.xlsx")

	// Read config file; a missing file is fine, defaults and env cover
	// everything except the optional database DSN.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}
