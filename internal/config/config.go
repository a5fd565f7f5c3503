package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Bus       BusConfig       `mapstructure:"bus"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Lifecycle LifecycleConfig `mapstructure:"lifecycle"`
	Bank      BankConfig      `mapstructure:"bank"`
	BankStub  BankStubConfig  `mapstructure:"bankstub"`
}

type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Host string `mapstructure:"host"`
}

// BusConfig selects the event bus driver: "memory" for a single process,
// "redis" for pub/sub across processes.
type BusConfig struct {
	Driver string `mapstructure:"driver"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type LifecycleConfig struct {
	Tick time.Duration `mapstructure:"tick"`
}

// BankConfig is the core's view of the settlement party: "embedded" runs the
// stub in-process, "http" talks to a standalone bankstub.
type BankConfig struct {
	Mode string `mapstructure:"mode"`
	URL  string `mapstructure:"url"`
}

// BankStubConfig drives both the embedded stub and the standalone server.
type BankStubConfig struct {
	Port             int           `mapstructure:"port"`
	CallbackURL      string        `mapstructure:"callback_url"`
	SettlementDelay  time.Duration `mapstructure:"settlement_delay"`
	SettlementStatus string        `mapstructure:"settlement_status"`
}

func Load() (*Config, error) {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("bus.driver", "memory")
	viper.SetDefault("redis.address", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("lifecycle.tick", time.Second)
	viper.SetDefault("bank.mode", "embedded")
	viper.SetDefault("bank.url", "http://localhost:8081")
	viper.SetDefault("bankstub.port", 8081)
	viper.SetDefault("bankstub.callback_url", "http://localhost:8080/api/v1/payments/callback")
	viper.SetDefault("bankstub.settlement_delay", 5*time.Second)
	viper.SetDefault("bankstub.settlement_status", "approved")

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/auctionhall/")

	viper.AutomaticEnv()

	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.host", "SERVER_HOST")
	viper.BindEnv("bus.driver", "BUS_DRIVER")
	viper.BindEnv("redis.address", "REDIS_ADDRESS")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")
	viper.BindEnv("lifecycle.tick", "LIFECYCLE_TICK")
	viper.BindEnv("bank.mode", "BANK_MODE")
	viper.BindEnv("bank.url", "BANK_URL")
	viper.BindEnv("bankstub.port", "BANKSTUB_PORT")
	viper.BindEnv("bankstub.callback_url", "BANKSTUB_CALLBACK_URL")
	viper.BindEnv("bankstub.settlement_delay", "BANKSTUB_SETTLEMENT_DELAY")
	viper.BindEnv("bankstub.settlement_status", "BANKSTUB_SETTLEMENT_STATUS")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// No config file: defaults and environment variables apply.
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
