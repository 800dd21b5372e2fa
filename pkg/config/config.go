package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config is the single runtime configuration struct for every binary in the
// engine. It is read from config.yaml in the working directory and may be
// overridden by environment variables (HTTP_SERVER_ADDR, DATABASE_HOST, ...).
type Config struct {
	AppEnv          string `mapstructure:"APP_ENV"`
	AppName         string `mapstructure:"APP_NAME"`
	AppVersion      string `mapstructure:"APP_VERSION"`
	SnowflakeNodeID int64  `mapstructure:"SNOWFLAKE_NODE_ID"`
	Pyroscope       struct {
		Addr string `mapstructure:"ADDR"`
	} `mapstructure:"PYROSCOPE"`
	Server struct {
		Addr         string        `mapstructure:"ADDR"`
		ReadTimeout  time.Duration `mapstructure:"READ_TIMEOUT"`
		WriteTimeout time.Duration `mapstructure:"WRITE_TIMEOUT"`
	} `mapstructure:"HTTP_SERVER"`
	Database struct {
		Type           string `mapstructure:"TYPE"`
		Host           string `mapstructure:"HOST"`
		Port           string `mapstructure:"PORT"`
		DBNAME         string `mapstructure:"DBNAME"`
		User           string `mapstructure:"USER"`
		Password       string `mapstructure:"PASSWORD"`
		SSLMode        string `mapstructure:"SSLMODE"`
		Timezone       string `mapstructure:"TIMEZONE"`
		ConnectionPool struct {
			MaxIdleConn     int           `mapstructure:"MAX_IDLE_CONN"`
			MaxOpenConns    int           `mapstructure:"MAX_OPEN_CONNS"`
			ConnMaxLifetime time.Duration `mapstructure:"CONN_MAX_LIFETIME"`
			ConnMaxIdleTime time.Duration `mapstructure:"CONN_MAX_IDLE_TIME"`
		} `mapstructure:"CONNECTION_POOL"`
	} `mapstructure:"DATABASE"`
	Redis struct {
		Addr        string        `mapstructure:"ADDR"`
		Password    string        `mapstructure:"PASSWORD"`
		DB          int           `mapstructure:"DB"`
		PoolSize    int           `mapstructure:"POOL_SIZE"`
		PoolTimeout time.Duration `mapstructure:"POOL_TIMEOUT"`
	} `mapstructure:"REDIS"`
	AccessControl struct {
		Model  string `mapstructure:"MODEL"`
		Policy string `mapstructure:"POLICY"`
	} `mapstructure:"ACCESS_CONTROL"`
	Engine struct {
		DistributionLockTTL  time.Duration `mapstructure:"DISTRIBUTION_LOCK_TTL"`
		ScorePassHour        int           `mapstructure:"SCORE_PASS_HOUR"`
		ScorePassMinute      int           `mapstructure:"SCORE_PASS_MINUTE"`
		ScorePassParallelism int           `mapstructure:"SCORE_PASS_PARALLELISM"`
	} `mapstructure:"ENGINE"`
}

var Module = fx.Module("config", fx.Provide(LoadConfig))

func LoadConfig() *Config {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		zap.L().Error("failed to read config", zap.Error(err))
		os.Exit(1)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		zap.L().Error("failed to unmarshal config", zap.Error(err))
		os.Exit(1)
	}

	applyDefaults(&cfg)

	return &cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Engine.DistributionLockTTL == 0 {
		cfg.Engine.DistributionLockTTL = 2 * time.Minute
	}
	if cfg.Engine.ScorePassParallelism <= 0 {
		cfg.Engine.ScorePassParallelism = 4
	}
	if cfg.AccessControl.Model == "" {
		cfg.AccessControl.Model = "access/model.conf"
	}
	if cfg.AccessControl.Policy == "" {
		cfg.AccessControl.Policy = "access/policy.csv"
	}
}
