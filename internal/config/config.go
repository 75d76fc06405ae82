// internal/config/config.go
package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Database struct {
		URL string `mapstructure:"url"`
	} `mapstructure:"database"`
	Server struct {
		Port string `mapstructure:"port"`
	} `mapstructure:"server"`
	JWT struct {
		SecretKey     string `mapstructure:"secret_key"`
		ExpiryMinutes int    `mapstructure:"expiry_minutes"`
	} `mapstructure:"jwt"`
	Admin struct {
		// 管理API・X-Tenant-Override の利用に必要なAPIキー
		APIKey string `mapstructure:"api_key"`
	} `mapstructure:"admin"`
	Partition struct {
		// デコミッション後、アーカイブまでの猶予期間（秒）。運用側で調整可能。
		GracePeriodSeconds int `mapstructure:"grace_period_seconds"`
	} `mapstructure:"partition"`
	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
	CORS struct {
		AllowedOrigins   []string `mapstructure:"allowed_origins"`
		AllowedMethods   []string `mapstructure:"allowed_methods"`
		AllowedHeaders   []string `mapstructure:"allowed_headers"`
		ExposedHeaders   []string `mapstructure:"exposed_headers"`
		AllowCredentials bool     `mapstructure:"allow_credentials"`
		MaxAge           int      `mapstructure:"max_age"`
	} `mapstructure:"cors"`
}

// GracePeriod は猶予期間を time.Duration で返します
func (c *Config) GracePeriod() time.Duration {
	return time.Duration(c.Partition.GracePeriodSeconds) * time.Second
}

// TokenExpiry はトークン有効期間を time.Duration で返します
func (c *Config) TokenExpiry() time.Duration {
	return time.Duration(c.JWT.ExpiryMinutes) * time.Minute
}

var Cfg Config

func LoadConfig(path string) error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(path)
	viper.AddConfigPath(".")

	// 環境変数での上書き (例: APP_JWT_SECRET_KEY)
	viper.SetEnvPrefix("APP")
	viper.AutomaticEnv()
	viper.BindEnv("database.url", "DATABASE_URL")
	viper.BindEnv("jwt.secret_key", "JWT_SECRET_KEY")
	viper.BindEnv("admin.api_key", "ADMIN_API_KEY")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("Warning: Config file not found. Using default settings or environment variables if available.")
		} else {
			log.Printf("Error reading config file: %s\n", err)
			return err
		}
	}

	err := viper.Unmarshal(&Cfg)
	if err != nil {
		log.Printf("Error unmarshalling config: %s\n", err)
		return err
	}

	// --- デフォルト値の設定 ---
	if Cfg.Server.Port == "" {
		log.Println("Server port not set, using default ':8080'")
		Cfg.Server.Port = ":8080"
	}
	if Cfg.JWT.ExpiryMinutes <= 0 {
		log.Println("JWT expiry not set or invalid, using default '60'")
		Cfg.JWT.ExpiryMinutes = 60
	}
	if Cfg.Partition.GracePeriodSeconds <= 0 {
		// 既定は24時間。テストや運用ツールから短縮可能。
		log.Println("Partition grace period not set, using default '86400'")
		Cfg.Partition.GracePeriodSeconds = 86400
	}
	if Cfg.Database.URL == "" {
		log.Println("Warning: Database URL is not set in config.")
	}
	if Cfg.JWT.SecretKey == "" {
		log.Println("Warning: JWT secret key is not set in config.")
	}
	if Cfg.Admin.APIKey == "" {
		log.Println("Warning: Admin API key is not set; admin endpoints and tenant override are disabled.")
	}

	log.Println("Config loaded successfully")
	log.Printf("Server Port: %s", Cfg.Server.Port)
	log.Printf("Token Expiry: %d min", Cfg.JWT.ExpiryMinutes)
	log.Printf("Partition Grace Period: %ds", Cfg.Partition.GracePeriodSeconds)

	return nil
}
