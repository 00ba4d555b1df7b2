package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Redis      RedisConfig
	Storage    StorageConfig
	Upload     UploadConfig
	Separation SeparationConfig
	Worker     WorkerConfig
}

type ServerConfig struct {
	Port string `validate:"required"`
	Env  string
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

type StorageConfig struct {
	Root string `validate:"required"`
}

type UploadConfig struct {
	MaxBytes int64 `validate:"min=1"`
}

type SeparationConfig struct {
	BinPath string `validate:"required"`
	Device  string `validate:"oneof=cpu cuda"`
}

type WorkerConfig struct {
	Concurrency int `validate:"min=1"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Environment variables
	viper.AutomaticEnv()

	// Defaults
	viper.SetDefault("server.port", "8000")
	viper.SetDefault("server.env", "development")
	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("storage.root", "./data")
	viper.SetDefault("upload.max_bytes", 100*1024*1024)
	viper.SetDefault("separation.bin", "demucs")
	viper.SetDefault("separation.device", "cpu")
	viper.SetDefault("worker.concurrency", 10)

	// Try to read config file (optional)
	_ = viper.ReadInConfig()

	cfg := &Config{
		Server: ServerConfig{
			Port: viper.GetString("server.port"),
			Env:  viper.GetString("server.env"),
		},
		Redis: RedisConfig{
			Enabled:  viper.GetBool("redis.enabled"),
			Addr:     viper.GetString("redis.addr"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		Storage: StorageConfig{
			Root: viper.GetString("storage.root"),
		},
		Upload: UploadConfig{
			MaxBytes: viper.GetInt64("upload.max_bytes"),
		},
		Separation: SeparationConfig{
			BinPath: viper.GetString("separation.bin"),
			Device:  viper.GetString("separation.device"),
		},
		Worker: WorkerConfig{
			Concurrency: viper.GetInt("worker.concurrency"),
		},
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}
