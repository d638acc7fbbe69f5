package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config holds everything the service reads from the environment or an
// optional config.yaml next to the binary. Credentials are opaque here;
// the service passes them through and never manages them.
type Config struct {
	Port          string
	YouTubeAPIKey string
	OpenAIAPIKey  string
	OpenAIModel   string
	MongoURI      string
	NATSUrl       string
	YtDlpPath     string
	DefaultSample string
}

// Load reads configuration via viper (env first, config file as a
// fallback) and exits when a required credential is missing.
func Load() *Config {
	v := viper.New()
	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	v.SetDefault("port", "8080")
	v.SetDefault("openai_model", "gpt-4o-mini")
	v.SetDefault("mongo_uri", "mongodb://localhost:27017")
	v.SetDefault("nats_url", "nats://localhost:4222")
	v.SetDefault("ytdlp_path", "yt-dlp")
	v.SetDefault("default_sample", "all")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("[WARN] Failed to read config file: %v", err)
		}
	}

	cfg := &Config{
		Port:          v.GetString("port"),
		YouTubeAPIKey: v.GetString("youtube_api_key"),
		OpenAIAPIKey:  v.GetString("openai_api_key"),
		OpenAIModel:   v.GetString("openai_model"),
		MongoURI:      v.GetString("mongo_uri"),
		NATSUrl:       v.GetString("nats_url"),
		YtDlpPath:     v.GetString("ytdlp_path"),
		DefaultSample: v.GetString("default_sample"),
	}

	if cfg.YouTubeAPIKey == "" {
		log.Fatal("YOUTUBE_API_KEY not set")
	}
	if cfg.OpenAIAPIKey == "" {
		log.Fatal("OPENAI_API_KEY not set")
	}
	return cfg
}
