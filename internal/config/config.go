package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const (
	SourceSignal   = "signal"
	SourceLoopback = "loopback"
)

type Config struct {
	Mode       string `mapstructure:"mode"`
	Port       int    `mapstructure:"port"`
	StaticPath string `mapstructure:"static_path"`
	Secret     string `mapstructure:"secret"`
	LogLevel   string `mapstructure:"log_level"`

	Source      string        `mapstructure:"source"`
	ServerURL   string        `mapstructure:"server_url"`
	ReadLimit   int64         `mapstructure:"read_limit"`
	PingPeriod  time.Duration `mapstructure:"ping_period"`
	JoinTimeout time.Duration `mapstructure:"join_timeout"`

	ICEServers []string `mapstructure:"ice_servers"`
	VideoCodec string   `mapstructure:"video_codec"`
	Audio      bool     `mapstructure:"audio"`
	Video      bool     `mapstructure:"video"`

	// LoopbackPeers are the scripted participants of the loopback source.
	LoopbackPeers []string `mapstructure:"loopback_peers"`
}

// Load reads .env (if any), then config/config.<CONFIG_ENV>.yaml, then
// QUICKSTART_* environment overrides.
func Load() (*Config, error) {
	if err := godotenv.Load(); err == nil {
		log.Info().Str("module", "config").Msg("loaded .env")
	}

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	return load(fmt.Sprintf("config/config.%s.yaml", env))
}

func load(fileName string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(fileName)

	v.SetEnvPrefix("QUICKSTART")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("secret", "quickstart-dev-secret")
	v.SetDefault("log_level", "info")
	v.SetDefault("source", SourceLoopback)
	v.SetDefault("server_url", "ws://localhost:8081/api/ws/signal")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("join_timeout", "10s")
	v.SetDefault("ice_servers", []string{"stun:stun.l.google.com:19302"})
	v.SetDefault("video_codec", "vp8")
	v.SetDefault("audio", true)
	v.SetDefault("video", true)
	v.SetDefault("loopback_peers", []string{})

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Source != SourceSignal && cfg.Source != SourceLoopback {
		return nil, fmt.Errorf("unknown source %q", cfg.Source)
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Str("source", cfg.Source).Msg("config ready")
	return &cfg, nil
}
