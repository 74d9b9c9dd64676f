package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "VIDEOSYNC"

type Config struct {
	Mode       string `mapstructure:"mode"`
	Port       int    `mapstructure:"port"`
	StaticPath string `mapstructure:"static_path"`
	UploadPath string `mapstructure:"upload_path"`
	DataPath   string `mapstructure:"data_path"`
	Secret     string `mapstructure:"secret"`

	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	WriteWait  time.Duration `mapstructure:"write_wait"`
	SendBuffer int           `mapstructure:"send_buffer"`

	Backpressure string `mapstructure:"backpressure"`
	StrictRoles  bool   `mapstructure:"strict_roles"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	ClientLogLimit    int           `mapstructure:"client_log_limit"`
	ClientLogInterval time.Duration `mapstructure:"client_log_interval"`
	MaxUploadMB       int64         `mapstructure:"max_upload_mb"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("upload_path", "./uploads")
	v.SetDefault("data_path", "./data")
	v.SetDefault("secret", "videosync-dev-secret")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("write_wait", "10s")
	v.SetDefault("send_buffer", 64)
	v.SetDefault("backpressure", "drop")
	v.SetDefault("strict_roles", false)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("client_log_limit", 20)
	v.SetDefault("client_log_interval", "10s")
	v.SetDefault("max_upload_mb", 512)
}

// Load resolves the configuration from, lowest precedence first: defaults,
// config/config.<CONFIG_ENV>.yaml (or --config), a .env file, VIDEOSYNC_*
// environment variables and command line flags.
func Load(args []string) (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Str("module", "config").Msg("failed to read .env")
	}

	fs := pflag.NewFlagSet("videosync", pflag.ContinueOnError)
	fs.String("config", "", "path to a YAML config file")
	fs.Int("port", 8080, "HTTP listen port")
	fs.String("mode", "release", "gin mode: debug or release")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlag("port", fs.Lookup("port")); err != nil {
		return nil, fmt.Errorf("bind port flag: %w", err)
	}
	if err := v.BindPFlag("mode", fs.Lookup("mode")); err != nil {
		return nil, fmt.Errorf("bind mode flag: %w", err)
	}

	fileName, _ := fs.GetString("config")
	if fileName == "" {
		env := os.Getenv("CONFIG_ENV")
		if env == "" {
			env = "dev"
		}
		fileName = fmt.Sprintf("config/config.%s.yaml", env)
	}

	if _, err := os.Stat(fileName); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		v.SetConfigFile(fileName)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", fileName, err)
		}
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.Info().Str("module", "config").
		Str("mode", cfg.Mode).
		Int("port", cfg.Port).
		Str("static", cfg.StaticPath).
		Str("backpressure", cfg.Backpressure).
		Msg("config ready")
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	switch c.Mode {
	case "debug", "release", "test":
	default:
		errs = append(errs, fmt.Errorf("unknown mode %q", c.Mode))
	}
	if c.ReadLimit <= 0 {
		errs = append(errs, errors.New("read_limit must be positive"))
	}
	if c.PingPeriod <= 0 {
		errs = append(errs, errors.New("ping_period must be positive"))
	}
	if c.WriteWait <= 0 {
		errs = append(errs, errors.New("write_wait must be positive"))
	}
	if c.SendBuffer <= 0 {
		errs = append(errs, errors.New("send_buffer must be positive"))
	}
	switch c.Backpressure {
	case "drop", "kick":
	default:
		errs = append(errs, fmt.Errorf("unknown backpressure policy %q", c.Backpressure))
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log_level %q", c.LogLevel))
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log_format %q", c.LogFormat))
	}
	if c.ClientLogLimit <= 0 || c.ClientLogInterval <= 0 {
		errs = append(errs, errors.New("client_log_limit and client_log_interval must be positive"))
	}
	if c.MaxUploadMB <= 0 {
		errs = append(errs, errors.New("max_upload_mb must be positive"))
	}
	if c.Secret == "" {
		errs = append(errs, errors.New("secret must not be empty"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// ReadDeadline is how long a connection may stay silent before it is
// considered dead; a pong is due every PingPeriod.
func (c *Config) ReadDeadline() time.Duration {
	return c.PingPeriod * 10 / 9
}

func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}
