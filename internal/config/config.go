package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// FileName is the optional JSON config file looked up in the config dir.
const FileName = "plot_planning.cfg.json"

// EnvPrefix prefixes environment overrides, e.g. PLOT_PLANNING_REDRAW_INTERVAL.
const EnvPrefix = "PLOT_PLANNING"

// Config is the typed, validated view of the viper settings.
type Config struct {
	LogLevel  string          `mapstructure:"logLevel" validate:"oneof=debug info warn error DEBUG INFO WARN ERROR"`
	LogsDir   string          `mapstructure:"logsDir" validate:"required"`
	Map       MapConfig       `mapstructure:"map"`
	Redraw    RedrawConfig    `mapstructure:"redraw"`
	Pools     PoolConfig      `mapstructure:"pools"`
	Planning  PlanningConfig  `mapstructure:"planning"`
	Topics    TopicsConfig    `mapstructure:"topics"`
	Transport TransportConfig `mapstructure:"transport"`
	Graylog   GraylogConfig   `mapstructure:"graylog"`
	OTel      OTelConfig      `mapstructure:"otel"`
}

// MapConfig selects the lane map and its optional reprojection.
// SourceEPSG 0 leaves coordinates untouched.
type MapConfig struct {
	Path       string `mapstructure:"path" validate:"required"`
	SourceEPSG int    `mapstructure:"sourceEPSG" validate:"gte=0"`
	TargetEPSG int    `mapstructure:"targetEPSG" validate:"required_with=SourceEPSG"`
}

// RedrawConfig holds the display refresh cadence.
type RedrawConfig struct {
	Interval time.Duration `mapstructure:"interval" validate:"gt=0"`
}

// PoolConfig holds the primitive pool capacities. They are fixed once the
// display is built.
type PoolConfig struct {
	Path     int `mapstructure:"path" validate:"gte=1"`
	Speed    int `mapstructure:"speed" validate:"gte=1"`
	ST       int `mapstructure:"st" validate:"gte=1"`
	Obstacle int `mapstructure:"obstacle" validate:"gte=1"`
}

// PlanningConfig tunes the planning projections.
type PlanningConfig struct {
	MaxPathPoints int `mapstructure:"maxPathPoints" validate:"gte=0"`
}

// TopicsConfig names the two inbound channels.
type TopicsConfig struct {
	Planning     string `mapstructure:"planning" validate:"required"`
	Localization string `mapstructure:"localization" validate:"required"`
}

// TransportConfig selects and configures the message source.
type TransportConfig struct {
	Type       string       `mapstructure:"type" validate:"oneof=websocket replay"`
	URL        string       `mapstructure:"url" validate:"required_if=Type websocket"`
	Secret     string       `mapstructure:"secret"`
	BufferSize int          `mapstructure:"bufferSize" validate:"gte=1"`
	Replay     ReplayConfig `mapstructure:"replay"`
}

// ReplayConfig configures playback of a recorded envelope log.
type ReplayConfig struct {
	File string  `mapstructure:"file"`
	Rate float64 `mapstructure:"rate" validate:"gt=0"`
	Loop bool    `mapstructure:"loop"`
}

// GraylogConfig enables the GELF log sink.
type GraylogConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address" validate:"required_if=Enabled true"`
}

// OTelConfig holds OpenTelemetry settings.
type OTelConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	ServiceName    string        `mapstructure:"serviceName"`
	BatchTimeout   time.Duration `mapstructure:"batchTimeout"`
	MetricInterval time.Duration `mapstructure:"metricInterval"`
	Endpoint       string        `mapstructure:"endpoint"`
	Insecure       bool          `mapstructure:"insecure"`
}

// ErrReplayFileMissing is returned when the replay transport has no file.
var ErrReplayFileMissing = errors.New("transport.replay.file is required for the replay transport")

// SetDefaults registers the default value of every key.
func SetDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./plot_planning_logs")

	viper.SetDefault("map.path", "")
	viper.SetDefault("map.sourceEPSG", 0)
	viper.SetDefault("map.targetEPSG", 0)

	viper.SetDefault("redraw.interval", "100ms")

	viper.SetDefault("pools.path", 4)
	viper.SetDefault("pools.speed", 4)
	viper.SetDefault("pools.st", 2)
	viper.SetDefault("pools.obstacle", 10)

	viper.SetDefault("planning.maxPathPoints", 0)

	viper.SetDefault("topics.planning", "/apollo/planning")
	viper.SetDefault("topics.localization", "/apollo/localization/pose")

	viper.SetDefault("transport.type", "websocket")
	viper.SetDefault("transport.url", "ws://localhost:8888/stream")
	viper.SetDefault("transport.secret", "")
	viper.SetDefault("transport.bufferSize", 1)
	viper.SetDefault("transport.replay.file", "")
	viper.SetDefault("transport.replay.rate", 1.0)
	viper.SetDefault("transport.replay.loop", false)

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "plot-planning")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.metricInterval", "10s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)
}

// Load sets default values, applies an optional .env file and
// PLOT_PLANNING_* environment overrides, and reads the JSON config file
// from configDir when present. A missing file is not an error.
func Load(configDir string) error {
	SetDefaults()

	envFile := filepath.Join(configDir, ".env")
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("error reading env file: %w", err)
		}
	}

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
}

// Get decodes the current settings and validates them.
func Get() (Config, error) {
	var c Config
	if err := viper.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}

	if err := validator.New().Struct(c); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	if c.Transport.Type == "replay" && c.Transport.Replay.File == "" {
		return Config{}, ErrReplayFileMissing
	}

	return c, nil
}
