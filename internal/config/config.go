// Package config loads service configuration in three layers: built-in
// defaults, an optional YAML file named by CONFIG_FILE, and environment
// variables on top. Environment values win.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full service configuration.
type Config struct {
	Service       ServiceConfig
	Turn          TurnConfig
	Source        SourceConfig
	Kafka         KafkaConfig
	Observability ObservabilityConfig
}

// ServiceConfig holds service identity and listen addresses.
type ServiceConfig struct {
	Principal string
	HTTPPort  string
}

// TurnConfig holds the turn detection timing and cue settings.
type TurnConfig struct {
	SilenceThreshold time.Duration
	TurnTimeout      time.Duration
	RestartDelay     time.Duration
	CuesFile         string
}

// SourceConfig selects and configures the transcription source.
type SourceConfig struct {
	Provider        string // mock, google, local
	Language        string
	SampleRateHz    int
	InterimResults  bool
	MaxAlternatives int
	Continuous      bool
	ModelPath       string // local provider only
}

// KafkaConfig holds event publishing settings.
type KafkaConfig struct {
	Brokers     []string
	TopicUpdate string
	TopicFinal  string
	Principal   string
	Enabled     bool
}

// ObservabilityConfig holds logging and metrics settings.
type ObservabilityConfig struct {
	LogLevel    string
	LogFormat   string
	MetricsPort string
}

// Default returns the built-in configuration. The Kafka principal is left
// empty here; it falls back to the service principal after the overlays.
func Default() *Config {
	return &Config{
		Service: ServiceConfig{
			Principal: "dictation-turn-service",
			HTTPPort:  "8080",
		},
		Turn: TurnConfig{
			SilenceThreshold: 3 * time.Second,
			TurnTimeout:      2 * time.Second,
			RestartDelay:     100 * time.Millisecond,
		},
		Source: SourceConfig{
			Provider:        "mock",
			Language:        "en-US",
			SampleRateHz:    16000,
			InterimResults:  true,
			MaxAlternatives: 1,
			Continuous:      true,
			ModelPath:       "models/vosk-model-small-en-us",
		},
		Kafka: KafkaConfig{
			TopicUpdate: "dictation.turn.update",
			TopicFinal:  "dictation.turn.final",
		},
		Observability: ObservabilityConfig{
			LogLevel:    "info",
			LogFormat:   "json",
			MetricsPort: "9090",
		},
	}
}

// Load reads configuration: defaults, then the YAML file named by
// CONFIG_FILE (if set and readable), then environment variables.
func Load() *Config {
	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		cfg.applyFile(path)
	}
	cfg.applyEnv()
	return cfg
}

// fileConfig mirrors the YAML layout. Durations are strings so the file
// can use "3s" notation; booleans are pointers so an explicit false is
// distinguishable from an absent key.
type fileConfig struct {
	Service struct {
		Principal string `yaml:"principal"`
		HTTPPort  string `yaml:"http_port"`
	} `yaml:"service"`
	Turn struct {
		SilenceThreshold string `yaml:"silence_threshold"`
		TurnTimeout      string `yaml:"turn_timeout"`
		RestartDelay     string `yaml:"restart_delay"`
		CuesFile         string `yaml:"cues_file"`
	} `yaml:"turn"`
	Source struct {
		Provider        string `yaml:"provider"`
		Language        string `yaml:"language"`
		SampleRateHz    int    `yaml:"sample_rate_hz"`
		InterimResults  *bool  `yaml:"interim_results"`
		MaxAlternatives int    `yaml:"max_alternatives"`
		Continuous      *bool  `yaml:"continuous"`
		ModelPath       string `yaml:"model_path"`
	} `yaml:"source"`
	Kafka struct {
		Brokers     []string `yaml:"brokers"`
		TopicUpdate string   `yaml:"topic_update"`
		TopicFinal  string   `yaml:"topic_final"`
		Principal   string   `yaml:"principal"`
		Enabled     *bool    `yaml:"enabled"`
	} `yaml:"kafka"`
	Observability struct {
		LogLevel    string `yaml:"log_level"`
		LogFormat   string `yaml:"log_format"`
		MetricsPort string `yaml:"metrics_port"`
	} `yaml:"observability"`
}

// applyFile overlays values from a YAML file. An unreadable or malformed
// file leaves the current configuration untouched.
func (c *Config) applyFile(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	var f fileConfig
	if err := yaml.Unmarshal(data, &f); err != nil {
		return
	}

	setString(&c.Service.Principal, f.Service.Principal)
	setString(&c.Service.HTTPPort, f.Service.HTTPPort)

	setDuration(&c.Turn.SilenceThreshold, f.Turn.SilenceThreshold)
	setDuration(&c.Turn.TurnTimeout, f.Turn.TurnTimeout)
	setDuration(&c.Turn.RestartDelay, f.Turn.RestartDelay)
	setString(&c.Turn.CuesFile, f.Turn.CuesFile)

	setString(&c.Source.Provider, f.Source.Provider)
	setString(&c.Source.Language, f.Source.Language)
	setInt(&c.Source.SampleRateHz, f.Source.SampleRateHz)
	setBool(&c.Source.InterimResults, f.Source.InterimResults)
	setInt(&c.Source.MaxAlternatives, f.Source.MaxAlternatives)
	setBool(&c.Source.Continuous, f.Source.Continuous)
	setString(&c.Source.ModelPath, f.Source.ModelPath)

	if len(f.Kafka.Brokers) > 0 {
		c.Kafka.Brokers = f.Kafka.Brokers
	}
	setString(&c.Kafka.TopicUpdate, f.Kafka.TopicUpdate)
	setString(&c.Kafka.TopicFinal, f.Kafka.TopicFinal)
	setString(&c.Kafka.Principal, f.Kafka.Principal)
	setBool(&c.Kafka.Enabled, f.Kafka.Enabled)

	setString(&c.Observability.LogLevel, f.Observability.LogLevel)
	setString(&c.Observability.LogFormat, f.Observability.LogFormat)
	setString(&c.Observability.MetricsPort, f.Observability.MetricsPort)
}

// applyEnv overlays environment variables on top of the current values.
func (c *Config) applyEnv() {
	c.Service.Principal = envOrDefault("SERVICE_PRINCIPAL", c.Service.Principal)
	c.Service.HTTPPort = envOrDefault("HTTP_PORT", c.Service.HTTPPort)

	c.Turn.SilenceThreshold = envOrDefaultDuration("TURN_SILENCE_THRESHOLD", c.Turn.SilenceThreshold)
	c.Turn.TurnTimeout = envOrDefaultDuration("TURN_DETECTION_TIMEOUT", c.Turn.TurnTimeout)
	c.Turn.RestartDelay = envOrDefaultDuration("TURN_RESTART_DELAY", c.Turn.RestartDelay)
	c.Turn.CuesFile = envOrDefault("TURN_CUES_FILE", c.Turn.CuesFile)

	c.Source.Provider = envOrDefault("SOURCE_PROVIDER", c.Source.Provider)
	c.Source.Language = envOrDefault("SOURCE_LANGUAGE_CODE", c.Source.Language)
	c.Source.SampleRateHz = envOrDefaultInt("SOURCE_SAMPLE_RATE_HZ", c.Source.SampleRateHz)
	c.Source.InterimResults = envOrDefaultBool("SOURCE_INTERIM_RESULTS", c.Source.InterimResults)
	c.Source.MaxAlternatives = envOrDefaultInt("SOURCE_MAX_ALTERNATIVES", c.Source.MaxAlternatives)
	c.Source.Continuous = envOrDefaultBool("SOURCE_CONTINUOUS", c.Source.Continuous)
	c.Source.ModelPath = envOrDefault("SOURCE_MODEL_PATH", c.Source.ModelPath)

	c.Kafka.Brokers = envOrDefaultSlice("KAFKA_BROKERS", c.Kafka.Brokers)
	c.Kafka.TopicUpdate = envOrDefault("KAFKA_TOPIC_TURN_UPDATE", c.Kafka.TopicUpdate)
	c.Kafka.TopicFinal = envOrDefault("KAFKA_TOPIC_TURN_FINAL", c.Kafka.TopicFinal)
	c.Kafka.Principal = envOrDefault("KAFKA_PRINCIPAL", c.Kafka.Principal)
	c.Kafka.Enabled = envOrDefaultBool("KAFKA_ENABLED", c.Kafka.Enabled)
	if c.Kafka.Principal == "" {
		c.Kafka.Principal = c.Service.Principal
	}

	c.Observability.LogLevel = envOrDefault("LOG_LEVEL", c.Observability.LogLevel)
	c.Observability.LogFormat = envOrDefault("LOG_FORMAT", c.Observability.LogFormat)
	c.Observability.MetricsPort = envOrDefault("METRICS_PORT", c.Observability.MetricsPort)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v string) {
	if v == "" {
		return
	}
	if d, err := time.ParseDuration(v); err == nil {
		*dst = d
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envOrDefaultBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(strings.ToLower(v))
	if err != nil {
		return def
	}
	return b
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func envOrDefaultSlice(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
